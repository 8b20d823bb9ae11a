package wasm

// Module represents a parsed WebAssembly module. Function bodies stay
// as raw bytes.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // Type indices for declared functions
	Tables   []TableType
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Elements []Element
	Code     []FuncBody
	Data     []DataSegment

	// DataCount holds the count from the DataCount section (ID 12).
	DataCount *uint32

	// Tags holds exception handling tags (ID 13).
	Tags []TagType

	CustomSections []CustomSection

	// Sections lists every section in file order. It is filled by
	// ParseModule and left empty for modules built in memory.
	Sections []SectionHeader
}

// SectionHeader locates one section within the module binary.
type SectionHeader struct {
	// Offset is the position of the section ID byte.
	Offset int
	// Size is the payload size in bytes, excluding the ID and size prefix.
	Size uint32
	// Index is the position within the per-kind slice the section populated.
	// For custom sections it indexes CustomSections; otherwise it is zero.
	Index int
	ID    byte
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Uses reports whether t appears among the params or results.
func (f *FuncType) Uses(t ValType) bool {
	for _, p := range f.Params {
		if p == t {
			return true
		}
	}
	for _, r := range f.Results {
		if r == t {
			return true
		}
	}
	return false
}

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	case ValExnRef:
		return "exnref"
	default:
		return "unknown"
	}
}

// Import represents an imported function, table, memory, global, or tag.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
// Kind uses KindFunc, KindTable, KindMemory, KindGlobal, or KindTag constants.
type ImportDesc struct {
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
	Tag     *TagType
	TypeIdx uint32
	Kind    byte
}

// TableType describes a table with element type and size limits.
type TableType struct {
	Limits   Limits
	Init     []byte // form 0x40 0x00 only
	ElemType ValType
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for tables and memories.
type Limits struct {
	Max      *uint64
	Min      uint64
	Shared   bool
	Memory64 bool
}

// GlobalType describes a global variable's type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global represents a global variable with type and initialization.
type Global struct {
	Type GlobalType
	Init []byte // Raw init expression bytes including end
}

// TagType describes an exception handling tag type.
type TagType struct {
	Attribute byte
	TypeIdx   uint32
}

// Export describes an exported item.
// Kind uses KindFunc, KindTable, KindMemory, KindGlobal, or KindTag constants.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Element represents an element segment. Flags is the segment's binary
// form (0-7); forms 4-7 carry Exprs instead of FuncIdxs.
type Element struct {
	Offset   []byte
	FuncIdxs []uint32
	Exprs    [][]byte
	Flags    uint32
	TableIdx uint32
	ElemKind byte
	Type     ValType
}

// FuncBody represents a function's local declarations and bytecode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw code bytes including end opcode
	// Offset is the absolute position of Code in the parsed binary.
	Offset int
}

// LocalEntry represents a group of local variables with the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// DataSegment represents a data segment. Flags 1 marks a passive segment.
type DataSegment struct {
	Offset []byte
	Init   []byte
	Flags  uint32
	MemIdx uint32
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

func (m *Module) countImports(kind byte) int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == kind {
			count++
		}
	}
	return count
}

// NumImportedFuncs returns the number of imported functions.
func (m *Module) NumImportedFuncs() int { return m.countImports(KindFunc) }

// NumImportedGlobals returns the number of imported globals.
func (m *Module) NumImportedGlobals() int { return m.countImports(KindGlobal) }

// NumImportedTables returns the number of imported tables.
func (m *Module) NumImportedTables() int { return m.countImports(KindTable) }

// NumImportedMemories returns the number of imported memories.
func (m *Module) NumImportedMemories() int { return m.countImports(KindMemory) }
