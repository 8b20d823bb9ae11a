package wasm

import (
	"errors"
	"fmt"

	"github.com/wippyai/wasm-stats/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
	// ErrUnsupported marks constructs the decoder recognizes but does not model,
	// such as GC type definitions and typed references.
	ErrUnsupported = errors.New("unsupported construct")
	// ErrTrailingBytes is returned when a section payload is not fully consumed.
	ErrTrailingBytes = errors.New("section size mismatch")
)

// ParseError carries the section name and absolute position of a decode
// failure. Errors returned by ParseModule can be inspected with errors.As.
type ParseError = binary.ParseError

type sectionParser func(r *binary.Reader, m *Module) error

var sectionParsers = map[byte]sectionParser{
	SectionType:      parseTypeSection,
	SectionImport:    parseImportSection,
	SectionFunction:  parseFunctionSection,
	SectionTable:     parseTableSection,
	SectionMemory:    parseMemorySection,
	SectionGlobal:    parseGlobalSection,
	SectionExport:    parseExportSection,
	SectionStart:     parseStartSection,
	SectionElement:   parseElementSection,
	SectionCode:      parseCodeSection,
	SectionData:      parseDataSection,
	SectionDataCount: parseDataCountSection,
	SectionTag:       parseTagSection,
}

// ParseModule parses a WebAssembly binary module.
//
// Function bodies are not decoded. Every section read is recorded in
// Module.Sections in file order.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}

	// Canonical order differs from ID order: Tag sits between Memory and
	// Global, DataCount between Element and Code.
	var lastSectionOrder int

	for r.Len() > 0 {
		offset := r.Position()
		sectionID, _ := r.ReadByte()

		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order == 0 {
				return nil, r.WrapError("section header", fmt.Errorf("unknown section ID: 0x%02x", sectionID))
			}
			if order <= lastSectionOrder {
				return nil, r.WrapError("section header", fmt.Errorf("%s section appears out of order", SectionName(sectionID)))
			}
			lastSectionOrder = order
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		sr, err := r.Sub(int(sectionSize))
		if err != nil {
			return nil, r.WrapError(SectionName(sectionID)+" section", err)
		}

		hdr := SectionHeader{ID: sectionID, Offset: offset, Size: sectionSize}
		if sectionID == SectionCustom {
			hdr.Index = len(m.CustomSections)
			err = parseCustomSection(sr, m)
		} else {
			err = sectionParsers[sectionID](sr, m)
			if err == nil && sr.Len() != 0 {
				err = fmt.Errorf("%w: %d unread bytes", ErrTrailingBytes, sr.Len())
			}
		}
		if err != nil {
			return nil, sr.WrapError(SectionName(sectionID)+" section", err)
		}
		m.Sections = append(m.Sections, hdr)
	}

	if len(m.Funcs) != len(m.Code) {
		return nil, fmt.Errorf("function and code section counts differ: %d != %d", len(m.Funcs), len(m.Code))
	}

	return m, nil
}

// sectionOrder returns the canonical position of a known non-custom section, or 0.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionTag:
		return 6
	case SectionGlobal:
		return 7
	case SectionExport:
		return 8
	case SectionStart:
		return 9
	case SectionElement:
		return 10
	case SectionDataCount:
		return 11
	case SectionCode:
		return 12
	case SectionData:
		return 13
	default:
		return 0
	}
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: r.ReadRemaining(),
	})
	return nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("read type form at index %d: %w", i, err)
		}
		switch form {
		case FuncTypeByte:
		case recTypeByte, subTypeByte, subFinalByte, structTypeByte, arrayTypeByte:
			return fmt.Errorf("%w: GC type form 0x%02x at index %d", ErrUnsupported, form, i)
		default:
			return fmt.Errorf("unknown type form 0x%02x at index %d", form, i)
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(count) > r.Len() {
		return nil, fmt.Errorf("value type count %d exceeds section", count)
	}
	types := make([]ValType, count)
	for i := range types {
		types[i], err = readValType(r)
		if err != nil {
			return nil, err
		}
	}
	return types, nil
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch t := ValType(b); t {
	case ValI32, ValI64, ValF32, ValF64, ValV128, ValFuncRef, ValExtern, ValExnRef:
		return t, nil
	case valRefNull, valRef:
		return 0, fmt.Errorf("%w: typed reference 0x%02x", ErrUnsupported, b)
	default:
		return 0, fmt.Errorf("invalid value type 0x%02x", b)
	}
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Imports = make([]Import, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}

		imp := Import{Module: module, Name: name, Desc: ImportDesc{Kind: kind}}

		switch kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = r.ReadU32()
		case KindTable:
			var table TableType
			table, err = readTableType(r)
			imp.Desc.Table = &table
		case KindMemory:
			var memory MemoryType
			memory, err = readMemoryType(r)
			imp.Desc.Memory = &memory
		case KindGlobal:
			var global GlobalType
			global, err = readGlobalType(r)
			imp.Desc.Global = &global
		case KindTag:
			var tag TagType
			tag, err = readTagType(r)
			imp.Desc.Tag = &tag
		default:
			return fmt.Errorf("unknown import kind: %d", kind)
		}
		if err != nil {
			return fmt.Errorf("import %s.%s: %w", module, name, err)
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Funcs = append(m.Funcs, idx)
	}
	return nil
}

func parseTableSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		t, err := readTableType(r)
		if err != nil {
			return err
		}
		m.Tables = append(m.Tables, t)
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		mt, err := readMemoryType(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, mt)
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		globalType, err := readGlobalType(r)
		if err != nil {
			return err
		}
		init, err := readInitExpr(r)
		if err != nil {
			return fmt.Errorf("global %d init: %w", i, err)
		}
		m.Globals = append(m.Globals, Global{Type: globalType, Init: init})
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindTag {
			return fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func parseElementSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > 7 {
			return fmt.Errorf("invalid element segment flags: %d", flags)
		}

		elem := Element{Flags: flags, Type: ValFuncRef}

		// bit 0 non-active, bit 1 table index or declarative, bit 2 exprs
		active := flags&0x01 == 0
		usesExprs := flags&0x04 != 0

		if active && flags&0x02 != 0 {
			if elem.TableIdx, err = r.ReadU32(); err != nil {
				return err
			}
		}
		if active {
			if elem.Offset, err = readInitExpr(r); err != nil {
				return err
			}
		}
		if flags&0x03 != 0 {
			if usesExprs {
				if elem.Type, err = readValType(r); err != nil {
					return err
				}
			} else if elem.ElemKind, err = r.ReadByte(); err != nil {
				return err
			}
		}

		vecCount, err := r.ReadU32()
		if err != nil {
			return err
		}
		for j := uint32(0); j < vecCount; j++ {
			if usesExprs {
				expr, err := readInitExpr(r)
				if err != nil {
					return err
				}
				elem.Exprs = append(elem.Exprs, expr)
			} else {
				idx, err := r.ReadU32()
				if err != nil {
					return err
				}
				elem.FuncIdxs = append(elem.FuncIdxs, idx)
			}
		}

		m.Elements = append(m.Elements, elem)
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.ReadU32()
		if err != nil {
			return err
		}
		br, err := r.Sub(int(bodySize))
		if err != nil {
			return fmt.Errorf("function body %d: %w", i, err)
		}

		localCount, err := br.ReadU32()
		if err != nil {
			return err
		}
		var locals []LocalEntry
		for j := uint32(0); j < localCount; j++ {
			n, err := br.ReadU32()
			if err != nil {
				return err
			}
			t, err := readValType(br)
			if err != nil {
				return fmt.Errorf("function body %d local: %w", i, err)
			}
			locals = append(locals, LocalEntry{Count: n, ValType: t})
		}

		codeStart := br.Position()
		m.Code = append(m.Code, FuncBody{Locals: locals, Code: br.ReadRemaining(), Offset: codeStart})
	}
	return nil
}

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > 2 {
			return fmt.Errorf("invalid data segment flags: %d", flags)
		}

		seg := DataSegment{Flags: flags}

		// 0: active memory 0, 1: passive, 2: active with explicit memory
		if flags == 2 {
			if seg.MemIdx, err = r.ReadU32(); err != nil {
				return err
			}
		}
		if flags != 1 {
			if seg.Offset, err = readInitExpr(r); err != nil {
				return err
			}
		}

		initLen, err := r.ReadU32()
		if err != nil {
			return err
		}
		if seg.Init, err = r.ReadBytes(int(initLen)); err != nil {
			return err
		}

		m.Data = append(m.Data, seg)
	}
	return nil
}

func parseDataCountSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.DataCount = &count
	return nil
}

func parseTagSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		tag, err := readTagType(r)
		if err != nil {
			return err
		}
		m.Tags = append(m.Tags, tag)
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	if flags&^(LimitsHasMax|LimitsShared|LimitsMemory64) != 0 {
		return Limits{}, fmt.Errorf("invalid limits flags 0x%02x", flags)
	}

	l := Limits{
		Shared:   flags&LimitsShared != 0,
		Memory64: flags&LimitsMemory64 != 0,
	}

	read := func() (uint64, error) {
		if l.Memory64 {
			return r.ReadU64()
		}
		v, err := r.ReadU32()
		return uint64(v), err
	}

	if l.Min, err = read(); err != nil {
		return Limits{}, err
	}
	if flags&LimitsHasMax != 0 {
		maxVal, err := read()
		if err != nil {
			return Limits{}, err
		}
		l.Max = &maxVal
	}

	if l.Max != nil && l.Min > *l.Max {
		return Limits{}, fmt.Errorf("limits min (%d) exceeds max (%d)", l.Min, *l.Max)
	}
	return l, nil
}

func readTableType(r *binary.Reader) (TableType, error) {
	first, err := r.PeekByte()
	if err != nil {
		return TableType{}, err
	}

	// 0x40 0x00 introduces a table with an explicit init expression
	if first == 0x40 {
		r.ReadByte()
		zero, err := r.ReadByte()
		if err != nil {
			return TableType{}, err
		}
		if zero != 0x00 {
			return TableType{}, fmt.Errorf("expected 0x00 after 0x40, got 0x%02x", zero)
		}
		tt, err := readPlainTableType(r)
		if err != nil {
			return TableType{}, err
		}
		if tt.Init, err = readInitExpr(r); err != nil {
			return TableType{}, err
		}
		return tt, nil
	}
	return readPlainTableType(r)
}

func readPlainTableType(r *binary.Reader) (TableType, error) {
	elemType, err := readValType(r)
	if err != nil {
		return TableType{}, err
	}
	limits, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elemType, Limits: limits}, nil
}

func readMemoryType(r *binary.Reader) (MemoryType, error) {
	limits, err := readLimits(r)
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: limits}, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	valType, err := readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid mutability 0x%02x", mut)
	}
	return GlobalType{ValType: valType, Mutable: mut == 1}, nil
}

func readTagType(r *binary.Reader) (TagType, error) {
	attribute, err := r.ReadByte()
	if err != nil {
		return TagType{}, err
	}
	typeIdx, err := r.ReadU32()
	if err != nil {
		return TagType{}, err
	}
	return TagType{Attribute: attribute, TypeIdx: typeIdx}, nil
}

// readInitExpr returns the raw bytes of a constant expression, end included.
func readInitExpr(r *binary.Reader) ([]byte, error) {
	start := r.Position()
	d := instrDecoder{r: r}
	for {
		instr, err := d.next()
		if err != nil {
			return nil, err
		}
		if instr.Opcode == OpPrefixGC {
			return nil, fmt.Errorf("%w: GC instruction in constant expression", ErrUnsupported)
		}
		if instr.Opcode == OpEnd {
			break
		}
	}
	return r.Since(start), nil
}
