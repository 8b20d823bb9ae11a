package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-stats/wasm/internal/binary"
)

// canonicalOrder is the section order used when a module carries no
// recorded Sections. Custom sections are appended after it.
var canonicalOrder = []byte{
	SectionType, SectionImport, SectionFunction, SectionTable, SectionMemory,
	SectionTag, SectionGlobal, SectionExport, SectionStart, SectionElement,
	SectionDataCount, SectionCode, SectionData,
}

// Encode encodes the module to WebAssembly binary format.
//
// A parsed module is re-emitted in its recorded section order. A module
// built in memory gets canonical order with custom sections last, and
// sections with no content are omitted. Encode does not validate: an
// import missing its type is written as a bare kind byte, which
// ParseModule rejects. Use Validate or SectionSize to catch it first.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	for _, h := range m.Layout() {
		// layout only yields encodable headers
		_ = m.writeSection(w, h)
	}
	return w.Bytes()
}

// SectionSize returns the number of bytes the section would occupy when
// re-encoded, including its ID byte and size prefix. Bytes are counted,
// never buffered.
func (m *Module) SectionSize(h SectionHeader) (int, error) {
	if h.ID == SectionImport {
		if err := m.validateImportDescs(); err != nil {
			return 0, err
		}
	}
	w := binary.NewCountingWriter()
	if err := m.writeSection(w, h); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// Layout returns the section order Encode uses: the recorded Sections of a
// parsed module, or canonical order for a module built in memory.
func (m *Module) Layout() []SectionHeader {
	if len(m.Sections) > 0 {
		return m.Sections
	}
	var hs []SectionHeader
	for _, id := range canonicalOrder {
		if m.hasSection(id) {
			hs = append(hs, SectionHeader{ID: id})
		}
	}
	for i := range m.CustomSections {
		hs = append(hs, SectionHeader{ID: SectionCustom, Index: i})
	}
	return hs
}

func (m *Module) hasSection(id byte) bool {
	switch id {
	case SectionType:
		return len(m.Types) > 0
	case SectionImport:
		return len(m.Imports) > 0
	case SectionFunction:
		return len(m.Funcs) > 0
	case SectionTable:
		return len(m.Tables) > 0
	case SectionMemory:
		return len(m.Memories) > 0
	case SectionTag:
		return len(m.Tags) > 0
	case SectionGlobal:
		return len(m.Globals) > 0
	case SectionExport:
		return len(m.Exports) > 0
	case SectionStart:
		return m.Start != nil
	case SectionElement:
		return len(m.Elements) > 0
	case SectionDataCount:
		return m.DataCount != nil
	case SectionCode:
		return len(m.Code) > 0
	case SectionData:
		return len(m.Data) > 0
	}
	return false
}

// writeSection emits the ID byte, the payload size, and the payload.
// The payload is first measured with a counting writer so that no
// intermediate buffer is needed.
func (m *Module) writeSection(w *binary.Writer, h SectionHeader) error {
	payload, err := m.payloadWriter(h)
	if err != nil {
		return err
	}
	cnt := binary.NewCountingWriter()
	payload(cnt)

	w.Byte(h.ID)
	w.WriteU32(uint32(cnt.Len()))
	payload(w)
	return nil
}

func (m *Module) payloadWriter(h SectionHeader) (func(*binary.Writer), error) {
	switch h.ID {
	case SectionCustom:
		if h.Index < 0 || h.Index >= len(m.CustomSections) {
			return nil, fmt.Errorf("custom section index %d out of range (%d sections)", h.Index, len(m.CustomSections))
		}
		cs := m.CustomSections[h.Index]
		return func(w *binary.Writer) {
			w.WriteName(cs.Name)
			w.WriteBytes(cs.Data)
		}, nil
	case SectionType:
		return m.writeTypes, nil
	case SectionImport:
		return m.writeImports, nil
	case SectionFunction:
		return func(w *binary.Writer) { writeU32s(w, m.Funcs) }, nil
	case SectionTable:
		return func(w *binary.Writer) {
			w.WriteU32(uint32(len(m.Tables)))
			for _, t := range m.Tables {
				writeTableType(w, t)
			}
		}, nil
	case SectionMemory:
		return func(w *binary.Writer) {
			w.WriteU32(uint32(len(m.Memories)))
			for _, mem := range m.Memories {
				writeLimits(w, mem.Limits)
			}
		}, nil
	case SectionTag:
		return func(w *binary.Writer) {
			w.WriteU32(uint32(len(m.Tags)))
			for _, tag := range m.Tags {
				writeTagType(w, tag)
			}
		}, nil
	case SectionGlobal:
		return func(w *binary.Writer) {
			w.WriteU32(uint32(len(m.Globals)))
			for _, g := range m.Globals {
				writeGlobalType(w, g.Type)
				w.WriteBytes(g.Init)
			}
		}, nil
	case SectionExport:
		return func(w *binary.Writer) {
			w.WriteU32(uint32(len(m.Exports)))
			for _, exp := range m.Exports {
				w.WriteName(exp.Name)
				w.Byte(exp.Kind)
				w.WriteU32(exp.Idx)
			}
		}, nil
	case SectionStart:
		if m.Start == nil {
			return nil, fmt.Errorf("start section without start function")
		}
		return func(w *binary.Writer) { w.WriteU32(*m.Start) }, nil
	case SectionElement:
		return m.writeElements, nil
	case SectionDataCount:
		if m.DataCount == nil {
			return nil, fmt.Errorf("datacount section without count")
		}
		return func(w *binary.Writer) { w.WriteU32(*m.DataCount) }, nil
	case SectionCode:
		return m.writeCode, nil
	case SectionData:
		return m.writeData, nil
	}
	return nil, fmt.Errorf("unknown section ID: 0x%02x", h.ID)
}

func (m *Module) writeTypes(w *binary.Writer) {
	w.WriteU32(uint32(len(m.Types)))
	for _, ft := range m.Types {
		w.Byte(FuncTypeByte)
		writeValTypes(w, ft.Params)
		writeValTypes(w, ft.Results)
	}
}

func (m *Module) writeImports(w *binary.Writer) {
	w.WriteU32(uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		w.WriteName(imp.Module)
		w.WriteName(imp.Name)
		w.Byte(imp.Desc.Kind)
		switch imp.Desc.Kind {
		case KindFunc:
			w.WriteU32(imp.Desc.TypeIdx)
		case KindTable:
			if imp.Desc.Table != nil {
				writeTableType(w, *imp.Desc.Table)
			}
		case KindMemory:
			if imp.Desc.Memory != nil {
				writeLimits(w, imp.Desc.Memory.Limits)
			}
		case KindGlobal:
			if imp.Desc.Global != nil {
				writeGlobalType(w, *imp.Desc.Global)
			}
		case KindTag:
			if imp.Desc.Tag != nil {
				writeTagType(w, *imp.Desc.Tag)
			}
		}
	}
}

func (m *Module) writeElements(w *binary.Writer) {
	w.WriteU32(uint32(len(m.Elements)))
	for _, elem := range m.Elements {
		w.WriteU32(elem.Flags)

		active := elem.Flags&0x01 == 0
		usesExprs := elem.Flags&0x04 != 0

		if active && elem.Flags&0x02 != 0 {
			w.WriteU32(elem.TableIdx)
		}
		if active {
			w.WriteBytes(elem.Offset)
		}
		if elem.Flags&0x03 != 0 {
			if usesExprs {
				w.Byte(byte(elem.Type))
			} else {
				w.Byte(elem.ElemKind)
			}
		}

		if usesExprs {
			w.WriteU32(uint32(len(elem.Exprs)))
			for _, expr := range elem.Exprs {
				w.WriteBytes(expr)
			}
		} else {
			writeU32s(w, elem.FuncIdxs)
		}
	}
}

func (m *Module) writeCode(w *binary.Writer) {
	w.WriteU32(uint32(len(m.Code)))
	for i := range m.Code {
		body := &m.Code[i]
		cnt := binary.NewCountingWriter()
		writeLocals(cnt, body.Locals)
		w.WriteU32(uint32(cnt.Len() + len(body.Code)))
		writeLocals(w, body.Locals)
		w.WriteBytes(body.Code)
	}
}

func writeLocals(w *binary.Writer, locals []LocalEntry) {
	w.WriteU32(uint32(len(locals)))
	for _, l := range locals {
		w.WriteU32(l.Count)
		w.Byte(byte(l.ValType))
	}
}

func (m *Module) writeData(w *binary.Writer) {
	w.WriteU32(uint32(len(m.Data)))
	for _, d := range m.Data {
		w.WriteU32(d.Flags)
		if d.Flags == 2 {
			w.WriteU32(d.MemIdx)
		}
		if d.Flags != 1 {
			w.WriteBytes(d.Offset)
		}
		w.WriteU32(uint32(len(d.Init)))
		w.WriteBytes(d.Init)
	}
}

func writeU32s(w *binary.Writer, vs []uint32) {
	w.WriteU32(uint32(len(vs)))
	for _, v := range vs {
		w.WriteU32(v)
	}
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *binary.Writer, l Limits) {
	var flags byte
	if l.Max != nil {
		flags |= LimitsHasMax
	}
	if l.Shared {
		flags |= LimitsShared
	}
	if l.Memory64 {
		flags |= LimitsMemory64
	}
	w.Byte(flags)

	if l.Memory64 {
		w.WriteU64(l.Min)
		if l.Max != nil {
			w.WriteU64(*l.Max)
		}
		return
	}
	w.WriteU32(uint32(l.Min))
	if l.Max != nil {
		w.WriteU32(uint32(*l.Max))
	}
}

func writeTableType(w *binary.Writer, t TableType) {
	if len(t.Init) > 0 {
		w.Byte(0x40)
		w.Byte(0x00)
	}
	w.Byte(byte(t.ElemType))
	writeLimits(w, t.Limits)
	if len(t.Init) > 0 {
		w.WriteBytes(t.Init)
	}
}

func writeGlobalType(w *binary.Writer, g GlobalType) {
	w.Byte(byte(g.ValType))
	if g.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

func writeTagType(w *binary.Writer, t TagType) {
	w.Byte(t.Attribute)
	w.WriteU32(t.TypeIdx)
}
