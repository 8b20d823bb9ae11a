package stats_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/stats"
	"github.com/wippyai/wasm-stats/wasm"
)

func sizeOfU32(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// framedSizes sums the on-disk size of each section class of data.
func framedSizes(t *testing.T, data []byte) stats.Sizes {
	t.Helper()
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	sz := stats.Sizes{Total: len(data)}
	for _, h := range m.Sections {
		n := 1 + sizeOfU32(h.Size) + int(h.Size)
		switch h.ID {
		case wasm.SectionCustom:
			sz.Custom += n
		case wasm.SectionType:
			sz.Types += n
		case wasm.SectionImport, wasm.SectionExport:
			sz.Externals += n
		case wasm.SectionFunction, wasm.SectionTable, wasm.SectionMemory, wasm.SectionGlobal, wasm.SectionTag:
			sz.Descriptors += n
		case wasm.SectionElement, wasm.SectionData:
			sz.Init += n
		case wasm.SectionCode:
			sz.Code = n
		}
	}
	return sz
}

func TestAnalyzeEmptyModule(t *testing.T) {
	s := analyze(t, &wasm.Module{})
	want := &stats.Stats{
		Language:       stats.Unknown,
		Size:           stats.Sizes{Total: 8},
		CustomSections: []string{},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeFuncs(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{}, {Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}},
		Funcs: []uint32{0, 1},
		Exports: []wasm.Export{
			{Name: "bar", Kind: wasm.KindFunc, Idx: 1},
		},
		Code: []wasm.FuncBody{
			body(),
			body(
				wasm.Instruction{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: 0}},
				wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
				wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
				op(wasm.OpI32Add),
			),
		},
	}
	data := m.Encode()
	s, err := stats.Analyze(data)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Both closing ends are counted as control flow.
	want := &stats.Stats{
		Funcs:    2,
		Language: stats.Unknown,
		Instr: stats.Instructions{
			Total: 6,
			Categories: stats.Categories{
				ControlFlow: 2,
				DirectCalls: 1,
				LocalVar:    1,
				Constants:   1,
				Other:       1,
			},
		},
		Size:           framedSizes(t, data),
		Exports:        stats.Externals{Funcs: 1},
		CustomSections: []string{},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeSizeBuckets(t *testing.T) {
	m := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Imports:  []wasm.Import{funcImport("env", "f", 0)},
		Funcs:    []uint32{0},
		Tables:   []wasm.TableType{{ElemType: wasm.ValFuncRef, Limits: wasm.Limits{Min: 1}}},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals:  []wasm.Global{{Type: wasm.GlobalType{ValType: wasm.ValI32}, Init: []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}}},
		Exports:  []wasm.Export{{Name: "mem", Kind: wasm.KindMemory, Idx: 0}, {Name: "tbl", Kind: wasm.KindTable, Idx: 0}},
		Elements: []wasm.Element{{Flags: 1, FuncIdxs: []uint32{1}}},
		Code:     []wasm.FuncBody{body()},
		Data:     []wasm.DataSegment{{Flags: 1, Init: bytes.Repeat([]byte{1}, 200)}},
		CustomSections: []wasm.CustomSection{
			{Name: "name", Data: []byte{0}},
			{Name: "producers", Data: []byte{0, 1}},
			{Name: "name", Data: nil},
		},
	}
	data := m.Encode()
	s, err := stats.Analyze(data)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if diff := cmp.Diff(framedSizes(t, data), s.Size); diff != "" {
		t.Errorf("sizes (-want +got):\n%s", diff)
	}
	if s.Size.Sections() > s.Size.Total {
		t.Errorf("section buckets %d exceed total %d", s.Size.Sections(), s.Size.Total)
	}
	if s.Size.Sections() != s.Size.Total-8 {
		t.Errorf("every section byte should land in a bucket: %d vs %d", s.Size.Sections(), s.Size.Total-8)
	}
	if diff := cmp.Diff([]string{"name", "producers", "name"}, s.CustomSections); diff != "" {
		t.Errorf("custom sections (-want +got):\n%s", diff)
	}
	wantImports := stats.Externals{Funcs: 1}
	wantExports := stats.Externals{Memories: 1, Tables: 1}
	if s.Imports != wantImports || s.Exports != wantExports {
		t.Errorf("imports %+v exports %+v", s.Imports, s.Exports)
	}
	// Memory and table exports are counted but never audited.
	if s.Instr.Proposals != (stats.Proposals{}) {
		t.Errorf("proposals = %+v, want none", s.Instr.Proposals)
	}
}

func TestAnalyzeSectionProposals(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{},
			{Results: []wasm.ValType{wasm.ValI32, wasm.ValI32}},
			{Results: []wasm.ValType{wasm.ValI64, wasm.ValF32, wasm.ValF64}},
			{Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs: []uint32{0},
		Memories: []wasm.MemoryType{
			{Limits: wasm.Limits{Min: 1, Max: ptrTo(uint64(2)), Shared: true}},
		},
		DataCount: ptrTo(uint32(1)),
		Code: []wasm.FuncBody{body(
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
			misc(wasm.MiscMemoryCopy, 0, 0),
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
			wasm.Instruction{Opcode: wasm.OpPrefixAtomic, SubOpcode: wasm.AtomicNotify, Imm: wasm.AtomicImm{MemArg: &wasm.MemoryImm{Align: 2}}},
			op(wasm.OpDrop),
		)},
		Data: []wasm.DataSegment{{Flags: 1, Init: []byte("x")}},
	}
	s := analyze(t, m)

	want := stats.Proposals{
		MultiValue: 2,
		Atomics:    2, // shared memory and atomic.notify
		Bulk:       2, // datacount section and memory.copy
	}
	if diff := cmp.Diff(want, s.Instr.Proposals); diff != "" {
		t.Errorf("proposals (-want +got):\n%s", diff)
	}
	if s.Instr.Categories.WaitNotify != 1 || s.Instr.Categories.Memory != 1 {
		t.Errorf("categories = %+v", s.Instr.Categories)
	}
}

func TestAnalyzeTailCalls(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []uint32{0},
		Code: []wasm.FuncBody{body(
			wasm.Instruction{Opcode: wasm.OpReturnCall, Imm: wasm.CallImm{FuncIdx: 0}},
		)},
	}
	s := analyze(t, m)

	if s.Instr.Total != 2 {
		t.Fatalf("Total = %d, want 2", s.Instr.Total)
	}
	want := stats.Categories{ControlFlow: 2, DirectCalls: 1}
	if s.Instr.Categories != want {
		t.Errorf("categories = %+v, want %+v", s.Instr.Categories, want)
	}
	if s.Instr.Proposals.TailCalls != 1 {
		t.Errorf("tail_calls = %d, want 1", s.Instr.Proposals.TailCalls)
	}
	if got := s.Instr.Categories.Sum(); got != s.Instr.Total+s.Instr.Proposals.TailCalls {
		t.Errorf("Sum() = %d", got)
	}
}

func TestAnalyzeCategorySumWithoutTailCalls(t *testing.T) {
	lane := byte(0)
	m := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Funcs:    []uint32{0, 0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals:  []wasm.Global{{Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true}, Init: []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}}},
		Code: []wasm.FuncBody{
			body(
				wasm.Instruction{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: int64(wasm.BlockTypeVoid)}},
				wasm.Instruction{Opcode: wasm.OpGlobalGet, Imm: wasm.GlobalImm{}},
				wasm.Instruction{Opcode: wasm.OpI32Load, Imm: wasm.MemoryImm{Align: 2}},
				wasm.Instruction{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{}},
				op(wasm.OpEnd),
				wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{}},
				wasm.Instruction{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdV128Load, Imm: wasm.SIMDImm{MemArg: &wasm.MemoryImm{}}},
				wasm.Instruction{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdI8x16ExtractLaneS, Imm: wasm.SIMDImm{LaneIdx: &lane}},
				op(wasm.OpDrop),
			),
			body(
				wasm.Instruction{Opcode: wasm.OpMemorySize, Imm: wasm.MemoryIdxImm{}},
				misc(wasm.MiscI32TruncSatF32S),
				op(wasm.OpI32Extend8S),
				op(wasm.OpDrop),
			),
		},
	}
	s := analyze(t, m)

	if s.Instr.Total != 15 {
		t.Errorf("Total = %d, want 15", s.Instr.Total)
	}
	if got := s.Instr.Categories.Sum(); got != s.Instr.Total {
		t.Errorf("category sum %d != total %d", got, s.Instr.Total)
	}
	want := stats.Proposals{SIMD: 2, NonTrappingConv: 1, SignExtend: 1}
	if diff := cmp.Diff(want, s.Instr.Proposals); diff != "" {
		t.Errorf("proposals (-want +got):\n%s", diff)
	}
}

func TestAnalyzeExternalAudit(t *testing.T) {
	i64 := wasm.ValI64
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{i64, i64}, Results: []wasm.ValType{i64}},
			{Params: []wasm.ValType{wasm.ValI32}},
		},
		Imports: []wasm.Import{
			funcImport("env", "wide", 0),
			funcImport("env", "narrow", 1),
			globalImport("env", "g0", wasm.GlobalType{ValType: wasm.ValI32}),
			globalImport("env", "g1", wasm.GlobalType{ValType: wasm.ValI32, Mutable: true}),
		},
		Funcs: []uint32{0, 1, 0},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValType: i64, Mutable: true}, Init: []byte{wasm.OpI64Const, 0x00, wasm.OpEnd}},
			{Type: wasm.GlobalType{ValType: i64}, Init: []byte{wasm.OpI64Const, 0x00, wasm.OpEnd}},
		},
		Exports: []wasm.Export{
			{Name: "counter", Kind: wasm.KindGlobal, Idx: 2}, // declared mutable i64
			{Name: "narrow", Kind: wasm.KindFunc, Idx: 3},    // declared (i32)
			{Name: "reexport", Kind: wasm.KindFunc, Idx: 0},  // already external
		},
		Code: []wasm.FuncBody{body(), body(), body()},
	}
	s := analyze(t, m)

	// wide import: 1, exported counter: 1. g1 import and counter: mutable.
	want := stats.Proposals{MutableExternals: 2, BigintExternals: 2}
	if diff := cmp.Diff(want, s.Instr.Proposals); diff != "" {
		t.Errorf("proposals (-want +got):\n%s", diff)
	}
	if s.Imports != (stats.Externals{Funcs: 2, Globals: 2}) {
		t.Errorf("imports = %+v", s.Imports)
	}
	if s.Exports != (stats.Externals{Funcs: 2, Globals: 1}) {
		t.Errorf("exports = %+v", s.Exports)
	}
}

func TestAnalyzeExportedMutableI64Global(t *testing.T) {
	m := &wasm.Module{
		Globals: []wasm.Global{{Type: wasm.GlobalType{ValType: wasm.ValI64, Mutable: true}, Init: []byte{wasm.OpI64Const, 0x00, wasm.OpEnd}}},
		Exports: []wasm.Export{{Name: "g", Kind: wasm.KindGlobal, Idx: 0}},
	}
	p := analyze(t, m).Instr.Proposals
	if p.MutableExternals != 1 || p.BigintExternals != 1 {
		t.Errorf("proposals = %+v", p)
	}
}

func TestAnalyzeHasStart(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []uint32{0},
		Start: ptrTo(uint32(0)),
		Code:  []wasm.FuncBody{body()},
	}
	if !analyze(t, m).HasStart {
		t.Error("HasStart = false")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	gcBody := wasm.FuncBody{Code: []byte{wasm.OpPrefixGC, 0x00, 0x00, wasm.OpEnd}}

	tests := []struct {
		name  string
		data  func() []byte
		phase errors.Phase
		kind  errors.Kind
	}{
		{
			name:  "bad magic",
			data:  func() []byte { return []byte("not wasm") },
			phase: errors.PhaseDecode,
			kind:  errors.KindInvalidData,
		},
		{
			name: "truncated section",
			data: func() []byte {
				data := (&wasm.Module{Types: []wasm.FuncType{{}}}).Encode()
				return data[:len(data)-1]
			},
			phase: errors.PhaseDecode,
			kind:  errors.KindTruncated,
		},
		{
			name: "gc instruction in body",
			data: func() []byte {
				return (&wasm.Module{Types: []wasm.FuncType{{}}, Funcs: []uint32{0}, Code: []wasm.FuncBody{gcBody}}).Encode()
			},
			phase: errors.PhaseDecode,
			kind:  errors.KindUnsupported,
		},
		{
			name: "export out of bounds",
			data: func() []byte {
				return (&wasm.Module{Exports: []wasm.Export{{Name: "f", Kind: wasm.KindFunc, Idx: 5}}}).Encode()
			},
			phase: errors.PhaseAnalyze,
			kind:  errors.KindOutOfBounds,
		},
		{
			name: "global export out of bounds",
			data: func() []byte {
				return (&wasm.Module{
					Globals: []wasm.Global{{Type: wasm.GlobalType{ValType: wasm.ValI32}, Init: []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}}},
					Exports: []wasm.Export{{Name: "g", Kind: wasm.KindGlobal, Idx: 1}},
				}).Encode()
			},
			phase: errors.PhaseAnalyze,
			kind:  errors.KindOutOfBounds,
		},
		{
			name: "external func type out of bounds",
			data: func() []byte {
				return (&wasm.Module{Imports: []wasm.Import{funcImport("env", "f", 3)}}).Encode()
			},
			phase: errors.PhaseAnalyze,
			kind:  errors.KindOutOfBounds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := stats.Analyze(tt.data())
			if err == nil {
				t.Fatal("expected error")
			}
			if s != nil {
				t.Error("partial stats returned")
			}
			if !errors.Is(err, &errors.Error{Phase: tt.phase, Kind: tt.kind}) {
				t.Errorf("got %v, want [%s] %s", err, tt.phase, tt.kind)
			}
		})
	}
}

func TestAnalyzeBodyErrorLocation(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Imports: []wasm.Import{
			funcImport("env", "f", 0),
		},
		Funcs: []uint32{0, 0},
		Code: []wasm.FuncBody{
			body(op(wasm.OpNop)),
			{Code: []byte{wasm.OpNop, wasm.OpCall}},
		},
	}
	data := m.Encode()
	_, err := stats.Analyze(data)

	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if e.Kind != errors.KindTruncated {
		t.Errorf("Kind = %s, want truncated", e.Kind)
	}
	if diff := cmp.Diff([]string{"func", "2"}, e.Path); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
	if e.Section != "code" {
		t.Errorf("Section = %q, want code", e.Section)
	}
	if e.Offset <= 0 || e.Offset > len(data) {
		t.Errorf("Offset = %d outside module", e.Offset)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestAnalyzeWorkersMatchSerial(t *testing.T) {
	m := &wasm.Module{Types: []wasm.FuncType{{}}}
	for i := 0; i < 40; i++ {
		instrs := []wasm.Instruction{
			{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: uint32(i)}},
		}
		for j := 0; j < i%5; j++ {
			instrs = append(instrs, op(wasm.OpNop), misc(wasm.MiscTableSize, 0), op(wasm.OpDrop))
		}
		m.Funcs = append(m.Funcs, 0)
		m.Code = append(m.Code, body(instrs...))
	}
	m.Tables = []wasm.TableType{{ElemType: wasm.ValFuncRef, Limits: wasm.Limits{Min: 1}}}

	serial := analyze(t, m)
	parallel := analyze(t, m, stats.WithWorkers(4))
	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Errorf("parallel result differs (-serial +parallel):\n%s", diff)
	}
}

func TestAnalyzeWorkersReportLowestFailure(t *testing.T) {
	m := &wasm.Module{Types: []wasm.FuncType{{}}}
	for i := 0; i < 8; i++ {
		b := body(op(wasm.OpNop))
		if i == 3 || i == 6 {
			b = wasm.FuncBody{Code: []byte{0x27}}
		}
		m.Funcs = append(m.Funcs, 0)
		m.Code = append(m.Code, b)
	}

	_, err := stats.Analyze(m.Encode(), stats.WithWorkers(3))
	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if diff := cmp.Diff([]string{"func", "3"}, e.Path); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
}

func TestAnalyzeStrict(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []uint32{0},
		Start: ptrTo(uint32(4)),
		Code:  []wasm.FuncBody{body()},
	}
	data := m.Encode()

	if _, err := stats.Analyze(data); err != nil {
		t.Fatalf("lenient Analyze: %v", err)
	}
	_, err := stats.Analyze(data, stats.WithStrict(true))
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidData}) {
		t.Errorf("strict Analyze: got %v", err)
	}
}

func TestAnalyzeModuleBuiltInMemory(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []uint32{0},
		Code:  []wasm.FuncBody{body(op(wasm.OpNop))},
	}
	data := m.Encode()
	s, err := stats.AnalyzeModule(m, len(data))
	if err != nil {
		t.Fatalf("AnalyzeModule: %v", err)
	}
	if diff := cmp.Diff(analyze(t, m), s); diff != "" {
		t.Errorf("in-memory module differs from parsed (-parsed +built):\n%s", diff)
	}
}

func TestAnalyzeModuleImportWithoutType(t *testing.T) {
	i32 := wasm.GlobalType{ValType: wasm.ValI32}
	i64Mut := wasm.GlobalType{ValType: wasm.ValI64, Mutable: true}

	tests := []struct {
		name string
		desc wasm.ImportDesc
	}{
		{"global", wasm.ImportDesc{Kind: wasm.KindGlobal}},
		{"memory", wasm.ImportDesc{Kind: wasm.KindMemory}},
		{"table", wasm.ImportDesc{Kind: wasm.KindTable}},
		{"tag", wasm.ImportDesc{Kind: wasm.KindTag}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Without a slot for the import, export index 1 would land on
			// the mutable i64 global instead of the immutable i32 one.
			m := &wasm.Module{
				Imports: []wasm.Import{{Module: "env", Name: "g", Desc: tt.desc}},
				Globals: []wasm.Global{
					{Type: i32, Init: []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}},
					{Type: i64Mut, Init: []byte{wasm.OpI64Const, 0x00, wasm.OpEnd}},
				},
				Exports: []wasm.Export{{Name: "g", Kind: wasm.KindGlobal, Idx: 1}},
			}
			s, err := stats.AnalyzeModule(m, 0)
			if s != nil {
				t.Errorf("partial stats returned: %+v", s.Instr.Proposals)
			}

			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseAnalyze || e.Kind != errors.KindInvalidData {
				t.Errorf("got [%s] %s, want [analyze] invalid_data", e.Phase, e.Kind)
			}
			if diff := cmp.Diff([]string{"import", "env", "g"}, e.Path); diff != "" {
				t.Errorf("path (-want +got):\n%s", diff)
			}
			if e.Detail != tt.name+" import without type" {
				t.Errorf("Detail = %q", e.Detail)
			}
		})
	}
}

func TestAnalyzeModuleImportedGlobalKeepsIndices(t *testing.T) {
	m := &wasm.Module{
		Imports: []wasm.Import{globalImport("env", "g", wasm.GlobalType{ValType: wasm.ValF32})},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValI32}, Init: []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}},
			{Type: wasm.GlobalType{ValType: wasm.ValI64, Mutable: true}, Init: []byte{wasm.OpI64Const, 0x00, wasm.OpEnd}},
		},
		Exports: []wasm.Export{{Name: "g", Kind: wasm.KindGlobal, Idx: 1}},
	}
	s, err := stats.AnalyzeModule(m, len(m.Encode()))
	if err != nil {
		t.Fatalf("AnalyzeModule: %v", err)
	}
	// Index 1 is the immutable i32; the imported f32 is neither.
	if s.Instr.Proposals != (stats.Proposals{}) {
		t.Errorf("proposals = %+v, want none", s.Instr.Proposals)
	}
	if s.Imports != (stats.Externals{Globals: 1}) {
		t.Errorf("imports = %+v", s.Imports)
	}
}
