package wasm_test

import (
	"testing"

	"github.com/wippyai/wasm-stats/wasm"
)

func TestValidate(t *testing.T) {
	valid := func() *wasm.Module {
		return &wasm.Module{
			Types:   []wasm.FuncType{{}},
			Imports: []wasm.Import{{Module: "env", Name: "f", Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: 0}}},
			Funcs:   []uint32{0},
			Exports: []wasm.Export{{Name: "run", Kind: wasm.KindFunc, Idx: 1}},
			Code:    []wasm.FuncBody{{Code: []byte{wasm.OpEnd}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(m *wasm.Module)
		wantErr bool
	}{
		{"valid", func(*wasm.Module) {}, false},
		{"bad func type", func(m *wasm.Module) { m.Funcs[0] = 3 }, true},
		{"bad import type", func(m *wasm.Module) { m.Imports[0].Desc.TypeIdx = 1 }, true},
		{"bad start", func(m *wasm.Module) { m.Start = ptrTo(uint32(2)) }, true},
		{"export out of range", func(m *wasm.Module) { m.Exports[0].Idx = 2 }, true},
		{"duplicate export", func(m *wasm.Module) {
			m.Exports = append(m.Exports, wasm.Export{Name: "run", Kind: wasm.KindFunc, Idx: 0})
		}, true},
		{"data count mismatch", func(m *wasm.Module) { m.DataCount = ptrTo(uint32(1)) }, true},
		{"shared without max", func(m *wasm.Module) {
			m.Memories = []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Shared: true}}}
		}, true},
		{"element func out of range", func(m *wasm.Module) {
			m.Elements = []wasm.Element{{Flags: 1, FuncIdxs: []uint32{5}}}
		}, true},
		{"global import without type", func(m *wasm.Module) {
			m.Imports = append(m.Imports, wasm.Import{Module: "env", Name: "g", Desc: wasm.ImportDesc{Kind: wasm.KindGlobal}})
		}, true},
		{"memory import without type", func(m *wasm.Module) {
			m.Imports = append(m.Imports, wasm.Import{Module: "env", Name: "mem", Desc: wasm.ImportDesc{Kind: wasm.KindMemory}})
		}, true},
		{"table import without type", func(m *wasm.Module) {
			m.Imports = append(m.Imports, wasm.Import{Module: "env", Name: "tbl", Desc: wasm.ImportDesc{Kind: wasm.KindTable}})
		}, true},
		{"tag import without type", func(m *wasm.Module) {
			m.Imports = append(m.Imports, wasm.Import{Module: "env", Name: "exn", Desc: wasm.ImportDesc{Kind: wasm.KindTag}})
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseModuleValidate(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "missing", Kind: wasm.KindFunc, Idx: 7}},
		Code:    []wasm.FuncBody{{Code: []byte{wasm.OpEnd}}},
	}
	data := m.Encode()
	if _, err := wasm.ParseModule(data); err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if _, err := wasm.ParseModuleValidate(data); err == nil {
		t.Error("expected validation error")
	}
}

func TestImportWithoutTypeIsNotEncodable(t *testing.T) {
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "env", Name: "g", Desc: wasm.ImportDesc{Kind: wasm.KindGlobal}}},
	}
	if _, err := m.SectionSize(wasm.SectionHeader{ID: wasm.SectionImport}); err == nil {
		t.Error("SectionSize should refuse an import without type")
	}
	if _, err := wasm.ParseModule(m.Encode()); err == nil {
		t.Error("encoded module should not decode")
	}
}
