package stats_test

import (
	"testing"

	"github.com/wippyai/wasm-stats/stats"
	"github.com/wippyai/wasm-stats/wasm"
)

func ptrTo[T any](v T) *T { return &v }

func op(opcode byte) wasm.Instruction { return wasm.Instruction{Opcode: opcode} }

func misc(sub uint32, operands ...uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpPrefixMisc, SubOpcode: sub, Imm: wasm.MiscImm{Operands: operands}}
}

func funcImport(module, name string, typeIdx uint32) wasm.Import {
	return wasm.Import{Module: module, Name: name, Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: typeIdx}}
}

func globalImport(module, name string, gt wasm.GlobalType) wasm.Import {
	return wasm.Import{Module: module, Name: name, Desc: wasm.ImportDesc{Kind: wasm.KindGlobal, Global: &gt}}
}

// body encodes instrs and appends the closing end.
func body(instrs ...wasm.Instruction) wasm.FuncBody {
	return wasm.FuncBody{Code: wasm.EncodeInstructions(append(instrs, op(wasm.OpEnd)))}
}

func analyze(t *testing.T, m *wasm.Module, opts ...stats.Option) *stats.Stats {
	t.Helper()
	s, err := stats.Analyze(m.Encode(), opts...)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return s
}
