package wasm_test

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-stats/wasm"
)

func TestInstructionRoundTrip(t *testing.T) {
	lane := byte(3)
	instrs := []wasm.Instruction{
		{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: int64(wasm.BlockTypeVoid)}},
		{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: int64(wasm.BlockTypeI32)}},
		{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: 1}},
		{Opcode: wasm.OpBrTable, Imm: wasm.BrTableImm{Labels: []uint32{0, 1, 2}, Default: 0}},
		{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: 300}},
		{Opcode: wasm.OpCallIndirect, Imm: wasm.CallIndirectImm{TypeIdx: 1, TableIdx: 0}},
		{Opcode: wasm.OpReturnCall, Imm: wasm.CallImm{FuncIdx: 2}},
		{Opcode: wasm.OpLocalTee, Imm: wasm.LocalImm{LocalIdx: 4}},
		{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{GlobalIdx: 0}},
		{Opcode: wasm.OpI32Load, Imm: wasm.MemoryImm{Align: 2, Offset: 16}},
		{Opcode: wasm.OpI64Store, Imm: wasm.MemoryImm{Align: 3, Offset: 1 << 40, MemIdx: 1}},
		{Opcode: wasm.OpMemoryGrow, Imm: wasm.MemoryIdxImm{}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: -123456}},
		{Opcode: wasm.OpI64Const, Imm: wasm.I64Imm{Value: 1 << 62}},
		{Opcode: wasm.OpF32Const, Imm: wasm.F32Imm{Value: 1.5}},
		{Opcode: wasm.OpF64Const, Imm: wasm.F64Imm{Value: -2.25}},
		{Opcode: wasm.OpRefNull, Imm: wasm.RefNullImm{HeapType: -17}},
		{Opcode: wasm.OpRefFunc, Imm: wasm.RefFuncImm{FuncIdx: 9}},
		{Opcode: wasm.OpSelectType, Imm: wasm.SelectTypeImm{Types: []wasm.ValType{wasm.ValV128}}},
		{Opcode: wasm.OpTryTable, Imm: wasm.TryTableImm{BlockType: -64, Catches: []wasm.CatchClause{{Kind: 0, TagIdx: 1, LabelIdx: 0}, {Kind: 2, LabelIdx: 1}}}},
		{Opcode: wasm.OpThrow, Imm: wasm.ThrowImm{TagIdx: 0}},
		{Opcode: wasm.OpPrefixMisc, SubOpcode: wasm.MiscMemoryCopy, Imm: wasm.MiscImm{Operands: []uint32{0, 0}}},
		{Opcode: wasm.OpPrefixMisc, SubOpcode: wasm.MiscI64TruncSatF64U, Imm: wasm.MiscImm{}},
		{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdV128Load, Imm: wasm.SIMDImm{MemArg: &wasm.MemoryImm{Align: 4}}},
		{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdV128Const, Imm: wasm.SIMDImm{V128Bytes: make([]byte, 16)}},
		{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdI8x16ExtractLaneS, Imm: wasm.SIMDImm{LaneIdx: &lane}},
		{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdV128Load8Lane, Imm: wasm.SIMDImm{MemArg: &wasm.MemoryImm{}, LaneIdx: &lane}},
		{Opcode: wasm.OpPrefixSIMD, SubOpcode: wasm.SimdI32x4Add, Imm: wasm.SIMDImm{}},
		{Opcode: wasm.OpPrefixAtomic, SubOpcode: wasm.AtomicNotify, Imm: wasm.AtomicImm{MemArg: &wasm.MemoryImm{Align: 2}}},
		{Opcode: wasm.OpPrefixAtomic, SubOpcode: wasm.AtomicFence, Imm: wasm.AtomicImm{}},
		{Opcode: wasm.OpPrefixAtomic, SubOpcode: wasm.AtomicI64RmwLast, Imm: wasm.AtomicImm{MemArg: &wasm.MemoryImm{Align: 2}}},
		{Opcode: wasm.OpI64Extend32S},
		{Opcode: wasm.OpDrop},
		{Opcode: wasm.OpEnd},
	}

	code := wasm.EncodeInstructions(instrs)
	decoded, err := wasm.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if diff := cmp.Diff(instrs, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestInstructionReaderStreams(t *testing.T) {
	code := []byte{wasm.OpNop, wasm.OpI32Const, 0x2A, wasm.OpDrop, wasm.OpEnd}
	ir := wasm.NewInstructionReader(code)

	var ops []byte
	for {
		instr, err := ir.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ops = append(ops, instr.Opcode)
	}
	want := []byte{wasm.OpNop, wasm.OpI32Const, wasm.OpDrop, wasm.OpEnd}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("opcodes (-want +got):\n%s", diff)
	}
}

func TestDecodeInstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"unknown opcode", []byte{0x27}, nil},
		{"gc prefix", []byte{wasm.OpPrefixGC, 0x00, 0x00}, wasm.ErrUnsupported},
		{"ref.eq", []byte{wasm.OpRefEq}, wasm.ErrUnsupported},
		{"concrete ref.null", []byte{wasm.OpRefNull, 0x00}, wasm.ErrUnsupported},
		{"unknown misc", []byte{wasm.OpPrefixMisc, 0x13}, nil},
		{"unassigned simd", []byte{wasm.OpPrefixSIMD, 0x9A, 0x01}, nil},
		{"simd past relaxed", []byte{wasm.OpPrefixSIMD, 0x94, 0x02}, nil},
		{"unknown atomic", []byte{wasm.OpPrefixAtomic, 0x05}, nil},
		{"fence reserved byte", []byte{wasm.OpPrefixAtomic, 0x03, 0x01}, nil},
		{"truncated immediate", []byte{wasm.OpCall, 0x80}, io.ErrUnexpectedEOF},
		{"truncated v128", []byte{wasm.OpPrefixSIMD, 0x0C, 0x01, 0x02}, io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wasm.DecodeInstructions(tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPrefixed(t *testing.T) {
	for _, op := range []byte{wasm.OpPrefixMisc, wasm.OpPrefixSIMD, wasm.OpPrefixAtomic} {
		if !(wasm.Instruction{Opcode: op}).Prefixed() {
			t.Errorf("0x%02x should be prefixed", op)
		}
	}
	if (wasm.Instruction{Opcode: wasm.OpCall}).Prefixed() {
		t.Error("call should not be prefixed")
	}
}
