package wasm

import (
	"fmt"
	"io"
	"math"

	"github.com/wippyai/wasm-stats/wasm/internal/binary"
)

// Instruction represents a decoded WebAssembly instruction.
// For 0xFC, 0xFD and 0xFE prefixed instructions SubOpcode holds the
// LEB128 sub-opcode that follows the prefix byte.
type Instruction struct {
	Imm       interface{}
	SubOpcode uint32
	Opcode    byte
}

// Prefixed reports whether the instruction uses a multi-byte opcode.
func (i Instruction) Prefixed() bool {
	return i.Opcode == OpPrefixMisc || i.Opcode == OpPrefixSIMD || i.Opcode == OpPrefixAtomic
}

// BlockImm holds the block type for block, loop, if, and try instructions.
type BlockImm struct {
	Type int64 // -64=void, negative valtype, or >=0 type index
}

// BranchImm holds a label index.
type BranchImm struct {
	LabelIdx uint32
}

// BrTableImm holds the label table for br_table instruction.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm holds the function index for call and return_call.
type CallImm struct {
	FuncIdx uint32
}

// CallIndirectImm holds type and table indices for call_indirect and return_call_indirect.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// CallRefImm holds the type index for call_ref and return_call_ref.
type CallRefImm struct {
	TypeIdx uint32
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds the global index for global.get and global.set.
type GlobalImm struct {
	GlobalIdx uint32
}

// TableImm holds the table index for table.get and table.set.
type TableImm struct {
	TableIdx uint32
}

// MemoryImm holds memory access parameters for load and store instructions.
type MemoryImm struct {
	Offset uint64
	Align  uint32
	MemIdx uint32
}

// MemoryIdxImm holds the memory index for memory.size and memory.grow.
type MemoryIdxImm struct {
	MemIdx uint32
}

// I32Imm holds the constant value for i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant value for i64.const.
type I64Imm struct {
	Value int64
}

// F32Imm holds the constant value for f32.const.
type F32Imm struct {
	Value float32
}

// F64Imm holds the constant value for f64.const.
type F64Imm struct {
	Value float64
}

// RefNullImm holds the heap type for ref.null.
type RefNullImm struct {
	HeapType int64
}

// RefFuncImm holds the function index for ref.func.
type RefFuncImm struct {
	FuncIdx uint32
}

// SelectTypeImm holds the result types for typed select.
type SelectTypeImm struct {
	Types []ValType
}

// ThrowImm holds the tag index for throw and catch.
type ThrowImm struct {
	TagIdx uint32
}

// CatchClause represents a single catch clause in try_table.
type CatchClause struct {
	Kind     byte // 0=catch, 1=catch_ref, 2=catch_all, 3=catch_all_ref
	TagIdx   uint32
	LabelIdx uint32
}

// TryTableImm holds immediates for try_table.
type TryTableImm struct {
	Catches   []CatchClause
	BlockType int64
}

// MiscImm holds the index operands of 0xFC prefixed instructions.
type MiscImm struct {
	Operands []uint32
}

// SIMDImm holds SIMD instruction immediates.
type SIMDImm struct {
	MemArg    *MemoryImm
	LaneIdx   *byte
	V128Bytes []byte
}

// AtomicImm holds atomic instruction immediates. MemArg is nil for atomic.fence.
type AtomicImm struct {
	MemArg *MemoryImm
}

// InstructionReader decodes a function body one instruction at a time.
type InstructionReader struct {
	d instrDecoder
}

// NewInstructionReader creates a reader over raw function body code.
func NewInstructionReader(code []byte) *InstructionReader {
	return &InstructionReader{d: instrDecoder{r: binary.NewReader(code)}}
}

// Next returns the next instruction, or io.EOF once the code is exhausted.
func (ir *InstructionReader) Next() (Instruction, error) {
	if ir.d.r.Len() == 0 {
		return Instruction{}, io.EOF
	}
	return ir.d.next()
}

// Offset returns the position of the next instruction within the code.
func (ir *InstructionReader) Offset() int {
	return ir.d.r.Position()
}

// DecodeInstructions decodes a sequence of instructions from raw bytes.
// It buffers the whole body; analysis code uses InstructionReader.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	ir := NewInstructionReader(code)
	instrs := make([]Instruction, 0, len(code)/2)
	for {
		instr, err := ir.Next()
		if err == io.EOF {
			return instrs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("instruction at offset %d: %w", ir.Offset(), err)
		}
		instrs = append(instrs, instr)
	}
}

type instrDecoder struct {
	r *binary.Reader
}

func (d *instrDecoder) u32() (uint32, error) { return d.r.ReadU32() }

func (d *instrDecoder) next() (Instruction, error) {
	r := d.r
	op, err := r.ReadByte()
	if err != nil {
		return Instruction{}, io.ErrUnexpectedEOF
	}
	instr := Instruction{Opcode: op}

	switch {
	case op >= OpI32Load && op <= OpI64Store32:
		memArg, err := readMemArg(r)
		if err != nil {
			return instr, err
		}
		instr.Imm = memArg
		return instr, nil
	case op >= OpI32Eqz && op <= OpI64Extend32S:
		return instr, nil
	}

	switch op {
	case OpUnreachable, OpNop, OpElse, OpEnd, OpReturn, OpDrop, OpSelect,
		OpRefIsNull, OpRefAsNonNull, OpCatchAll, OpThrowRef:
		// no immediates

	case OpBlock, OpLoop, OpIf, OpTry:
		bt, err := r.ReadS33()
		if err != nil {
			return instr, err
		}
		instr.Imm = BlockImm{Type: bt}

	case OpCatch, OpThrow:
		tagIdx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = ThrowImm{TagIdx: tagIdx}

	case OpRethrow, OpDelegate, OpBr, OpBrIf, OpBrOnNull, OpBrOnNonNull:
		idx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = BranchImm{LabelIdx: idx}

	case OpTryTable:
		imm, err := d.tryTable()
		if err != nil {
			return instr, err
		}
		instr.Imm = imm

	case OpBrTable:
		count, err := d.u32()
		if err != nil {
			return instr, err
		}
		if int(count) > r.Len() {
			return instr, fmt.Errorf("br_table label count %d exceeds body", count)
		}
		labels := make([]uint32, count)
		for i := range labels {
			if labels[i], err = d.u32(); err != nil {
				return instr, err
			}
		}
		def, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = BrTableImm{Labels: labels, Default: def}

	case OpCall, OpReturnCall:
		idx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = CallImm{FuncIdx: idx}

	case OpCallIndirect, OpReturnCallIndirect:
		typeIdx, err := d.u32()
		if err != nil {
			return instr, err
		}
		tableIdx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = CallIndirectImm{TypeIdx: typeIdx, TableIdx: tableIdx}

	case OpCallRef, OpReturnCallRef:
		typeIdx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = CallRefImm{TypeIdx: typeIdx}

	case OpLocalGet, OpLocalSet, OpLocalTee:
		idx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = LocalImm{LocalIdx: idx}

	case OpGlobalGet, OpGlobalSet:
		idx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = GlobalImm{GlobalIdx: idx}

	case OpTableGet, OpTableSet:
		idx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = TableImm{TableIdx: idx}

	case OpMemorySize, OpMemoryGrow:
		memIdx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = MemoryIdxImm{MemIdx: memIdx}

	case OpI32Const:
		v, err := r.ReadS32()
		if err != nil {
			return instr, err
		}
		instr.Imm = I32Imm{Value: v}

	case OpI64Const:
		v, err := r.ReadS64()
		if err != nil {
			return instr, err
		}
		instr.Imm = I64Imm{Value: v}

	case OpF32Const:
		bits, err := r.ReadU32LE()
		if err != nil {
			return instr, err
		}
		instr.Imm = F32Imm{Value: math.Float32frombits(bits)}

	case OpF64Const:
		bits, err := r.ReadU64LE()
		if err != nil {
			return instr, err
		}
		instr.Imm = F64Imm{Value: math.Float64frombits(bits)}

	case OpRefNull:
		ht, err := r.ReadS33()
		if err != nil {
			return instr, err
		}
		if ht >= 0 {
			return instr, fmt.Errorf("%w: ref.null with concrete heap type %d", ErrUnsupported, ht)
		}
		instr.Imm = RefNullImm{HeapType: ht}

	case OpRefFunc:
		idx, err := d.u32()
		if err != nil {
			return instr, err
		}
		instr.Imm = RefFuncImm{FuncIdx: idx}

	case OpSelectType:
		types, err := readValTypes(r)
		if err != nil {
			return instr, err
		}
		instr.Imm = SelectTypeImm{Types: types}

	case OpPrefixMisc:
		if instr.SubOpcode, err = d.u32(); err != nil {
			return instr, err
		}
		instr.Imm, err = d.miscImmediate(instr.SubOpcode)
		if err != nil {
			return instr, err
		}

	case OpPrefixSIMD:
		if instr.SubOpcode, err = d.u32(); err != nil {
			return instr, err
		}
		instr.Imm, err = d.simdImmediate(instr.SubOpcode)
		if err != nil {
			return instr, err
		}

	case OpPrefixAtomic:
		if instr.SubOpcode, err = d.u32(); err != nil {
			return instr, err
		}
		instr.Imm, err = d.atomicImmediate(instr.SubOpcode)
		if err != nil {
			return instr, err
		}

	case OpPrefixGC, OpRefEq:
		return instr, fmt.Errorf("%w: GC instruction 0x%02x", ErrUnsupported, op)

	default:
		return instr, fmt.Errorf("unknown opcode: 0x%02x", op)
	}

	return instr, nil
}

func (d *instrDecoder) tryTable() (TryTableImm, error) {
	bt, err := d.r.ReadS33()
	if err != nil {
		return TryTableImm{}, err
	}
	count, err := d.u32()
	if err != nil {
		return TryTableImm{}, err
	}
	imm := TryTableImm{BlockType: bt}
	for i := uint32(0); i < count; i++ {
		kind, err := d.r.ReadByte()
		if err != nil {
			return TryTableImm{}, io.ErrUnexpectedEOF
		}
		if kind > 3 {
			return TryTableImm{}, fmt.Errorf("invalid catch kind 0x%02x", kind)
		}
		c := CatchClause{Kind: kind}
		if kind < 2 {
			if c.TagIdx, err = d.u32(); err != nil {
				return TryTableImm{}, err
			}
		}
		if c.LabelIdx, err = d.u32(); err != nil {
			return TryTableImm{}, err
		}
		imm.Catches = append(imm.Catches, c)
	}
	return imm, nil
}

// miscOperands is the number of index immediates per 0xFC sub-opcode.
var miscOperands = [...]int{
	MiscI32TruncSatF32S: 0, MiscI32TruncSatF32U: 0,
	MiscI32TruncSatF64S: 0, MiscI32TruncSatF64U: 0,
	MiscI64TruncSatF32S: 0, MiscI64TruncSatF32U: 0,
	MiscI64TruncSatF64S: 0, MiscI64TruncSatF64U: 0,
	MiscMemoryInit:    2,
	MiscDataDrop:      1,
	MiscMemoryCopy:    2,
	MiscMemoryFill:    1,
	MiscTableInit:     2,
	MiscElemDrop:      1,
	MiscTableCopy:     2,
	MiscTableGrow:     1,
	MiscTableSize:     1,
	MiscTableFill:     1,
	MiscMemoryDiscard: 1,
}

func (d *instrDecoder) miscImmediate(sub uint32) (MiscImm, error) {
	if sub >= uint32(len(miscOperands)) {
		return MiscImm{}, fmt.Errorf("unknown 0xFC sub-opcode: 0x%02x", sub)
	}
	var imm MiscImm
	for i := 0; i < miscOperands[sub]; i++ {
		v, err := d.u32()
		if err != nil {
			return MiscImm{}, err
		}
		imm.Operands = append(imm.Operands, v)
	}
	return imm, nil
}

// simdUnassigned lists the holes in the 0xFD opcode space below SimdRelaxedLast.
var simdUnassigned = map[uint32]bool{
	0x9A: true, 0xA2: true, 0xA5: true, 0xA6: true, 0xAF: true,
	0xB0: true, 0xB2: true, 0xB3: true, 0xB4: true, 0xBB: true,
	0xC2: true, 0xC5: true, 0xC6: true, 0xCF: true, 0xD0: true,
	0xD2: true, 0xD3: true, 0xD4: true, 0xE2: true, 0xEE: true,
}

func (d *instrDecoder) simdImmediate(sub uint32) (SIMDImm, error) {
	if sub > SimdRelaxedLast || simdUnassigned[sub] {
		return SIMDImm{}, fmt.Errorf("unknown 0xFD sub-opcode: 0x%02x", sub)
	}

	var imm SIMDImm
	switch {
	case sub <= SimdV128Store, sub == SimdV128Load32Zero, sub == SimdV128Load64Zero:
		memArg, err := readMemArg(d.r)
		if err != nil {
			return SIMDImm{}, err
		}
		imm.MemArg = &memArg

	case sub == SimdV128Const, sub == SimdI8x16Shuffle:
		raw, err := d.r.ReadBytes(16)
		if err != nil {
			return SIMDImm{}, err
		}
		imm.V128Bytes = raw

	case sub >= SimdI8x16ExtractLaneS && sub <= SimdF64x2ReplaceLane:
		lane, err := d.r.ReadByte()
		if err != nil {
			return SIMDImm{}, io.ErrUnexpectedEOF
		}
		imm.LaneIdx = &lane

	case sub >= SimdV128Load8Lane && sub <= SimdV128Store64Lane:
		memArg, err := readMemArg(d.r)
		if err != nil {
			return SIMDImm{}, err
		}
		lane, err := d.r.ReadByte()
		if err != nil {
			return SIMDImm{}, io.ErrUnexpectedEOF
		}
		imm.MemArg = &memArg
		imm.LaneIdx = &lane
	}
	return imm, nil
}

func (d *instrDecoder) atomicImmediate(sub uint32) (AtomicImm, error) {
	switch {
	case sub == AtomicFence:
		reserved, err := d.r.ReadByte()
		if err != nil {
			return AtomicImm{}, io.ErrUnexpectedEOF
		}
		if reserved != 0 {
			return AtomicImm{}, fmt.Errorf("atomic.fence reserved byte 0x%02x", reserved)
		}
		return AtomicImm{}, nil
	case sub <= AtomicWait64, sub >= AtomicI32Load && sub <= AtomicI64RmwLast:
		memArg, err := readMemArg(d.r)
		if err != nil {
			return AtomicImm{}, err
		}
		return AtomicImm{MemArg: &memArg}, nil
	default:
		return AtomicImm{}, fmt.Errorf("unknown 0xFE sub-opcode: 0x%02x", sub)
	}
}

// Multi-memory memarg bit flag
const memArgMultiMemBit = 0x40

// readMemArg reads a memarg. If bit 6 of align is set, a memidx follows.
func readMemArg(r *binary.Reader) (MemoryImm, error) {
	alignRaw, err := r.ReadU32()
	if err != nil {
		return MemoryImm{}, err
	}
	var memIdx uint32
	if alignRaw&memArgMultiMemBit != 0 {
		if memIdx, err = r.ReadU32(); err != nil {
			return MemoryImm{}, err
		}
	}
	offset, err := r.ReadU64()
	if err != nil {
		return MemoryImm{}, err
	}
	return MemoryImm{
		Align:  alignRaw &^ uint32(memArgMultiMemBit),
		Offset: offset,
		MemIdx: memIdx,
	}, nil
}

func writeMemArg(w *binary.Writer, imm MemoryImm) {
	alignRaw := imm.Align
	if imm.MemIdx != 0 {
		alignRaw |= memArgMultiMemBit
	}
	w.WriteU32(alignRaw)
	if imm.MemIdx != 0 {
		w.WriteU32(imm.MemIdx)
	}
	w.WriteU64(imm.Offset)
}

// EncodeInstructions encodes instructions to bytes. It is used to
// build function bodies for fixtures.
func EncodeInstructions(instrs []Instruction) []byte {
	w := binary.NewWriter()
	for i := range instrs {
		encodeInstruction(w, &instrs[i])
	}
	return w.Bytes()
}

func encodeInstruction(w *binary.Writer, instr *Instruction) {
	w.Byte(instr.Opcode)
	if instr.Prefixed() {
		w.WriteU32(instr.SubOpcode)
	}

	switch imm := instr.Imm.(type) {
	case nil:
		if instr.Opcode == OpPrefixAtomic && instr.SubOpcode == AtomicFence {
			w.Byte(0)
		}
	case BlockImm:
		w.WriteS64(imm.Type)
	case BranchImm:
		w.WriteU32(imm.LabelIdx)
	case ThrowImm:
		w.WriteU32(imm.TagIdx)
	case TryTableImm:
		w.WriteS64(imm.BlockType)
		w.WriteU32(uint32(len(imm.Catches)))
		for _, c := range imm.Catches {
			w.Byte(c.Kind)
			if c.Kind < 2 {
				w.WriteU32(c.TagIdx)
			}
			w.WriteU32(c.LabelIdx)
		}
	case BrTableImm:
		w.WriteU32(uint32(len(imm.Labels)))
		for _, l := range imm.Labels {
			w.WriteU32(l)
		}
		w.WriteU32(imm.Default)
	case CallImm:
		w.WriteU32(imm.FuncIdx)
	case CallIndirectImm:
		w.WriteU32(imm.TypeIdx)
		w.WriteU32(imm.TableIdx)
	case CallRefImm:
		w.WriteU32(imm.TypeIdx)
	case LocalImm:
		w.WriteU32(imm.LocalIdx)
	case GlobalImm:
		w.WriteU32(imm.GlobalIdx)
	case TableImm:
		w.WriteU32(imm.TableIdx)
	case MemoryImm:
		writeMemArg(w, imm)
	case MemoryIdxImm:
		w.WriteU32(imm.MemIdx)
	case I32Imm:
		w.WriteS64(int64(imm.Value))
	case I64Imm:
		w.WriteS64(imm.Value)
	case F32Imm:
		w.WriteU32LE(math.Float32bits(imm.Value))
	case F64Imm:
		w.WriteU64LE(math.Float64bits(imm.Value))
	case RefNullImm:
		w.WriteS64(imm.HeapType)
	case RefFuncImm:
		w.WriteU32(imm.FuncIdx)
	case SelectTypeImm:
		w.WriteU32(uint32(len(imm.Types)))
		for _, t := range imm.Types {
			w.Byte(byte(t))
		}
	case MiscImm:
		for _, v := range imm.Operands {
			w.WriteU32(v)
		}
	case SIMDImm:
		if imm.MemArg != nil {
			writeMemArg(w, *imm.MemArg)
		}
		if len(imm.V128Bytes) > 0 {
			w.WriteBytes(imm.V128Bytes)
		}
		if imm.LaneIdx != nil {
			w.Byte(*imm.LaneIdx)
		}
	case AtomicImm:
		if imm.MemArg != nil {
			writeMemArg(w, *imm.MemArg)
		} else {
			w.Byte(0)
		}
	}
}
