package stats

import "github.com/wippyai/wasm-stats/wasm"

// Category is an instruction category counter.
type Category uint8

const (
	noCategory Category = iota
	CatLoadStore
	CatLocalVar
	CatGlobalVar
	CatTable
	CatMemory
	CatControlFlow
	CatDirectCalls
	CatIndirectCalls
	CatConstants
	CatWaitNotify
	CatOther
)

var categoryNames = [...]string{
	noCategory:       "",
	CatLoadStore:     "load_store",
	CatLocalVar:      "local_var",
	CatGlobalVar:     "global_var",
	CatTable:         "table",
	CatMemory:        "memory",
	CatControlFlow:   "control_flow",
	CatDirectCalls:   "direct_calls",
	CatIndirectCalls: "indirect_calls",
	CatConstants:     "constants",
	CatWaitNotify:    "wait_notify",
	CatOther:         "other",
}

func (c Category) String() string { return categoryNames[c] }

// Proposal is a feature counter driven by instructions.
type Proposal uint8

const (
	NoProposal Proposal = iota
	PropAtomics
	PropRefTypes
	PropSIMD
	PropTailCalls
	PropBulk
	PropNonTrappingConv
	PropSignExtend
)

var proposalNames = [...]string{
	NoProposal:          "",
	PropAtomics:         "atomics",
	PropRefTypes:        "ref_types",
	PropSIMD:            "simd",
	PropTailCalls:       "tail_calls",
	PropBulk:            "bulk",
	PropNonTrappingConv: "non_trapping_conv",
	PropSignExtend:      "sign_extend",
}

func (p Proposal) String() string { return proposalNames[p] }

// Class is the classification of one instruction. Every instruction has a
// Category. Also is set only for tail calls, which count as both control
// flow and a call.
type Class struct {
	Category Category
	Also     Category
	Proposal Proposal
}

func class(c Category) Class { return Class{Category: c} }

func classP(c Category, p Proposal) Class { return Class{Category: c, Proposal: p} }

func tailCall(call Category) Class {
	return Class{Category: CatControlFlow, Also: call, Proposal: PropTailCalls}
}

// classTable maps single-byte opcodes to their class.
type classTable [256]Class

func (t *classTable) register(c Class, ops ...byte) {
	for _, op := range ops {
		t[op] = c
	}
}

func (t *classTable) registerRange(c Class, lo, hi byte) {
	for op := int(lo); op <= int(hi); op++ {
		t[op] = c
	}
}

var opcodeClasses = newOpcodeClasses()

func newOpcodeClasses() *classTable {
	t := &classTable{}
	t.registerRange(class(CatOther), 0x00, 0xFF)

	t.register(class(CatControlFlow),
		wasm.OpUnreachable, wasm.OpNop, wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse,
		wasm.OpEnd, wasm.OpBr, wasm.OpBrIf, wasm.OpBrTable, wasm.OpReturn,
		wasm.OpDrop, wasm.OpSelect, wasm.OpSelectType)

	t.register(class(CatDirectCalls), wasm.OpCall)
	t.register(class(CatIndirectCalls), wasm.OpCallIndirect)
	t.register(tailCall(CatDirectCalls), wasm.OpReturnCall)
	t.register(tailCall(CatIndirectCalls), wasm.OpReturnCallIndirect)

	t.register(class(CatLocalVar), wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee)
	t.register(class(CatGlobalVar), wasm.OpGlobalGet, wasm.OpGlobalSet)
	t.register(class(CatTable), wasm.OpTableGet, wasm.OpTableSet)

	t.registerRange(class(CatLoadStore), wasm.OpI32Load, wasm.OpI64Store32)
	t.register(class(CatMemory), wasm.OpMemorySize, wasm.OpMemoryGrow)

	t.register(class(CatConstants), wasm.OpI32Const, wasm.OpI64Const, wasm.OpF32Const, wasm.OpF64Const)
	t.register(classP(CatConstants, PropRefTypes), wasm.OpRefNull, wasm.OpRefFunc)
	t.register(classP(CatOther, PropRefTypes), wasm.OpRefIsNull)

	t.register(classP(CatOther, PropSignExtend),
		wasm.OpI64ExtendI32U,
		wasm.OpI32Extend8S, wasm.OpI32Extend16S,
		wasm.OpI64Extend8S, wasm.OpI64Extend16S, wasm.OpI64Extend32S)
	return t
}

// miscClasses is indexed by 0xFC sub-opcode.
var miscClasses = [...]Class{
	wasm.MiscI32TruncSatF32S: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI32TruncSatF32U: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI32TruncSatF64S: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI32TruncSatF64U: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI64TruncSatF32S: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI64TruncSatF32U: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI64TruncSatF64S: classP(CatOther, PropNonTrappingConv),
	wasm.MiscI64TruncSatF64U: classP(CatOther, PropNonTrappingConv),
	wasm.MiscMemoryInit:      classP(CatMemory, PropBulk),
	wasm.MiscDataDrop:        classP(CatMemory, PropBulk),
	wasm.MiscMemoryCopy:      classP(CatMemory, PropBulk),
	wasm.MiscMemoryFill:      classP(CatMemory, PropBulk),
	wasm.MiscTableInit:       classP(CatTable, PropBulk),
	wasm.MiscElemDrop:        classP(CatTable, PropBulk),
	wasm.MiscTableCopy:       classP(CatTable, PropBulk),
	wasm.MiscTableGrow:       classP(CatTable, PropRefTypes),
	wasm.MiscTableSize:       classP(CatTable, PropRefTypes),
	wasm.MiscTableFill:       classP(CatTable, PropBulk),
	wasm.MiscMemoryDiscard:   class(CatOther),
}

func classifySIMD(sub uint32) Class {
	switch {
	case sub <= wasm.SimdV128Store,
		sub >= wasm.SimdV128Load8Lane && sub <= wasm.SimdV128Load64Zero:
		return classP(CatLoadStore, PropSIMD)
	case sub == wasm.SimdV128Const:
		return classP(CatConstants, PropSIMD)
	}
	return classP(CatOther, PropSIMD)
}

func classifyAtomic(sub uint32) Class {
	switch {
	case sub <= wasm.AtomicWait64:
		return classP(CatWaitNotify, PropAtomics)
	case sub >= wasm.AtomicI32Load && sub <= wasm.AtomicI64Store32:
		return classP(CatLoadStore, PropAtomics)
	}
	return classP(CatOther, PropAtomics)
}

// Classify returns the category and proposal of a decoded instruction.
// It is total: anything without a specific rule is CatOther.
func Classify(instr wasm.Instruction) Class {
	switch instr.Opcode {
	case wasm.OpPrefixMisc:
		if instr.SubOpcode < uint32(len(miscClasses)) {
			return miscClasses[instr.SubOpcode]
		}
		return class(CatOther)
	case wasm.OpPrefixSIMD:
		return classifySIMD(instr.SubOpcode)
	case wasm.OpPrefixAtomic:
		return classifyAtomic(instr.SubOpcode)
	}
	return opcodeClasses[instr.Opcode]
}

// Count classifies instr and adds it to the tallies.
func (in *Instructions) Count(instr wasm.Instruction) {
	c := Classify(instr)
	in.Total++
	in.Categories.inc(c.Category)
	in.Categories.inc(c.Also)
	in.Proposals.inc(c.Proposal)
}

func (c *Categories) inc(cat Category) {
	switch cat {
	case CatLoadStore:
		c.LoadStore++
	case CatLocalVar:
		c.LocalVar++
	case CatGlobalVar:
		c.GlobalVar++
	case CatTable:
		c.Table++
	case CatMemory:
		c.Memory++
	case CatControlFlow:
		c.ControlFlow++
	case CatDirectCalls:
		c.DirectCalls++
	case CatIndirectCalls:
		c.IndirectCalls++
	case CatConstants:
		c.Constants++
	case CatWaitNotify:
		c.WaitNotify++
	case CatOther:
		c.Other++
	}
}

func (p *Proposals) inc(prop Proposal) {
	switch prop {
	case PropAtomics:
		p.Atomics++
	case PropRefTypes:
		p.RefTypes++
	case PropSIMD:
		p.SIMD++
	case PropTailCalls:
		p.TailCalls++
	case PropBulk:
		p.Bulk++
	case PropNonTrappingConv:
		p.NonTrappingConv++
	case PropSignExtend:
		p.SignExtend++
	}
}
