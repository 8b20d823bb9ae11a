package stats

import (
	"strconv"

	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/wasm"
)

// slot is one entry of an index space.
type slot[T any] struct {
	value    T
	external bool
}

// indexSpace unifies imported and declared functions and globals. Imports
// come first, so a slot's position is the index instructions and exports
// refer to.
type indexSpace struct {
	funcs   []slot[uint32]
	globals []slot[wasm.GlobalType]
}

// addImports appends imported functions and globals, marked external.
// Every non-function import must carry its type, or later indices would
// shift onto the wrong slot.
func (sp *indexSpace) addImports(imports []wasm.Import) error {
	for _, imp := range imports {
		if !hasDescriptor(imp.Desc) {
			return errors.InvalidData(errors.PhaseAnalyze, []string{"import", imp.Module, imp.Name},
				wasm.KindName(imp.Desc.Kind)+" import without type")
		}
		switch imp.Desc.Kind {
		case wasm.KindFunc:
			sp.funcs = append(sp.funcs, slot[uint32]{value: imp.Desc.TypeIdx, external: true})
		case wasm.KindGlobal:
			sp.globals = append(sp.globals, slot[wasm.GlobalType]{value: *imp.Desc.Global, external: true})
		}
	}
	return nil
}

func hasDescriptor(d wasm.ImportDesc) bool {
	switch d.Kind {
	case wasm.KindTable:
		return d.Table != nil
	case wasm.KindMemory:
		return d.Memory != nil
	case wasm.KindGlobal:
		return d.Global != nil
	case wasm.KindTag:
		return d.Tag != nil
	}
	return true
}

func (sp *indexSpace) declareFuncs(typeIdxs []uint32) {
	for _, idx := range typeIdxs {
		sp.funcs = append(sp.funcs, slot[uint32]{value: idx})
	}
}

func (sp *indexSpace) declareGlobals(globals []wasm.Global) {
	for _, g := range globals {
		sp.globals = append(sp.globals, slot[wasm.GlobalType]{value: g.Type})
	}
}

// markExports flags exported functions and globals as external. Memory and
// table exports are not tracked. An index past the end of its space is fatal.
func (sp *indexSpace) markExports(exports []wasm.Export) error {
	for _, exp := range exports {
		switch exp.Kind {
		case wasm.KindFunc:
			if int64(exp.Idx) >= int64(len(sp.funcs)) {
				return exportOutOfBounds(exp, len(sp.funcs))
			}
			sp.funcs[exp.Idx].external = true
		case wasm.KindGlobal:
			if int64(exp.Idx) >= int64(len(sp.globals)) {
				return exportOutOfBounds(exp, len(sp.globals))
			}
			sp.globals[exp.Idx].external = true
		}
	}
	return nil
}

func exportOutOfBounds(exp wasm.Export, length int) error {
	return errors.OutOfBounds(errors.PhaseAnalyze, []string{"export", exp.Name}, int(exp.Idx), length)
}

// audit counts external mutable globals and external surfaces typed with
// i64. A function contributes at most once regardless of how many i64
// values its signature has.
func (sp *indexSpace) audit(types []wasm.FuncType, p *Proposals) error {
	for _, g := range sp.globals {
		if !g.external {
			continue
		}
		if g.value.Mutable {
			p.MutableExternals++
		}
		if g.value.ValType == wasm.ValI64 {
			p.BigintExternals++
		}
	}
	for i, f := range sp.funcs {
		if !f.external {
			continue
		}
		if int64(f.value) >= int64(len(types)) {
			return errors.OutOfBounds(errors.PhaseAnalyze, []string{"func", strconv.Itoa(i), "type"}, int(f.value), len(types))
		}
		if types[f.value].Uses(wasm.ValI64) {
			p.BigintExternals++
		}
	}
	return nil
}

// countImports tallies import descriptors by kind.
func countImports(imports []wasm.Import) Externals {
	var e Externals
	for _, imp := range imports {
		e.inc(imp.Desc.Kind)
	}
	return e
}

// countExports tallies export descriptors by kind.
func countExports(exports []wasm.Export) Externals {
	var e Externals
	for _, exp := range exports {
		e.inc(exp.Kind)
	}
	return e
}

func (e *Externals) inc(kind byte) {
	switch kind {
	case wasm.KindFunc:
		e.Funcs++
	case wasm.KindMemory:
		e.Memories++
	case wasm.KindGlobal:
		e.Globals++
	case wasm.KindTable:
		e.Tables++
	}
}
