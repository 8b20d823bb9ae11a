package wasm

import "fmt"

// Validate checks that every index the module refers to is in range.
// It does not type-check function bodies.
func (m *Module) Validate() error {
	checks := []func() error{
		m.validateImportDescs,
		m.validateTypeIndices,
		m.validateFunctionIndices,
		m.validateExports,
		m.validateDataCount,
		m.validateMemoryLimits,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ParseModuleValidate parses a WebAssembly binary and validates it.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validateImportDescs checks that every non-function import carries its type.
func (m *Module) validateImportDescs() error {
	for i, imp := range m.Imports {
		var missing bool
		switch imp.Desc.Kind {
		case KindTable:
			missing = imp.Desc.Table == nil
		case KindMemory:
			missing = imp.Desc.Memory == nil
		case KindGlobal:
			missing = imp.Desc.Global == nil
		case KindTag:
			missing = imp.Desc.Tag == nil
		}
		if missing {
			return fmt.Errorf("import %d (%s.%s): %s import without type", i, imp.Module, imp.Name, KindName(imp.Desc.Kind))
		}
	}
	return nil
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))
	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return fmt.Errorf("function %d references invalid type index %d (%d types)", i, typeIdx, numTypes)
		}
	}
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Desc.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.TypeIdx)
		}
		if imp.Desc.Kind == KindTag && imp.Desc.Tag != nil && imp.Desc.Tag.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) tag references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.Tag.TypeIdx)
		}
	}
	for i, tag := range m.Tags {
		if tag.TypeIdx >= numTypes {
			return fmt.Errorf("tag %d references invalid type index %d", i, tag.TypeIdx)
		}
	}
	return nil
}

func (m *Module) validateFunctionIndices() error {
	numFuncs := uint32(m.NumImportedFuncs() + len(m.Funcs))
	if m.Start != nil && *m.Start >= numFuncs {
		return fmt.Errorf("start function index %d exceeds function count %d", *m.Start, numFuncs)
	}
	for i, elem := range m.Elements {
		for j, funcIdx := range elem.FuncIdxs {
			if funcIdx >= numFuncs {
				return fmt.Errorf("element %d, entry %d references invalid function index %d", i, j, funcIdx)
			}
		}
	}
	return nil
}

func (m *Module) validateExports() error {
	limits := map[byte]int{
		KindFunc:   m.NumImportedFuncs() + len(m.Funcs),
		KindTable:  m.NumImportedTables() + len(m.Tables),
		KindMemory: m.NumImportedMemories() + len(m.Memories),
		KindGlobal: m.NumImportedGlobals() + len(m.Globals),
		KindTag:    m.countImports(KindTag) + len(m.Tags),
	}
	seen := make(map[string]bool, len(m.Exports))
	for i, exp := range m.Exports {
		if seen[exp.Name] {
			return fmt.Errorf("duplicate export name %q", exp.Name)
		}
		seen[exp.Name] = true
		if int64(exp.Idx) >= int64(limits[exp.Kind]) {
			return fmt.Errorf("export %d (%s) references invalid index %d", i, exp.Name, exp.Idx)
		}
	}
	return nil
}

func (m *Module) validateDataCount() error {
	if m.DataCount != nil && int(*m.DataCount) != len(m.Data) {
		return fmt.Errorf("data count %d does not match data segment count %d", *m.DataCount, len(m.Data))
	}
	return nil
}

func (m *Module) validateMemoryLimits() error {
	for i, mem := range m.Memories {
		if mem.Limits.Shared && mem.Limits.Max == nil {
			return fmt.Errorf("memory %d: shared memory must have a maximum", i)
		}
	}
	return nil
}
