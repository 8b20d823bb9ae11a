// Package wasm parses and re-encodes WebAssembly binary modules.
//
// ParseModule decodes every standard section and records the order in
// which sections appeared, so that statistics can be gathered in
// encounter order and each section can be measured with SectionSize.
// Function bodies are kept as raw bytes and decoded on demand with an
// InstructionReader, which streams one instruction at a time.
// DecodeInstructions and EncodeInstructions work on whole bodies and are
// meant for building test fixtures and round-trip checks.
//
// The decoder accepts the core instruction set plus the threads, SIMD,
// bulk memory, reference types, tail call, sign extension, non-trapping
// conversion and exception handling proposals. GC instructions and
// concrete reference types are rejected with ErrUnsupported.
//
//	data, _ := os.ReadFile("module.wasm")
//	m, err := wasm.ParseModule(data)
//	if err != nil {
//	    return err
//	}
//	for _, h := range m.Sections {
//	    n, _ := m.SectionSize(h)
//	    fmt.Println(wasm.SectionName(h.ID), n)
//	}
//
// Validate performs index checks only. Function bodies are not
// type-checked.
package wasm
