// Package stats profiles WebAssembly modules.
//
// Analyze walks a module's sections once in file order. Each section's
// re-encoded size goes into one size bucket. Every instruction of every
// function body is classified into a category and, for post-MVP features,
// a proposal counter. Imported and declared functions and globals are
// unified into index spaces so that exported surfaces can be audited for
// mutable globals and i64 signatures. The import and export names drive a
// first-match list of rules that guesses the producing toolchain.
//
//	s, err := stats.Analyze(data, stats.WithWorkers(runtime.NumCPU()))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(s.Language, s.Instr.Total)
package stats
