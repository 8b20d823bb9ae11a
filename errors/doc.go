// Package errors provides structured error types for wasm-stats.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). The Error type carries the section name and absolute
// byte offset of decode failures along with a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Section("code").
//		Offset(0x1f4).
//		Detail("unknown opcode 0x%02x", op).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseAnalyze, []string{"export", "run"}, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
