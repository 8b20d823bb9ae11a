package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/stats"
)

// WazeroEngine compiles modules with wazero to cross-check a profile.
type WazeroEngine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per module in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// EnableThreads accepts shared memories and atomic instructions.
	EnableThreads bool
}

// NewWazeroEngine creates an engine with the threads proposal enabled.
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, &Config{EnableThreads: true})
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.EnableThreads {
			runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime}, nil
}

// Close releases the underlying runtime.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Mismatch is a count that wazero and the profile disagree on.
type Mismatch struct {
	Field  string `json:"field"`
	Stats  int    `json:"stats"`
	Engine int    `json:"engine"`
}

// Report is the outcome of a cross-check. A module wazero refuses to
// compile is reported, not returned as an error: the profile only needs
// a well-formed binary, while wazero also type-checks bodies and rejects
// proposals it does not implement.
type Report struct {
	Compiled   bool       `json:"compiled"`
	Error      string     `json:"error,omitempty"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether the module compiled and every count agreed.
func (r *Report) OK() bool {
	return r.Compiled && len(r.Mismatches) == 0
}

// Check compiles data and compares wazero's view of its imports and
// exports with s.
func (e *WazeroEngine) Check(ctx context.Context, data []byte, s *stats.Stats) (*Report, error) {
	if s == nil {
		return nil, errors.InvalidInput(errors.PhaseEngine, "nil stats")
	}

	report := &Report{Mismatches: []Mismatch{}}
	compiled, err := e.runtime.CompileModule(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.PhaseEngine, errors.KindInvalidInput, ctx.Err(), "compile cancelled")
		}
		Logger().Debug("compile rejected", zap.Error(err))
		report.Error = err.Error()
		return report, nil
	}
	defer compiled.Close(ctx)
	report.Compiled = true

	compare := func(field string, want, got int) {
		if want != got {
			report.Mismatches = append(report.Mismatches, Mismatch{Field: field, Stats: want, Engine: got})
		}
	}
	compare("imports.funcs", s.Imports.Funcs, len(compiled.ImportedFunctions()))
	compare("imports.memories", s.Imports.Memories, len(compiled.ImportedMemories()))
	compare("exports.funcs", s.Exports.Funcs, len(compiled.ExportedFunctions()))
	compare("exports.memories", s.Exports.Memories, len(compiled.ExportedMemories()))

	Logger().Debug("engine check",
		zap.Bool("compiled", report.Compiled),
		zap.Int("mismatches", len(report.Mismatches)))
	return report, nil
}

// Check runs a one-off cross-check on a fresh engine with threads enabled.
func Check(ctx context.Context, data []byte, s *stats.Stats) (*Report, error) {
	e, err := NewWazeroEngine(ctx)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	defer e.Close(ctx)
	return e.Check(ctx, data, s)
}
