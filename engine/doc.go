// Package engine cross-checks a module profile against wazero.
//
// The stats package decodes modules on its own and never executes them.
// Check compiles the same bytes with wazero and compares the import and
// export counts wazero sees with the ones in the profile. A module that
// wazero cannot compile is not an error: the Report records the reason.
//
//	s, _ := stats.Analyze(data)
//	report, err := engine.Check(ctx, data, s)
//	if err == nil && !report.OK() {
//	    // profile and engine disagree
//	}
//
// Engines are safe for concurrent use. Reuse one WazeroEngine across
// many checks to amortize runtime setup.
package engine
