package report

import (
	"encoding/json"
	"io"

	"github.com/wippyai/wasm-stats/engine"
	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/stats"
)

// JSON writes s as a single newline-terminated JSON object. With indent
// the object is pretty-printed over several lines.
func JSON(w io.Writer, s *stats.Stats, indent bool) error {
	if s == nil {
		return errors.InvalidInput(errors.PhaseRender, "nil stats")
	}
	if s.CustomSections == nil {
		cp := *s
		cp.CustomSections = []string{}
		s = &cp
	}
	return encode(w, s, indent)
}

// EngineJSON writes r wrapped as {"engine": {...}}.
func EngineJSON(w io.Writer, r *engine.Report, indent bool) error {
	if r == nil {
		return errors.InvalidInput(errors.PhaseRender, "nil engine report")
	}
	return encode(w, struct {
		Engine *engine.Report `json:"engine"`
	}{r}, indent)
}

func encode(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.PhaseRender, errors.KindInvalidData, err, "encode json")
	}
	return nil
}
