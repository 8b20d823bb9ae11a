package stats

import (
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/wasm"
)

// Option configures an analysis.
type Option func(*options)

type options struct {
	workers int
	strict  bool
}

// WithWorkers classifies function bodies on up to n goroutines.
// Results are identical to a serial pass.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithStrict runs index validation before analysis, so that dangling
// type, function, or export indices fail at decode time.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Analyze decodes a WebAssembly binary and profiles it. Any decode or
// resolution failure aborts the analysis and no partial Stats is returned.
func Analyze(data []byte, opts ...Option) (*Stats, error) {
	m, err := wasm.ParseModule(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return AnalyzeModule(m, len(data), opts...)
}

// AnalyzeModule profiles an already decoded module. size is the length of
// the binary it was decoded from and is reported as Size.Total.
func AnalyzeModule(m *wasm.Module, size int, opts ...Option) (*Stats, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if o.strict {
		if err := m.Validate(); err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "validate module")
		}
	}

	s := &Stats{
		Language:       InferLanguage(m.Imports, m.Exports),
		Size:           Sizes{Total: size},
		CustomSections: []string{},
	}

	// Imports open every index space, whatever order sections come in.
	var space indexSpace
	if err := space.addImports(m.Imports); err != nil {
		return nil, err
	}

	for _, h := range m.Layout() {
		n, err := m.SectionSize(h)
		if err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Section(wasm.SectionName(h.ID)).
				Offset(h.Offset).
				Detail("measure section").
				Cause(err).
				Build()
		}
		Logger().Debug("section",
			zap.String("kind", wasm.SectionName(h.ID)),
			zap.Int("offset", h.Offset),
			zap.Int("size", n))

		switch h.ID {
		case wasm.SectionCustom:
			s.Size.Custom += n
			s.CustomSections = append(s.CustomSections, m.CustomSections[h.Index].Name)
		case wasm.SectionType:
			s.Size.Types += n
			for _, ft := range m.Types {
				if len(ft.Results) > 1 {
					s.Instr.Proposals.MultiValue++
				}
			}
		case wasm.SectionImport:
			s.Size.Externals += n
			s.Imports = countImports(m.Imports)
		case wasm.SectionFunction:
			s.Size.Descriptors += n
			space.declareFuncs(m.Funcs)
		case wasm.SectionTable, wasm.SectionTag:
			s.Size.Descriptors += n
		case wasm.SectionMemory:
			s.Size.Descriptors += n
			for _, mem := range m.Memories {
				if mem.Limits.Shared {
					s.Instr.Proposals.Atomics++
				}
			}
		case wasm.SectionGlobal:
			s.Size.Descriptors += n
			space.declareGlobals(m.Globals)
		case wasm.SectionExport:
			s.Size.Externals += n
			s.Exports = countExports(m.Exports)
			if err := space.markExports(m.Exports); err != nil {
				return nil, err
			}
		case wasm.SectionStart:
			s.HasStart = true
		case wasm.SectionElement, wasm.SectionData:
			s.Size.Init += n
		case wasm.SectionDataCount:
			s.Instr.Proposals.Bulk++
		case wasm.SectionCode:
			s.Size.Code = n
			s.Funcs = len(m.Code)
			instr, err := classifyBodies(m, o.workers)
			if err != nil {
				return nil, err
			}
			s.Instr.add(instr)
		}
	}

	if err := space.audit(m.Types, &s.Instr.Proposals); err != nil {
		return nil, err
	}

	Logger().Debug("analyzed module",
		zap.Int("funcs", s.Funcs),
		zap.Stringer("language", s.Language),
		zap.Int("instructions", s.Instr.Total))
	return s, nil
}

// classifyBodies tallies every function body. With more than one worker
// the bodies are spread over an errgroup and merged afterwards. The error
// reported is always the one of the lowest failing body.
func classifyBodies(m *wasm.Module, workers int) (Instructions, error) {
	base := m.NumImportedFuncs()
	var total Instructions

	if workers <= 1 || len(m.Code) < 2 {
		for i := range m.Code {
			if err := classifyBody(&total, &m.Code[i]); err != nil {
				return Instructions{}, bodyError(base+i, &m.Code[i], err)
			}
		}
		return total, nil
	}

	tallies := make([]Instructions, len(m.Code))
	errs := make([]error, len(m.Code))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range m.Code {
		i := i
		g.Go(func() error {
			errs[i] = classifyBody(&tallies[i], &m.Code[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range tallies {
		if errs[i] != nil {
			return Instructions{}, bodyError(base+i, &m.Code[i], errs[i])
		}
		total.add(tallies[i])
	}
	return total, nil
}

// classifyBody counts every instruction of a body, its closing end included.
func classifyBody(in *Instructions, body *wasm.FuncBody) error {
	ir := wasm.NewInstructionReader(body.Code)
	for {
		instr, err := ir.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &bodyFailure{offset: ir.Offset(), err: err}
		}
		in.Count(instr)
	}
}

// bodyFailure carries the position within a body where decoding stopped.
type bodyFailure struct {
	err    error
	offset int
}

func (f *bodyFailure) Error() string { return f.err.Error() }
func (f *bodyFailure) Unwrap() error { return f.err }

func bodyError(funcIdx int, body *wasm.FuncBody, err error) error {
	e := decodeError(err)
	e.Section = wasm.SectionName(wasm.SectionCode)
	e.Path = []string{"func", strconv.Itoa(funcIdx)}
	var bf *bodyFailure
	if errors.As(err, &bf) {
		e.Offset = body.Offset + bf.offset
		e.Cause = bf.err
	}
	return e
}

// decodeError maps a decoder failure onto the structured error type.
func decodeError(err error) *errors.Error {
	section, offset := "", -1
	var pe *wasm.ParseError
	if errors.As(err, &pe) {
		section = strings.TrimSuffix(pe.Section, " section")
		offset = pe.Position
	}

	var e *errors.Error
	switch {
	case errors.Is(err, wasm.ErrUnsupported):
		e = errors.Unsupported(errors.PhaseDecode, "GC proposal construct")
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return errors.Truncated(errors.PhaseDecode, section, offset, err)
	default:
		e = errors.InvalidData(errors.PhaseDecode, nil, "malformed module")
	}
	e.Section = section
	e.Offset = offset
	e.Cause = err
	return e
}
