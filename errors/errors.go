package errors

import (
	"fmt"
	"io/fs"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // reading module bytes
	PhaseDecode  Phase = "decode"  // binary to module
	PhaseAnalyze Phase = "analyze" // counting and resolution
	PhaseRender  Phase = "render"  // report output
	PhaseEngine  Phase = "engine"  // runtime compile check
	PhaseConfig  Phase = "config"  // flags and settings
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData  Kind = "invalid_data"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindUnsupported  Kind = "unsupported"
	KindTruncated    Kind = "truncated"
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
)

// Error is the structured error type used throughout the module.
// Offset is an absolute byte position in the module, or -1 when unknown.
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Section string
	Detail  string
	Path    []string
	Offset  int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Section != "" {
		b.WriteString(" in ")
		b.WriteString(e.Section)
		b.WriteString(" section")
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset 0x%x)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Section sets the section name
func (b *Builder) Section(name string) *Builder {
	b.err.Section = name
	return b
}

// Offset sets the absolute byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates an unsupported construct error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
		Offset: -1,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
		Offset: -1,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
		Offset: -1,
	}
}

// Truncated creates an error for input that ends early
func Truncated(phase Phase, section string, offset int, cause error) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTruncated,
		Section: section,
		Offset:  offset,
		Detail:  "unexpected end of input",
		Cause:   cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Offset: -1,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Offset: -1,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Offset: -1,
	}
}

// Load creates a module loading error. A missing file is KindNotFound;
// any other read failure is KindInvalidInput.
func Load(path string, cause error) *Error {
	var e *Error
	if Is(cause, fs.ErrNotExist) {
		e = NotFound(PhaseLoad, "file", path)
	} else {
		e = Wrap(PhaseLoad, KindInvalidInput, cause, fmt.Sprintf("read %s", path))
	}
	e.Cause = cause
	return e
}

// FileFailure records one input that could not be processed
type FileFailure struct {
	Err  error
	Path string
}

// BatchError is returned when one or more inputs of a batch fail
type BatchError struct {
	Failures []FileFailure
}

// NewBatchError collects failures keyed by input path, preserving order.
// It returns nil when no failure is recorded.
func NewBatchError(paths []string, errs []error) *BatchError {
	var result *BatchError
	for i, err := range errs {
		if err == nil {
			continue
		}
		if result == nil {
			result = &BatchError{}
		}
		result.Failures = append(result.Failures, FileFailure{Path: paths[i], Err: err})
	}
	return result
}

func phaseOf(err error) Phase {
	var e *Error
	if As(err, &e) {
		return e.Phase
	}
	return "other"
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 0 {
		return "[load] invalid_input: no failures recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d input(s) failed:\n", len(e.Failures))

	// Group by phase for cleaner output
	byPhase := make(map[Phase][]FileFailure)
	var order []Phase
	for _, f := range e.Failures {
		p := phaseOf(f.Err)
		if _, exists := byPhase[p]; !exists {
			order = append(order, p)
		}
		byPhase[p] = append(byPhase[p], f)
	}

	for _, p := range order {
		b.WriteString("\n  ")
		b.WriteString(string(p))
		b.WriteString(":\n")
		for _, f := range byPhase[p] {
			b.WriteString("    - ")
			b.WriteString(f.Path)
			b.WriteString(": ")
			b.WriteString(f.Err.Error())
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *BatchError) Is(target error) bool {
	_, ok := target.(*BatchError)
	return ok
}

// Unwrap exposes the individual failures to errors.Is and errors.As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
