package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in the bundle pipeline the error occurred
type Phase string

const (
	PhaseDiscover Phase = "discover" // bundle directory validation
	PhaseParse    Phase = "parse"    // config/manifest/WIT parsing
	PhaseResolve  Phase = "resolve"  // manifest entry resolution
	PhaseLoad     Phase = "load"     // native library loading
	PhaseLink     Phase = "link"     // dispatch target contribution
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound     Kind = "not_found"     // directory, file, or manifest missing
	KindParse        Kind = "parse"         // malformed config or manifest content
	KindValidation   Kind = "validation"    // config references a path that doesn't exist
	KindResolution   Kind = "resolution"    // named bundle not found in any search location
	KindLoad         Kind = "load"          // native library could not be loaded
	KindLink         Kind = "link"          // adapter could not contribute its operations
	KindUnsupported  Kind = "unsupported"   // strategy or platform not available
	KindConflict     Kind = "conflict"      // duplicate or contradictory declarations
	KindInvalidInput Kind = "invalid_input" // caller-supplied value rejected
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Bundle string
	Path   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Bundle != "" {
		b.WriteString(" bundle ")
		b.WriteString(strconv.Quote(e.Bundle))
	}

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
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

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Phase and Kind, ignoring context fields
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
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Bundle sets the offending bundle or entry name
func (b *Builder) Bundle(name string) *Builder {
	b.err.Bundle = name
	return b
}

// Path sets the filesystem path involved
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
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

// NotFound creates a not-found error for a missing file or directory
func NotFound(phase Phase, what, path string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Path:   path,
		Detail: what + " not found",
	}
}

// Validation creates an error for a config referencing a missing path
func Validation(phase Phase, bundle, path, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindValidation,
		Bundle: bundle,
		Path:   path,
		Detail: detail,
	}
}

// Resolution creates an error for a bundle that no search location contains
func Resolution(bundle, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindResolution,
		Bundle: bundle,
		Detail: detail,
	}
}

// Conflict creates an error for duplicate or contradictory declarations
func Conflict(phase Phase, bundle, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConflict,
		Bundle: bundle,
		Detail: detail,
	}
}

// Unsupported creates an error for an unavailable strategy or platform
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an error for a rejected caller-supplied value
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
