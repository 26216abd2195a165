package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRead   Phase = "read"   // bitstream decoding
	PhaseParse  Phase = "parse"  // block and record interpretation
	PhaseLoad   Phase = "load"   // acquiring the byte buffer
	PhaseConfig Phase = "config" // configuration loading
	PhaseRender Phase = "render" // module output
)

// Kind categorizes the error
type Kind string

const (
	KindEOF           Kind = "eof"
	KindDataNotEnough Kind = "data_not_enough"
	KindDataError     Kind = "data_error"
	KindScopeMismatch Kind = "scope_mismatch"
	KindNotSupported  Kind = "not_supported"
	KindInternal      Kind = "internal"
	KindInvalidInput  Kind = "invalid_input"
)

// Sentinels for errors.Is. A sentinel has no phase and matches any error of
// the same kind.
var (
	ErrEOF           = &Error{Kind: KindEOF}
	ErrDataNotEnough = &Error{Kind: KindDataNotEnough}
	ErrDataError     = &Error{Kind: KindDataError}
	ErrScopeMismatch = &Error{Kind: KindScopeMismatch}
	ErrNotSupported  = &Error{Kind: KindNotSupported}
	ErrInternal      = &Error{Kind: KindInternal}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Block     string
	Detail    string
	Record    uint32
	HasRecord bool
	BitOffset int64 // -1 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Block != "" {
		b.WriteString(" in ")
		b.WriteString(e.Block)
		b.WriteString(" block")
	}

	if e.HasRecord {
		fmt.Fprintf(&b, " (record %d)", e.Record)
	}

	if e.BitOffset >= 0 && e.Phase != "" {
		fmt.Fprintf(&b, " at bit %d", e.BitOffset)
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

// Is reports whether target matches this error. Targets without a phase
// match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || e.Phase == t.Phase
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:     phase,
			Kind:      kind,
			BitOffset: -1,
		},
	}
}

// Block sets the name of the enclosing block
func (b *Builder) Block(name string) *Builder {
	b.err.Block = name
	return b
}

// Record sets the record code being decoded
func (b *Builder) Record(code uint32) *Builder {
	b.err.Record = code
	b.err.HasRecord = true
	return b
}

// At sets the bit offset where the error was detected
func (b *Builder) At(bit int64) *Builder {
	b.err.BitOffset = bit
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

// EOF creates an end-of-buffer error
func EOF(phase Phase, bit int64) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindEOF,
		BitOffset: bit,
		Detail:    "no more bits available",
	}
}

// ScopeMismatch creates a block end without matching enter error
func ScopeMismatch(phase Phase, bit int64) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindScopeMismatch,
		BitOffset: bit,
		Detail:    "block end without matching block enter",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindInvalidInput,
		BitOffset: -1,
		Detail:    detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      kind,
		BitOffset: -1,
		Detail:    detail,
		Cause:     cause,
	}
}

// Load creates a buffer loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:     PhaseLoad,
		Kind:      KindInvalidInput,
		BitOffset: -1,
		Detail:    detail,
		Cause:     cause,
	}
}
