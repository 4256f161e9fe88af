// Package errs defines the evaluator's error taxonomy: a typed kind,
// an optional position, a trace-frame stack, and suggestion lists.
package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/purelang/evalcore/internal/postable"
)

// Kind classifies the failure per the evaluator's failure taxonomy.
type Kind int

const (
	ParseError Kind = iota
	EvalError
	TypeError
	AssertionError
	ThrownError
	Abort
	UndefinedVarError
	MissingArgumentError
	InfiniteRecursionError
	InvalidPathError
	RestrictedPathError
	Interrupted
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse error"
	case EvalError:
		return "evaluation error"
	case TypeError:
		return "type error"
	case AssertionError:
		return "assertion failed"
	case ThrownError:
		return "thrown error"
	case Abort:
		return "abort"
	case UndefinedVarError:
		return "undefined variable"
	case MissingArgumentError:
		return "missing argument"
	case InfiniteRecursionError:
		return "infinite recursion encountered"
	case InvalidPathError:
		return "invalid path"
	case RestrictedPathError:
		return "restricted path"
	case Interrupted:
		return "interrupted"
	default:
		return "error"
	}
}

// Frame is one entry in a DebugTraceStack: a position paired with a
// short hint describing what was being evaluated there.
type Frame struct {
	Pos  postable.PosIdx
	Hint string
}

// Error is the evaluator's raised-error type. It is always produced via
// New so that a pkg/errors stack trace is attached at the point of
// origin.
type Error struct {
	Kind        Kind
	Pos         postable.PosIdx
	Msg         string
	Trace       []Frame
	Suggestions []string
	cause       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean: ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
		b.WriteString("?)")
	}
	return b.String()
}

// Unwrap exposes the pkg/errors-wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs an Error of the given kind with a formatted message,
// capturing a Go-level stack trace via pkg/errors.
func New(kind Kind, pos postable.PosIdx, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:  kind,
		Pos:   pos,
		Msg:   msg,
		cause: errors.New(msg),
	}
}

// WithSuggestions attaches a list of did-you-mean candidates and
// returns e for chaining.
func (e *Error) WithSuggestions(candidates []string) *Error {
	e.Suggestions = candidates
	return e
}

// PushTrace appends a trace frame (evaluated innermost-first; callers
// append as the panic unwinds outward) and returns e for chaining.
func (e *Error) PushTrace(pos postable.PosIdx, hint string) *Error {
	e.Trace = append(e.Trace, Frame{Pos: pos, Hint: hint})
	return e
}

// Throw panics with a freshly constructed Error. The evaluator recovers
// these panics at function-call, select, and file-load boundaries,
// augmenting the trace before re-panicking or returning.
func Throw(kind Kind, pos postable.PosIdx, format string, args ...interface{}) {
	panic(New(kind, pos, format, args...))
}

// AsEvalError type-asserts r (typically a recover() result) to *Error,
// wrapping unrelated panics as a generic EvalError so callers never see
// a bare interface{}.
func AsEvalError(r interface{}) *Error {
	if e, ok := r.(*Error); ok {
		return e
	}
	if err, ok := r.(error); ok {
		return New(EvalError, postable.NoPos, "%s", err.Error())
	}
	return New(EvalError, postable.NoPos, "%v", r)
}
