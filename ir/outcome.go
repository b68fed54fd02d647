package ir

import (
	"fmt"

	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/token"
)

// Outcome is the non-value result of a constant evaluation.
//
// It is a closed sum: *NotConst, *Error and *BreakSignal. Break is a
// structured non-local transfer consumed at loop boundaries, not an error;
// callers outside the evaluator only ever observe NotConst and Error.
type Outcome interface {
	// Span returns the source region the outcome originates from.
	Span() token.Span
	outcome()
}

// NotConst reports a construct that exists in the language but is not
// permitted in constant context. The compiler downgrades it to "skip
// constant folding"; it carries no message.
type NotConst struct {
	At token.Span
}

func (o *NotConst) Span() token.Span { return o.At }
func (o *NotConst) outcome()         {}

func notConst(at token.Span) *NotConst {
	return &NotConst{At: at}
}

// Error is a hard constant evaluation error carrying the offending source
// region. It becomes a compile-time diagnostic.
type Error struct {
	At  token.Span
	Err error
}

func (e *Error) Span() token.Span { return e.At }
func (e *Error) outcome()         {}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func errAt(at token.Span, err error) *Error {
	return &Error{At: at, Err: err}
}

func errorf(at token.Span, format string, args ...any) *Error {
	return &Error{At: at, Err: fmt.Errorf(format, args...)}
}

// BreakSignal is the non-local exit raised by a break expression. It unwinds
// until a loop boundary consumes it: the innermost loop for an unlabeled
// break, the nearest enclosing loop with a matching label otherwise.
type BreakSignal struct {
	At    token.Span
	Label string
	// Value is the value the loop should produce; nil for a plain break.
	Value rill.Value
}

func (o *BreakSignal) Span() token.Span { return o.At }
func (o *BreakSignal) outcome()         {}
