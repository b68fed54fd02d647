package ir

import (
	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/token"
)

// CallDepthLimit is the maximum nesting of constant function calls.
var CallDepthLimit = 64

// Usage distinguishes evaluation whose result feeds the compiled output from
// speculative evaluation. It propagates through constant function calls into
// the query's dependency tracking.
type Usage uint8

// List of usages.
const (
	Speculative Usage = iota
	Compilation
)

// Interpreter holds the state of a constant evaluation: the scope stack, the
// work budget and the query used to resolve constant functions.
type Interpreter struct {
	Scopes *Scopes
	Budget *Budget

	query     Query
	callDepth int
}

// NewInterpreter creates an interpreter with an empty scope stack and the
// given budget. The query may be nil, in which case every call target is
// treated as non-constant.
func NewInterpreter(query Query, budget int) *Interpreter {
	return &Interpreter{
		Scopes: NewScopes(),
		Budget: NewBudget(budget),
		query:  query,
	}
}

// Eval folds an IR tree into a value. A break escaping the outermost loop is
// reported as an error; well-formed lowered trees never produce one.
func (interp *Interpreter) Eval(node Ir, usage Usage) (rill.Value, Outcome) {
	value, outcome := EvalIr(node, interp, usage)
	if brk, ok := outcome.(*BreakSignal); ok {
		return nil, errAt(brk.At, ErrBreakOutsideLoop)
	}
	return value, outcome
}

// ResolveVar looks up a named binding, walking the scope stack from the
// innermost frame.
func (interp *Interpreter) ResolveVar(at token.Span, name string) (rill.Value, *Error) {
	if value, ok := interp.Scopes.Get(name); ok {
		return value, nil
	}
	return nil, interp.Scopes.missing(at, name)
}

// CallConstFn resolves a call target to a registered constant function and
// evaluates its body in a fresh scope stack, sharing the budget of the
// calling evaluation. When the evaluation is for compilation, the function
// is recorded as a dependency.
func (interp *Interpreter) CallConstFn(at token.Span, name string, args []rill.Value, usage Usage) (rill.Value, Outcome) {
	if interp.query == nil {
		return nil, notConst(at)
	}
	fn, ok := interp.query.ConstFn(name)
	if !ok {
		return nil, notConst(at)
	}
	if len(args) != len(fn.Params) {
		return nil, errorf(at, "%s expects %d arguments, got %d", fn.Path, len(fn.Params), len(args))
	}
	if interp.callDepth >= CallDepthLimit {
		return nil, errAt(at, ErrCallDepth)
	}
	if usage == Compilation {
		interp.query.MarkUsed(fn.ID)
	}

	saved := interp.Scopes
	interp.Scopes = NewScopes()
	for i, param := range fn.Params {
		interp.Scopes.Decl(param, args[i])
	}
	interp.callDepth++

	value, outcome := EvalIr(fn.Body, interp, usage)

	interp.callDepth--
	interp.Scopes = saved

	if brk, ok := outcome.(*BreakSignal); ok {
		return nil, errAt(brk.At, ErrBreakOutsideLoop)
	}
	if outcome != nil {
		return nil, outcome
	}
	return value, nil
}
