package ir_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/ir"
)

func lit(v rill.Value) *ir.Const {
	return &ir.Const{Value: v}
}

func intLit(x int64) *ir.Const {
	return lit(rill.NewInt(x))
}

func binary(op ir.BinaryOp, lhs, rhs ir.Ir) *ir.Binary {
	return &ir.Binary{Op: op, LHS: lhs, RHS: rhs}
}

func evalNode(t *testing.T, node ir.Ir) (rill.Value, ir.Outcome) {
	t.Helper()
	interp := ir.NewInterpreter(nil, 10_000)
	value, outcome := interp.Eval(node, ir.Speculative)
	require.Equal(t, 1, interp.Scopes.Depth(), "scope stack must be balanced")
	return value, outcome
}

func requireValue(t *testing.T, want rill.Value, node ir.Ir) {
	t.Helper()
	got, outcome := evalNode(t, node)
	require.Nil(t, outcome)
	eq, err := rill.Equal(want, got)
	require.NoError(t, err)
	require.True(t, eq, "want %s, got %s", want, got)
}

func requireError(t *testing.T, want error, node ir.Ir) {
	t.Helper()
	_, outcome := evalNode(t, node)
	evalErr, ok := outcome.(*ir.Error)
	require.True(t, ok, "want an error outcome, got %#v", outcome)
	require.ErrorIs(t, evalErr, want)
}

func TestEval_Binary(t *testing.T) {
	requireValue(t, rill.NewInt(5), binary(ir.Add, intLit(2), intLit(3)))
	requireValue(t, rill.NewInt(-1), binary(ir.Sub, intLit(2), intLit(3)))
	requireValue(t, rill.NewInt(6), binary(ir.Mul, intLit(2), intLit(3)))
	requireValue(t, rill.NewInt(3), binary(ir.Div, intLit(7), intLit(2)))
	requireValue(t, rill.NewInt(8), binary(ir.Shl, intLit(1), intLit(3)))
	requireValue(t, rill.NewInt(2), binary(ir.Shr, intLit(8), intLit(2)))
	requireValue(t, rill.Bool(true), binary(ir.Lt, intLit(2), intLit(3)))
	requireValue(t, rill.Bool(false), binary(ir.Gt, intLit(2), intLit(3)))
	requireValue(t, rill.Bool(true), binary(ir.Eq, intLit(2), intLit(2)))

	requireValue(t, rill.Float(3.5), binary(ir.Add, lit(rill.Float(1.5)), lit(rill.Float(2))))
	requireValue(t, rill.Bool(true), binary(ir.Lte, lit(rill.Float(1.5)), lit(rill.Float(2))))

	requireValue(t, rill.NewString("ab"),
		binary(ir.Add, lit(rill.NewString("a")), lit(rill.NewString("b"))))
}

func TestEval_DivisionByZero(t *testing.T) {
	requireError(t, ir.ErrDivisionByZero, binary(ir.Div, intLit(1), intLit(0)))
}

func TestEval_ShiftBounds(t *testing.T) {
	const maxShift = 1<<32 - 1

	// the full 32-bit unsigned range is accepted; shifting right keeps the
	// result small
	requireValue(t, rill.NewInt(0), binary(ir.Shr, intLit(1), intLit(maxShift)))

	// one past the bound is rejected
	requireError(t, ir.ErrShiftOperand, binary(ir.Shl, intLit(1), intLit(maxShift+1)))
	requireError(t, ir.ErrShiftOperand, binary(ir.Shr, intLit(1), intLit(maxShift+1)))
	requireError(t, ir.ErrShiftOperand, binary(ir.Shr, intLit(1), intLit(-1)))
}

func TestEval_NotConst(t *testing.T) {
	notConst := func(node ir.Ir) {
		t.Helper()
		_, outcome := evalNode(t, node)
		require.IsType(t, &ir.NotConst{}, outcome)
	}

	// heterogeneous operands
	notConst(binary(ir.Add, intLit(1), lit(rill.Float(1.5))))
	// no float shifts
	notConst(binary(ir.Shl, lit(rill.Float(1)), lit(rill.Float(2))))
	// no string comparisons
	notConst(binary(ir.Lt, lit(rill.NewString("a")), lit(rill.NewString("b"))))
	// unresolvable call target
	notConst(&ir.Call{Name: "missing"})
	// non-scalar template component
	notConst(&ir.Template{Components: []ir.TemplateComponent{
		ir.TemplateExpr{Ir: &ir.Vec{}},
	}})
}

func TestEval_Scope(t *testing.T) {
	// Scope { Decl("x", 10); last = Name("x") }
	requireValue(t, rill.NewInt(10), &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "x", Value: intLit(10)},
		},
		Last: &ir.Name{Ident: "x"},
	})

	// a scope without a trailing expression yields unit
	requireValue(t, rill.Unit{}, &ir.Scope{
		Instructions: []ir.Ir{&ir.Decl{Name: "x", Value: intLit(1)}},
	})

	// re-declaration in the same frame replaces the binding
	requireValue(t, rill.NewInt(2), &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "x", Value: intLit(1)},
			&ir.Decl{Name: "x", Value: intLit(2)},
		},
		Last: &ir.Name{Ident: "x"},
	})
}

func TestEval_ValueRoundTrip(t *testing.T) {
	values := []rill.Value{
		rill.Unit{},
		rill.Bool(true),
		rill.NewInt(42),
		rill.Float(1.5),
		rill.NewString("a"),
		rill.NewVec([]rill.Value{rill.NewInt(1)}),
		rill.NewTuple([]rill.Value{rill.NewInt(1), rill.NewInt(2)}),
		rill.NewObject(map[string]rill.Value{"a": rill.NewInt(1)}),
	}
	for _, value := range values {
		requireValue(t, value, lit(value))
		// eval(Scope { last = e }) == eval(e)
		requireValue(t, value, &ir.Scope{Last: lit(value)})
	}
}

func TestEval_Containers(t *testing.T) {
	got, outcome := evalNode(t, &ir.Vec{Items: []ir.Ir{intLit(1), intLit(2), intLit(3)}})
	require.Nil(t, outcome)
	require.Equal(t, "[1, 2, 3]", got.String())

	got, outcome = evalNode(t, &ir.Tuple{Items: []ir.Ir{intLit(1), lit(rill.Bool(true))}})
	require.Nil(t, outcome)
	require.Equal(t, "(1, true)", got.String())

	got, outcome = evalNode(t, &ir.Object{Fields: []ir.ObjectField{
		{Key: "b", Value: intLit(2)},
		{Key: "a", Value: intLit(1)},
	}})
	require.Nil(t, outcome)
	require.Equal(t, "#{a: 1, b: 2}", got.String())

	// empty containers
	got, _ = evalNode(t, &ir.Vec{})
	require.Equal(t, "[]", got.String())
	got, _ = evalNode(t, &ir.Tuple{})
	require.Equal(t, "()", got.String())
	got, _ = evalNode(t, &ir.Object{})
	require.Equal(t, "#{}", got.String())
}

func TestEval_Template(t *testing.T) {
	// Template([Lit "x=", Ir(Value(Integer 42))])
	requireValue(t, rill.NewString("x=42"), &ir.Template{
		Components: []ir.TemplateComponent{
			ir.TemplateChunk{Value: "x="},
			ir.TemplateExpr{Ir: intLit(42)},
		},
	})

	requireValue(t, rill.NewString("1.5 true a"), &ir.Template{
		Components: []ir.TemplateComponent{
			ir.TemplateExpr{Ir: lit(rill.Float(1.5))},
			ir.TemplateChunk{Value: " "},
			ir.TemplateExpr{Ir: lit(rill.Bool(true))},
			ir.TemplateChunk{Value: " "},
			ir.TemplateExpr{Ir: lit(rill.NewString("a"))},
		},
	})

	// empty template yields the empty string
	requireValue(t, rill.NewString(""), &ir.Template{})
}

func TestEval_Branches(t *testing.T) {
	body := func(x int64) *ir.Scope {
		return &ir.Scope{Last: intLit(x)}
	}

	// first false branch falls through to the default
	requireValue(t, rill.NewInt(9), &ir.Branches{
		Branches: []ir.Branch{
			{Condition: &ir.CondExpr{Ir: lit(rill.Bool(false))}, Body: body(1)},
		},
		Default: body(9),
	})

	// first matching branch wins
	requireValue(t, rill.NewInt(2), &ir.Branches{
		Branches: []ir.Branch{
			{Condition: &ir.CondExpr{Ir: lit(rill.Bool(false))}, Body: body(1)},
			{Condition: &ir.CondExpr{Ir: lit(rill.Bool(true))}, Body: body(2)},
			{Condition: &ir.CondExpr{Ir: lit(rill.Bool(true))}, Body: body(3)},
		},
	})

	// no branch and no default yields unit
	requireValue(t, rill.Unit{}, &ir.Branches{
		Branches: []ir.Branch{
			{Condition: &ir.CondExpr{Ir: lit(rill.Bool(false))}, Body: body(1)},
		},
	})

	// a condition must be a bool
	_, outcome := evalNode(t, &ir.Branches{
		Branches: []ir.Branch{
			{Condition: &ir.CondExpr{Ir: intLit(1)}, Body: body(1)},
		},
	})
	evalErr, ok := outcome.(*ir.Error)
	require.True(t, ok)
	var unexpected *ir.UnexpectedTypeError
	require.True(t, errors.As(evalErr, &unexpected))
	require.Equal(t, "bool", unexpected.Expected)
	require.Equal(t, "int", unexpected.Actual)
}

func TestEval_Loop(t *testing.T) {
	// Loop(cond=false, body=...) yields unit without entering the body
	requireValue(t, rill.Unit{}, &ir.Loop{
		Condition: &ir.CondExpr{Ir: lit(rill.Bool(false))},
		Body:      &ir.Scope{Last: intLit(1)},
	})

	// Loop(label="outer", cond=None, body=Break(label="outer", value=7))
	requireValue(t, rill.NewInt(7), &ir.Loop{
		Label: "outer",
		Body: &ir.Scope{
			Last: &ir.Break{Label: "outer", Value: intLit(7)},
		},
	})

	// a plain break exits the innermost loop with unit
	requireValue(t, rill.Unit{}, &ir.Loop{
		Body: &ir.Scope{Last: &ir.Break{}},
	})

	// a value break exits an unconditional loop with the value
	requireValue(t, rill.NewInt(3), &ir.Loop{
		Body: &ir.Scope{Last: &ir.Break{Value: intLit(3)}},
	})
}

func TestEval_LoopLabels(t *testing.T) {
	// a non-matching label is re-raised past the inner loop
	requireValue(t, rill.NewInt(5), &ir.Loop{
		Label: "outer",
		Body: &ir.Scope{
			Last: &ir.Loop{
				Label: "inner",
				Body: &ir.Scope{
					Last: &ir.Break{Label: "outer", Value: intLit(5)},
				},
			},
		},
	})
}

func TestEval_BreakErrors(t *testing.T) {
	// a value break in a conditional loop is an error
	requireError(t, ir.ErrBreakInConditionalLoop, &ir.Loop{
		Condition: &ir.CondExpr{Ir: lit(rill.Bool(true))},
		Body:      &ir.Scope{Last: &ir.Break{Value: intLit(1)}},
	})

	// a break escaping the outermost loop is an error
	requireError(t, ir.ErrBreakOutsideLoop, &ir.Break{})

	// an unknown label is an error once it escapes
	requireError(t, ir.ErrBreakOutsideLoop, &ir.Loop{
		Label: "a",
		Body:  &ir.Scope{Last: &ir.Break{Label: "b"}},
	})
}

func TestEval_SetAndAssign(t *testing.T) {
	target := func(name string) *ir.Target {
		return &ir.Target{Kind: ir.TargetName{Name: name}}
	}

	requireValue(t, rill.NewInt(7), &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "x", Value: intLit(1)},
			&ir.Set{Target: target("x"), Value: intLit(7)},
		},
		Last: &ir.Name{Ident: "x"},
	})

	requireValue(t, rill.NewInt(6), &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "x", Value: intLit(2)},
			&ir.Assign{Target: target("x"), Op: ir.Mul, Value: intLit(3)},
		},
		Last: &ir.Name{Ident: "x"},
	})

	requireError(t, ir.ErrDivisionByZero, &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "x", Value: intLit(2)},
			&ir.Assign{Target: target("x"), Op: ir.Div, Value: intLit(0)},
		},
	})
}

func TestEval_Targets(t *testing.T) {
	object := &ir.Object{Fields: []ir.ObjectField{
		{Key: "items", Value: &ir.Vec{Items: []ir.Ir{intLit(1), intLit(2)}}},
	}}
	root := &ir.Target{Kind: ir.TargetName{Name: "o"}}
	items := &ir.Target{Kind: ir.TargetField{Target: root, Name: "items"}}
	first := &ir.Target{Kind: ir.TargetIndex{Target: items, Index: 0}}

	requireValue(t, rill.NewInt(11), &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "o", Value: object},
			&ir.Assign{Target: first, Op: ir.Add, Value: intLit(10)},
		},
		Last: first,
	})

	// missing field
	_, outcome := evalNode(t, &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "o", Value: object},
			&ir.Set{
				Target: &ir.Target{Kind: ir.TargetIndex{
					Target: &ir.Target{Kind: ir.TargetField{Target: root, Name: "nope"}},
					Index:  0,
				}},
				Value: intLit(1),
			},
		},
	})
	evalErr, ok := outcome.(*ir.Error)
	require.True(t, ok)
	var missingField *ir.MissingFieldError
	require.True(t, errors.As(evalErr, &missingField))

	// out of bounds
	_, outcome = evalNode(t, &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "o", Value: object},
			&ir.Set{
				Target: &ir.Target{Kind: ir.TargetIndex{Target: items, Index: 5}},
				Value:  intLit(1),
			},
		},
	})
	evalErr, ok = outcome.(*ir.Error)
	require.True(t, ok)
	var outOfBounds *ir.IndexOutOfBoundsError
	require.True(t, errors.As(evalErr, &outOfBounds))
}

func TestEval_MissingBinding(t *testing.T) {
	_, outcome := evalNode(t, &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "count", Value: intLit(1)},
		},
		Last: &ir.Name{Ident: "cuont"},
	})
	evalErr, ok := outcome.(*ir.Error)
	require.True(t, ok)
	var missing *ir.MissingBindingError
	require.True(t, errors.As(evalErr, &missing))
	require.Equal(t, "cuont", missing.Name)
	require.Equal(t, "count", missing.Suggestion)
	require.EqualError(t, missing, `cannot find binding "cuont", did you mean "count"?`)
}

func TestEval_Budget(t *testing.T) {
	interp := ir.NewInterpreter(nil, 3)
	_, outcome := interp.Eval(binary(ir.Add, intLit(1), binary(ir.Add, intLit(2), intLit(3))), ir.Speculative)
	evalErr, ok := outcome.(*ir.Error)
	require.True(t, ok)
	require.ErrorIs(t, evalErr, ir.ErrBudgetExceeded)
	require.Equal(t, 0, interp.Budget.Remaining())

	// an unconditional loop without breaks runs the budget dry instead of
	// hanging
	interp = ir.NewInterpreter(nil, 100)
	_, outcome = interp.Eval(&ir.Loop{Body: &ir.Scope{}}, ir.Speculative)
	evalErr, ok = outcome.(*ir.Error)
	require.True(t, ok)
	require.ErrorIs(t, evalErr, ir.ErrBudgetExceeded)

	// the budget decreases monotonically
	interp = ir.NewInterpreter(nil, 100)
	before := interp.Budget.Remaining()
	_, _ = interp.Eval(binary(ir.Add, intLit(1), intLit(2)), ir.Speculative)
	require.Less(t, interp.Budget.Remaining(), before)
}

func TestEval_BorrowConflict(t *testing.T) {
	// appending a string to itself needs the cell both exclusively and
	// shared at the same time, which the access discipline rejects
	str := rill.NewString("a")
	_, outcome := evalNode(t, &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "s", Value: lit(str)},
			&ir.Assign{
				Target: &ir.Target{Kind: ir.TargetName{Name: "s"}},
				Op:     ir.Add,
				Value:  &ir.Name{Ident: "s"},
			},
		},
	})
	evalErr, ok := outcome.(*ir.Error)
	require.True(t, ok)
	var notRef *rill.NotAccessibleRef
	require.True(t, errors.As(evalErr, &notRef))
	require.Equal(t, rill.Snapshot(1), notRef.Snapshot)
}

func TestEval_Determinism(t *testing.T) {
	tree := &ir.Scope{
		Instructions: []ir.Ir{
			&ir.Decl{Name: "x", Value: intLit(1)},
			&ir.Assign{
				Target: &ir.Target{Kind: ir.TargetName{Name: "x"}},
				Op:     ir.Shl,
				Value:  intLit(4),
			},
		},
		Last: binary(ir.Add, &ir.Name{Ident: "x"}, intLit(2)),
	}

	first, outcome := evalNode(t, tree)
	require.Nil(t, outcome)
	second, outcome := evalNode(t, tree)
	require.Nil(t, outcome)

	eq, err := rill.Equal(first, second)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestScopes_PopMismatch(t *testing.T) {
	scopes := ir.NewScopes()
	guard := scopes.Push()
	scopes.Pop(guard)
	require.Panics(t, func() { scopes.Pop(guard) })
}
