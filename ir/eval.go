package ir

import (
	"fmt"
	"strings"

	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/token"
)

// EvalIr evaluates a single IR node. One budget unit is charged before
// descending into the node.
//
// Evaluation is fully synchronous and deterministic: left-to-right,
// depth-first, with strictly nested scope frames.
func EvalIr(node Ir, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	if err := interp.Budget.Take(node.Span()); err != nil {
		return nil, err
	}

	switch node := node.(type) {
	case *Scope:
		return evalScope(node, interp, usage)
	case *Binary:
		return evalBinary(node, interp, usage)
	case *Decl:
		return evalDecl(node, interp, usage)
	case *Set:
		return evalSet(node, interp, usage)
	case *Assign:
		return evalAssign(node, interp, usage)
	case *Template:
		return evalTemplate(node, interp, usage)
	case *Name:
		value, err := interp.ResolveVar(node.At, node.Ident)
		if err != nil {
			return nil, err
		}
		return value, nil
	case *Target:
		value, err := interp.Scopes.GetTarget(node)
		if err != nil {
			return nil, err
		}
		return value, nil
	case *Const:
		return node.Value, nil
	case *Branches:
		return evalBranches(node, interp, usage)
	case *Loop:
		return evalLoop(node, interp, usage)
	case *Break:
		return evalBreak(node, interp, usage)
	case *Vec:
		return evalVec(node, interp, usage)
	case *Tuple:
		return evalTuple(node, interp, usage)
	case *Object:
		return evalObject(node, interp, usage)
	case *Call:
		return evalCall(node, interp, usage)
	}
	panic(fmt.Sprintf("ir: unknown node type %T", node))
}

func evalScope(n *Scope, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	// Charged here and not only in EvalIr: branch and loop bodies enter
	// through this function directly, and every iteration must cost at
	// least one unit.
	if err := interp.Budget.Take(n.At); err != nil {
		return nil, err
	}

	guard := interp.Scopes.Push()
	defer interp.Scopes.Pop(guard)

	for _, instruction := range n.Instructions {
		if _, outcome := EvalIr(instruction, interp, usage); outcome != nil {
			return nil, outcome
		}
	}

	if n.Last == nil {
		return rill.Unit{}, nil
	}
	return EvalIr(n.Last, interp, usage)
}

func evalBinary(n *Binary, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	a, outcome := EvalIr(n.LHS, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	b, outcome := EvalIr(n.RHS, interp, usage)
	if outcome != nil {
		return nil, outcome
	}

	switch a := a.(type) {
	case rill.Int:
		if b, ok := b.(rill.Int); ok {
			return evalIntBinary(n, a, b)
		}
	case rill.Float:
		if b, ok := b.(rill.Float); ok {
			switch n.Op {
			case Add:
				return a + b, nil
			case Sub:
				return a - b, nil
			case Mul:
				return a * b, nil
			case Div:
				return a / b, nil
			case Lt:
				return rill.Bool(a < b), nil
			case Lte:
				return rill.Bool(a <= b), nil
			case Eq:
				return rill.Bool(a == b), nil
			case Gt:
				return rill.Bool(a > b), nil
			case Gte:
				return rill.Bool(a >= b), nil
			}
		}
	case rill.String:
		if b, ok := b.(rill.String); ok && n.Op == Add {
			return concatStrings(n.At, a, b)
		}
	}

	return nil, notConst(n.At)
}

func evalIntBinary(n *Binary, a, b rill.Int) (rill.Value, Outcome) {
	switch n.Op {
	case Add:
		return a.Add(b), nil
	case Sub:
		return a.Sub(b), nil
	case Mul:
		return a.Mul(b), nil
	case Div:
		quo, ok := a.CheckedDiv(b)
		if !ok {
			return nil, errAt(n.At, ErrDivisionByZero)
		}
		return quo, nil
	case Shl:
		shift, ok := b.AsShift()
		if !ok {
			return nil, errAt(n.RHS.Span(), ErrShiftOperand)
		}
		return a.Shl(shift), nil
	case Shr:
		shift, ok := b.AsShift()
		if !ok {
			return nil, errAt(n.RHS.Span(), ErrShiftOperand)
		}
		return a.Shr(shift), nil
	case Lt:
		return rill.Bool(a.Cmp(b) < 0), nil
	case Lte:
		return rill.Bool(a.Cmp(b) <= 0), nil
	case Eq:
		return rill.Bool(a.Cmp(b) == 0), nil
	case Gt:
		return rill.Bool(a.Cmp(b) > 0), nil
	case Gte:
		return rill.Bool(a.Cmp(b) >= 0), nil
	}
	return nil, notConst(n.At)
}

func concatStrings(at token.Span, a, b rill.String) (rill.Value, Outcome) {
	aref, err := a.BorrowRef()
	if err != nil {
		return nil, errAt(at, err)
	}
	defer aref.Release()
	bref, err := b.BorrowRef()
	if err != nil {
		return nil, errAt(at, err)
	}
	defer bref.Release()
	return rill.NewString(*aref.Get() + *bref.Get()), nil
}

func evalDecl(n *Decl, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	value, outcome := EvalIr(n.Value, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	interp.Scopes.Decl(n.Name, value)
	return rill.Unit{}, nil
}

func evalSet(n *Set, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	value, outcome := EvalIr(n.Value, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	if err := interp.Scopes.SetTarget(n.Target, value); err != nil {
		return nil, err
	}
	return rill.Unit{}, nil
}

func evalAssign(n *Assign, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	value, outcome := EvalIr(n.Value, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	outcome = interp.Scopes.MutTarget(n.Target, func(slot *rill.Value) Outcome {
		return applyAssignOp(n, slot, value)
	})
	if outcome != nil {
		return nil, outcome
	}
	return rill.Unit{}, nil
}

// applyAssignOp combines the target's current value with the operand in
// place. Strings are appended through their own cell so every handle
// observes the write.
func applyAssignOp(n *Assign, slot *rill.Value, operand rill.Value) Outcome {
	switch target := (*slot).(type) {
	case rill.Int:
		if operand, ok := operand.(rill.Int); ok {
			switch n.Op {
			case Add:
				*slot = target.Add(operand)
				return nil
			case Sub:
				*slot = target.Sub(operand)
				return nil
			case Mul:
				*slot = target.Mul(operand)
				return nil
			case Div:
				quo, ok := target.CheckedDiv(operand)
				if !ok {
					return errAt(n.At, ErrDivisionByZero)
				}
				*slot = quo
				return nil
			case Shl, Shr:
				shift, ok := operand.AsShift()
				if !ok {
					return errAt(n.Value.Span(), ErrShiftOperand)
				}
				if n.Op == Shl {
					*slot = target.Shl(shift)
				} else {
					*slot = target.Shr(shift)
				}
				return nil
			}
		}
	case rill.Float:
		if operand, ok := operand.(rill.Float); ok {
			switch n.Op {
			case Add:
				*slot = target + operand
				return nil
			case Sub:
				*slot = target - operand
				return nil
			case Mul:
				*slot = target * operand
				return nil
			case Div:
				*slot = target / operand
				return nil
			}
		}
	case rill.String:
		if operand, ok := operand.(rill.String); ok && n.Op == Add {
			mut, err := target.BorrowMut()
			if err != nil {
				return errAt(n.At, err)
			}
			defer mut.Release()
			ref, err := operand.BorrowRef()
			if err != nil {
				return errAt(n.At, err)
			}
			defer ref.Release()
			*mut.Get() += *ref.Get()
			return nil
		}
	}
	return notConst(n.At)
}

func evalTemplate(n *Template, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	var buf strings.Builder

	for _, component := range n.Components {
		switch component := component.(type) {
		case TemplateChunk:
			buf.WriteString(component.Value)
		case TemplateExpr:
			value, outcome := EvalIr(component.Ir, interp, usage)
			if outcome != nil {
				return nil, outcome
			}
			switch value := value.(type) {
			case rill.Int:
				buf.WriteString(value.String())
			case rill.Float:
				buf.WriteString(rill.FormatFloat(float64(value)))
			case rill.Bool:
				buf.WriteString(value.String())
			case rill.String:
				ref, err := value.BorrowRef()
				if err != nil {
					return nil, errAt(component.Ir.Span(), err)
				}
				buf.WriteString(*ref.Get())
				ref.Release()
			default:
				return nil, notConst(component.Ir.Span())
			}
		}
	}

	return rill.NewString(buf.String()), nil
}

func evalCondition(cond Condition, interp *Interpreter, usage Usage) (bool, Outcome) {
	switch cond := cond.(type) {
	case *CondExpr:
		value, outcome := EvalIr(cond.Ir, interp, usage)
		if outcome != nil {
			return false, outcome
		}
		return asBool(cond.Ir.Span(), value)
	case *CondLet:
		value, outcome := EvalIr(cond.Value, interp, usage)
		if outcome != nil {
			return false, outcome
		}
		return Match(cond.Pat, interp, value)
	}
	panic(fmt.Sprintf("ir: unknown condition type %T", cond))
}

func asBool(at token.Span, value rill.Value) (bool, Outcome) {
	b, ok := value.(rill.Bool)
	if !ok {
		return false, errAt(at, &UnexpectedTypeError{Expected: "bool", Actual: value.TypeName()})
	}
	return bool(b), nil
}

func evalBranches(n *Branches, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	for _, branch := range n.Branches {
		value, taken, outcome := evalBranch(branch, interp, usage)
		if outcome != nil {
			return nil, outcome
		}
		if taken {
			return value, nil
		}
	}

	if n.Default != nil {
		return evalScope(n.Default, interp, usage)
	}
	return rill.Unit{}, nil
}

// evalBranch evaluates a single condition-body pair inside its own scope
// frame, so condition bindings are visible to the body and dropped after it.
func evalBranch(branch Branch, interp *Interpreter, usage Usage) (rill.Value, bool, Outcome) {
	guard := interp.Scopes.Push()
	defer interp.Scopes.Pop(guard)

	matched, outcome := evalCondition(branch.Condition, interp, usage)
	if outcome != nil {
		return nil, false, outcome
	}
	if !matched {
		return nil, false, nil
	}

	value, outcome := evalScope(branch.Body, interp, usage)
	if outcome != nil {
		return nil, false, outcome
	}
	return value, true, nil
}

func evalLoop(n *Loop, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	guard := interp.Scopes.Push()
	defer interp.Scopes.Pop(guard)

	for {
		if n.Condition != nil {
			// Condition bindings must not leak across iterations.
			interp.Scopes.ClearCurrent()

			matched, outcome := evalCondition(n.Condition, interp, usage)
			if outcome != nil {
				return nil, outcome
			}
			if !matched {
				break
			}
		}

		_, outcome := evalScope(n.Body, interp, usage)
		if outcome == nil {
			continue
		}
		brk, ok := outcome.(*BreakSignal)
		if !ok {
			return nil, outcome
		}
		if brk.Label != "" && brk.Label != n.Label {
			return nil, outcome
		}
		if brk.Value != nil {
			if n.Condition != nil {
				return nil, errAt(brk.At, ErrBreakInConditionalLoop)
			}
			return brk.Value, nil
		}
		break
	}

	return rill.Unit{}, nil
}

func evalBreak(n *Break, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	signal := &BreakSignal{At: n.At, Label: n.Label}
	if n.Value != nil {
		value, outcome := EvalIr(n.Value, interp, usage)
		if outcome != nil {
			return nil, outcome
		}
		signal.Value = value
	}
	return nil, signal
}

func evalVec(n *Vec, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	items, outcome := evalItems(n.Items, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	return rill.NewVec(items), nil
}

func evalTuple(n *Tuple, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	items, outcome := evalItems(n.Items, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	return rill.NewTuple(items), nil
}

func evalItems(nodes []Ir, interp *Interpreter, usage Usage) ([]rill.Value, Outcome) {
	items := make([]rill.Value, 0, len(nodes))
	for _, node := range nodes {
		item, outcome := EvalIr(node, interp, usage)
		if outcome != nil {
			return nil, outcome
		}
		items = append(items, item)
	}
	return items, nil
}

func evalObject(n *Object, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	fields := make(map[string]rill.Value, len(n.Fields))
	for _, field := range n.Fields {
		value, outcome := EvalIr(field.Value, interp, usage)
		if outcome != nil {
			return nil, outcome
		}
		fields[field.Key] = value
	}
	return rill.NewObject(fields), nil
}

func evalCall(n *Call, interp *Interpreter, usage Usage) (rill.Value, Outcome) {
	args, outcome := evalItems(n.Args, interp, usage)
	if outcome != nil {
		return nil, outcome
	}
	return interp.CallConstFn(n.At, n.Name, args, usage)
}
