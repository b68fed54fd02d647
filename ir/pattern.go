package ir

import (
	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/token"
)

// Pattern represents a pattern of a conditional let binding.
type Pattern interface {
	Span() token.Span
	patternNode()
	// match tests the pattern against a value, appending the names it
	// would bind. It reports false when the value does not match, and an
	// outcome when the value is not of the pattern's expected category.
	match(value rill.Value, bound *[]patBinding) (bool, Outcome)
}

type patBinding struct {
	name  string
	value rill.Value
}

// Match tests a pattern against a value. On success the pattern's names are
// declared in the current scope; on failure the scope is left untouched.
func Match(pat Pattern, interp *Interpreter, value rill.Value) (bool, Outcome) {
	var bound []patBinding
	ok, outcome := pat.match(value, &bound)
	if outcome != nil || !ok {
		return false, outcome
	}
	for _, b := range bound {
		interp.Scopes.Decl(b.name, b.value)
	}
	return true, nil
}

// PatIgnore is the wildcard pattern. It matches anything.
type PatIgnore struct {
	At token.Span
}

func (p *PatIgnore) Span() token.Span { return p.At }
func (p *PatIgnore) patternNode()     {}

func (p *PatIgnore) match(rill.Value, *[]patBinding) (bool, Outcome) {
	return true, nil
}

// PatBinding binds the matched value to a name. It matches anything.
type PatBinding struct {
	At   token.Span
	Name string
}

func (p *PatBinding) Span() token.Span { return p.At }
func (p *PatBinding) patternNode()     {}

func (p *PatBinding) match(value rill.Value, bound *[]patBinding) (bool, Outcome) {
	*bound = append(*bound, patBinding{name: p.Name, value: value})
	return true, nil
}

// PatLit matches a value equal to a literal.
type PatLit struct {
	At    token.Span
	Value rill.Value
}

func (p *PatLit) Span() token.Span { return p.At }
func (p *PatLit) patternNode()     {}

func (p *PatLit) match(value rill.Value, _ *[]patBinding) (bool, Outcome) {
	eq, err := rill.Equal(value, p.Value)
	if err != nil {
		return false, errAt(p.At, err)
	}
	return eq, nil
}

// PatTuple matches a tuple of exactly the pattern's arity.
type PatTuple struct {
	At    token.Span
	Items []Pattern
}

func (p *PatTuple) Span() token.Span { return p.At }
func (p *PatTuple) patternNode()     {}

func (p *PatTuple) match(value rill.Value, bound *[]patBinding) (bool, Outcome) {
	tuple, ok := value.(rill.Tuple)
	if !ok {
		return false, errAt(p.At, &UnexpectedTypeError{Expected: "tuple", Actual: value.TypeName()})
	}
	ref, err := tuple.BorrowRef()
	if err != nil {
		return false, errAt(p.At, err)
	}
	defer ref.Release()
	items := *ref.Get()
	if len(items) != len(p.Items) {
		return false, nil
	}
	for i, item := range p.Items {
		ok, outcome := item.match(items[i], bound)
		if outcome != nil || !ok {
			return false, outcome
		}
	}
	return true, nil
}

// PatObject matches an object by its keys: without a rest marker the keys
// must match exactly, with one the pattern's keys must merely be present.
type PatObject struct {
	At     token.Span
	Fields []PatField
	Rest   bool
}

// PatField is a single key of an object pattern.
type PatField struct {
	Key string
	Pat Pattern
}

func (p *PatObject) Span() token.Span { return p.At }
func (p *PatObject) patternNode()     {}

func (p *PatObject) match(value rill.Value, bound *[]patBinding) (bool, Outcome) {
	object, ok := value.(rill.Object)
	if !ok {
		return false, errAt(p.At, &UnexpectedTypeError{Expected: "object", Actual: value.TypeName()})
	}
	ref, err := object.BorrowRef()
	if err != nil {
		return false, errAt(p.At, err)
	}
	defer ref.Release()
	fields := *ref.Get()
	if !p.Rest && len(fields) != len(p.Fields) {
		return false, nil
	}
	for _, field := range p.Fields {
		item, ok := fields[field.Key]
		if !ok {
			return false, nil
		}
		ok, outcome := field.Pat.match(item, bound)
		if outcome != nil || !ok {
			return false, outcome
		}
	}
	return true, nil
}
