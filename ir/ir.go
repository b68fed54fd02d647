// Package ir implements the constant-evaluable intermediate representation
// of the rill language and its compile-time interpreter.
//
// Ir trees are immutable products of lowering. The interpreter folds a tree
// into a rill.Value, or reports why the tree cannot be folded: a construct
// legal in the language but outside the constant subset yields NotConst,
// while genuine failures (division by zero, failed borrows, exhausted
// budget) yield a hard error.
package ir

import (
	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/token"
)

// Ir represents a node of the intermediate representation.
type Ir interface {
	// Span returns the source region the node was lowered from.
	Span() token.Span
	irNode()
}

// BinaryOp represents a binary operator.
type BinaryOp int

// List of binary operators.
const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Shl
	Shr
	Lt
	Lte
	Eq
	Gt
	Gte
)

var binaryOps = [...]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Shl: "<<",
	Shr: ">>",
	Lt:  "<",
	Lte: "<=",
	Eq:  "==",
	Gt:  ">",
	Gte: ">=",
}

func (op BinaryOp) String() string {
	if 0 <= int(op) && int(op) < len(binaryOps) {
		return binaryOps[op]
	}
	return "op(?)"
}

// Scope represents a lexical scope: a sequence of instructions evaluated for
// side effects, followed by an optional trailing expression producing the
// scope's value.
type Scope struct {
	At           token.Span
	Instructions []Ir
	// Last produces the scope's value; nil means the scope evaluates to unit.
	Last Ir
}

func (n *Scope) Span() token.Span { return n.At }
func (n *Scope) irNode()          {}

// Binary represents a binary operator expression.
type Binary struct {
	At  token.Span
	Op  BinaryOp
	LHS Ir
	RHS Ir
}

func (n *Binary) Span() token.Span { return n.At }
func (n *Binary) irNode()          {}

// Decl represents a declaration of a named binding in the current scope.
type Decl struct {
	At    token.Span
	Name  string
	Value Ir
}

func (n *Decl) Span() token.Span { return n.At }
func (n *Decl) irNode()          {}

// Set represents a write to a target.
type Set struct {
	At     token.Span
	Target *Target
	Value  Ir
}

func (n *Set) Span() token.Span { return n.At }
func (n *Set) irNode()          {}

// Assign represents a compound assignment to a target.
type Assign struct {
	At     token.Span
	Target *Target
	Op     BinaryOp
	Value  Ir
}

func (n *Assign) Span() token.Span { return n.At }
func (n *Assign) irNode()          {}

// Template represents a string composed from an ordered list of literal
// chunks and interpolated expressions.
type Template struct {
	At         token.Span
	Components []TemplateComponent
}

func (n *Template) Span() token.Span { return n.At }
func (n *Template) irNode()          {}

// TemplateComponent represents a single component of a template.
type TemplateComponent interface {
	templateComponent()
}

// TemplateChunk is a literal chunk of a template.
type TemplateChunk struct {
	Value string
}

func (TemplateChunk) templateComponent() {}

// TemplateExpr is an interpolated expression of a template.
// The expression must evaluate to a scalar or a string.
type TemplateExpr struct {
	Ir Ir
}

func (TemplateExpr) templateComponent() {}

// Name represents a reference to a named binding.
type Name struct {
	At    token.Span
	Ident string
}

func (n *Name) Span() token.Span { return n.At }
func (n *Name) irNode()          {}

// Const represents an embedded constant value.
type Const struct {
	At    token.Span
	Value rill.Value
}

func (n *Const) Span() token.Span { return n.At }
func (n *Const) irNode()          {}

// Branches represents a chain of conditional branches with an optional
// default branch.
type Branches struct {
	At       token.Span
	Branches []Branch
	Default  *Scope
}

func (n *Branches) Span() token.Span { return n.At }
func (n *Branches) irNode()          {}

// Branch is a single condition and its body.
type Branch struct {
	Condition Condition
	Body      *Scope
}

// Condition represents a branch or loop condition: either a plain expression
// that must evaluate to a bool, or a pattern binding that succeeds or falls
// through.
type Condition interface {
	Span() token.Span
	condition()
}

// CondExpr is a plain boolean condition.
type CondExpr struct {
	Ir Ir
}

func (c *CondExpr) Span() token.Span { return c.Ir.Span() }
func (c *CondExpr) condition()       {}

// CondLet is a pattern binding condition. The value is evaluated and matched
// against the pattern; on success the pattern's names are bound in the
// surrounding branch scope.
type CondLet struct {
	At    token.Span
	Pat   Pattern
	Value Ir
}

func (c *CondLet) Span() token.Span { return c.At }
func (c *CondLet) condition()       {}

// Loop represents a loop with an optional label and an optional condition.
type Loop struct {
	At    token.Span
	Label string
	// Condition is re-evaluated before each iteration; nil loops forever
	// until a break.
	Condition Condition
	Body      *Scope
}

func (n *Loop) Span() token.Span { return n.At }
func (n *Loop) irNode()          {}

// Break represents a break out of a loop, optionally targeting a labeled
// enclosing loop and optionally carrying a value.
type Break struct {
	At    token.Span
	Label string
	Value Ir
}

func (n *Break) Span() token.Span { return n.At }
func (n *Break) irNode()          {}

// Vec represents a vector constructor.
type Vec struct {
	At    token.Span
	Items []Ir
}

func (n *Vec) Span() token.Span { return n.At }
func (n *Vec) irNode()          {}

// Tuple represents a tuple constructor.
type Tuple struct {
	At    token.Span
	Items []Ir
}

func (n *Tuple) Span() token.Span { return n.At }
func (n *Tuple) irNode()          {}

// Object represents an object constructor.
// Fields are evaluated in insertion order.
type Object struct {
	At     token.Span
	Fields []ObjectField
}

func (n *Object) Span() token.Span { return n.At }
func (n *Object) irNode()          {}

// ObjectField is a single key-value entry of an object constructor.
type ObjectField struct {
	Key   string
	Value Ir
}

// Call represents a call to a registered constant function.
type Call struct {
	At   token.Span
	Name string
	Args []Ir
}

func (n *Call) Span() token.Span { return n.At }
func (n *Call) irNode()          {}

// Target refers to a sub-location of an existing binding: the binding itself
// or a dotted path into its fields and elements.
type Target struct {
	At   token.Span
	Kind TargetKind
}

func (n *Target) Span() token.Span { return n.At }
func (n *Target) irNode()          {}

// TargetKind represents one step of a target path.
type TargetKind interface {
	targetKind()
}

// TargetName refers to a named binding.
type TargetName struct {
	Name string
}

func (TargetName) targetKind() {}

// TargetField refers to a field of the object a parent target resolves to.
type TargetField struct {
	Target *Target
	Name   string
}

func (TargetField) targetKind() {}

// TargetIndex refers to an element of the vector or tuple a parent target
// resolves to.
type TargetIndex struct {
	Target *Target
	Index  int
}

func (TargetIndex) targetKind() {}
