package ast

import (
	"strconv"
	"strings"

	"github.com/rill-lang/rill/token"
)

// Ident represents an identifier.
type Ident struct {
	Name    string
	NamePos token.Pos
}

func (e *Ident) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *Ident) Pos() token.Pos {
	return e.NamePos
}

// End returns the position of first character immediately after the node.
func (e *Ident) End() token.Pos {
	return e.NamePos + token.Pos(len(e.Name))
}

func (e *Ident) String() string {
	return e.Name
}

// IntLit represents an integer literal.
type IntLit struct {
	Literal  string
	ValuePos token.Pos
}

func (e *IntLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *IntLit) Pos() token.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *IntLit) End() token.Pos {
	return e.ValuePos + token.Pos(len(e.Literal))
}

func (e *IntLit) String() string {
	return e.Literal
}

// FloatLit represents a floating point literal.
type FloatLit struct {
	Literal  string
	ValuePos token.Pos
}

func (e *FloatLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *FloatLit) Pos() token.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *FloatLit) End() token.Pos {
	return e.ValuePos + token.Pos(len(e.Literal))
}

func (e *FloatLit) String() string {
	return e.Literal
}

// BoolLit represents a boolean literal.
type BoolLit struct {
	Value    bool
	ValuePos token.Pos
}

func (e *BoolLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BoolLit) Pos() token.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *BoolLit) End() token.Pos {
	return e.ValuePos + token.Pos(len(e.String()))
}

func (e *BoolLit) String() string {
	return strconv.FormatBool(e.Value)
}

// UnitLit represents the unit literal.
type UnitLit struct {
	LParen token.Pos
	RParen token.Pos
}

func (e *UnitLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *UnitLit) Pos() token.Pos {
	return e.LParen
}

// End returns the position of first character immediately after the node.
func (e *UnitLit) End() token.Pos {
	return e.RParen + 1
}

func (e *UnitLit) String() string {
	return "()"
}

// StringLit represents a string literal without interpolation.
// Value holds the unquoted string.
type StringLit struct {
	Value    string
	ValuePos token.Pos
	EndPos   token.Pos
}

func (e *StringLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *StringLit) Pos() token.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *StringLit) End() token.Pos {
	return e.EndPos
}

func (e *StringLit) String() string {
	return strconv.Quote(e.Value)
}

// TemplateLit represents a string literal with interpolated expressions.
type TemplateLit struct {
	Parts    []TemplatePart
	ValuePos token.Pos
	EndPos   token.Pos
}

func (e *TemplateLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *TemplateLit) Pos() token.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *TemplateLit) End() token.Pos {
	return e.EndPos
}

func (e *TemplateLit) String() string {
	var b strings.Builder
	b.WriteByte('"')
	for _, part := range e.Parts {
		switch part := part.(type) {
		case *ChunkPart:
			b.WriteString(part.Value)
		case *ExprPart:
			b.WriteString("${")
			b.WriteString(part.X.String())
			b.WriteByte('}')
		}
	}
	b.WriteByte('"')
	return b.String()
}

// TemplatePart represents a single part of a template literal.
type TemplatePart interface {
	templatePart()
}

// ChunkPart is a literal chunk of a template literal.
type ChunkPart struct {
	Value string
}

func (*ChunkPart) templatePart() {}

// ExprPart is an interpolated expression of a template literal.
type ExprPart struct {
	X Expr
}

func (*ExprPart) templatePart() {}

// BinaryExpr represents a binary operator expression.
type BinaryExpr struct {
	LHS      Expr
	RHS      Expr
	Token    token.Token
	TokenPos token.Pos
}

func (e *BinaryExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BinaryExpr) Pos() token.Pos {
	return e.LHS.Pos()
}

// End returns the position of first character immediately after the node.
func (e *BinaryExpr) End() token.Pos {
	return e.RHS.End()
}

func (e *BinaryExpr) String() string {
	return "(" + e.LHS.String() + " " + e.Token.String() + " " + e.RHS.String() + ")"
}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	X      Expr
	LParen token.Pos
	RParen token.Pos
}

func (e *ParenExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *ParenExpr) Pos() token.Pos {
	return e.LParen
}

// End returns the position of first character immediately after the node.
func (e *ParenExpr) End() token.Pos {
	return e.RParen + 1
}

func (e *ParenExpr) String() string {
	return "(" + e.X.String() + ")"
}

// TupleLit represents a tuple literal.
type TupleLit struct {
	Elements []Expr
	LParen   token.Pos
	RParen   token.Pos
}

func (e *TupleLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *TupleLit) Pos() token.Pos {
	return e.LParen
}

// End returns the position of first character immediately after the node.
func (e *TupleLit) End() token.Pos {
	return e.RParen + 1
}

func (e *TupleLit) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range e.Elements {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(elem.String())
	}
	if len(e.Elements) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// ArrayLit represents a vector literal.
type ArrayLit struct {
	Elements []Expr
	LBrack   token.Pos
	RBrack   token.Pos
}

func (e *ArrayLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *ArrayLit) Pos() token.Pos {
	return e.LBrack
}

// End returns the position of first character immediately after the node.
func (e *ArrayLit) End() token.Pos {
	return e.RBrack + 1
}

func (e *ArrayLit) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, elem := range e.Elements {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(']')
	return b.String()
}

// ObjectLit represents an object literal.
type ObjectLit struct {
	Fields    []ObjectField
	HashBrace token.Pos
	RBrace    token.Pos
}

// ObjectField represents a single key-value entry of an object literal.
type ObjectField struct {
	Key    string
	KeyPos token.Pos
	Value  Expr
}

func (e *ObjectLit) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *ObjectLit) Pos() token.Pos {
	return e.HashBrace
}

// End returns the position of first character immediately after the node.
func (e *ObjectLit) End() token.Pos {
	return e.RBrace + 1
}

func (e *ObjectLit) String() string {
	var b strings.Builder
	b.WriteString("#{")
	for i, field := range e.Fields {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(field.Key)
		b.WriteString(": ")
		b.WriteString(field.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}

// SelectorExpr represents a field access on an expression.
type SelectorExpr struct {
	X      Expr
	Sel    string
	SelPos token.Pos
}

func (e *SelectorExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *SelectorExpr) Pos() token.Pos {
	return e.X.Pos()
}

// End returns the position of first character immediately after the node.
func (e *SelectorExpr) End() token.Pos {
	return e.SelPos + token.Pos(len(e.Sel))
}

func (e *SelectorExpr) String() string {
	return e.X.String() + "." + e.Sel
}

// IndexExpr represents a numeric element access on an expression.
type IndexExpr struct {
	X        Expr
	Index    int
	Literal  string
	IndexPos token.Pos
}

func (e *IndexExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *IndexExpr) Pos() token.Pos {
	return e.X.Pos()
}

// End returns the position of first character immediately after the node.
func (e *IndexExpr) End() token.Pos {
	return e.IndexPos + token.Pos(len(e.Literal))
}

func (e *IndexExpr) String() string {
	return e.X.String() + "." + e.Literal
}

// CallExpr represents a call to a named constant function.
type CallExpr struct {
	Fn     *Ident
	Args   []Expr
	LParen token.Pos
	RParen token.Pos
}

func (e *CallExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *CallExpr) Pos() token.Pos {
	return e.Fn.Pos()
}

// End returns the position of first character immediately after the node.
func (e *CallExpr) End() token.Pos {
	return e.RParen + 1
}

func (e *CallExpr) String() string {
	var b strings.Builder
	b.WriteString(e.Fn.String())
	b.WriteByte('(')
	for i, arg := range e.Args {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// BlockExpr represents a block: statements followed by an optional trailing
// expression producing the block's value.
type BlockExpr struct {
	Stmts  []Stmt
	Last   Expr
	LBrace token.Pos
	RBrace token.Pos
}

func (e *BlockExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BlockExpr) Pos() token.Pos {
	return e.LBrace
}

// End returns the position of first character immediately after the node.
func (e *BlockExpr) End() token.Pos {
	return e.RBrace + 1
}

func (e *BlockExpr) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for _, stmt := range e.Stmts {
		b.WriteByte(' ')
		b.WriteString(stmt.String())
	}
	if e.Last != nil {
		b.WriteByte(' ')
		b.WriteString(e.Last.String())
	}
	b.WriteString(" }")
	return b.String()
}

// CondClause represents a branch or loop condition.
type CondClause interface {
	Node
	condClause()
}

// ExprCond is a plain boolean condition.
type ExprCond struct {
	X Expr
}

func (c *ExprCond) condClause() {}

// Pos returns the position of first character belonging to the node.
func (c *ExprCond) Pos() token.Pos {
	return c.X.Pos()
}

// End returns the position of first character immediately after the node.
func (c *ExprCond) End() token.Pos {
	return c.X.End()
}

func (c *ExprCond) String() string {
	return c.X.String()
}

// LetCond is a pattern binding condition.
type LetCond struct {
	Pat       Pattern
	Value     Expr
	LetPos    token.Pos
	AssignPos token.Pos
}

func (c *LetCond) condClause() {}

// Pos returns the position of first character belonging to the node.
func (c *LetCond) Pos() token.Pos {
	return c.LetPos
}

// End returns the position of first character immediately after the node.
func (c *LetCond) End() token.Pos {
	return c.Value.End()
}

func (c *LetCond) String() string {
	return "let " + c.Pat.String() + " = " + c.Value.String()
}

// IfExpr represents an if expression with an optional else branch.
// Else is either nil, another *IfExpr or a *BlockExpr.
type IfExpr struct {
	Cond  CondClause
	Body  *BlockExpr
	Else  Expr
	IfPos token.Pos
}

func (e *IfExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *IfExpr) Pos() token.Pos {
	return e.IfPos
}

// End returns the position of first character immediately after the node.
func (e *IfExpr) End() token.Pos {
	if e.Else != nil {
		return e.Else.End()
	}
	return e.Body.End()
}

func (e *IfExpr) String() string {
	s := "if " + e.Cond.String() + " " + e.Body.String()
	if e.Else != nil {
		s += " else " + e.Else.String()
	}
	return s
}

// LoopExpr represents a loop with an optional label and condition.
// A nil condition loops forever until a break.
type LoopExpr struct {
	Label    string
	Cond     CondClause
	Body     *BlockExpr
	LabelPos token.Pos
	LoopPos  token.Pos
}

func (e *LoopExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *LoopExpr) Pos() token.Pos {
	if e.LabelPos.IsValid() {
		return e.LabelPos
	}
	return e.LoopPos
}

// End returns the position of first character immediately after the node.
func (e *LoopExpr) End() token.Pos {
	return e.Body.End()
}

func (e *LoopExpr) String() string {
	var b strings.Builder
	if e.Label != "" {
		b.WriteByte('\'')
		b.WriteString(e.Label)
		b.WriteString(": ")
	}
	if e.Cond != nil {
		b.WriteString("while ")
		b.WriteString(e.Cond.String())
		b.WriteByte(' ')
	} else {
		b.WriteString("loop ")
	}
	b.WriteString(e.Body.String())
	return b.String()
}

// BreakExpr represents a break, optionally targeting a labeled loop and
// optionally carrying a value.
type BreakExpr struct {
	Label    string
	Value    Expr
	BreakPos token.Pos
	LabelPos token.Pos
}

func (e *BreakExpr) exprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BreakExpr) Pos() token.Pos {
	return e.BreakPos
}

// End returns the position of first character immediately after the node.
func (e *BreakExpr) End() token.Pos {
	if e.Value != nil {
		return e.Value.End()
	}
	if e.LabelPos.IsValid() {
		return e.LabelPos + token.Pos(len(e.Label)+1)
	}
	return e.BreakPos + token.Pos(len("break"))
}

func (e *BreakExpr) String() string {
	s := "break"
	if e.Label != "" {
		s += " '" + e.Label
	}
	if e.Value != nil {
		s += " " + e.Value.String()
	}
	return s
}
