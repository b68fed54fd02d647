package ast

import (
	"strings"

	"github.com/rill-lang/rill/token"
)

// LetStmt represents a declaration of a named binding.
type LetStmt struct {
	Name    string
	Value   Expr
	LetPos  token.Pos
	NamePos token.Pos
}

func (s *LetStmt) stmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *LetStmt) Pos() token.Pos {
	return s.LetPos
}

// End returns the position of first character immediately after the node.
func (s *LetStmt) End() token.Pos {
	return s.Value.End()
}

func (s *LetStmt) String() string {
	return "let " + s.Name + " = " + s.Value.String() + ";"
}

// AssignStmt represents an assignment or compound assignment to a target
// path.
type AssignStmt struct {
	Target   Expr
	Value    Expr
	Token    token.Token
	TokenPos token.Pos
}

func (s *AssignStmt) stmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *AssignStmt) Pos() token.Pos {
	return s.Target.Pos()
}

// End returns the position of first character immediately after the node.
func (s *AssignStmt) End() token.Pos {
	return s.Value.End()
}

func (s *AssignStmt) String() string {
	return s.Target.String() + " " + s.Token.String() + " " + s.Value.String() + ";"
}

// ExprStmt represents an expression evaluated for its side effects.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) stmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *ExprStmt) Pos() token.Pos {
	return s.X.Pos()
}

// End returns the position of first character immediately after the node.
func (s *ExprStmt) End() token.Pos {
	return s.X.End()
}

func (s *ExprStmt) String() string {
	return s.X.String() + ";"
}

// FnDecl represents a constant function declaration.
type FnDecl struct {
	Name    *Ident
	Params  []*Ident
	Body    *BlockExpr
	FnPos   token.Pos
	LParen  token.Pos
	RParen  token.Pos
}

func (s *FnDecl) stmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *FnDecl) Pos() token.Pos {
	return s.FnPos
}

// End returns the position of first character immediately after the node.
func (s *FnDecl) End() token.Pos {
	return s.Body.End()
}

func (s *FnDecl) String() string {
	var b strings.Builder
	b.WriteString("fn ")
	b.WriteString(s.Name.String())
	b.WriteByte('(')
	for i, param := range s.Params {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(param.String())
	}
	b.WriteString(") ")
	b.WriteString(s.Body.String())
	return b.String()
}
