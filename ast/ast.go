// Package ast declares the syntax tree of the rill constant dialect.
package ast

import (
	"github.com/rill-lang/rill/token"
)

// Node represents a node in the AST.
type Node interface {
	// Pos returns the position of first character belonging to the node.
	Pos() token.Pos
	// End returns the position of first character immediately after the node.
	End() token.Pos
	// String returns a string representation of the node.
	String() string
}

// Expr represents an expression node in the AST.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node in the AST.
type Stmt interface {
	Node
	stmtNode()
}

// Pattern represents a pattern node in the AST.
type Pattern interface {
	Node
	patternNode()
}

// Span returns the source region covered by the node.
func Span(n Node) token.Span {
	return token.MakeSpan(n.Pos(), n.End())
}

// File represents a source file: a sequence of top-level statements,
// optionally followed by a trailing expression.
type File struct {
	Stmts []Stmt
	Last  Expr
}

// Pos returns the position of first character belonging to the node.
func (n *File) Pos() token.Pos {
	if len(n.Stmts) > 0 {
		return n.Stmts[0].Pos()
	}
	if n.Last != nil {
		return n.Last.Pos()
	}
	return token.NoPos
}

// End returns the position of first character immediately after the node.
func (n *File) End() token.Pos {
	if n.Last != nil {
		return n.Last.End()
	}
	if l := len(n.Stmts); l > 0 {
		return n.Stmts[l-1].End()
	}
	return token.NoPos
}

func (n *File) String() string {
	var b []byte
	for i, stmt := range n.Stmts {
		if i != 0 {
			b = append(b, ' ')
		}
		b = append(b, stmt.String()...)
	}
	if n.Last != nil {
		if len(b) > 0 {
			b = append(b, ' ')
		}
		b = append(b, n.Last.String()...)
	}
	return string(b)
}
