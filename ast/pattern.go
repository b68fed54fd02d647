package ast

import (
	"strings"

	"github.com/rill-lang/rill/token"
)

// WildcardPat represents the wildcard pattern.
type WildcardPat struct {
	UnderscorePos token.Pos
}

func (p *WildcardPat) patternNode() {}

// Pos returns the position of first character belonging to the node.
func (p *WildcardPat) Pos() token.Pos {
	return p.UnderscorePos
}

// End returns the position of first character immediately after the node.
func (p *WildcardPat) End() token.Pos {
	return p.UnderscorePos + 1
}

func (p *WildcardPat) String() string {
	return "_"
}

// IdentPat represents a pattern binding a name.
type IdentPat struct {
	Name    string
	NamePos token.Pos
}

func (p *IdentPat) patternNode() {}

// Pos returns the position of first character belonging to the node.
func (p *IdentPat) Pos() token.Pos {
	return p.NamePos
}

// End returns the position of first character immediately after the node.
func (p *IdentPat) End() token.Pos {
	return p.NamePos + token.Pos(len(p.Name))
}

func (p *IdentPat) String() string {
	return p.Name
}

// LitPat represents a pattern matching a literal value.
type LitPat struct {
	X Expr
}

func (p *LitPat) patternNode() {}

// Pos returns the position of first character belonging to the node.
func (p *LitPat) Pos() token.Pos {
	return p.X.Pos()
}

// End returns the position of first character immediately after the node.
func (p *LitPat) End() token.Pos {
	return p.X.End()
}

func (p *LitPat) String() string {
	return p.X.String()
}

// TuplePat represents a tuple pattern of exact arity.
type TuplePat struct {
	Items  []Pattern
	LParen token.Pos
	RParen token.Pos
}

func (p *TuplePat) patternNode() {}

// Pos returns the position of first character belonging to the node.
func (p *TuplePat) Pos() token.Pos {
	return p.LParen
}

// End returns the position of first character immediately after the node.
func (p *TuplePat) End() token.Pos {
	return p.RParen + 1
}

func (p *TuplePat) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, item := range p.Items {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	if len(p.Items) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// ObjectPat represents an object pattern: exact keys, or a prefix of keys
// followed by a rest marker.
type ObjectPat struct {
	Fields    []ObjectPatField
	Rest      bool
	HashBrace token.Pos
	RBrace    token.Pos
}

// ObjectPatField represents a single key of an object pattern.
// A nil Pat is the shorthand form binding the key's name.
type ObjectPatField struct {
	Key    string
	KeyPos token.Pos
	Pat    Pattern
}

func (p *ObjectPat) patternNode() {}

// Pos returns the position of first character belonging to the node.
func (p *ObjectPat) Pos() token.Pos {
	return p.HashBrace
}

// End returns the position of first character immediately after the node.
func (p *ObjectPat) End() token.Pos {
	return p.RBrace + 1
}

func (p *ObjectPat) String() string {
	var b strings.Builder
	b.WriteString("#{")
	for i, field := range p.Fields {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(field.Key)
		if field.Pat != nil {
			b.WriteString(": ")
			b.WriteString(field.Pat.String())
		}
	}
	if p.Rest {
		if len(p.Fields) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("..")
	}
	b.WriteByte('}')
	return b.String()
}
