// Package parser implements a scanner and parser for the rill constant
// dialect.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rill-lang/rill/ast"
	"github.com/rill-lang/rill/token"
)

// Error represents a parser error.
type Error struct {
	Pos token.FilePos
	Msg string
}

func (e Error) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList is a collection of parser errors.
type ErrorList []*Error

// Add adds an Error with given position and error message.
func (l *ErrorList) Add(pos token.FilePos, msg string) {
	*l = append(*l, &Error{Pos: pos, Msg: msg})
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Parse parses the source code of a single file and returns the
// corresponding syntax tree.
func Parse(file *token.File, src []byte) (*ast.File, error) {
	p := newParser(file, src)
	f := p.parseFile()
	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseExpr parses the source code of a single expression and returns the
// corresponding syntax tree.
func ParseExpr(file *token.File, src []byte) (ast.Expr, error) {
	p := newParser(file, src)
	expr := p.parseExpr()
	p.expect(token.EOF)
	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// Parser parses the source code and builds an AST.
type Parser struct {
	file    *token.File
	errors  ErrorList
	scanner *Scanner
	tok     token.Token
	literal string
	pos     token.Pos
}

func newParser(file *token.File, src []byte) *Parser {
	p := &Parser{file: file}
	p.scanner = NewScanner(file, src, func(pos token.FilePos, msg string) {
		p.errors.Add(pos, msg)
	})
	p.next()
	return p
}

func (p *Parser) parseFile() *ast.File {
	stmts, last := p.parseStmtList(token.EOF)
	return &ast.File{Stmts: stmts, Last: last}
}

// parseStmtList parses statements until the terminator. An expression not
// followed by a semicolon directly before the terminator is the list's
// trailing expression.
func (p *Parser) parseStmtList(terminator token.Token) (stmts []ast.Stmt, last ast.Expr) {
	for p.tok != terminator && p.tok != token.EOF {
		switch p.tok {
		case token.Let:
			stmts = append(stmts, p.parseLetStmt())
		case token.Fn:
			stmts = append(stmts, p.parseFnDecl())
		case token.Semicolon:
			p.next()
		default:
			stmt, expr := p.parseSimpleStmt(terminator)
			if expr != nil {
				return stmts, expr
			}
			if stmt != nil {
				stmts = append(stmts, stmt)
			}
		}
	}
	return stmts, nil
}

// parseSimpleStmt parses an expression or assignment statement. When the
// expression turns out to be the trailing expression of the enclosing list,
// it is returned as the second value instead.
func (p *Parser) parseSimpleStmt(terminator token.Token) (ast.Stmt, ast.Expr) {
	expr := p.parseExpr()

	if _, compound := p.tok.AssignOp(); compound || p.tok == token.Assign {
		if !isAssignable(expr) {
			p.error(expr.Pos(), fmt.Sprintf("cannot assign to %s", expr))
		}
		tok, tokPos := p.tok, p.pos
		p.next()
		value := p.parseExpr()
		p.expectSemi()
		return &ast.AssignStmt{Target: expr, Value: value, Token: tok, TokenPos: tokPos}, nil
	}

	switch p.tok {
	case token.Semicolon:
		p.next()
		return &ast.ExprStmt{X: expr}, nil
	case terminator:
		return nil, expr
	}

	// block-bodied expressions may stand alone without a semicolon
	switch expr.(type) {
	case *ast.IfExpr, *ast.LoopExpr, *ast.BlockExpr:
		return &ast.ExprStmt{X: expr}, nil
	}

	p.errorExpected(p.pos, "';'")
	p.sync(terminator)
	return &ast.ExprStmt{X: expr}, nil
}

func isAssignable(expr ast.Expr) bool {
	switch expr := expr.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return isAssignable(expr.X)
	case *ast.IndexExpr:
		return isAssignable(expr.X)
	}
	return false
}

func (p *Parser) parseLetStmt() ast.Stmt {
	letPos := p.expect(token.Let)
	name, namePos := p.literal, p.pos
	p.expect(token.Ident)
	p.expect(token.Assign)
	value := p.parseExpr()
	p.expectSemi()
	return &ast.LetStmt{Name: name, Value: value, LetPos: letPos, NamePos: namePos}
}

func (p *Parser) parseFnDecl() ast.Stmt {
	fnPos := p.expect(token.Fn)
	name := p.parseIdent()
	lparen := p.expect(token.LParen)

	var params []*ast.Ident
	for p.tok != token.RParen && p.tok != token.EOF {
		params = append(params, p.parseIdent())
		if p.tok != token.Comma {
			break
		}
		p.next()
	}
	rparen := p.expect(token.RParen)

	body := p.parseBlock()
	return &ast.FnDecl{
		Name:   name,
		Params: params,
		Body:   body,
		FnPos:  fnPos,
		LParen: lparen,
		RParen: rparen,
	}
}

func (p *Parser) parseIdent() *ast.Ident {
	name, namePos := p.literal, p.pos
	p.expect(token.Ident)
	return &ast.Ident{Name: name, NamePos: namePos}
}

// Operator precedences.
const (
	lowestPrec  = 0
	comparePrec = 1
	addPrec     = 2
	mulPrec     = 3
)

func precedence(tok token.Token) int {
	switch tok {
	case token.Equal, token.Less, token.LessEq, token.Greater, token.GreaterEq:
		return comparePrec
	case token.Add, token.Sub:
		return addPrec
	case token.Mul, token.Quo, token.Shl, token.Shr:
		return mulPrec
	}
	return lowestPrec
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinaryExpr(lowestPrec + 1)
}

func (p *Parser) parseBinaryExpr(minPrec int) ast.Expr {
	lhs := p.parseUnaryExpr()
	for {
		prec := precedence(p.tok)
		if prec < minPrec {
			return lhs
		}
		tok, tokPos := p.tok, p.pos
		p.next()
		rhs := p.parseBinaryExpr(prec + 1)
		lhs = &ast.BinaryExpr{LHS: lhs, RHS: rhs, Token: tok, TokenPos: tokPos}
	}
}

// parseUnaryExpr handles the only prefix operator of the dialect: a minus
// sign folded into a numeric literal.
func (p *Parser) parseUnaryExpr() ast.Expr {
	if p.tok != token.Sub {
		return p.parsePostfixExpr()
	}

	subPos := p.pos
	p.next()
	switch p.tok {
	case token.Int:
		literal := "-" + p.literal
		p.next()
		return &ast.IntLit{Literal: literal, ValuePos: subPos}
	case token.Float:
		literal := "-" + p.literal
		p.next()
		return &ast.FloatLit{Literal: literal, ValuePos: subPos}
	}
	p.errorExpected(p.pos, "numeric literal")
	return &ast.IntLit{Literal: "0", ValuePos: subPos}
}

func (p *Parser) parsePostfixExpr() ast.Expr {
	expr := p.parseOperand()

	for p.tok == token.Period {
		p.next()
		switch p.tok {
		case token.Ident:
			expr = &ast.SelectorExpr{X: expr, Sel: p.literal, SelPos: p.pos}
			p.next()
		case token.Int:
			index, err := strconv.Atoi(p.literal)
			if err != nil {
				p.error(p.pos, fmt.Sprintf("invalid element index %q", p.literal))
			}
			expr = &ast.IndexExpr{X: expr, Index: index, Literal: p.literal, IndexPos: p.pos}
			p.next()
		default:
			p.errorExpected(p.pos, "field name or element index")
			return expr
		}
	}

	return expr
}

func (p *Parser) parseOperand() ast.Expr {
	switch p.tok {
	case token.Int:
		expr := &ast.IntLit{Literal: p.literal, ValuePos: p.pos}
		p.next()
		return expr
	case token.Float:
		expr := &ast.FloatLit{Literal: p.literal, ValuePos: p.pos}
		p.next()
		return expr
	case token.True, token.False:
		expr := &ast.BoolLit{Value: p.tok == token.True, ValuePos: p.pos}
		p.next()
		return expr
	case token.String:
		expr := &ast.StringLit{
			Value:    p.literal,
			ValuePos: p.pos,
			EndPos:   p.pos + token.Pos(len(p.literal)+2),
		}
		p.next()
		return expr
	case token.StringLo:
		return p.parseTemplate()
	case token.Ident:
		ident := p.parseIdent()
		if p.tok == token.LParen {
			return p.parseCall(ident)
		}
		return ident
	case token.LParen:
		return p.parseParenOrTuple()
	case token.LBrack:
		return p.parseArrayLit()
	case token.HashBrace:
		return p.parseObjectLit()
	case token.LBrace:
		return p.parseBlock()
	case token.If:
		return p.parseIfExpr()
	case token.Loop, token.While:
		return p.parseLoopExpr("", token.NoPos)
	case token.Label:
		label, labelPos := p.literal, p.pos
		p.next()
		p.expect(token.Colon)
		if p.tok != token.Loop && p.tok != token.While {
			p.errorExpected(p.pos, "loop after label")
		}
		return p.parseLoopExpr(label, labelPos)
	case token.Break:
		return p.parseBreakExpr()
	}

	p.errorExpected(p.pos, "expression")
	pos := p.pos
	p.next() // always make progress
	return &ast.UnitLit{LParen: pos, RParen: pos}
}

func (p *Parser) parseTemplate() ast.Expr {
	valuePos := p.pos
	parts := []ast.TemplatePart{&ast.ChunkPart{Value: p.literal}}
	p.next()

	for {
		parts = append(parts, &ast.ExprPart{X: p.parseExpr()})
		switch p.tok {
		case token.StringMid:
			parts = append(parts, &ast.ChunkPart{Value: p.literal})
			p.next()
		case token.StringHi:
			parts = append(parts, &ast.ChunkPart{Value: p.literal})
			endPos := p.pos + token.Pos(len(p.literal)+1)
			p.next()
			return &ast.TemplateLit{Parts: parts, ValuePos: valuePos, EndPos: endPos}
		default:
			p.errorExpected(p.pos, "end of string interpolation")
			return &ast.TemplateLit{Parts: parts, ValuePos: valuePos, EndPos: p.pos}
		}
	}
}

func (p *Parser) parseCall(fn *ast.Ident) ast.Expr {
	lparen := p.expect(token.LParen)
	var args []ast.Expr
	for p.tok != token.RParen && p.tok != token.EOF {
		args = append(args, p.parseExpr())
		if p.tok != token.Comma {
			break
		}
		p.next()
	}
	rparen := p.expect(token.RParen)
	return &ast.CallExpr{Fn: fn, Args: args, LParen: lparen, RParen: rparen}
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	lparen := p.expect(token.LParen)

	if p.tok == token.RParen {
		rparen := p.pos
		p.next()
		return &ast.UnitLit{LParen: lparen, RParen: rparen}
	}

	first := p.parseExpr()
	if p.tok != token.Comma {
		rparen := p.expect(token.RParen)
		return &ast.ParenExpr{X: first, LParen: lparen, RParen: rparen}
	}

	elements := []ast.Expr{first}
	for p.tok == token.Comma {
		p.next()
		if p.tok == token.RParen {
			break
		}
		elements = append(elements, p.parseExpr())
	}
	rparen := p.expect(token.RParen)
	return &ast.TupleLit{Elements: elements, LParen: lparen, RParen: rparen}
}

func (p *Parser) parseArrayLit() ast.Expr {
	lbrack := p.expect(token.LBrack)
	var elements []ast.Expr
	for p.tok != token.RBrack && p.tok != token.EOF {
		elements = append(elements, p.parseExpr())
		if p.tok != token.Comma {
			break
		}
		p.next()
	}
	rbrack := p.expect(token.RBrack)
	return &ast.ArrayLit{Elements: elements, LBrack: lbrack, RBrack: rbrack}
}

func (p *Parser) parseObjectLit() ast.Expr {
	hashBrace := p.expect(token.HashBrace)
	var fields []ast.ObjectField
	for p.tok != token.RBrace && p.tok != token.EOF {
		key, keyPos := p.literal, p.pos
		p.expect(token.Ident)
		p.expect(token.Colon)
		value := p.parseExpr()
		fields = append(fields, ast.ObjectField{Key: key, KeyPos: keyPos, Value: value})
		if p.tok != token.Comma {
			break
		}
		p.next()
	}
	rbrace := p.expect(token.RBrace)
	return &ast.ObjectLit{Fields: fields, HashBrace: hashBrace, RBrace: rbrace}
}

func (p *Parser) parseBlock() *ast.BlockExpr {
	lbrace := p.expect(token.LBrace)
	stmts, last := p.parseStmtList(token.RBrace)
	rbrace := p.expect(token.RBrace)
	return &ast.BlockExpr{Stmts: stmts, Last: last, LBrace: lbrace, RBrace: rbrace}
}

func (p *Parser) parseIfExpr() ast.Expr {
	ifPos := p.expect(token.If)
	cond := p.parseCondClause()
	body := p.parseBlock()

	var elseExpr ast.Expr
	if p.tok == token.Else {
		p.next()
		switch p.tok {
		case token.If:
			elseExpr = p.parseIfExpr()
		case token.LBrace:
			elseExpr = p.parseBlock()
		default:
			p.errorExpected(p.pos, "if or block after else")
		}
	}

	return &ast.IfExpr{Cond: cond, Body: body, Else: elseExpr, IfPos: ifPos}
}

func (p *Parser) parseCondClause() ast.CondClause {
	if p.tok != token.Let {
		return &ast.ExprCond{X: p.parseExpr()}
	}
	letPos := p.pos
	p.next()
	pat := p.parsePattern()
	assignPos := p.expect(token.Assign)
	value := p.parseExpr()
	return &ast.LetCond{Pat: pat, Value: value, LetPos: letPos, AssignPos: assignPos}
}

func (p *Parser) parseLoopExpr(label string, labelPos token.Pos) ast.Expr {
	loopPos := p.pos
	var cond ast.CondClause
	switch p.tok {
	case token.Loop:
		p.next()
	case token.While:
		p.next()
		cond = p.parseCondClause()
	default:
		p.errorExpected(p.pos, "loop or while")
	}
	body := p.parseBlock()
	return &ast.LoopExpr{
		Label:    label,
		Cond:     cond,
		Body:     body,
		LabelPos: labelPos,
		LoopPos:  loopPos,
	}
}

func (p *Parser) parseBreakExpr() ast.Expr {
	breakPos := p.expect(token.Break)

	var label string
	labelPos := token.NoPos
	if p.tok == token.Label {
		label, labelPos = p.literal, p.pos
		p.next()
	}

	var value ast.Expr
	switch p.tok {
	case token.Semicolon, token.RBrace, token.RParen, token.RBrack,
		token.Comma, token.EOF:
	default:
		value = p.parseExpr()
	}

	return &ast.BreakExpr{Label: label, Value: value, BreakPos: breakPos, LabelPos: labelPos}
}

func (p *Parser) parsePattern() ast.Pattern {
	switch p.tok {
	case token.Underscore:
		pat := &ast.WildcardPat{UnderscorePos: p.pos}
		p.next()
		return pat
	case token.Ident:
		pat := &ast.IdentPat{Name: p.literal, NamePos: p.pos}
		p.next()
		return pat
	case token.Int, token.Float, token.String, token.True, token.False, token.Sub:
		return &ast.LitPat{X: p.parseUnaryExpr()}
	case token.LParen:
		return p.parseTuplePat()
	case token.HashBrace:
		return p.parseObjectPat()
	}
	p.errorExpected(p.pos, "pattern")
	pat := &ast.WildcardPat{UnderscorePos: p.pos}
	p.next() // always make progress
	return pat
}

func (p *Parser) parseTuplePat() ast.Pattern {
	lparen := p.expect(token.LParen)
	if p.tok == token.RParen {
		rparen := p.pos
		p.next()
		return &ast.LitPat{X: &ast.UnitLit{LParen: lparen, RParen: rparen}}
	}

	var items []ast.Pattern
	for p.tok != token.RParen && p.tok != token.EOF {
		items = append(items, p.parsePattern())
		if p.tok != token.Comma {
			break
		}
		p.next()
	}
	rparen := p.expect(token.RParen)
	return &ast.TuplePat{Items: items, LParen: lparen, RParen: rparen}
}

func (p *Parser) parseObjectPat() ast.Pattern {
	hashBrace := p.expect(token.HashBrace)

	var fields []ast.ObjectPatField
	rest := false
	for p.tok != token.RBrace && p.tok != token.EOF {
		if p.tok == token.DotDot {
			rest = true
			p.next()
			break
		}
		key, keyPos := p.literal, p.pos
		p.expect(token.Ident)
		var pat ast.Pattern
		if p.tok == token.Colon {
			p.next()
			pat = p.parsePattern()
		}
		fields = append(fields, ast.ObjectPatField{Key: key, KeyPos: keyPos, Pat: pat})
		if p.tok != token.Comma {
			break
		}
		p.next()
	}
	rbrace := p.expect(token.RBrace)
	return &ast.ObjectPat{Fields: fields, Rest: rest, HashBrace: hashBrace, RBrace: rbrace}
}

func (p *Parser) next() {
	p.tok, p.literal, p.pos = p.scanner.Scan()
}

func (p *Parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
	}
	p.next()
	return pos
}

func (p *Parser) expectSemi() {
	switch p.tok {
	case token.Semicolon:
		p.next()
	case token.RBrace, token.EOF:
		// closing tokens stand in for the final semicolon
	default:
		p.errorExpected(p.pos, "';'")
		p.sync(token.Semicolon)
	}
}

// sync advances until a token that is likely to begin a new statement.
func (p *Parser) sync(terminator token.Token) {
	for p.tok != token.EOF && p.tok != terminator &&
		p.tok != token.Semicolon && p.tok != token.RBrace {
		p.next()
	}
	if p.tok == token.Semicolon {
		p.next()
	}
}

func (p *Parser) error(pos token.Pos, msg string) {
	p.errors.Add(p.file.Position(pos), msg)
}

func (p *Parser) errorExpected(pos token.Pos, msg string) {
	msg = "expected " + msg
	if pos == p.pos {
		switch {
		case p.tok == token.EOF:
			msg += ", found 'EOF'"
		case p.tok.IsLiteral():
			msg += ", found " + strconv.Quote(p.literal)
		default:
			msg += ", found '" + p.tok.String() + "'"
		}
	}
	p.error(pos, msg)
}