package ir

import (
	"strconv"
	"strings"

	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/ast"
	"github.com/rill-lang/rill/token"
)

// Module is the lowered form of a source file: its top-level instructions in
// source order and an optional trailing expression. Constant functions are
// registered during lowering and do not appear among the instructions.
type Module struct {
	Stmts []Ir
	Last  Ir
}

// LowerFile lowers a parsed file. Function declarations are registered in
// the registry; everything else is lowered into the returned module.
func LowerFile(file *ast.File, registry *Registry) (*Module, error) {
	module := &Module{}

	for _, stmt := range file.Stmts {
		if fn, ok := stmt.(*ast.FnDecl); ok {
			body, err := lowerBlock(fn.Body)
			if err != nil {
				return nil, err
			}
			params := make([]string, 0, len(fn.Params))
			for _, param := range fn.Params {
				params = append(params, param.Name)
			}
			if _, err := registry.Register(fn.Name.Name, params, body); err != nil {
				return nil, errAt(ast.Span(fn.Name), err)
			}
			continue
		}

		node, err := lowerStmt(stmt)
		if err != nil {
			return nil, err
		}
		module.Stmts = append(module.Stmts, node)
	}

	if file.Last != nil {
		last, err := LowerExpr(file.Last)
		if err != nil {
			return nil, err
		}
		module.Last = last
	}

	return module, nil
}

// LowerExpr lowers a single expression.
func LowerExpr(expr ast.Expr) (Ir, error) {
	return lowerExpr(expr)
}

func lowerStmt(stmt ast.Stmt) (Ir, error) {
	switch stmt := stmt.(type) {
	case *ast.LetStmt:
		value, err := lowerExpr(stmt.Value)
		if err != nil {
			return nil, err
		}
		return &Decl{At: ast.Span(stmt), Name: stmt.Name, Value: value}, nil
	case *ast.AssignStmt:
		target, err := lowerTarget(stmt.Target)
		if err != nil {
			return nil, err
		}
		value, err := lowerExpr(stmt.Value)
		if err != nil {
			return nil, err
		}
		if stmt.Token == token.Assign {
			return &Set{At: ast.Span(stmt), Target: target, Value: value}, nil
		}
		tok, ok := stmt.Token.AssignOp()
		if !ok {
			return nil, errorf(ast.Span(stmt), "invalid assignment operator %s", stmt.Token)
		}
		op, err := lowerBinaryOp(tok, stmt.TokenPos)
		if err != nil {
			return nil, err
		}
		return &Assign{At: ast.Span(stmt), Target: target, Op: op, Value: value}, nil
	case *ast.ExprStmt:
		return lowerExpr(stmt.X)
	case *ast.FnDecl:
		return nil, errorf(ast.Span(stmt), "function declarations are only allowed at the top level")
	}
	return nil, errorf(ast.Span(stmt), "cannot lower statement %T", stmt)
}

func lowerExpr(expr ast.Expr) (Ir, error) {
	at := ast.Span(expr)

	switch expr := expr.(type) {
	case *ast.Ident:
		return &Name{At: at, Ident: expr.Name}, nil
	case *ast.IntLit:
		value, err := rill.ParseInt(strings.ReplaceAll(expr.Literal, "_", ""), 0)
		if err != nil {
			return nil, errAt(at, err)
		}
		return &Const{At: at, Value: value}, nil
	case *ast.FloatLit:
		value, err := strconv.ParseFloat(expr.Literal, 64)
		if err != nil {
			return nil, errorf(at, "invalid float literal: %q", expr.Literal)
		}
		return &Const{At: at, Value: rill.Float(value)}, nil
	case *ast.BoolLit:
		return &Const{At: at, Value: rill.Bool(expr.Value)}, nil
	case *ast.UnitLit:
		return &Const{At: at, Value: rill.Unit{}}, nil
	case *ast.StringLit:
		return &Const{At: at, Value: rill.NewString(expr.Value)}, nil
	case *ast.TemplateLit:
		return lowerTemplate(expr)
	case *ast.BinaryExpr:
		return lowerBinary(expr)
	case *ast.ParenExpr:
		return lowerExpr(expr.X)
	case *ast.ArrayLit:
		items, err := lowerExprs(expr.Elements)
		if err != nil {
			return nil, err
		}
		return &Vec{At: at, Items: items}, nil
	case *ast.TupleLit:
		items, err := lowerExprs(expr.Elements)
		if err != nil {
			return nil, err
		}
		return &Tuple{At: at, Items: items}, nil
	case *ast.ObjectLit:
		fields := make([]ObjectField, 0, len(expr.Fields))
		for _, field := range expr.Fields {
			value, err := lowerExpr(field.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ObjectField{Key: field.Key, Value: value})
		}
		return &Object{At: at, Fields: fields}, nil
	case *ast.SelectorExpr, *ast.IndexExpr:
		return lowerTarget(expr)
	case *ast.CallExpr:
		args, err := lowerExprs(expr.Args)
		if err != nil {
			return nil, err
		}
		return &Call{At: at, Name: expr.Fn.Name, Args: args}, nil
	case *ast.BlockExpr:
		return lowerBlock(expr)
	case *ast.IfExpr:
		return lowerIf(expr)
	case *ast.LoopExpr:
		return lowerLoop(expr)
	case *ast.BreakExpr:
		return lowerBreak(expr)
	}
	return nil, errorf(at, "cannot lower expression %T", expr)
}

func lowerExprs(exprs []ast.Expr) ([]Ir, error) {
	nodes := make([]Ir, 0, len(exprs))
	for _, expr := range exprs {
		node, err := lowerExpr(expr)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func lowerBlock(block *ast.BlockExpr) (*Scope, error) {
	scope := &Scope{At: ast.Span(block)}

	for _, stmt := range block.Stmts {
		node, err := lowerStmt(stmt)
		if err != nil {
			return nil, err
		}
		scope.Instructions = append(scope.Instructions, node)
	}

	if block.Last != nil {
		last, err := lowerExpr(block.Last)
		if err != nil {
			return nil, err
		}
		scope.Last = last
	}

	return scope, nil
}

func lowerTemplate(template *ast.TemplateLit) (Ir, error) {
	node := &Template{At: ast.Span(template)}
	for _, part := range template.Parts {
		switch part := part.(type) {
		case *ast.ChunkPart:
			if part.Value != "" {
				node.Components = append(node.Components, TemplateChunk{Value: part.Value})
			}
		case *ast.ExprPart:
			inner, err := lowerExpr(part.X)
			if err != nil {
				return nil, err
			}
			node.Components = append(node.Components, TemplateExpr{Ir: inner})
		}
	}
	return node, nil
}

func lowerBinary(expr *ast.BinaryExpr) (Ir, error) {
	op, err := lowerBinaryOp(expr.Token, expr.TokenPos)
	if err != nil {
		return nil, err
	}
	lhs, err := lowerExpr(expr.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := lowerExpr(expr.RHS)
	if err != nil {
		return nil, err
	}
	return &Binary{At: ast.Span(expr), Op: op, LHS: lhs, RHS: rhs}, nil
}

func lowerBinaryOp(tok token.Token, pos token.Pos) (BinaryOp, error) {
	switch tok {
	case token.Add:
		return Add, nil
	case token.Sub:
		return Sub, nil
	case token.Mul:
		return Mul, nil
	case token.Quo:
		return Div, nil
	case token.Shl:
		return Shl, nil
	case token.Shr:
		return Shr, nil
	case token.Less:
		return Lt, nil
	case token.LessEq:
		return Lte, nil
	case token.Equal:
		return Eq, nil
	case token.Greater:
		return Gt, nil
	case token.GreaterEq:
		return Gte, nil
	}
	return 0, errorf(token.MakeSpan(pos, pos+1), "invalid binary operator %s", tok)
}

func lowerIf(expr *ast.IfExpr) (Ir, error) {
	node := &Branches{At: ast.Span(expr)}

	current := expr
	for {
		cond, err := lowerCond(current.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lowerBlock(current.Body)
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, Branch{Condition: cond, Body: body})

		switch alt := current.Else.(type) {
		case nil:
			return node, nil
		case *ast.BlockExpr:
			dflt, err := lowerBlock(alt)
			if err != nil {
				return nil, err
			}
			node.Default = dflt
			return node, nil
		case *ast.IfExpr:
			current = alt
		default:
			return nil, errorf(ast.Span(current.Else), "cannot lower else branch %T", alt)
		}
	}
}

func lowerCond(clause ast.CondClause) (Condition, error) {
	switch clause := clause.(type) {
	case *ast.ExprCond:
		inner, err := lowerExpr(clause.X)
		if err != nil {
			return nil, err
		}
		return &CondExpr{Ir: inner}, nil
	case *ast.LetCond:
		pat, err := lowerPattern(clause.Pat)
		if err != nil {
			return nil, err
		}
		value, err := lowerExpr(clause.Value)
		if err != nil {
			return nil, err
		}
		return &CondLet{At: ast.Span(clause), Pat: pat, Value: value}, nil
	}
	return nil, errorf(ast.Span(clause), "cannot lower condition %T", clause)
}

func lowerLoop(expr *ast.LoopExpr) (Ir, error) {
	node := &Loop{At: ast.Span(expr), Label: expr.Label}

	if expr.Cond != nil {
		cond, err := lowerCond(expr.Cond)
		if err != nil {
			return nil, err
		}
		node.Condition = cond
	}

	body, err := lowerBlock(expr.Body)
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func lowerBreak(expr *ast.BreakExpr) (Ir, error) {
	node := &Break{At: ast.Span(expr), Label: expr.Label}
	if expr.Value != nil {
		value, err := lowerExpr(expr.Value)
		if err != nil {
			return nil, err
		}
		node.Value = value
	}
	return node, nil
}

func lowerTarget(expr ast.Expr) (*Target, error) {
	at := ast.Span(expr)

	switch expr := expr.(type) {
	case *ast.Ident:
		return &Target{At: at, Kind: TargetName{Name: expr.Name}}, nil
	case *ast.SelectorExpr:
		parent, err := lowerTarget(expr.X)
		if err != nil {
			return nil, err
		}
		return &Target{At: at, Kind: TargetField{Target: parent, Name: expr.Sel}}, nil
	case *ast.IndexExpr:
		parent, err := lowerTarget(expr.X)
		if err != nil {
			return nil, err
		}
		return &Target{At: at, Kind: TargetIndex{Target: parent, Index: expr.Index}}, nil
	}
	return nil, errorf(at, "%s is not a valid target", expr)
}

func lowerPattern(pat ast.Pattern) (Pattern, error) {
	at := ast.Span(pat)

	switch pat := pat.(type) {
	case *ast.WildcardPat:
		return &PatIgnore{At: at}, nil
	case *ast.IdentPat:
		return &PatBinding{At: at, Name: pat.Name}, nil
	case *ast.LitPat:
		inner, err := lowerExpr(pat.X)
		if err != nil {
			return nil, err
		}
		lit, ok := inner.(*Const)
		if !ok {
			return nil, errorf(at, "%s is not a literal pattern", pat.X)
		}
		return &PatLit{At: at, Value: lit.Value}, nil
	case *ast.TuplePat:
		items := make([]Pattern, 0, len(pat.Items))
		for _, item := range pat.Items {
			inner, err := lowerPattern(item)
			if err != nil {
				return nil, err
			}
			items = append(items, inner)
		}
		return &PatTuple{At: at, Items: items}, nil
	case *ast.ObjectPat:
		fields := make([]PatField, 0, len(pat.Fields))
		for _, field := range pat.Fields {
			var inner Pattern
			if field.Pat == nil {
				inner = &PatBinding{
					At:   token.MakeSpan(field.KeyPos, field.KeyPos+token.Pos(len(field.Key))),
					Name: field.Key,
				}
			} else {
				lowered, err := lowerPattern(field.Pat)
				if err != nil {
					return nil, err
				}
				inner = lowered
			}
			fields = append(fields, PatField{Key: field.Key, Pat: inner})
		}
		return &PatObject{At: at, Fields: fields, Rest: pat.Rest}, nil
	}
	return nil, errorf(at, "cannot lower pattern %T", pat)
}
