// Package optimizer collapses the register-pressure artifacts the lifter
// necessarily introduces (one local per SSA-like write) back into natural
// source form: locals referenced exactly once are substituted directly
// into their use site, and locals that are declared once but reassigned
// later are split into two distinct bindings. The second binding is a new
// Local that reuses the original's name, so it prints as a shadowing
// `local` declaration of the same name.
package optimizer

import "github.com/lastvoidtemplar/luadecomp/internal/ast"

// localInfo tracks every statement that references a given local, in the
// order the census walk encountered them. It mirrors the reference
// original decompiler's LocalCollector class exactly: each AstExprLocal
// sighting is attributed to the *innermost* enclosing statement, even if
// that statement is nested inside an if/while body.
type localInfo struct {
	refs []*ast.Stat
}

func census(body []*ast.Stat) map[*ast.Local]*localInfo {
	info := make(map[*ast.Local]*localInfo)
	record := func(ctx *ast.Stat, local *ast.Local) {
		li, ok := info[local]
		if !ok {
			li = &localInfo{}
			info[local] = li
		}
		li.refs = append(li.refs, ctx)
	}
	for _, s := range body {
		censusStat(s, record)
	}
	return info
}

func censusStat(s *ast.Stat, record func(ctx *ast.Stat, local *ast.Local)) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.Block:
		for _, child := range s.Statements {
			censusStat(child, record)
		}
	case ast.If:
		censusExpr(s.Condition, s, record)
		censusStat(s.Then, record)
		censusStat(s.Else, record)
	case ast.While:
		censusExpr(s.Condition, s, record)
		censusStat(s.Body, record)
	case ast.Return:
		for _, v := range s.Values {
			censusExpr(v, s, record)
		}
	case ast.ExprStat:
		censusExpr(s.Expr, s, record)
	case ast.LocalDecl:
		for _, v := range s.Values {
			censusExpr(v, s, record)
		}
	case ast.LocalFunctionDecl:
		censusExpr(s.FuncExpr, s, record)
	case ast.Assign:
		for _, v := range s.Values {
			censusExpr(v, s, record)
		}
		for _, t := range s.Targets {
			censusExpr(t, s, record)
		}
	case ast.Break:
		// no children
	}
}

func censusExpr(e *ast.Expr, ctx *ast.Stat, record func(ctx *ast.Stat, local *ast.Local)) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.LocalExpr:
		record(ctx, e.Ref)
	case ast.Call:
		censusExpr(e.Func, ctx, record)
		for _, a := range e.Args {
			censusExpr(a, ctx, record)
		}
	case ast.IndexName:
		censusExpr(e.Object, ctx, record)
	case ast.IndexExpr:
		censusExpr(e.Object, ctx, record)
		censusExpr(e.Index, ctx, record)
	case ast.Group:
		censusExpr(e.Object, ctx, record)
	case ast.Unary:
		censusExpr(e.Object, ctx, record)
	case ast.Binary:
		censusExpr(e.Left, ctx, record)
		censusExpr(e.Right, ctx, record)
	case ast.Table:
		for _, p := range e.Pairs {
			censusExpr(p.Key, ctx, record)
			censusExpr(p.Value, ctx, record)
		}
	case ast.Function:
		// A nested function body is its own prototype's optimize() scope;
		// its locals were already censused there. Do not descend.
	}
}
