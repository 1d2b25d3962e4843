package optimizer

import "github.com/lastvoidtemplar/luadecomp/internal/ast"

// inliner rewrites every LocalExpr referencing old into replacement,
// within one statement. It mirrors the reference decompiler's
// LocalInliner: it descends into if/while bodies but refuses to descend
// into table constructors, since a table literal's evaluation order and
// side effects make blind substitution unsafe.
type inliner struct {
	old         *ast.Local
	replacement *ast.Expr
}

func newInliner(old *ast.Local, replacement *ast.Expr) *inliner {
	return &inliner{old: old, replacement: replacement}
}

func (in *inliner) visitStat(s *ast.Stat) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.Block:
		for _, child := range s.Statements {
			in.visitStat(child)
		}
	case ast.If:
		s.Condition = in.visitExpr(s.Condition)
		in.visitStat(s.Then)
		in.visitStat(s.Else)
	case ast.While:
		s.Condition = in.visitExpr(s.Condition)
		in.visitStat(s.Body)
	case ast.Return:
		for i, v := range s.Values {
			s.Values[i] = in.visitExpr(v)
		}
	case ast.ExprStat:
		s.Expr = in.visitExpr(s.Expr)
	case ast.LocalDecl:
		for i, v := range s.Values {
			s.Values[i] = in.visitExpr(v)
		}
	case ast.LocalFunctionDecl:
		s.FuncExpr = in.visitExpr(s.FuncExpr)
	case ast.Assign:
		for i, v := range s.Values {
			s.Values[i] = in.visitExpr(v)
		}
		for i, t := range s.Targets {
			s.Targets[i] = in.visitExpr(t)
		}
	case ast.Break:
	}
}

func (in *inliner) visitExpr(e *ast.Expr) *ast.Expr {
	if e == nil {
		return nil
	}
	if e.Kind == ast.LocalExpr && e.Ref == in.old {
		return in.replacement
	}
	switch e.Kind {
	case ast.Call:
		e.Func = in.visitExpr(e.Func)
		for i, a := range e.Args {
			e.Args[i] = in.visitExpr(a)
		}
	case ast.IndexName:
		e.Object = in.visitExpr(e.Object)
	case ast.IndexExpr:
		e.Object = in.visitExpr(e.Object)
		e.Index = in.visitExpr(e.Index)
	case ast.Group:
		e.Object = in.visitExpr(e.Object)
	case ast.Unary:
		e.Object = in.visitExpr(e.Object)
	case ast.Binary:
		e.Left = in.visitExpr(e.Left)
		e.Right = in.visitExpr(e.Right)
	case ast.Table:
		// No descent: table constructors keep whatever registers they
		// were built from untouched.
	case ast.Function:
		// A nested prototype's body is optimized in its own scope.
	}
	return e
}

// targetsLocal reports whether stat is a single-target assignment whose
// target is exactly local (a self-reassignment).
func targetsLocal(stat *ast.Stat, local *ast.Local) bool {
	if stat.Kind != ast.Assign || len(stat.Targets) != 1 {
		return false
	}
	t := stat.Targets[0]
	return t.Kind == ast.LocalExpr && t.Ref == local
}
