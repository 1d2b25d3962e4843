package optimizer

import (
	"testing"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
)

func Test_InlineSingleReferences_DropsDeclarationAndSubstitutes(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}

	x := arena.NewLocal("x", 1)
	decl := ast.NewLocalDeclStat(arena, loc, []*ast.Local{x}, []*ast.Expr{ast.NewNumberExpr(arena, loc, 5)})
	printCall := ast.NewCallExpr(arena, loc, ast.NewGlobalExpr(arena, loc, "print"), []*ast.Expr{ast.NewLocalExpr(arena, loc, x)}, false)
	useStat := ast.NewExprStat(arena, loc, printCall)

	body := Optimize(arena, []*ast.Stat{decl, useStat})

	if len(body) != 1 {
		t.Fatalf("expected the declaration to be dropped, got %d statements", len(body))
	}
	if body[0] != useStat {
		t.Fatalf("expected the surviving statement to be the print call")
	}
	if got := printCall.Args[0]; got.Kind != ast.ConstantNumber || got.NumberValue != 5 {
		t.Fatalf("expected the argument to be inlined to the literal 5, got %+v", got)
	}
}

func Test_InlineSingleReferences_SkipsMultiReturnSpread(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}

	a := arena.NewLocal("a", 1)
	b := arena.NewLocal("b", 1)
	call := ast.NewCallExpr(arena, loc, ast.NewGlobalExpr(arena, loc, "f"), nil, false)
	decl := ast.NewLocalDeclStat(arena, loc, []*ast.Local{a, b}, []*ast.Expr{call})
	useA := ast.NewExprStat(arena, loc, ast.NewLocalExpr(arena, loc, a))
	useB := ast.NewExprStat(arena, loc, ast.NewLocalExpr(arena, loc, b))

	body := Optimize(arena, []*ast.Stat{decl, useA, useB})

	if len(body) != 3 {
		t.Fatalf("expected the multi-return declaration to survive, got %d statements", len(body))
	}
}

func Test_SplitReassignedLocal_IntroducesFreshDeclaration(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}

	x := arena.NewLocal("x", 1)
	decl := ast.NewLocalDeclStat(arena, loc, []*ast.Local{x}, []*ast.Expr{ast.NewNumberExpr(arena, loc, 1)})
	firstUse := ast.NewExprStat(arena, loc, ast.NewCallExpr(arena, loc, ast.NewGlobalExpr(arena, loc, "print"), []*ast.Expr{ast.NewLocalExpr(arena, loc, x)}, false))
	reassign := ast.NewAssignStat(arena, loc, []*ast.Expr{ast.NewLocalExpr(arena, loc, x)}, []*ast.Expr{ast.NewNumberExpr(arena, loc, 2)})
	secondUse := ast.NewExprStat(arena, loc, ast.NewCallExpr(arena, loc, ast.NewGlobalExpr(arena, loc, "print"), []*ast.Expr{ast.NewLocalExpr(arena, loc, x)}, false))

	// Only the splitting pass runs here: Optimize's inlining pass would
	// afterwards fold both single-use declarations into their print calls.
	body := splitReassignedLocals(arena, []*ast.Stat{decl, firstUse, reassign, secondUse})

	var declCount int
	for _, s := range body {
		if s.Kind == ast.LocalDecl {
			declCount++
		}
	}
	if declCount != 2 {
		t.Fatalf("expected the reassignment to become a second local declaration, got %d declarations in %d statements", declCount, len(body))
	}
}

func Test_SelfStoreGuard_PreventsInliningIntoOwnAssignment(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}

	x := arena.NewLocal("x", 1)
	decl := ast.NewLocalDeclStat(arena, loc, []*ast.Local{x}, []*ast.Expr{ast.NewNumberExpr(arena, loc, 1)})
	// x's only reference is the store target of `x = 2`; inlining the
	// declaration's value there would produce `1 = 2`.
	selfAssign := ast.NewAssignStat(arena, loc, []*ast.Expr{ast.NewLocalExpr(arena, loc, x)}, []*ast.Expr{ast.NewNumberExpr(arena, loc, 2)})

	body := Optimize(arena, []*ast.Stat{decl, selfAssign})

	found := false
	for _, s := range body {
		if s.Kind == ast.LocalDecl {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the declaration to survive since its only reference is an assignment to it")
	}
}
