package printer

import (
	"strings"
	"testing"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
)

func Test_Print_GlobalCallWithLiteralArgument(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}
	call := ast.NewCallExpr(arena, loc, ast.NewGlobalExpr(arena, loc, "print"), []*ast.Expr{ast.NewStringExpr(arena, loc, "hi")}, false)
	root := ast.NewBlockStat(arena, loc, []*ast.Stat{ast.NewExprStat(arena, loc, call)})

	var buf strings.Builder
	if err := Print(&buf, root); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if got := buf.String(); got != "print(\"hi\")\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func Test_Print_IfElse(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}
	x := arena.NewLocal("x", 1)
	thenBody := ast.NewBlockStat(arena, loc, []*ast.Stat{ast.NewReturnStat(arena, loc, []*ast.Expr{ast.NewNumberExpr(arena, loc, 1)})})
	elseBody := ast.NewBlockStat(arena, loc, []*ast.Stat{ast.NewReturnStat(arena, loc, []*ast.Expr{ast.NewNumberExpr(arena, loc, 2)})})
	ifStat := ast.NewIfStat(arena, loc, ast.NewLocalExpr(arena, loc, x), thenBody, elseBody)
	root := ast.NewBlockStat(arena, loc, []*ast.Stat{ifStat})

	var buf strings.Builder
	if err := Print(&buf, root); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	want := "if x then\n    return 1\nelse\n    return 2\nend\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func Test_Print_LocalFunctionSugar(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}
	f := arena.NewLocal("f", 1)
	body := ast.NewBlockStat(arena, loc, []*ast.Stat{ast.NewReturnStat(arena, loc, nil)})
	fn := ast.NewFunctionExpr(arena, loc, nil, false, body)
	decl := ast.NewLocalFunctionStat(arena, loc, f, fn)
	root := ast.NewBlockStat(arena, loc, []*ast.Stat{decl})

	var buf strings.Builder
	if err := Print(&buf, root); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	want := "local function f()\n    return\nend\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func Test_Print_NonRecursiveFunctionLocalDoesNotSugar(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}
	f := arena.NewLocal("f", 1)
	body := ast.NewBlockStat(arena, loc, []*ast.Stat{ast.NewReturnStat(arena, loc, nil)})
	fn := ast.NewFunctionExpr(arena, loc, nil, false, body)
	decl := ast.NewLocalDeclStat(arena, loc, []*ast.Local{f}, []*ast.Expr{fn})
	root := ast.NewBlockStat(arena, loc, []*ast.Stat{decl})

	var buf strings.Builder
	if err := Print(&buf, root); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	want := "local f = function()\n    return\nend\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func Test_Print_BareNilLocalShortcut(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}
	x := arena.NewLocal("x", 1)
	decl := ast.NewLocalDeclStat(arena, loc, []*ast.Local{x}, []*ast.Expr{ast.NewNilExpr(arena, loc)})
	root := ast.NewBlockStat(arena, loc, []*ast.Stat{decl})

	var buf strings.Builder
	if err := Print(&buf, root); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if got := buf.String(); got != "local x\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func Test_QuoteString_PicksLongBracketsForMixedQuotes(t *testing.T) {
	if got := quoteString(`he said "hi" and 'bye'`); got != "[[he said \"hi\" and 'bye']]" {
		t.Fatalf("unexpected quoting: %q", got)
	}
	if got := quoteString("plain"); got != `"plain"` {
		t.Fatalf("unexpected quoting: %q", got)
	}
	if got := quoteString(`has "double"`); got != `'has "double"'` {
		t.Fatalf("unexpected quoting: %q", got)
	}
}

func Test_Print_SelfCallSugar(t *testing.T) {
	arena := ast.NewArena()
	loc := ast.Location{}
	obj := ast.NewGlobalExpr(arena, loc, "dog")
	fn := ast.NewIndexNameExpr(arena, loc, obj, "bark")
	call := ast.NewCallExpr(arena, loc, fn, nil, true)
	root := ast.NewBlockStat(arena, loc, []*ast.Stat{ast.NewExprStat(arena, loc, call)})

	var buf strings.Builder
	if err := Print(&buf, root); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if got := buf.String(); got != "dog:bark()\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}
