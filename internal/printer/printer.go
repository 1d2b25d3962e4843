// Package printer renders the tagged-variant AST built by internal/lifter
// and cleaned up by internal/optimizer back into Lua-family source text.
// Every syntactic choice here — quote style, dot-vs-bracket indexing,
// elseif chaining, `local function` sugar — mirrors the reference
// decompiler's CodeVisitor in CodeFormat.cpp line for line.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
)

// Print writes stat (expected to be the module's top-level block) to w as
// Lua-family source. The top-level block is printed flat, with no
// enclosing `do...end`; every nested block (if/while/function bodies) is
// indented under the construct that introduces it.
func Print(w io.Writer, root *ast.Stat) error {
	bw := bufio.NewWriter(w)
	p := &printer{w: bw}
	p.statements(root.Statements)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush printed source: %w", err)
	}
	return p.err
}

type printer struct {
	w      *bufio.Writer
	indent int
	err    error
}

func (p *printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.str("    ")
	}
}

func (p *printer) str(s string) {
	if p.err != nil {
		return
	}
	if _, err := p.w.WriteString(s); err != nil {
		p.err = fmt.Errorf("write printed source: %w", err)
	}
}

func (p *printer) statements(stats []*ast.Stat) {
	for _, s := range stats {
		p.stat(s)
	}
}

func (p *printer) stat(s *ast.Stat) {
	switch s.Kind {
	case ast.Block:
		p.statements(s.Statements)

	case ast.If:
		p.writeIndent()
		p.str("if ")
		p.ifChain(s)

	case ast.While:
		p.writeIndent()
		p.str("while ")
		p.expr(s.Condition)
		p.str(" do\n")
		p.indent++
		p.statements(s.Body.Statements)
		p.indent--
		p.writeIndent()
		p.str("end\n")

	case ast.Break:
		p.writeIndent()
		p.str("break\n")

	case ast.Return:
		p.writeIndent()
		p.str("return")
		if len(s.Values) > 0 {
			p.str(" ")
			p.exprList(s.Values)
		}
		p.str("\n")

	case ast.ExprStat:
		p.writeIndent()
		p.expr(s.Expr)
		p.str("\n")

	case ast.LocalFunctionDecl:
		p.localFunction(s.Var, s.FuncExpr)

	case ast.LocalDecl:
		p.localDecl(s)

	case ast.Assign:
		p.writeIndent()
		p.exprList(s.Targets)
		p.str(" = ")
		p.exprList(s.Values)
		p.str("\n")
	}
}

// ifChain prints "cond then\n<body>" and recurses into Else, which is
// either nil, another If (rendered as `elseif`), or a plain Block
// (rendered as `else`).
func (p *printer) ifChain(s *ast.Stat) {
	p.expr(s.Condition)
	p.str(" then\n")

	p.indent++
	p.statements(s.Then.Statements)
	p.indent--

	if s.Else != nil {
		p.writeIndent()
		if s.Else.Kind == ast.If {
			p.str("elseif ")
			p.ifChain(s.Else)
			return
		}
		p.str("else\n")
		p.indent++
		p.statements(s.Else.Statements)
		p.indent--
	}

	p.writeIndent()
	p.str("end\n")
}

func (p *printer) localFunction(v *ast.Local, fn *ast.Expr) {
	p.writeIndent()
	p.str("local function ")
	p.str(v.Name)
	p.str("(")
	p.paramList(fn.Params, fn.IsVararg)
	p.str(")\n")
	p.indent++
	p.statements(fn.Body.Statements)
	p.indent--
	p.writeIndent()
	p.str("end\n")
}

func (p *printer) localDecl(s *ast.Stat) {
	// The `local function` shortcut is not a shape-based decision: it
	// only applies to a closure that captures the very register it is
	// being written into, which the lifter already tells apart by
	// emitting a LocalFunctionDecl statement for that case. Every other
	// function-valued LocalDecl, including a non-recursive one, prints
	// as a plain declaration.
	p.writeIndent()
	p.str("local ")
	for i, v := range s.Vars {
		p.str(v.Name)
		if i != len(s.Vars)-1 {
			p.str(", ")
		}
	}

	if len(s.Values) > 0 {
		if len(s.Values) == 1 && s.Values[0].Kind == ast.ConstantNil {
			p.str("\n")
			return
		}
		p.str(" = ")
		p.exprList(s.Values)
	}
	p.str("\n")
}

func (p *printer) paramList(params []*ast.Local, isVararg bool) {
	for i, param := range params {
		p.str(param.Name)
		if i != len(params)-1 || isVararg {
			p.str(", ")
		}
	}
	if isVararg {
		p.str("...")
	}
}

func (p *printer) exprList(exprs []*ast.Expr) {
	for i, e := range exprs {
		p.expr(e)
		if i != len(exprs)-1 {
			p.str(", ")
		}
	}
}

func (p *printer) expr(e *ast.Expr) {
	switch e.Kind {
	case ast.ConstantNil:
		p.str("nil")

	case ast.ConstantBool:
		if e.BoolValue {
			p.str("true")
		} else {
			p.str("false")
		}

	case ast.ConstantNumber:
		p.str(formatNumber(e.NumberValue))

	case ast.ConstantString:
		p.str(quoteString(e.StringValue))

	case ast.LocalExpr:
		p.str(e.Ref.Name)

	case ast.GlobalExpr:
		p.str(e.Name)

	case ast.Varargs:
		p.str("...")

	case ast.Group:
		p.str("(")
		p.expr(e.Object)
		p.str(")")

	case ast.Call:
		p.call(e)

	case ast.IndexName:
		p.expr(e.Object)
		p.str(".")
		p.str(e.Field)

	case ast.IndexExpr:
		p.expr(e.Object)
		if e.Index.Kind == ast.ConstantString && ast.IsValidName(e.Index.StringValue) {
			p.str(".")
			p.str(e.Index.StringValue)
			return
		}
		p.str("[")
		p.expr(e.Index)
		p.str("]")

	case ast.Function:
		p.str("function(")
		p.paramList(e.Params, e.IsVararg)
		p.str(")\n")
		p.indent++
		p.statements(e.Body.Statements)
		p.indent--
		p.writeIndent()
		p.str("end")

	case ast.Table:
		p.table(e)

	case ast.Unary:
		switch e.UnOp {
		case ast.Not:
			p.str("not ")
		case ast.UnaryMinus:
			p.str("-")
		case ast.Len:
			p.str("#")
		}
		p.expr(e.Object)

	case ast.Binary:
		p.expr(e.Left)
		p.str(binaryOpText(e.BinOp))
		p.expr(e.Right)
	}
}

func (p *printer) call(e *ast.Expr) {
	if e.Self && e.Func.Kind == ast.IndexName {
		p.expr(e.Func.Object)
		p.str(":")
		p.str(e.Func.Field)
	} else {
		noParen := e.Func.Kind == ast.LocalExpr || e.Func.Kind == ast.GlobalExpr ||
			e.Func.Kind == ast.Group || e.Func.Kind == ast.IndexName || e.Func.Kind == ast.IndexExpr
		if !noParen {
			p.str("(")
		}
		p.expr(e.Func)
		if !noParen {
			p.str(")")
		}
	}

	p.str("(")
	p.exprList(e.Args)
	p.str(")")
}

func (p *printer) table(e *ast.Expr) {
	p.str("{")
	if len(e.Pairs) > 0 {
		p.indent++
		p.str("\n")
		for i, pair := range e.Pairs {
			p.writeIndent()
			if pair.Key != nil {
				if pair.Key.Kind == ast.ConstantString && ast.IsValidName(pair.Key.StringValue) {
					p.str(pair.Key.StringValue)
					p.str(" = ")
				} else {
					p.str("[")
					p.expr(pair.Key)
					p.str("] = ")
				}
			}
			p.expr(pair.Value)
			if i != len(e.Pairs)-1 {
				p.str(",\n")
			} else {
				p.str("\n")
			}
		}
		p.indent--
		p.writeIndent()
	}
	p.str("}")
}

func binaryOpText(op ast.BinaryOp) string {
	switch op {
	case ast.Add:
		return " + "
	case ast.Sub:
		return " - "
	case ast.Mul:
		return " * "
	case ast.Div:
		return " / "
	case ast.Mod:
		return " % "
	case ast.Pow:
		return " ^ "
	case ast.Concat:
		return " .. "
	case ast.CompareNe:
		return " ~= "
	case ast.CompareEq:
		return " == "
	case ast.CompareLt:
		return " < "
	case ast.CompareLe:
		return " <= "
	case ast.CompareGt:
		return " > "
	case ast.CompareGe:
		return " >= "
	case ast.And:
		return " and "
	case ast.Or:
		return " or "
	}
	return " ? "
}

// formatNumber matches the reference printer's iostream precision(14)
// setting, which renders doubles with up to 14 significant digits and no
// trailing exponent for ordinary magnitudes.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 14, 64)
}

// quoteString picks the same quote style the reference printer does: a
// single or double quote when the string only contains the other quote
// character (or neither), and a long-bracket literal whenever the string
// contains a newline, backslash, or both quote characters.
func quoteString(s string) string {
	hasSingle := strings.ContainsRune(s, '\'')
	hasDouble := strings.ContainsRune(s, '"')
	hasEscape := strings.ContainsAny(s, "\n\\")

	switch {
	case hasEscape || (hasSingle && hasDouble):
		return "[[" + s + "]]"
	case hasDouble && !hasSingle:
		return "'" + s + "'"
	default:
		return "\"" + s + "\""
	}
}
