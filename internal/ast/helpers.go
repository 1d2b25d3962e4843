package ast

// NewNilExpr, NewBoolExpr, etc. are small conveniences used by the lifter
// and by tests to build literal expressions without spelling out every
// field of Expr by hand. They allocate through the given arena so node
// counts stay accurate.

func NewNilExpr(a *Arena, loc Location) *Expr {
	e := a.NewExpr(ConstantNil)
	e.Location = loc
	return e
}

func NewBoolExpr(a *Arena, loc Location, v bool) *Expr {
	e := a.NewExpr(ConstantBool)
	e.Location = loc
	e.BoolValue = v
	return e
}

func NewNumberExpr(a *Arena, loc Location, v float64) *Expr {
	e := a.NewExpr(ConstantNumber)
	e.Location = loc
	e.NumberValue = v
	return e
}

func NewStringExpr(a *Arena, loc Location, v string) *Expr {
	e := a.NewExpr(ConstantString)
	e.Location = loc
	e.StringValue = v
	return e
}

func NewLocalExpr(a *Arena, loc Location, ref *Local) *Expr {
	e := a.NewExpr(LocalExpr)
	e.Location = loc
	e.Ref = ref
	return e
}

func NewGlobalExpr(a *Arena, loc Location, name string) *Expr {
	e := a.NewExpr(GlobalExpr)
	e.Location = loc
	e.Name = name
	return e
}

func NewIndexNameExpr(a *Arena, loc Location, object *Expr, field string) *Expr {
	e := a.NewExpr(IndexName)
	e.Location = loc
	e.Object = object
	e.Field = field
	return e
}

func NewIndexExprExpr(a *Arena, loc Location, object, index *Expr) *Expr {
	e := a.NewExpr(IndexExpr)
	e.Location = loc
	e.Object = object
	e.Index = index
	return e
}

func NewCallExpr(a *Arena, loc Location, fn *Expr, args []*Expr, self bool) *Expr {
	e := a.NewExpr(Call)
	e.Location = loc
	e.Func = fn
	e.Args = args
	e.Self = self
	return e
}

func NewVarargsExpr(a *Arena, loc Location) *Expr {
	e := a.NewExpr(Varargs)
	e.Location = loc
	return e
}

func NewUnaryExpr(a *Arena, loc Location, op UnaryOp, operand *Expr) *Expr {
	e := a.NewExpr(Unary)
	e.Location = loc
	e.UnOp = op
	e.Object = operand
	return e
}

func NewBinaryExpr(a *Arena, loc Location, op BinaryOp, left, right *Expr) *Expr {
	e := a.NewExpr(Binary)
	e.Location = loc
	e.BinOp = op
	e.Left = left
	e.Right = right
	return e
}

func NewTableExpr(a *Arena, loc Location, pairs []TablePair) *Expr {
	e := a.NewExpr(Table)
	e.Location = loc
	e.Pairs = pairs
	return e
}

func NewFunctionExpr(a *Arena, loc Location, params []*Local, isVararg bool, body *Stat) *Expr {
	e := a.NewExpr(Function)
	e.Location = loc
	e.Params = params
	e.IsVararg = isVararg
	e.Body = body
	return e
}

func NewBlockStat(a *Arena, loc Location, statements []*Stat) *Stat {
	s := a.NewStat(Block)
	s.Location = loc
	s.Statements = statements
	return s
}

func NewIfStat(a *Arena, loc Location, cond *Expr, then, els *Stat) *Stat {
	s := a.NewStat(If)
	s.Location = loc
	s.Condition = cond
	s.Then = then
	s.Else = els
	return s
}

func NewWhileStat(a *Arena, loc Location, cond *Expr, body *Stat) *Stat {
	s := a.NewStat(While)
	s.Location = loc
	s.Condition = cond
	s.Body = body
	return s
}

func NewReturnStat(a *Arena, loc Location, values []*Expr) *Stat {
	s := a.NewStat(Return)
	s.Location = loc
	s.Values = values
	return s
}

func NewExprStat(a *Arena, loc Location, expr *Expr) *Stat {
	s := a.NewStat(ExprStat)
	s.Location = loc
	s.Expr = expr
	return s
}

func NewLocalDeclStat(a *Arena, loc Location, vars []*Local, values []*Expr) *Stat {
	s := a.NewStat(LocalDecl)
	s.Location = loc
	s.Vars = vars
	s.Values = values
	return s
}

func NewLocalFunctionStat(a *Arena, loc Location, v *Local, fn *Expr) *Stat {
	s := a.NewStat(LocalFunctionDecl)
	s.Location = loc
	s.Var = v
	s.FuncExpr = fn
	return s
}

func NewAssignStat(a *Arena, loc Location, targets []*Expr, values []*Expr) *Stat {
	s := a.NewStat(Assign)
	s.Location = loc
	s.Targets = targets
	s.Values = values
	return s
}

func NewBreakStat(a *Arena, loc Location) *Stat {
	return a.NewStat(Break)
}

// IsValidName reports whether s could be printed as a bare identifier
// (used to decide `.name` vs `["name"]` and `name = v` vs `[k] = v` sugar).
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			continue
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
			continue
		default:
			return false
		}
	}
	return !keywords[s]
}

var keywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}
