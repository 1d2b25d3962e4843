// Package ast defines the tagged-variant syntax tree the lifter builds and
// the optimizer and printer consume.
//
// The reference decompiler this package is modeled on used a
// single-inheritance class hierarchy with hand-rolled RTTI, one concrete
// C++ class per node shape, and virtual double-dispatch visitors. Go has
// neither inheritance nor cheap virtual dispatch, so every expression
// shape lives in one Expr struct and every statement shape lives in one
// Stat struct, each carrying a Kind discriminator and the union of fields
// any variant might need. Callers switch on Kind instead of double
// dispatching through a visitor.
package ast

// Position is a line/column pair, one-based.
type Position struct {
	Line   int
	Column int
}

// Location spans from Begin to End.
type Location struct {
	Begin Position
	End   Position
}

// Local is the identity of a named binding. Two Expr nodes referencing the
// same *Local refer to the same variable; the optimizer and printer compare
// pointers, never names.
type Local struct {
	Name string
	// FunctionDepth is the nesting depth (from 1) of the prototype that
	// declared this local. A LocalExpr referencing a Local whose
	// FunctionDepth differs from the depth of the prototype currently being
	// printed/lifted is an upvalue reference.
	FunctionDepth int
}

// ExprKind discriminates the variant held by an Expr.
type ExprKind int

const (
	ConstantNil ExprKind = iota
	ConstantBool
	ConstantNumber
	ConstantString
	LocalExpr
	GlobalExpr
	Varargs
	Call
	IndexName
	IndexExpr
	Function
	Table
	Unary
	Binary
	Group
)

// UnaryOp enumerates the unary operators the source language supports.
type UnaryOp int

const (
	Not UnaryOp = iota
	UnaryMinus
	Len
)

// BinaryOp enumerates the binary operators, in the same relative order the
// arithmetic opcode block uses (Add..Pow) so that decoding an opcode's
// offset from its block base yields the operator directly.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Pow
	Concat
	CompareNe
	CompareEq
	CompareLt
	CompareLe
	CompareGt
	CompareGe
	And
	Or
)

// TablePair is one entry of a table constructor. A nil Key marks a
// positional (array-style) entry.
type TablePair struct {
	Key   *Expr
	Value *Expr
}

// Expr is a single AST expression node. Only the fields relevant to Kind
// are meaningful; the rest are zero.
type Expr struct {
	Kind     ExprKind
	Location Location

	BoolValue   bool
	NumberValue float64
	StringValue string

	// LocalExpr
	Ref *Local

	// GlobalExpr
	Name string

	// Call
	Func *Expr
	Args []*Expr
	Self bool

	// IndexName / IndexExpr / Group / Unary base operand
	Object *Expr
	// IndexName
	Field string
	// IndexExpr
	Index *Expr

	// Function
	Params   []*Local
	IsVararg bool
	Body     *Stat

	// Table
	Pairs []TablePair

	// Unary / Binary
	UnOp  UnaryOp
	BinOp BinaryOp
	Left  *Expr
	Right *Expr
}

// StatKind discriminates the variant held by a Stat.
type StatKind int

const (
	Block StatKind = iota
	If
	While
	Break
	Return
	ExprStat
	LocalDecl
	LocalFunctionDecl
	Assign
)

// Stat is a single AST statement node.
type Stat struct {
	Kind     StatKind
	Location Location

	// Block
	Statements []*Stat

	// If
	Condition *Expr
	Then      *Stat // Block
	Else      *Stat // Block, or another If for elseif-chaining

	// While
	Body *Stat // Block

	// Return / ExprStat call value / Assign values
	Values []*Expr

	// ExprStat
	Expr *Expr

	// LocalDecl / Assign targets
	Vars    []*Local
	Targets []*Expr

	// LocalFunctionDecl
	Var      *Local
	FuncExpr *Expr
}
