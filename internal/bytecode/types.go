package bytecode

import "github.com/lastvoidtemplar/luadecomp/internal/ast"

// Instruction is one decoded 32-bit instruction word, plus its optional
// trailing auxiliary word for two-word opcodes.
type Instruction struct {
	Op OpCode
	A  byte
	B  byte
	C  byte
	// Bx is the 16-bit unsigned reinterpretation of B,C.
	Bx uint16
	// SBx is the 16-bit signed reinterpretation of B,C.
	SBx int16

	HasAux bool
	Aux    uint32
}

// Proto is one compiled function prototype.
type Proto struct {
	MaxRegCount byte
	ArgCount    byte
	UpvalCount  byte
	IsVarArg    bool

	Code      []Instruction
	Constants []*ast.Expr
	Children  []*Proto
	Name      string
	// LineInfo holds one absolute line number per instruction, after the
	// delta stream has been cumulatively summed.
	LineInfo []int

	// Args and Upvalues are populated by the lifter, not the decoder.
	Args     []*ast.Local
	Upvalues []*ast.Local

	IsMain bool
}

// Module is a fully decoded bytecode container.
type Module struct {
	Protos         []*Proto
	Main           *Proto
	StudioCompiled bool
	Flagged        bool
}
