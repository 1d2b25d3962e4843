package bytecode

// OpCode is the logical (deobfuscated) instruction opcode. Ordinals match
// the reference decoder exactly: they are load-bearing, since the
// permutation table (buildPermutation) maps encoded byte values onto these
// ordinals positionally.
type OpCode byte

const (
	Nop OpCode = iota
	SaveCode
	LoadNil
	LoadBool
	LoadShort
	LoadConst
	Move
	GetGlobal
	SetGlobal
	GetUpvalue
	SetUpvalue
	SaveRegisters
	GetGlobalConst
	GetTableIndex
	SetTableIndex
	GetTableIndexConstant
	SetTableIndexConstant
	GetTableIndexByte
	SetTableIndexByte
	Closure
	Self
	Call
	Return
	Jump
	LoopJump
	Test
	NotTest
	Equal
	LesserOrEqual
	LesserThan
	NotEqual
	GreaterThan
	GreaterOrEqual
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	AddByte
	SubByte
	MulByte
	DivByte
	ModByte
	PowByte
	Or
	And
	OrByte
	AndByte
	Concat
	Not
	UnaryMinus
	Len
	NewTable
	NewTableConst
	SetList
	ForPrep
	ForLoop
	TForLoop
	LoopJumpIPairs
	TForLoopIPairs
	LoopJumpNext
	TForLoopNext
	LoadVarargs
	ClearStack
	ClearStackFull
	LoadConstLarge
	FarJump
	BuiltinCall
	opcodeEnd
)

var opcodeNames = [...]string{
	"Nop", "SaveCode", "LoadNil", "LoadBool", "LoadShort", "LoadConst",
	"Move", "GetGlobal", "SetGlobal", "GetUpvalue", "SetUpvalue",
	"SaveRegisters", "GetGlobalConst", "GetTableIndex", "SetTableIndex",
	"GetTableIndexConstant", "SetTableIndexConstant", "GetTableIndexByte",
	"SetTableIndexByte", "Closure", "Self", "Call", "Return", "Jump",
	"LoopJump", "Test", "NotTest", "Equal", "LesserOrEqual", "LesserThan",
	"NotEqual", "GreaterThan", "GreaterOrEqual", "Add", "Sub", "Mul", "Div",
	"Mod", "Pow", "AddByte", "SubByte", "MulByte", "DivByte", "ModByte",
	"PowByte", "Or", "And", "OrByte", "AndByte", "Concat", "Not",
	"UnaryMinus", "Len", "NewTable", "NewTableConst", "SetList", "ForPrep",
	"ForLoop", "TForLoop", "LoopJumpIPairs", "TForLoopIPairs",
	"LoopJumpNext", "TForLoopNext", "LoadVarargs", "ClearStack",
	"ClearStackFull", "LoadConstLarge", "FarJump", "BuiltinCall",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "OpCode(?)"
}

// twoWordOpcodes holds every opcode whose instruction word is followed by
// an extra, uninterpreted 32-bit auxiliary word.
var twoWordOpcodes = map[OpCode]bool{
	GetGlobal:             true,
	SetGlobal:             true,
	GetGlobalConst:        true,
	GetTableIndexConstant: true,
	SetTableIndexConstant: true,
	Self:                  true,
	Equal:                 true,
	LesserOrEqual:         true,
	LesserThan:            true,
	NotEqual:              true,
	GreaterThan:           true,
	GreaterOrEqual:        true,
	NewTable:              true,
	SetList:               true,
	TForLoop:              true,
	LoadConstLarge:        true,
}

// IsTwoWord reports whether op consumes a following auxiliary word.
func IsTwoWord(op OpCode) bool {
	return twoWordOpcodes[op]
}

// permutationMultiplier is the fixed multiplier used to scramble opcode
// bytes in an obfuscated module: encoded = (multiplier * logical) mod 256.
const permutationMultiplier = 227

// buildPermutation returns perm such that perm[(227*i) mod 256] = OpCode(i)
// for every logical opcode i. Arithmetic is unsigned 8-bit and wraps.
func buildPermutation() [256]OpCode {
	var perm [256]OpCode
	for i := 0; i < int(opcodeEnd); i++ {
		encoded := byte(permutationMultiplier * i)
		perm[encoded] = OpCode(i)
	}
	return perm
}
