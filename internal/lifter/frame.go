package lifter

import (
	"github.com/lastvoidtemplar/luadecomp/internal/ast"
	"github.com/lastvoidtemplar/luadecomp/internal/bytecode"
)

// frame is one open entry of the control-flow fringe, pushed by a
// Test/NotTest instruction. targetPC is that instruction's own index plus
// its signed offset (codeStartIndex + s_b_x, read directly off the
// opcode) and is closed one of two ways, which are NOT symmetric:
//
//   - Reaching its targetPC in the normal course of scanning forward,
//     after the instruction at targetPC has itself been dispatched into
//     the frame's body, closes it as an `if`; only a Test-type frame gets
//     its condition wrapped in a logical Not (a NotTest-type frame's
//     condition is used bare, since the compiler already emitted the
//     negated check). No else branch is ever built: the reference
//     decompiler this is ported from never produces one either.
//   - Any backward LoopJump encountered while this is the innermost open
//     frame closes it as a `while` instead, regardless of targetPC — the
//     compiler emits exactly one such back-edge per loop, always as the
//     loop body's last instruction — and the condition is NEVER negated,
//     regardless of whether the frame is Test or NotTest type.
type frame struct {
	kind     bytecode.OpCode // bytecode.Test or bytecode.NotTest
	cond     *ast.Expr
	targetPC int
}
