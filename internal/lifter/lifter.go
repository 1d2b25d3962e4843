// Package lifter walks a decoded prototype's instruction stream and
// rebuilds it into the tagged-variant AST defined by internal/ast. It is
// the direct counterpart of the reference decompiler's per-prototype
// pass through Decompiler::processCode: a linear scan that maintains a
// register-to-local map, a tail-expression slot for multi-return
// handoff, a self-call slot for method-call sugar, and a stack of open
// conditional/loop fringe entries that resolve into `if`/`while`
// statements as the scan reaches their targets.
package lifter

import (
	"fmt"
	"io"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
	"github.com/lastvoidtemplar/luadecomp/internal/bytecode"
	"github.com/lastvoidtemplar/luadecomp/internal/optimizer"
)

// Lift converts a decoded module's main prototype into a single block
// statement. diagnostics receives one line per instruction this lifter
// cannot faithfully translate (numeric/generic for-loops and the raw
// stack-shape opcodes have no AST representation); it must not be nil.
func Lift(arena *ast.Arena, mod *bytecode.Module, diagnostics io.Writer) (*ast.Stat, error) {
	l := &lifter{arena: arena, mod: mod, diagnostics: diagnostics}
	body, err := l.liftProto(mod.Main, 1)
	if err != nil {
		return nil, fmt.Errorf("lift main prototype: %w", err)
	}
	body = optimizer.Optimize(arena, body)
	return ast.NewBlockStat(arena, ast.Location{}, body), nil
}

type lifter struct {
	arena       *ast.Arena
	mod         *bytecode.Module
	diagnostics io.Writer
	localSeq    int
}

func (l *lifter) freshName() string {
	l.localSeq++
	return fmt.Sprintf("l%d", l.localSeq)
}

func (l *lifter) note(proto *bytecode.Proto, pc int, format string, args ...any) {
	fmt.Fprintf(l.diagnostics, "%s: instruction %d: "+format+"\n",
		append([]any{proto.Name, pc}, args...)...)
}

// flag raises the module's monotonic flagged bit. Once set it is never
// cleared, matching the container decoder's own treatment of the bit.
func (l *lifter) flag() {
	l.mod.Flagged = true
}

// protoState is the mutable register machine for one prototype's linear
// scan. Registers map to *ast.Local, not to expressions: a second write
// to an already-bound register produces an Assign to the same Local
// rather than a fresh declaration, so a variable mutated inside a loop
// body (a counter, an accumulator) stays the same variable the loop's
// condition reads. Register aliasing the reference decompiler would
// consider incidental (the compiler reusing a dead register for an
// unrelated temporary) is deliberately not special-cased here; the
// optimizer's local-splitting pass exists to undo exactly that.
type protoState struct {
	proto *bytecode.Proto
	depth int

	registers map[byte]*ast.Local
	upvalues  map[byte]*ast.Local
	tables    map[*ast.Local]*ast.Expr // Local -> its live Table expr, for SetList

	pendingSelfObj   map[byte]*ast.Expr
	pendingSelfField map[byte]string

	isTail   bool
	tailBase byte
	tailExpr *ast.Expr
}

func (l *lifter) liftProto(p *bytecode.Proto, depth int) ([]*ast.Stat, error) {
	st := &protoState{
		proto:            p,
		depth:            depth,
		registers:        make(map[byte]*ast.Local),
		upvalues:         make(map[byte]*ast.Local),
		tables:           make(map[*ast.Local]*ast.Expr),
		pendingSelfObj:   make(map[byte]*ast.Expr),
		pendingSelfField: make(map[byte]string),
	}
	// p.Upvalues is populated by the parent's Closure handling before
	// liftProto is called for a child prototype, one *ast.Local per
	// upvalue index, each already resolved to the parent's own register
	// or upvalue. Prepopulating st.upvalues from it means GetUpvalue and
	// SetUpvalue resolve straight to the linked parent binding instead of
	// synthesizing a disconnected local.
	for i, local := range p.Upvalues {
		st.upvalues[byte(i)] = local
	}
	for i := byte(0); i < p.ArgCount; i++ {
		local := l.arena.NewLocal(fmt.Sprintf("arg%d", i+1), depth)
		p.Args = append(p.Args, local)
		st.registers[i] = local
	}

	return l.liftBody(st, p.Code)
}

func (l *lifter) liftBody(st *protoState, code []bytecode.Instruction) ([]*ast.Stat, error) {
	blocks := [][]*ast.Stat{{}}
	var frames []*frame

	push := func(s *ast.Stat) { blocks[len(blocks)-1] = append(blocks[len(blocks)-1], s) }

	closeGeneric := func() {
		fr := frames[len(frames)-1]
		frames = frames[:len(frames)-1]
		body := optimizer.Optimize(l.arena, blocks[len(blocks)-1])
		blocks = blocks[:len(blocks)-1]

		cond := fr.cond
		if fr.kind == bytecode.Test {
			cond = ast.NewUnaryExpr(l.arena, ast.Location{}, ast.Not, cond)
		}

		then := ast.NewBlockStat(l.arena, ast.Location{}, body)
		blocks[len(blocks)-1] = append(blocks[len(blocks)-1], ast.NewIfStat(l.arena, ast.Location{}, cond, then, nil))
	}

	closeAsLoop := func() {
		fr := frames[len(frames)-1]
		frames = frames[:len(frames)-1]
		body := optimizer.Optimize(l.arena, blocks[len(blocks)-1])
		blocks = blocks[:len(blocks)-1]
		blocks[len(blocks)-1] = append(blocks[len(blocks)-1],
			ast.NewWhileStat(l.arena, ast.Location{}, fr.cond, ast.NewBlockStat(l.arena, ast.Location{}, body)))
	}

	// closeAsInfiniteLoop handles a backward LoopJump with no open
	// Test/NotTest frame: there is no condition to read at all, so
	// everything accumulated in the current (necessarily top-level,
	// since len(blocks) == len(frames)+1) block becomes the body of
	// `while true do ... end`.
	closeAsInfiniteLoop := func() {
		body := optimizer.Optimize(l.arena, blocks[len(blocks)-1])
		cond := ast.NewBoolExpr(l.arena, ast.Location{}, true)
		blocks[len(blocks)-1] = []*ast.Stat{
			ast.NewWhileStat(l.arena, ast.Location{}, cond, ast.NewBlockStat(l.arena, ast.Location{}, body)),
		}
	}

	pc := 0
	for pc < len(code) {
		instr := code[pc]
		switch instr.Op {

		case bytecode.SaveCode, bytecode.SaveRegisters, bytecode.ClearStack:
			// pure stack-shape bookkeeping; nothing observable to lift.

		case bytecode.Nop:
			// A genuine no-op the container should never have emitted;
			// unlike the stack-shape bookkeeping opcodes above, its
			// presence itself is the anomaly worth flagging.
			l.flag()

		case bytecode.LoadNil:
			l.write(st, push, instr.A, ast.NewNilExpr(l.arena, ast.Location{}))

		case bytecode.LoadBool:
			l.write(st, push, instr.A, ast.NewBoolExpr(l.arena, ast.Location{}, instr.B != 0))

		case bytecode.LoadShort:
			l.write(st, push, instr.A, ast.NewNumberExpr(l.arena, ast.Location{}, float64(instr.SBx)))

		case bytecode.LoadConst:
			l.write(st, push, instr.A, l.constant(st.proto, int(instr.Bx)))

		case bytecode.LoadConstLarge:
			l.note(st.proto, pc, "%s has no direct statement form, skipped", instr.Op)

		case bytecode.Move:
			if st.isTail && instr.B >= st.tailBase {
				if instr.B == st.tailBase {
					l.write(st, push, instr.A, st.tailExpr)
				} else {
					l.write(st, push, instr.A, ast.NewNilExpr(l.arena, ast.Location{}))
				}
			} else if src, ok := st.registers[instr.B]; ok {
				if dst, bound := st.registers[instr.A]; bound && dst != src {
					l.write(st, push, instr.A, ast.NewLocalExpr(l.arena, ast.Location{}, src))
				} else {
					st.registers[instr.A] = src
				}
			} else {
				l.write(st, push, instr.A, l.get(st, instr.B))
			}

		case bytecode.GetGlobal, bytecode.GetGlobalConst:
			l.write(st, push, instr.A, l.constant(st.proto, int(instr.Aux)))

		case bytecode.SetGlobal:
			target := l.constant(st.proto, int(instr.Aux))
			push(ast.NewAssignStat(l.arena, ast.Location{}, []*ast.Expr{target}, []*ast.Expr{l.get(st, instr.A)}))

		case bytecode.GetUpvalue:
			l.write(st, push, instr.A, ast.NewLocalExpr(l.arena, ast.Location{}, l.upvalue(st, instr.B)))

		case bytecode.SetUpvalue:
			target := ast.NewLocalExpr(l.arena, ast.Location{}, l.upvalue(st, instr.B))
			push(ast.NewAssignStat(l.arena, ast.Location{}, []*ast.Expr{target}, []*ast.Expr{l.get(st, instr.A)}))

		case bytecode.GetTableIndex:
			l.write(st, push, instr.A, ast.NewIndexExprExpr(l.arena, ast.Location{}, l.get(st, instr.B), l.get(st, instr.C)))

		case bytecode.SetTableIndex:
			target := ast.NewIndexExprExpr(l.arena, ast.Location{}, l.get(st, instr.B), l.get(st, instr.C))
			push(ast.NewAssignStat(l.arena, ast.Location{}, []*ast.Expr{target}, []*ast.Expr{l.get(st, instr.A)}))

		case bytecode.GetTableIndexByte:
			idx := ast.NewNumberExpr(l.arena, ast.Location{}, float64(instr.C)+1)
			l.write(st, push, instr.A, ast.NewIndexExprExpr(l.arena, ast.Location{}, l.get(st, instr.B), idx))

		case bytecode.SetTableIndexByte:
			idx := ast.NewNumberExpr(l.arena, ast.Location{}, float64(instr.C)+1)
			target := ast.NewIndexExprExpr(l.arena, ast.Location{}, l.get(st, instr.B), idx)
			push(ast.NewAssignStat(l.arena, ast.Location{}, []*ast.Expr{target}, []*ast.Expr{l.get(st, instr.A)}))

		case bytecode.GetTableIndexConstant:
			field := l.constantName(st.proto, int(instr.Aux))
			l.write(st, push, instr.A, ast.NewIndexNameExpr(l.arena, ast.Location{}, l.get(st, instr.B), field))

		case bytecode.SetTableIndexConstant:
			field := l.constantName(st.proto, int(instr.Aux))
			target := ast.NewIndexNameExpr(l.arena, ast.Location{}, l.get(st, instr.B), field)
			push(ast.NewAssignStat(l.arena, ast.Location{}, []*ast.Expr{target}, []*ast.Expr{l.get(st, instr.A)}))

		case bytecode.NewTable, bytecode.NewTableConst:
			table := ast.NewTableExpr(l.arena, ast.Location{}, nil)
			local := l.write(st, push, instr.A, table)
			st.tables[local] = table

		case bytecode.SetList:
			local, ok := st.registers[instr.A]
			if !ok {
				l.note(st.proto, pc, "SetList on an unbound register, skipped")
				break
			}
			table, ok := st.tables[local]
			if !ok {
				l.note(st.proto, pc, "SetList target is not a live table constructor, skipped")
				break
			}
			count := int(instr.C)
			if count == 0 && st.isTail && st.tailBase == instr.A+1 {
				table.Pairs = append(table.Pairs, ast.TablePair{Value: st.tailExpr})
				st.isTail = false
				break
			}
			for i := 0; i < count; i++ {
				table.Pairs = append(table.Pairs, ast.TablePair{Value: l.get(st, instr.A+1+byte(i))})
			}

		case bytecode.Closure:
			if int(instr.Bx) >= len(st.proto.Children) {
				l.note(st.proto, pc, "Closure child index %d out of range", instr.Bx)
				break
			}
			child := st.proto.Children[instr.Bx]

			// The child's upvalue list is not something the child can
			// discover on its own: the parent stream carries exactly
			// child.UpvalCount pseudo-instructions right after this one,
			// each a Move (bind the parent's register) or a GetUpvalue
			// (bind the parent's own upvalue) naming what the child's
			// upvalue slot resolves to. Any other opcode here means the
			// container disagrees with the child's declared upvalue
			// count, which flags the module.
			child.Upvalues = make([]*ast.Local, 0, child.UpvalCount)
			selfCapture := false
			for i := byte(0); i < child.UpvalCount; i++ {
				pc++
				if pc >= len(code) {
					l.note(st.proto, pc-1, "closure %q is missing upvalue-capture instruction %d", child.Name, i)
					break
				}
				pseudo := code[pc]
				switch pseudo.Op {
				case bytecode.Move:
					local, created := l.captureLocal(st, pseudo.B)
					if created && pseudo.B == instr.A {
						selfCapture = true
					}
					child.Upvalues = append(child.Upvalues, local)
				case bytecode.GetUpvalue:
					child.Upvalues = append(child.Upvalues, l.upvalue(st, pseudo.B))
				default:
					l.note(st.proto, pc, "closure %q upvalue-capture instruction was %s, not Move/GetUpvalue", child.Name, pseudo.Op)
					l.flag()
					local, _ := l.captureLocal(st, pseudo.A)
					child.Upvalues = append(child.Upvalues, local)
				}
			}

			childBody, err := l.liftProto(child, st.depth+1)
			if err != nil {
				return nil, fmt.Errorf("lift closure %q: %w", child.Name, err)
			}
			childBody = optimizer.Optimize(l.arena, childBody)
			fn := ast.NewFunctionExpr(l.arena, ast.Location{}, child.Args, child.IsVarArg, ast.NewBlockStat(l.arena, ast.Location{}, childBody))

			if selfCapture {
				// The Move pseudo-instruction above captured register A
				// (this Closure's own destination) before anything had
				// written to it, which is how this dialect compiles
				// `local function name(...) ... end`: the name is
				// visible as an upvalue inside its own body. write would
				// see the register already bound (by that capture) and
				// emit a plain re-assignment with no declaration at all,
				// so the declaration is emitted directly instead.
				local := st.registers[instr.A]
				push(ast.NewLocalFunctionStat(l.arena, ast.Location{}, local, fn))
			} else {
				l.write(st, push, instr.A, fn)
			}

		case bytecode.Self:
			object := l.get(st, instr.B)
			field := l.constantName(st.proto, int(instr.Aux))
			st.pendingSelfObj[instr.A] = object
			st.pendingSelfField[instr.A] = field

		case bytecode.Call:
			l.liftCall(st, push, instr)

		case bytecode.Return:
			// A zero-value Return the compiler always appends is not
			// source the user wrote: for the main prototype every such
			// Return is implicit and dropped, and for any prototype the
			// one at the very end of its code is the compiler's own
			// implicit fall-off-the-end return, not an explicit `return`
			// statement.
			if instr.B == 1 && (st.proto.IsMain || pc == len(code)-1) {
				break
			}
			values := l.gatherValues(st, instr.A, instr.B)
			push(ast.NewReturnStat(l.arena, ast.Location{}, values))

		case bytecode.LoadVarargs:
			if instr.B == 0 {
				st.isTail = true
				st.tailBase = instr.A
				st.tailExpr = ast.NewVarargsExpr(l.arena, ast.Location{})
				break
			}
			count := int(instr.B) - 1
			for i := 0; i < count; i++ {
				l.write(st, push, instr.A+byte(i), ast.NewVarargsExpr(l.arena, ast.Location{}))
			}

		case bytecode.Not:
			l.write(st, push, instr.A, ast.NewUnaryExpr(l.arena, ast.Location{}, ast.Not, l.get(st, instr.B)))
		case bytecode.UnaryMinus:
			l.write(st, push, instr.A, ast.NewUnaryExpr(l.arena, ast.Location{}, ast.UnaryMinus, l.get(st, instr.B)))
		case bytecode.Len:
			l.write(st, push, instr.A, ast.NewUnaryExpr(l.arena, ast.Location{}, ast.Len, l.get(st, instr.B)))

		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod, bytecode.Pow,
			bytecode.Or, bytecode.And:
			op := binaryOpFor(instr.Op)
			l.write(st, push, instr.A, ast.NewBinaryExpr(l.arena, ast.Location{}, op, l.get(st, instr.B), l.get(st, instr.C)))

		case bytecode.Concat:
			// Concat spans every register from b to c inclusive, left-folded
			// into a chain of binary Concat nodes, not just the two
			// endpoints: `"a"..x.."b"` compiles to one Concat instruction
			// covering all three operands' registers.
			expr := l.get(st, instr.B)
			for r := instr.B + 1; r <= instr.C; r++ {
				expr = ast.NewBinaryExpr(l.arena, ast.Location{}, ast.Concat, expr, l.get(st, r))
			}
			l.write(st, push, instr.A, expr)

		case bytecode.AddByte, bytecode.SubByte, bytecode.MulByte, bytecode.DivByte, bytecode.ModByte,
			bytecode.PowByte, bytecode.OrByte, bytecode.AndByte:
			op := binaryOpFor(instr.Op)
			right := ast.NewNumberExpr(l.arena, ast.Location{}, float64(instr.C))
			l.write(st, push, instr.A, ast.NewBinaryExpr(l.arena, ast.Location{}, op, l.get(st, instr.B), right))

		case bytecode.Equal, bytecode.NotEqual, bytecode.LesserThan, bytecode.LesserOrEqual,
			bytecode.GreaterThan, bytecode.GreaterOrEqual:
			op := binaryOpFor(instr.Op)
			l.write(st, push, instr.A, ast.NewBinaryExpr(l.arena, ast.Location{}, op, l.get(st, instr.B), l.get(st, instr.C)))

		case bytecode.Test, bytecode.NotTest:
			cond := l.get(st, instr.A)
			target := pc + int(instr.SBx)
			frames = append(frames, &frame{kind: instr.Op, cond: cond, targetPC: target})
			blocks = append(blocks, []*ast.Stat{})

		case bytecode.Jump:
			// The reference decompiler treats Jump as an unsupported
			// opcode and never builds an else branch at all (every
			// AstStatIf it constructs has a nil Else); this port matches
			// that instead of inferring if/else structure from it.
			l.note(st.proto, pc, "%s has no direct statement form, skipped", instr.Op)

		case bytecode.LoopJump:
			// A backward (or zero-offset) LoopJump always closes the
			// innermost open Test/NotTest frame as a while loop (see
			// frame.go): the compiler only ever emits one such back-edge,
			// at the very end of the loop body it belongs to. A positive
			// SBx never closes a frame; it is how this dialect encodes break.
			if instr.SBx <= 0 && len(frames) > 0 {
				closeAsLoop()
			} else if instr.SBx <= 0 {
				closeAsInfiniteLoop()
			} else {
				push(ast.NewBreakStat(l.arena, ast.Location{}))
			}

		case bytecode.ForPrep, bytecode.ForLoop, bytecode.TForLoop,
			bytecode.LoopJumpIPairs, bytecode.TForLoopIPairs, bytecode.LoopJumpNext, bytecode.TForLoopNext:
			l.note(st.proto, pc, "%s has no direct statement form, skipped", instr.Op)

		case bytecode.ClearStackFull, bytecode.FarJump, bytecode.BuiltinCall:
			l.note(st.proto, pc, "%s is a raw execution hint, skipped", instr.Op)

		default:
			l.note(st.proto, pc, "unrecognized opcode %v, skipped", instr.Op)
		}

		for len(frames) > 0 && frames[len(frames)-1].targetPC == pc {
			closeGeneric()
		}

		pc++
	}

	for len(frames) > 0 {
		closeGeneric()
	}

	return blocks[0], nil
}

func binaryOpFor(op bytecode.OpCode) ast.BinaryOp {
	switch op {
	case bytecode.Add, bytecode.AddByte:
		return ast.Add
	case bytecode.Sub, bytecode.SubByte:
		return ast.Sub
	case bytecode.Mul, bytecode.MulByte:
		return ast.Mul
	case bytecode.Div, bytecode.DivByte:
		return ast.Div
	case bytecode.Mod, bytecode.ModByte:
		return ast.Mod
	case bytecode.Pow, bytecode.PowByte:
		return ast.Pow
	case bytecode.Concat:
		return ast.Concat
	case bytecode.Or, bytecode.OrByte:
		return ast.Or
	case bytecode.And, bytecode.AndByte:
		return ast.And
	case bytecode.Equal:
		return ast.CompareEq
	case bytecode.NotEqual:
		return ast.CompareNe
	case bytecode.LesserThan:
		return ast.CompareLt
	case bytecode.LesserOrEqual:
		return ast.CompareLe
	case bytecode.GreaterThan:
		return ast.CompareGt
	case bytecode.GreaterOrEqual:
		return ast.CompareGe
	}
	return ast.Add
}

// get reads a register's current value as an expression. An unbound
// register (read before any write reached it, a malformed or
// unsupported-opcode artifact) reads as nil rather than panicking.
func (l *lifter) get(st *protoState, reg byte) *ast.Expr {
	if local, ok := st.registers[reg]; ok {
		return ast.NewLocalExpr(l.arena, ast.Location{}, local)
	}
	return ast.NewNilExpr(l.arena, ast.Location{})
}

// write binds reg to value: a fresh `local` declaration on first write,
// an assignment to the existing local on every subsequent write to the
// same register. It returns the local now bound to reg.
func (l *lifter) write(st *protoState, push func(*ast.Stat), reg byte, value *ast.Expr) *ast.Local {
	if local, ok := st.registers[reg]; ok {
		push(ast.NewAssignStat(l.arena, ast.Location{}, []*ast.Expr{ast.NewLocalExpr(l.arena, ast.Location{}, local)}, []*ast.Expr{value}))
		return local
	}
	local := l.arena.NewLocal(l.freshName(), st.depth)
	push(ast.NewLocalDeclStat(l.arena, ast.Location{}, []*ast.Local{local}, []*ast.Expr{value}))
	st.registers[reg] = local
	return local
}

// captureLocal resolves a register to the *ast.Local it is or will be
// bound to, without emitting any statement. It reports whether the
// register was unbound and had to be given a fresh local, which the
// Closure case uses to detect self-recursive capture: a Move
// pseudo-instruction that must invent a local for the very register the
// enclosing Closure is about to write into.
func (l *lifter) captureLocal(st *protoState, reg byte) (local *ast.Local, created bool) {
	if local, ok := st.registers[reg]; ok {
		return local, false
	}
	local = l.arena.NewLocal(l.freshName(), st.depth)
	st.registers[reg] = local
	return local, true
}

func (l *lifter) upvalue(st *protoState, index byte) *ast.Local {
	if local, ok := st.upvalues[index]; ok {
		return local
	}
	local := l.arena.NewLocal(fmt.Sprintf("upval%d", index), st.depth-1)
	st.upvalues[index] = local
	st.proto.Upvalues = append(st.proto.Upvalues, local)
	return local
}

func (l *lifter) constant(p *bytecode.Proto, idx int) *ast.Expr {
	if idx < 0 || idx >= len(p.Constants) || p.Constants[idx] == nil {
		return ast.NewNilExpr(l.arena, ast.Location{})
	}
	return p.Constants[idx]
}

// constantName resolves a constant-table entry expected to be a plain
// string, used by opcodes that name a table field. A non-string constant
// (a malformed module) falls back to an empty field name rather than
// failing the whole decompile.
func (l *lifter) constantName(p *bytecode.Proto, idx int) string {
	c := l.constant(p, idx)
	if c.Kind == ast.ConstantString {
		return c.StringValue
	}
	return ""
}

// gatherValues reads count-many trailing values starting at base per the
// B-field convention shared by Return and argument lists: b==1 means
// zero values, b>=2 means exactly b-1 values, b==0 means "every value
// from base to the top of the tail expression".
func (l *lifter) gatherValues(st *protoState, base byte, b byte) []*ast.Expr {
	if b == 0 {
		if st.isTail && st.tailBase >= base {
			values := make([]*ast.Expr, 0, int(st.tailBase-base)+1)
			for r := base; r < st.tailBase; r++ {
				values = append(values, l.get(st, r))
			}
			values = append(values, st.tailExpr)
			st.isTail = false
			return values
		}
		return []*ast.Expr{l.get(st, base)}
	}
	count := int(b) - 1
	values := make([]*ast.Expr, 0, count)
	for i := 0; i < count; i++ {
		values = append(values, l.get(st, base+byte(i)))
	}
	return values
}

func (l *lifter) liftCall(st *protoState, push func(*ast.Stat), instr bytecode.Instruction) {
	fn := l.get(st, instr.A)
	argBase := instr.A + 1
	self := false
	if obj, ok := st.pendingSelfObj[instr.A]; ok {
		field := st.pendingSelfField[instr.A]
		fn = ast.NewIndexNameExpr(l.arena, ast.Location{}, obj, field)
		self = true
		argBase = instr.A + 2
		delete(st.pendingSelfObj, instr.A)
		delete(st.pendingSelfField, instr.A)
	}

	args := l.gatherValues(st, argBase, instr.B)
	call := ast.NewCallExpr(l.arena, ast.Location{}, fn, args, self)

	// The call consumes its function and argument registers; any result
	// written back into them starts a fresh binding.
	for r := int(instr.A); r < int(argBase)+len(args); r++ {
		delete(st.registers, byte(r))
	}

	switch {
	case instr.C == 1:
		push(ast.NewExprStat(l.arena, ast.Location{}, call))
	case instr.C == 0:
		st.isTail = true
		st.tailBase = instr.A
		st.tailExpr = call
	case instr.C == 2:
		l.write(st, push, instr.A, call)
	default:
		// A single Lua-family assignment expects the call as its lone
		// value expression, relying on multi-return spread to fill every
		// target; appending explicit nil values after it would instead
		// truncate the call to its first result. If every target
		// register is still unbound this spreads directly into a fresh
		// `local a, b = f()`; if any target is already a live local
		// (loop-persisted or otherwise), the call's results are captured
		// into fresh temporaries first and distributed through write so
		// each target keeps its existing identity via Assign rather than
		// a shadowing redeclaration.
		count := int(instr.C) - 1
		anyBound := false
		for i := 0; i < count; i++ {
			if _, ok := st.registers[instr.A+byte(i)]; ok {
				anyBound = true
				break
			}
		}
		if !anyBound {
			vars := make([]*ast.Local, count)
			for i := range vars {
				vars[i] = l.arena.NewLocal(l.freshName(), st.depth)
				st.registers[instr.A+byte(i)] = vars[i]
			}
			push(ast.NewLocalDeclStat(l.arena, ast.Location{}, vars, []*ast.Expr{call}))
			break
		}

		temps := make([]*ast.Local, count)
		for i := range temps {
			temps[i] = l.arena.NewLocal(l.freshName(), st.depth)
		}
		push(ast.NewLocalDeclStat(l.arena, ast.Location{}, temps, []*ast.Expr{call}))
		for i := 0; i < count; i++ {
			l.write(st, push, instr.A+byte(i), ast.NewLocalExpr(l.arena, ast.Location{}, temps[i]))
		}
	}
}
