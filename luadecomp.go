// Package luadecomp lifts a compiled, opcode-obfuscated bytecode module
// back into readable Lua-family source. Decompile wires together the
// three internal stages in order: internal/bytecode decodes the wire
// container, internal/lifter and internal/optimizer rebuild and clean up
// the AST, and internal/printer renders it.
package luadecomp

import (
	"context"
	"fmt"
	"io"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
	"github.com/lastvoidtemplar/luadecomp/internal/bytecode"
	"github.com/lastvoidtemplar/luadecomp/internal/lifter"
	"github.com/lastvoidtemplar/luadecomp/internal/printer"
)

// Decompile decodes bytecode and writes its reconstructed source to w.
// diagnostics, if non-nil, receives one line per instruction the lifter
// could not translate faithfully; pass io.Discard to ignore them.
//
// ctx is checked before each of the three pipeline stages; a canceled
// context aborts the call without writing partial output for the stage
// that was about to run.
//
// A module whose trailer bytes or line-info deltas were malformed is
// still decompiled: its Flagged bit only controls the advisory comment
// prepended to the output, never whether decompilation is attempted.
func Decompile(ctx context.Context, w io.Writer, data []byte, diagnostics io.Writer) error {
	if diagnostics == nil {
		diagnostics = io.Discard
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	arena := ast.NewArena()
	mod, err := bytecode.Decode(arena, data)
	if err != nil {
		return fmt.Errorf("decode module: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	root, err := lifter.Lift(arena, mod, diagnostics)
	if err != nil {
		return fmt.Errorf("lift module: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if mod.Flagged {
		if _, err := io.WriteString(w, "--[[\n\tinput function was flagged as potentially incompatible.\n\tplease private message a developer for support.\n]]\n"); err != nil {
			return fmt.Errorf("write advisory comment: %w", err)
		}
	}
	if mod.StudioCompiled {
		if _, err := io.WriteString(w, "-- module was studio-compiled: opcodes were not remapped\n"); err != nil {
			return fmt.Errorf("write advisory comment: %w", err)
		}
	}

	if err := printer.Print(w, root); err != nil {
		return fmt.Errorf("print module: %w", err)
	}
	return nil
}
