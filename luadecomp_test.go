package luadecomp

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/lastvoidtemplar/luadecomp/internal/bytecode"
)

func varint(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

func u32le(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// encodedOp scrambles a logical opcode the way an obfuscated module's
// instruction stream does, mirroring internal/bytecode's own test helper
// since the two packages must never actually import each other's tests.
func encodedOp(logical byte) byte {
	return byte(227 * int(logical))
}

// buildEmptyMainModule reproduces SPEC_FULL.md §8 scenario 1: zero
// strings, one vararg main prototype whose only instruction returns
// nothing.
func buildEmptyMainModule() []byte {
	const returnOp = byte(bytecode.Return)
	var buf []byte
	buf = append(buf, 1)
	buf = varint(buf, 0)
	buf = varint(buf, 1)
	buf = append(buf, 0, 0, 0, 1)
	buf = varint(buf, 1)
	word := uint32(encodedOp(returnOp)) | (0 << 8) | (1 << 16) | (0 << 24)
	buf = u32le(buf, word)
	buf = varint(buf, 0)
	buf = varint(buf, 0)
	buf = varint(buf, 0)
	buf = varint(buf, 1)
	buf = varint(buf, 10)
	buf = append(buf, 0)
	buf = varint(buf, 0)
	return buf
}

func Test_Decompile_EmptyMain(t *testing.T) {
	data := buildEmptyMainModule()
	var out bytes.Buffer
	if err := Decompile(context.Background(), &out, data, io.Discard); err != nil {
		t.Fatalf("Decompile failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected empty (or whitespace-only) source, got %q", out.String())
	}
}

func Test_Decompile_UnsupportedVersionPropagatesError(t *testing.T) {
	err := Decompile(context.Background(), io.Discard, []byte{9}, io.Discard)
	if err == nil {
		t.Fatalf("expected an error for an unsupported version byte")
	}
}

func Test_Decompile_NilDiagnosticsDoesNotPanic(t *testing.T) {
	data := buildEmptyMainModule()
	var out bytes.Buffer
	if err := Decompile(context.Background(), &out, data, nil); err != nil {
		t.Fatalf("Decompile failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected empty (or whitespace-only) source, got %q", out.String())
	}
}

func Test_Decompile_CanceledContextAbortsBeforeWriting(t *testing.T) {
	data := buildEmptyMainModule()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := Decompile(ctx, &out, data, io.Discard)
	if err == nil {
		t.Fatalf("expected canceled context to abort decompilation")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output to be written after cancellation, got %q", out.String())
	}
}
