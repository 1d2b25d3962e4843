package bytecode

import (
	"testing"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
)

// varint appends an unsigned LEB128 encoding of v to buf.
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

func encodedOp(logical OpCode) byte {
	return byte(permutationMultiplier * int(logical))
}

func u32le(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// buildEmptyMainModule builds the wire bytes for a module with zero
// strings and a single vararg main prototype whose only instruction is
// `Return a=0 b=1 c=0` (scenario 1 from SPEC_FULL.md §8).
func buildEmptyMainModule(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	buf = append(buf, 1) // version
	buf = varint(buf, 0) // string count

	buf = varint(buf, 1) // proto count

	buf = append(buf, 0, 0, 0, 1) // maxReg, argCount, upvalCount, isVarArg=true

	buf = varint(buf, 1) // instruction count
	word := uint32(encodedOp(Return)) | (0 << 8) | (1 << 16) | (0 << 24)
	buf = u32le(buf, word)

	buf = varint(buf, 0) // const count
	buf = varint(buf, 0) // closure count
	buf = varint(buf, 0) // name index

	buf = varint(buf, 1)  // line info count
	buf = varint(buf, 10) // signed varint delta, encoded unsigned (10)

	buf = append(buf, 0) // trailer byte

	buf = varint(buf, 0) // main proto index
	return buf
}

func Test_Decode_EmptyMain(t *testing.T) {
	data := buildEmptyMainModule(t)
	arena := ast.NewArena()
	mod, err := Decode(arena, data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if mod.Main == nil {
		t.Fatalf("expected a main prototype")
	}
	if !mod.Main.IsMain {
		t.Fatalf("expected IsMain to be set")
	}
	if len(mod.Main.Code) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(mod.Main.Code))
	}
	if mod.Main.Code[0].Op != Return {
		t.Fatalf("expected Return opcode after unpermuting, got %v", mod.Main.Code[0].Op)
	}
	if mod.Flagged {
		t.Fatalf("did not expect flagged to be set")
	}
}

func Test_Decode_UnsupportedVersion(t *testing.T) {
	arena := ast.NewArena()
	_, err := Decode(arena, []byte{2})
	if err == nil {
		t.Fatalf("expected an error for version 2")
	}
}

func Test_Decode_EmbeddedErrorPayload(t *testing.T) {
	arena := ast.NewArena()
	data := append([]byte{0}, []byte("boom")...)
	_, err := Decode(arena, data)
	if err == nil {
		t.Fatalf("expected an error for version 0 payload")
	}
}

func Test_BuildPermutation_IsSelfConsistentBijection(t *testing.T) {
	perm := buildPermutation()
	seen := map[OpCode]int{}
	for i := 0; i < int(opcodeEnd); i++ {
		encoded := encodedOp(OpCode(i))
		if perm[encoded] != OpCode(i) {
			t.Fatalf("perm[%d] = %v, want %v", encoded, perm[encoded], OpCode(i))
		}
		seen[perm[encoded]]++
	}
	for op, count := range seen {
		if count != 1 {
			t.Fatalf("opcode %v mapped from %d encoded bytes, want exactly 1", op, count)
		}
	}
}

func Test_Decode_StudioCompiledSkipsRemapping(t *testing.T) {
	var buf []byte
	buf = append(buf, 1)
	buf = varint(buf, 0)
	buf = varint(buf, 1)
	buf = append(buf, 0, 0, 0, 1)
	buf = varint(buf, 1)
	// raw (unpermuted) ClearStackFull as the very first instruction word
	// signals studio-compiled; logical opcodes decode identically thereafter.
	word := uint32(byte(ClearStackFull))
	buf = u32le(buf, word)
	buf = varint(buf, 0)
	buf = varint(buf, 0)
	buf = varint(buf, 0)
	buf = varint(buf, 1)
	buf = varint(buf, 0)
	buf = append(buf, 0)
	buf = varint(buf, 0)

	arena := ast.NewArena()
	mod, err := Decode(arena, buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !mod.StudioCompiled {
		t.Fatalf("expected StudioCompiled to be detected")
	}
	if mod.Main.Code[0].Op != ClearStackFull {
		t.Fatalf("expected raw opcode to pass through unmapped, got %v", mod.Main.Code[0].Op)
	}
}
