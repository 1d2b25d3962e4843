package bytecode

import (
	"fmt"

	"github.com/lastvoidtemplar/luadecomp/internal/ast"
)

// ConstantType tags a serialized constant entry.
type ConstantType byte

const (
	ConstantNilTag ConstantType = iota
	ConstantBooleanTag
	ConstantNumberTag
	ConstantStringTag
	ConstantGlobalTag
	ConstantHashTableTag
)

// decoder holds the state threaded through one container decode: the
// string table, the arena constants are allocated from, and the flagged
// bit. It mirrors the reference Decompiler class's per-call fields
// (stringTable, protos, flagged) without the AST-lifting responsibilities,
// which belong to internal/lifter.
type decoder struct {
	arena       *ast.Arena
	stringTable [][]byte
	flagged     bool
}

func (d *decoder) setFlagged() { d.flagged = true }

func (d *decoder) string(index uint32) ([]byte, error) {
	if index == 0 {
		return nil, nil
	}
	i := int(index) - 1
	if i < 0 || i >= len(d.stringTable) {
		return nil, fmt.Errorf("string table index %d out of range (table has %d entries)", index, len(d.stringTable))
	}
	return d.stringTable[i], nil
}

// Decode parses a full bytecode container: version byte, string table,
// prototype forest, and main-prototype index. See SPEC_FULL.md §6/§4.2 for
// the wire layout; this function is the direct Go rendering of
// Decompiler::operator() in the reference implementation. Constant
// expressions are allocated from arena, the same arena the caller will
// later lift the module's code into, so every node produced by one
// decompile invocation shares one owner (§3 lifecycle invariant).
func Decode(arena *ast.Arena, data []byte) (*Module, error) {
	r := NewReader(data)
	d := &decoder{arena: arena}

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read version byte: %w", err)
	}
	if version > 1 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedVersion, version)
	}
	if version == 0 {
		rest, _ := r.ReadBytes(r.Len())
		return nil, fmt.Errorf("%w: %s", ErrEmbeddedError, string(rest))
	}

	stringCount, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read string table count: %w", err)
	}
	d.stringTable = make([][]byte, stringCount)
	for i := uint32(0); i < stringCount; i++ {
		size, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("read string %d length: %w", i, err)
		}
		raw, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("read string %d data: %w", i, err)
		}
		buf := make([]byte, len(raw))
		copy(buf, raw)
		d.stringTable[i] = buf
	}

	perm := buildPermutation()

	protoCount, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read prototype count: %w", err)
	}
	protos := make([]*Proto, 0, protoCount)
	var studioCompiled bool
	for i := uint32(0); i < protoCount; i++ {
		p, sc, err := d.decodeProto(r, protos, perm, studioCompiled, i == 0)
		if err != nil {
			return nil, fmt.Errorf("decode prototype %d: %w", i, err)
		}
		studioCompiled = sc
		protos = append(protos, p)
	}

	mainIndex, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read main prototype index: %w", err)
	}
	if int(mainIndex) >= len(protos) {
		return nil, fmt.Errorf("main prototype index %d out of range (%d prototypes)", mainIndex, len(protos))
	}
	main := protos[mainIndex]
	main.IsMain = true

	return &Module{
		Protos:         protos,
		Main:           main,
		StudioCompiled: studioCompiled,
		Flagged:        d.flagged,
	}, nil
}

// decodeProto reads one full prototype: the 4-byte configuration prefix,
// its instruction stream (deciding, for the very first instruction of the
// very first prototype only, whether the whole module is studio-compiled
// and therefore exempt from opcode remapping — see SPEC_FULL.md's
// resolved "Studio-compiled scope" question), its constants, children,
// name, and line info. It returns the possibly-updated studioCompiled
// flag for the caller to thread into subsequent prototypes.
func (d *decoder) decodeProto(r *Reader, decodedProtos []*Proto, perm [256]OpCode, studioCompiled bool, isFirstProto bool) (*Proto, bool, error) {
	p := &Proto{}

	maxReg, err := r.ReadByte()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read maxRegCount: %w", err)
	}
	p.MaxRegCount = maxReg

	argCount, err := r.ReadByte()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read argCount: %w", err)
	}
	p.ArgCount = argCount

	upvalCount, err := r.ReadByte()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read upvalCount: %w", err)
	}
	p.UpvalCount = upvalCount

	isVarArg, err := r.ReadByte()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read isVarArg: %w", err)
	}
	p.IsVarArg = isVarArg != 0

	instrCount, err := r.ReadVarInt()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read instruction count: %w", err)
	}
	code := make([]Instruction, 0, instrCount)
	for j := uint32(0); j < instrCount; j++ {
		word, err := r.ReadU32()
		if err != nil {
			return nil, studioCompiled, fmt.Errorf("read instruction %d: %w", j, err)
		}
		rawOp := byte(word)
		if isFirstProto && j == 0 && OpCode(rawOp) == ClearStackFull {
			studioCompiled = true
		}
		var op OpCode
		if studioCompiled {
			op = OpCode(rawOp)
		} else {
			op = perm[rawOp]
		}
		instr := Instruction{
			Op:  op,
			A:   byte(word >> 8),
			B:   byte(word >> 16),
			C:   byte(word >> 24),
			Bx:  uint16(word >> 16),
			SBx: int16(uint16(word >> 16)),
		}
		if IsTwoWord(op) {
			aux, err := r.ReadU32()
			if err != nil {
				return nil, studioCompiled, fmt.Errorf("read auxiliary word for instruction %d: %w", j, err)
			}
			instr.HasAux = true
			instr.Aux = aux
		}
		code = append(code, instr)
	}
	p.Code = code

	constCount, err := r.ReadVarInt()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read constant count: %w", err)
	}
	p.Constants = make([]*ast.Expr, 0, constCount)
	for j := uint32(0); j < constCount; j++ {
		expr, err := d.decodeConstant(r, p)
		if err != nil {
			return nil, studioCompiled, fmt.Errorf("decode constant %d: %w", j, err)
		}
		p.Constants = append(p.Constants, expr)
	}

	closureCount, err := r.ReadVarInt()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read closure count: %w", err)
	}
	p.Children = make([]*Proto, 0, closureCount)
	for j := uint32(0); j < closureCount; j++ {
		idx, err := r.ReadVarInt()
		if err != nil {
			return nil, studioCompiled, fmt.Errorf("read child index %d: %w", j, err)
		}
		if int(idx) >= len(decodedProtos) {
			return nil, studioCompiled, fmt.Errorf("child prototype index %d out of range (%d decoded so far)", idx, len(decodedProtos))
		}
		p.Children = append(p.Children, decodedProtos[idx])
	}

	nameIndex, err := r.ReadVarInt()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read name index: %w", err)
	}
	if nameIndex != 0 {
		name, err := d.string(nameIndex)
		if err != nil {
			return nil, studioCompiled, fmt.Errorf("resolve prototype name: %w", err)
		}
		p.Name = string(name)
	}

	lineInfoCount, err := r.ReadVarInt()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read line info count: %w", err)
	}
	p.LineInfo = make([]int, 0, lineInfoCount)
	lastLine := 0
	for j := uint32(0); j < lineInfoCount; j++ {
		delta, err := r.ReadSignedVarInt()
		if err != nil {
			return nil, studioCompiled, fmt.Errorf("read line delta %d: %w", j, err)
		}
		lastLine += int(delta)
		p.LineInfo = append(p.LineInfo, lastLine)
	}
	if lastLine < 0 {
		d.setFlagged()
	}

	trailer, err := r.ReadByte()
	if err != nil {
		return nil, studioCompiled, fmt.Errorf("read prototype trailer byte: %w", err)
	}
	if trailer != 0 {
		d.setFlagged()
	}

	return p, studioCompiled, nil
}

func (d *decoder) decodeConstant(r *Reader, p *Proto) (*ast.Expr, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read constant tag: %w", err)
	}
	loc := ast.Location{}

	switch ConstantType(tagByte) {
	case ConstantNilTag:
		d.setFlagged()
		return ast.NewNilExpr(d.arena, loc), nil

	case ConstantBooleanTag:
		d.setFlagged()
		v, err := r.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("read boolean constant: %w", err)
		}
		return ast.NewBoolExpr(d.arena, loc, v), nil

	case ConstantNumberTag:
		v, err := r.ReadF64()
		if err != nil {
			return nil, fmt.Errorf("read number constant: %w", err)
		}
		return ast.NewNumberExpr(d.arena, loc, v), nil

	case ConstantStringTag:
		idx, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("read string constant index: %w", err)
		}
		s, err := d.string(idx)
		if err != nil {
			return nil, fmt.Errorf("resolve string constant: %w", err)
		}
		return ast.NewStringExpr(d.arena, loc, string(s)), nil

	case ConstantGlobalTag:
		encoded, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("read global constant: %w", err)
		}
		return d.decodeGlobalConstant(encoded, p, loc)

	case ConstantHashTableTag:
		k, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("read hash table size: %w", err)
		}
		for j := uint32(0); j < k; j++ {
			if _, err := r.ReadVarInt(); err != nil {
				return nil, fmt.Errorf("read hash table entry %d: %w", j, err)
			}
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrMalformedConstant, tagByte)
	}
}

// decodeGlobalConstant unpacks the 32-bit packed dotted-path encoding: top
// 2 bits select depth d in {1,2,3}; 10-bit fields at [20:30), [10:20), and
// [0:10) name each successive segment when present.
func (d *decoder) decodeGlobalConstant(encoded uint32, p *Proto, loc ast.Location) (*ast.Expr, error) {
	depth := encoded >> 30

	stringAt := func(idx uint32) (string, error) {
		if int(idx) >= len(p.Constants) {
			return "", fmt.Errorf("global path segment references constant %d, only %d decoded so far", idx, len(p.Constants))
		}
		seg := p.Constants[idx]
		if seg == nil || seg.Kind != ast.ConstantString {
			return "", fmt.Errorf("global path segment %d is not a string constant", idx)
		}
		return seg.StringValue, nil
	}

	var index1, index2, index3 int32 = -1, -1, -1
	if depth >= 1 {
		index1 = int32((encoded >> 20) & 0x3FF)
	}
	if depth >= 2 {
		index2 = int32((encoded >> 10) & 0x3FF)
	}
	if depth >= 3 {
		index3 = int32(encoded & 0x3FF)
	}

	if index1 < 0 {
		return nil, fmt.Errorf("global constant with depth 0")
	}
	name1, err := stringAt(uint32(index1))
	if err != nil {
		return nil, err
	}
	expr := ast.NewGlobalExpr(d.arena, loc, name1)

	if index2 >= 0 {
		name2, err := stringAt(uint32(index2))
		if err != nil {
			return nil, err
		}
		expr = ast.NewIndexNameExpr(d.arena, loc, expr, name2)
	}
	if index3 >= 0 {
		name3, err := stringAt(uint32(index3))
		if err != nil {
			return nil, err
		}
		expr = ast.NewIndexNameExpr(d.arena, loc, expr, name3)
	}
	return expr, nil
}
