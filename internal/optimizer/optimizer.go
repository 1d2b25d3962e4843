package optimizer

import "github.com/lastvoidtemplar/luadecomp/internal/ast"

// Optimize collapses one lifted statement block toward natural source form.
// It runs two independent passes, in the same order and for the same
// reasons the reference decompiler's optimize() does:
//
//  1. Local splitting: a single-var local that is used, then reassigned,
//     then used again is really two distinct bindings sharing one
//     register. Each such reassignment is rewritten into a fresh `local`
//     declaration, and every later reference is repointed at the new
//     binding, so pass 2 can consider each lifetime independently.
//  2. Single-reference inlining: a local declared once and read exactly
//     once is replaced at its use site and its declaration dropped,
//     provided it neither backs a multi-value spread nor is immediately
//     reassigned to itself.
//
// Optimize mutates body's statements in place and returns the surviving
// slice (single-reference declarations are removed, so the result is
// generally shorter than the input).
func Optimize(arena *ast.Arena, body []*ast.Stat) []*ast.Stat {
	body = splitReassignedLocals(arena, body)
	body = inlineSingleReferences(arena, body)
	return body
}

func splitReassignedLocals(arena *ast.Arena, body []*ast.Stat) []*ast.Stat {
	info := census(body)

	toSplit := make(map[*ast.Stat]bool)
	for local, li := range info {
		if len(li.refs) < 2 {
			continue
		}
		seenUse := false
		for _, ref := range li.refs {
			if targetsLocal(ref, local) {
				if seenUse {
					toSplit[ref] = true
					seenUse = false
				}
				continue
			}
			seenUse = true
		}
	}

	var inliners []*inliner
	out := make([]*ast.Stat, 0, len(body))
	for _, stat := range body {
		for _, in := range inliners {
			in.visitStat(stat)
		}
		if toSplit[stat] {
			local := stat.Targets[0].Ref
			fresh := arena.NewLocal(local.Name, local.FunctionDepth)
			decl := ast.NewLocalDeclStat(arena, stat.Location, []*ast.Local{fresh}, stat.Values)
			inliners = append(inliners, newInliner(local, ast.NewLocalExpr(arena, stat.Location, fresh)))
			out = append(out, decl)
			continue
		}
		out = append(out, stat)
	}
	return out
}

func inlineSingleReferences(arena *ast.Arena, body []*ast.Stat) []*ast.Stat {
	info := census(body)

	out := body[:0]
	for _, stat := range body {
		if stat.Kind == ast.LocalDecl && len(stat.Vars) > 0 && len(stat.Values) == len(stat.Vars) {
			last := stat.Values[len(stat.Values)-1]
			multiReturnTail := (last.Kind == ast.Call || last.Kind == ast.Varargs) && len(stat.Vars) > 1

			if !multiReturnTail {
				optimized := 0
				for i, local := range stat.Vars {
					li, ok := info[local]
					if !ok || len(li.refs) != 1 {
						continue
					}
					ref := li.refs[0]
					if targetsLocal(ref, local) {
						continue
					}
					newInliner(local, stat.Values[i]).visitStat(ref)
					optimized++
				}
				if optimized == len(stat.Vars) {
					continue
				}
			}
		}
		out = append(out, stat)
	}
	return out
}
