package ast

// Arena is the collaborator every AST node is allocated through. The
// original allocator bump-pointer-allocates fixed pages and frees them all
// together when the arena is dropped; Go's garbage collector already owns
// node lifetime, so this Arena keeps the "one owner, released together"
// contract without the manual page bookkeeping: it exists so that node
// construction goes through one place, and so the count of nodes allocated
// during a decompile is observable for tests without walking the tree.
type Arena struct {
	exprs  int
	stats  int
	locals int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// NewExpr allocates a zero-valued Expr with the given kind.
func (a *Arena) NewExpr(kind ExprKind) *Expr {
	a.exprs++
	return &Expr{Kind: kind}
}

// NewStat allocates a zero-valued Stat with the given kind.
func (a *Arena) NewStat(kind StatKind) *Stat {
	a.stats++
	return &Stat{Kind: kind}
}

// NewLocal allocates a Local with the given synthetic name and function
// depth.
func (a *Arena) NewLocal(name string, functionDepth int) *Local {
	a.locals++
	return &Local{Name: name, FunctionDepth: functionDepth}
}

// Stats reports how many nodes have been allocated from this arena so far.
func (a *Arena) Stats() (exprs, stats, locals int) {
	return a.exprs, a.stats, a.locals
}
