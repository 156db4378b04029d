// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package simplify removes instruction trees made dead by a prior
// rewrite. It only ever deletes instructions that have no observable
// effect: side-effect-free projections with unused results, and paired
// scope markers whose scope no longer contains anything.
package simplify

import "github.com/oir-project/oir/v1/ir"

// DeadEndBlocks tracks the blocks of a function from which execution can
// never reach a function exit.
type DeadEndBlocks struct {
	deadEnd map[*ir.Block]bool
}

// NewDeadEndBlocks computes the dead-end set of f.
func NewDeadEndBlocks(f *ir.Function) *DeadEndBlocks {
	reaches := map[*ir.Block]bool{}
	var mark func(b *ir.Block)
	mark = func(b *ir.Block) {
		if reaches[b] {
			return
		}
		reaches[b] = true
		for _, p := range b.Preds() {
			mark(p)
		}
	}
	for _, b := range f.Blocks() {
		if t := b.Terminator(); t != nil && t.Op() == ir.Return {
			mark(b)
		}
	}
	de := &DeadEndBlocks{deadEnd: map[*ir.Block]bool{}}
	for _, b := range f.Blocks() {
		if !reaches[b] {
			de.deadEnd[b] = true
		}
	}
	return de
}

// IsDeadEnd reports whether no path from b reaches a function exit.
func (de *DeadEndBlocks) IsDeadEnd(b *ir.Block) bool { return de.deadEnd[b] }

// EraseIfDead erases root if it has become dead, then transitively erases
// any operand-defining instructions that die with it. onDelete is invoked
// for every erased instruction before it is unlinked.
func EraseIfDead(root *ir.Instruction, de *DeadEndBlocks, onDelete func(*ir.Instruction)) {
	worklist := []*ir.Instruction{root}
	for len(worklist) > 0 {
		in := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if in.Block() == nil {
			continue // already erased via a scope-end sweep
		}
		ends, dead := deadWithScopeEnds(in, de)
		if !dead {
			continue
		}
		// Requeue the defs feeding this instruction; they may die next.
		for _, op := range in.Operands() {
			if def := op.Get().Def(); def != nil {
				worklist = append(worklist, def)
			}
		}
		for _, end := range ends {
			if end.Block() == nil {
				continue // erased as part of an earlier user tree
			}
			onDelete(end)
			end.Erase()
		}
		onDelete(in)
		in.Erase()
	}
}

// deadWithScopeEnds decides whether in is erasable and returns the
// scope-ending users that must be erased along with it.
func deadWithScopeEnds(in *ir.Instruction, de *DeadEndBlocks) ([]*ir.Instruction, bool) {
	switch in.Op() {
	case ir.FieldAddr, ir.IndexAddr, ir.AddrCast, ir.OpenUnionAddr,
		ir.UnionDataAddr, ir.MarkDependence, ir.CopyValue:
		return nil, !in.Result().HasUses()
	case ir.BeginAccess:
		return scopeOnlyUses(in, ir.EndAccess, de)
	case ir.LoadBorrow:
		return scopeOnlyUses(in, ir.EndBorrow, de)
	case ir.AllocStack:
		return scopeOnlyUses(in, ir.DeallocStack, de)
	default:
		return nil, false
	}
}

// scopeOnlyUses reports whether every use of in's result is a scope-ending
// instruction of kind end, and returns the users that must be erased along
// with in. Users in dead-end blocks do not keep the scope alive; they are
// erased together with their own user trees.
func scopeOnlyUses(in *ir.Instruction, end ir.Op, de *DeadEndBlocks) ([]*ir.Instruction, bool) {
	var ends []*ir.Instruction
	for _, u := range in.Result().Uses() {
		user := u.User()
		if user.Op() == end {
			ends = append(ends, user)
			continue
		}
		if de.IsDeadEnd(user.Block()) {
			tree, ok := deadEndUserTree(user)
			if !ok {
				return nil, false
			}
			ends = append(ends, tree...)
			continue
		}
		return nil, false
	}
	return ends, true
}

// deadEndUserTree returns in preceded by the transitive users of its
// result, in erase-safe order (users before their defs). A value defined in
// a dead-end block can only be used in dead-end blocks, so the whole tree
// sits on unreachable-terminated paths. A terminator in the tree cannot be
// erased without rewriting the CFG; refuse in that case.
func deadEndUserTree(in *ir.Instruction) ([]*ir.Instruction, bool) {
	if in.IsTerminator() {
		return nil, false
	}
	var order []*ir.Instruction
	if r := in.Result(); r != nil {
		for _, u := range r.Uses() {
			tree, ok := deadEndUserTree(u.User())
			if !ok {
				return nil, false
			}
			order = append(order, tree...)
		}
	}
	return append(order, in), true
}
