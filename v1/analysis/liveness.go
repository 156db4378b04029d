// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package analysis

import "github.com/oir-project/oir/v1/ir"

// Frontier computes the lifetime boundary of the value defined (or
// anchored) at def, given the set of instructions that use it. The
// returned instructions are the first program points at which the value is
// no longer live: for an in-block boundary, the instruction immediately
// after the last use; for a boundary on a control-flow edge, the first
// instruction of the successor block.
//
// The computation never modifies the CFG. When a boundary falls on a
// critical edge (a not-live successor with multiple predecessors), the
// boundary cannot be materialized without splitting the edge, and Frontier
// reports failure.
func Frontier(def *ir.Instruction, users []*ir.Instruction) ([]*ir.Instruction, bool) {
	defBlock := def.Block()
	userSet := make(map[*ir.Instruction]bool, len(users)+1)
	userSet[def] = true
	for _, u := range users {
		userSet[u] = true
	}

	// live contains every block on a path from def to a user, def's block
	// included.
	live := map[*ir.Block]bool{defBlock: true}
	var markLive func(b *ir.Block)
	markLive = func(b *ir.Block) {
		if live[b] {
			return
		}
		live[b] = true
		for _, p := range b.Preds() {
			markLive(p)
		}
	}
	for _, u := range users {
		markLive(u.Block())
	}

	var frontier []*ir.Instruction
	for _, b := range defBlock.Func().Blocks() {
		if !live[b] {
			continue
		}
		liveSucc := false
		for _, s := range b.Succs() {
			if live[s] {
				liveSucc = true
				break
			}
		}
		if liveSucc {
			// Liveness continues; the boundary is on each edge to a
			// not-live successor.
			for _, s := range b.Succs() {
				if live[s] {
					continue
				}
				if len(s.Preds()) > 1 {
					return nil, false
				}
				frontier = append(frontier, s.First())
			}
			continue
		}
		// Liveness ends inside b, after the last use.
		var last *ir.Instruction
		for in := b.Last(); in != nil; in = in.Prev() {
			if userSet[in] {
				last = in
				break
			}
		}
		if last == nil || last.Next() == nil {
			// No use in a live block without live successors means the
			// lifetime ends at the block boundary; a use that is the
			// block's own terminator pushes the boundary past the block.
			// Either way the boundary lands on the successors' entries.
			for _, s := range b.Succs() {
				if len(s.Preds()) > 1 {
					return nil, false
				}
				frontier = append(frontier, s.First())
			}
			continue
		}
		frontier = append(frontier, last.Next())
	}
	return frontier, true
}
