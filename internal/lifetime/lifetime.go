// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package lifetime completes the lifetime of owned values after a rewrite.
// A rewrite can leave an owned value without a consuming use on some paths,
// typically paths that end in unreachable. Complete restores the ownership
// invariant by inserting the missing destroys.
package lifetime

import (
	"github.com/oir-project/oir/v1/analysis"
	"github.com/oir-project/oir/v1/ir"
)

// Boundary selects where the inserted destroys are placed on paths that
// lack a consuming use.
type Boundary int

const (
	// LivenessBoundary places destroys immediately after the last use.
	LivenessBoundary Boundary = iota

	// AvailabilityBoundary keeps the value alive as far as possible and
	// places destroys at the end of the path, before the terminator that
	// leaves the function.
	AvailabilityBoundary
)

// Complete inserts destroys for v on every path on which v is live but
// never consumed. It reports whether any instruction was inserted. The
// function containing v must otherwise satisfy the ownership invariants:
// paths that return have already consumed v.
func Complete(fn *ir.Function, dom *analysis.DomTree, v *ir.Value, boundary Boundary) bool {
	if v.Type().IsTrivial() {
		return false
	}
	var defBlock *ir.Block
	var start *ir.Instruction
	switch {
	case v.Def() != nil:
		defBlock = v.Def().Block()
		start = v.Def().Next()
	case v.IsFunctionArgument():
		defBlock = fn.Entry()
		start = defBlock.First()
	default:
		// Block parameters are not completed.
		return false
	}

	changed := false
	visited := map[*ir.Block]bool{defBlock: true}

	var walk func(start *ir.Instruction)
	walk = func(start *ir.Instruction) {
		var lastUse *ir.Instruction
		for in := start; in != nil; in = in.Next() {
			if consumes(in, v) {
				return
			}
			if uses(in, v) {
				lastUse = in
			}
			if !in.IsTerminator() {
				continue
			}
			switch in.Op() {
			case ir.Return:
				// A returning path must already consume v.
				return
			case ir.Unreachable:
				insertDestroy(v, lastUse, in, boundary)
				changed = true
				return
			default:
				for _, s := range in.Succs() {
					if visited[s] {
						continue
					}
					visited[s] = true
					if dom.Dominates(defBlock, s) {
						walk(s.First())
					}
				}
				return
			}
		}
	}
	walk(start)
	return changed
}

func insertDestroy(v *ir.Value, lastUse, term *ir.Instruction, boundary Boundary) {
	if boundary == LivenessBoundary && lastUse != nil {
		ir.NewBuilderAfter(lastUse).EmitDestroyValue(v)
		return
	}
	ir.NewBuilder(term).EmitDestroyValue(v)
}

// consumes reports whether in ends the lifetime of v: it destroys v,
// stores it into memory, forwards it to a block parameter, or passes it
// owned to a callee.
func consumes(in *ir.Instruction, v *ir.Value) bool {
	switch in.Op() {
	case ir.DestroyValue:
		return in.Operand(0).Get() == v
	case ir.Store:
		return in.Src() == v && in.StoreKind() != ir.StoreTrivial
	case ir.Return, ir.Branch:
		for _, op := range in.Operands() {
			if op.Get() == v {
				return true
			}
		}
		return false
	case ir.Apply, ir.BeginApply, ir.PartialApply, ir.Yield:
		for _, op := range in.Operands() {
			if op.Get() == v && op.Convention() == ir.Owned {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func uses(in *ir.Instruction, v *ir.Value) bool {
	for _, op := range in.Operands() {
		if op.Get() == v {
			return true
		}
	}
	return false
}
