// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package analysis provides the query services consumed by OIR passes:
// alias analysis, dominance, and value-lifetime boundaries. All services
// are pure: they never mutate the function under analysis.
package analysis

import "github.com/oir-project/oir/v1/ir"

// AliasAnalysis answers may-alias and may-write queries between memory
// locations and instructions.
type AliasAnalysis interface {
	// MayWriteToMemory reports whether executing in may write the memory
	// at addr. Conservative: true unless provably false.
	MayWriteToMemory(in *ir.Instruction, addr *ir.Value) bool

	// IsNoAlias reports whether a and b provably refer to disjoint
	// memory. Conservative: false unless provably disjoint.
	IsNoAlias(a, b *ir.Value) bool
}

// New returns the built-in access-path alias analysis.
func New() AliasAnalysis {
	return &aliasAnalysis{}
}

type aliasAnalysis struct{}

// pathElem is one projection step. Opaque steps (casts, dynamic-type
// unwraps) lose field precision.
type pathElem struct {
	field  int
	opaque bool
}

type accessPath struct {
	base *ir.Value
	path []pathElem
}

// AccessBase returns the root storage value of an address: the result of
// the allocation, or the function argument, that the address projects
// from. Returns nil when the base cannot be identified.
func AccessBase(addr *ir.Value) *ir.Value {
	return computePath(addr).base
}

func computePath(v *ir.Value) accessPath {
	var rev []pathElem
	for {
		def := v.Def()
		if def == nil {
			return accessPath{base: v, path: reversePath(rev)}
		}
		switch def.Op() {
		case ir.FieldAddr, ir.IndexAddr:
			rev = append(rev, pathElem{field: def.FieldIndex()})
			v = def.Operand(0).Get()
		case ir.AddrCast, ir.OpenUnionAddr, ir.UnionDataAddr:
			rev = append(rev, pathElem{opaque: true})
			v = def.Operand(0).Get()
		case ir.BeginAccess:
			v = def.Operand(0).Get()
		case ir.MarkDependence:
			v = def.DependenceValue()
		case ir.AllocStack:
			return accessPath{base: v, path: reversePath(rev)}
		default:
			return accessPath{base: v, path: reversePath(rev)}
		}
	}
}

func reversePath(rev []pathElem) []pathElem {
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// uniquelyIdentified reports whether the base is storage that nothing else
// can alias: a fresh stack allocation.
func uniquelyIdentified(base *ir.Value) bool {
	return base.Def() != nil && base.Def().Op() == ir.AllocStack
}

func (a *aliasAnalysis) IsNoAlias(x, y *ir.Value) bool {
	if x == y {
		return false
	}
	px, py := computePath(x), computePath(y)
	if px.base != py.base {
		// Distinct stack allocations are disjoint, and a stack
		// allocation is disjoint from any other identified storage.
		if uniquelyIdentified(px.base) || uniquelyIdentified(py.base) {
			return true
		}
		// Two distinct argument addresses may still alias each other.
		return false
	}
	// Same base: disjoint only if the paths provably diverge at an exact
	// projection step.
	n := len(px.path)
	if len(py.path) < n {
		n = len(py.path)
	}
	for i := 0; i < n; i++ {
		ex, ey := px.path[i], py.path[i]
		if ex.opaque || ey.opaque {
			return false
		}
		if ex.field != ey.field {
			return true
		}
	}
	return false
}

func (a *aliasAnalysis) mayAlias(x, y *ir.Value) bool {
	return !a.IsNoAlias(x, y)
}

func (a *aliasAnalysis) MayWriteToMemory(in *ir.Instruction, addr *ir.Value) bool {
	switch in.Op() {
	case ir.CopyAddr:
		if a.mayAlias(in.Dest(), addr) {
			return true
		}
		// A take deinitializes the source memory.
		return in.IsTakeOfSrc() && a.mayAlias(in.Src(), addr)
	case ir.Store:
		return a.mayAlias(in.Dest(), addr)
	case ir.Load:
		return in.LoadKind() == ir.LoadTake && a.mayAlias(in.Operand(0).Get(), addr)
	case ir.DestroyAddr, ir.DeallocStack:
		return a.mayAlias(in.Operand(0).Get(), addr)
	case ir.BeginAccess:
		return in.AccessKind() == ir.AccessModify && a.mayAlias(in.Operand(0).Get(), addr)
	case ir.Apply, ir.BeginApply, ir.PartialApply, ir.Yield:
		return a.callMayWrite(in, addr)
	case ir.EndApply, ir.AbortApply:
		// Resuming or aborting the coroutine runs the callee past the
		// yield point, which can write whatever the call itself can.
		return a.callMayWrite(in.Operand(0).Get().Def(), addr)
	default:
		return false
	}
}

// callMayWrite reports whether a callee can write addr through any of its
// arguments. Guaranteed arguments are read-only for the callee; owned
// address arguments are deinitialized (a write); inout arguments are
// read-write.
func (a *aliasAnalysis) callMayWrite(call *ir.Instruction, addr *ir.Value) bool {
	for _, op := range call.Operands() {
		if !op.Get().IsAddress() {
			continue
		}
		if op.Convention() == ir.Guaranteed {
			continue
		}
		if a.mayAlias(op.Get(), addr) {
			return true
		}
	}
	return false
}
