// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package temprvalue

import "github.com/oir-project/oir/v1/ir"

// instSet is an insertion-counting instruction set. The source-modification
// scan needs both membership and cardinality.
type instSet struct {
	m map[*ir.Instruction]bool
}

func newInstSet() *instSet {
	return &instSet{m: map[*ir.Instruction]bool{}}
}

func (s *instSet) insert(in *ir.Instruction)        { s.m[in] = true }
func (s *instSet) contains(in *ir.Instruction) bool { return s.m[in] }
func (s *instSet) size() int                        { return len(s.m) }

// collectReadsFromProjection transitively classifies the uses of an address
// projection of the buffer.
func (o *optimizer) collectReadsFromProjection(projection *ir.Instruction, init *ir.Instruction, reads *instSet) bool {
	for _, use := range projection.Result().Uses() {
		if !o.collectReads(use, init, reads) {
			return false
		}
	}
	return true
}

// collectReads transitively explores all data flow uses of the buffer
// address held by use, until reaching a read boundary or returning false.
//
// Every user accepted here must be rewritten correctly later at the copy
// site. If any use could destroy the value at the address, that use must be
// removed or made non-destructive once the buffer is replaced by the copy
// source.
//
// The buffer must be initialized by init and never written again; its
// lifetime has no holes. Therefore any operation that may write the memory
// at the address disqualifies the buffer.
func (o *optimizer) collectReads(use *ir.Operand, init *ir.Instruction, reads *instSet) bool {
	user := use.User()
	address := use.Get()

	// All normal uses must be in the initialization block. (The destroy and
	// dealloc are commonly in a different block though.)
	block := init.Block()
	if user.Block() != block {
		return false
	}

	switch user.Op() {
	case ir.BeginAccess:
		if user.AccessKind() != ir.AccessRead {
			return false
		}
		// No need to recurse into the scope's uses: a read scope already
		// guarantees there are no writes to its address. But the end_access
		// instructions mark where the buffer's lifetime actually ends, so
		// they are recorded as read boundaries.
		for _, endAccess := range user.EndAccesses() {
			if endAccess.Block() != block {
				return false
			}
			reads.insert(endAccess)
		}
		return true

	case ir.MarkDependence:
		// As the base operand the buffer only anchors a lifetime; the data
		// flow chain ends here. As the dependent value the result stands in
		// for the buffer and its uses must be explored.
		if user.DependenceBase() == address {
			return true
		}
		return o.collectReadsFromProjection(user, init, reads)

	case ir.Apply, ir.BeginApply, ir.PartialApply:
		if user.Op() == ir.PartialApply && !user.IsOnStack() {
			return false
		}
		if use.Convention() != ir.Guaranteed {
			return false
		}
		reads.insert(user)
		if user.Op() == ir.BeginApply {
			// The coroutine reads its arguments until end_apply or
			// abort_apply, so the token uses are boundaries as well. The
			// source-modification scan must run up to them.
			for _, tokenUse := range user.Result().Uses() {
				tokenUser := tokenUse.User()
				if tokenUser.Block() != block {
					return false
				}
				reads.insert(tokenUser)
			}
		}
		return true

	case ir.Yield:
		if use.Convention() != ir.Guaranteed {
			return false
		}
		reads.insert(user)
		return true

	case ir.OpenUnionAddr:
		// Only an immutable open guarantees the buffer is not written
		// through the opened address.
		if !user.IsImmutableOpen() {
			o.debug.Printf("  temp use may write/destroy its source: %s", user)
			return false
		}
		return o.collectReadsFromProjection(user, init, reads)

	case ir.UnionDataAddr:
		// Payload extraction invalidates the union representation in
		// memory, except for the single-optional-payload layout.
		if !use.Get().Type().HasOptionalLayout() {
			o.debug.Printf("  temp use may write/destroy its source: %s", user)
			return false
		}
		return o.collectReadsFromProjection(user, init, reads)

	case ir.FieldAddr, ir.IndexAddr, ir.AddrCast:
		return o.collectReadsFromProjection(user, init, reads)

	case ir.Load:
		// Loads end the data flow chain; users of the loaded value cannot
		// reach the buffer. A load [take] from a projection would destroy
		// only part of the buffer, which the rewrite does not model; accept
		// a take only of the buffer's full extent.
		if user.LoadKind() == ir.LoadTake && address != init.Dest() {
			return false
		}
		reads.insert(user)
		return true

	case ir.LoadBorrow:
		reads.insert(user)
		for _, borrowUse := range user.Result().Uses() {
			borrowUser := borrowUse.User()
			switch borrowUser.Op() {
			case ir.EndBorrow:
				if borrowUser.Block() != block {
					return false
				}
				reads.insert(borrowUser)
			case ir.Branch:
				// A reborrow extends the scope into a successor.
				return false
			}
		}
		return true

	case ir.FixLifetime:
		// A lifetime marker on the buffer reads it like a load and is later
		// rewritten onto the source.
		reads.insert(user)
		return true

	case ir.CopyAddr:
		// Copies out of the buffer are like loads.
		if user.Dest() == address {
			o.debug.Printf("  temp written or taken: %s", user)
			return false
		}
		// As with load [take], a take is only accepted at the buffer's full
		// extent.
		if user.IsTakeOfSrc() && address != init.Dest() {
			return false
		}
		reads.insert(user)
		return true

	default:
		o.debug.Printf("  temp use may write/destroy its source: %s", user)
		return false
	}
}
