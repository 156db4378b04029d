// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package temprvalue

import (
	"fmt"

	"github.com/oir-project/oir/v1/analysis"
	"github.com/oir-project/oir/v1/ir"
)

// lastUseBeforeSourceWrite checks that the source of init is not modified
// within the buffer's lifetime, i.e. not before the last of the recorded
// read boundaries. On success it returns the last boundary instruction (or
// init itself if the buffer has no reads at all); otherwise nil.
//
// The destroy points cannot serve as the lifetime end because they are
// commonly in a different block. Instead, classification has guaranteed
// that all normal uses are in init's block, so the last use there
// effectively ends the lifetime.
func (o *optimizer) lastUseBeforeSourceWrite(init *ir.Instruction, reads *instSet) *ir.Instruction {
	if reads.size() == 0 {
		return init
	}
	src := init.Src()
	found := 0

	for in := init.Next(); in != nil; in = in.Next() {
		if reads.contains(in) {
			found++
		}
		// At the last use the buffer's lifetime ends; later modifications
		// of the source don't matter anymore. An instruction that both
		// reads and writes the source (a copy_addr can) performs the write
		// after the read.
		if found == reads.size() {
			// Calls are the exception: a callee could modify the source
			// before reading the buffer.
			switch in.Op() {
			case ir.Apply, ir.BeginApply, ir.Yield:
				if o.aa.MayWriteToMemory(in, src) {
					return nil
				}
			}
			return in
		}
		if o.aa.MayWriteToMemory(in, src) {
			o.debug.Printf("  source modified by %s", in)
			return nil
		}
	}
	// Classification placed every read boundary in this block.
	panic(fmt.Sprintf("temprvalue: read boundaries of %s not covered by its block", init))
}

// extendAccessScopes tries to move an end_access down so that the access
// scope covers all uses of the buffer. For example:
//
//	%a = begin_access [read] %src
//	copy_addr %a to [init] %temp
//	end_access %a
//	use %temp
//
// The buffer must not be replaced with %a after the end_access; instead the
// end_access is moved after "use %temp". Reports whether the rewrite may
// proceed.
func (o *optimizer) extendAccessScopes(init, lastUse *ir.Instruction) bool {
	if lastUse == init {
		return true
	}
	src := init.Src()
	var endAccessToMove *ir.Instruction

	for in := init.Next(); in != nil; in = in.Next() {
		if in.Op() == ir.EndAccess {
			// Only a single end_access can be moved, and an end_access
			// cannot be moved over another one.
			if endAccessToMove != nil {
				return false
			}
			// The source-modification scan already rejected aliasing
			// modifying accesses within the buffer's liverange, but
			// IsNoAlias can be less precise than MayWriteToMemory, so
			// non-read scopes are simply left alone.
			if !o.aa.IsNoAlias(src, in.AccessedAddress()) &&
				in.BeginAccessInst().AccessKind() == ir.AccessRead {
				// Instructions cannot be moved beyond the terminator.
				if lastUse.IsTerminator() {
					return false
				}
				endAccessToMove = in
			}
		} else if endAccessToMove != nil {
			// Moving an end_access over a begin_access would destroy the
			// proper nesting of accesses.
			if in.Op() == ir.BeginAccess {
				return false
			}
			// A read scope must not be extended over a potential write.
			// in can be a call containing other access scopes, but the
			// may-write check proves it contains only reads of this
			// location, so moving the end_access over it is fine.
			if o.aa.MayWriteToMemory(in, endAccessToMove.AccessedAddress()) {
				return false
			}
		}
		if in == lastUse {
			break
		}
	}
	if endAccessToMove != nil {
		endAccessToMove.MoveAfter(lastUse)
	}
	return true
}

// checkDirectDestroys verifies the buffer initialized by init is destroyed
// in an orthodox way on every path: directly by a destroy_addr or a
// copy_addr [take] out of it.
//
// The copy-site rewrite assumes the recognized destroy points cover all of
// the buffer's lifetime termination points. Without verified ownership this
// must be checked explicitly: it is legal to destroy an in-memory value by
// loading it and separately releasing the loaded value, a pattern the
// rewrite does not model.
func (o *optimizer) checkDirectDestroys(temp *ir.Instruction, init *ir.Instruction) bool {
	// The frontier computation is not normally applied to addresses; it
	// does not reason about the lifetime of the in-memory value. It serves
	// here to check that the address itself dies at direct destroy points;
	// classification has already guaranteed the lifetime has no holes.
	var users []*ir.Instruction
	for _, use := range temp.Result().Uses() {
		user := use.User()
		if user == init || user.Op() == ir.DeallocStack {
			continue
		}
		users = append(users, user)
	}
	frontier, ok := analysis.Frontier(init, users)
	if !ok {
		return false
	}
	for _, boundary := range frontier {
		// A boundary at the head of a block is either an unexpected
		// lifetime exit or a lifetime ended by a terminator; neither is
		// handled by the rewrite.
		lastUser := boundary.Prev()
		if lastUser == nil {
			return false
		}
		if lastUser.Op() == ir.DestroyAddr {
			continue
		}
		if lastUser.Op() == ir.CopyAddr && lastUser.Src() == temp.Result() && lastUser.IsTakeOfSrc() {
			continue
		}
		return false
	}
	return true
}
