// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package temprvalue

import (
	"github.com/oir-project/oir/v1/analysis"
	"github.com/oir-project/oir/v1/ir"
	"github.com/oir-project/oir/v1/metrics"
)

// tryEliminateCopyIntoTemp eliminates the temporary buffer initialized by
// copyInst. On success every instruction of the pattern is removed except
// copyInst itself, which is left in place with identical source and
// destination operands so that the driver's iteration stays valid; the
// driver erases such identity copies in cleanup.
func (o *optimizer) tryEliminateCopyIntoTemp(copyInst *ir.Instruction) {
	if !copyInst.IsInitOfDest() {
		return
	}
	if copyInst.Src() == copyInst.Dest() {
		// Identity copy from an earlier rewrite.
		return
	}
	temp := copyInst.Dest().Def()
	if temp == nil || temp.Op() != ir.AllocStack {
		return
	}
	tempObj := temp.Result()
	src := copyInst.Src()

	// A lexical buffer is tied to a source-level binding; eliminating it
	// requires the source to be live at least as long. Provable only when
	// the source's storage root is a guaranteed function argument.
	if temp.IsLexical() {
		base := analysis.AccessBase(src)
		if base == nil || !base.IsFunctionArgument() || base.Ownership() != ir.Guaranteed {
			return
		}
	}

	ossa := copyInst.Func().OwnershipVerified()

	// If the copy takes its source, the source must be deinitialized at the
	// right spot: after the last use of the buffer, but before any
	// potential re-initialization of the source.
	needFinalDeinit := copyInst.IsTakeOfSrc()

	// Classify all uses of the buffer. It is sufficient to check that the
	// only users that modify memory are copyInst and the destroys.
	reads := newInstSet()
	users := map[*ir.Instruction]bool{}
	for _, use := range tempObj.Uses() {
		user := use.User()
		users[user] = true
		if user == copyInst {
			continue
		}
		// Deallocations are allowed to be in a different block.
		if user.Op() == ir.DeallocStack {
			continue
		}
		// Destroys too.
		if user.Op() == ir.DestroyAddr {
			if !ossa && needFinalDeinit {
				// Without verified ownership, the buffer's lifetime must be
				// assumed to extend to the final destroy_addr, not just to
				// the last use; otherwise the compensating destroy of the
				// source could be inserted too early.
				if user.Block() != copyInst.Block() {
					return
				}
				reads.insert(user)
			}
			continue
		}
		if !o.collectReads(use, copyInst, reads) {
			return
		}
	}

	// A use of the buffer preceding copyInst means the pattern does not
	// hold; projections can produce such uses. Classification put every
	// user in copyInst's block, so a single scan suffices.
	for in := copyInst.Block().First(); in != copyInst; in = in.Next() {
		if users[in] {
			return
		}
	}

	lastUse := o.lastUseBeforeSourceWrite(copyInst, reads)
	if lastUse == nil {
		return
	}

	// The compensating destroy of the source cannot be inserted after
	// lastUse if the source is re-initialized by exactly that instruction.
	// A corner case, but possible when lastUse is a copy_addr:
	//
	//	copy_addr [take] %src to [init] %temp   // copyInst
	//	copy_addr [take] %temp to [init] %src   // lastUse
	if needFinalDeinit && lastUse != copyInst &&
		lastUse.Op() != ir.DestroyAddr && o.aa.MayWriteToMemory(lastUse, src) {
		return
	}

	if !ossa && !o.checkDirectDestroys(temp, copyInst) {
		return
	}

	if !o.extendAccessScopes(copyInst, lastUse) {
		return
	}

	o.debug.Printf("  success: replace temp %s", tempObj.Name())

	// Decide whether the source's deinitialization needs a new
	// destroy_addr, or whether lastUse already performs it. Reusing a
	// take at lastUse is required for correctness: inserting a destroy
	// instead would introduce a copy of a move-only value.
	needToInsertDestroy := func() bool {
		if !needFinalDeinit {
			return false
		}
		if lastUse == copyInst {
			return true
		}
		switch lastUse.Op() {
		case ir.CopyAddr:
			if lastUse.Src() == tempObj && lastUse.IsTakeOfSrc() {
				// This copy_addr [take] performs the final deinitialization.
				return false
			}
			if tempObj.Type().IsMoveOnly() {
				panic("temprvalue: introducing copy of move-only value")
			}
			return true
		case ir.Load:
			if lastUse.Operand(0).Get() == tempObj && lastUse.LoadKind() == ir.LoadTake {
				// This load [take] performs the final deinitialization.
				return false
			}
			if tempObj.Type().IsMoveOnly() {
				panic("temprvalue: introducing copy of move-only value")
			}
			return true
		}
		return true
	}()
	if needToInsertDestroy {
		// Compensate the take of copyInst.
		ir.NewBuilderAfter(lastUse).DestroyAddr(src)
	}

	// Replace all uses of the buffer with the source. The destroys of the
	// buffer compensate the removal of copyInst: destroy_addr is erased,
	// and any take that is not the designated final deinitialization is
	// converted into a copying form, since only one use may consume the
	// source.
	for tempObj.HasUses() {
		use := tempObj.FirstUse()
		user := use.User()
		switch user.Op() {
		case ir.DestroyAddr, ir.DeallocStack:
			user.Erase()
		case ir.CopyAddr:
			if user != copyInst {
				if user.IsTakeOfSrc() && (!needFinalDeinit || lastUse != user) {
					user.SetIsTakeOfSrc(false)
				}
			}
			use.Set(src)
		case ir.Load:
			if user.LoadKind() == ir.LoadTake && (!needFinalDeinit || lastUse != user) {
				user.SetLoadKind(ir.LoadCopy)
			}
			use.Set(src)
		default:
			// No user handled here can destroy the buffer; classification
			// rejected anything that loads the value and releases it, or
			// casts the address before destroying it.
			use.Set(src)
		}
	}

	temp.Erase()
	o.metrics.Counter(metrics.TempBufferCopyElim).Incr()
	o.changed = true
}
