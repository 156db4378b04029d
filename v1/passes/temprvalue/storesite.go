// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package temprvalue

import (
	"fmt"

	"github.com/oir-project/oir/v1/ir"
	"github.com/oir-project/oir/v1/metrics"
)

// tryEliminateStoreIntoTemp eliminates the temporary buffer initialized by
// the store si, converting its address uses to operations on the stored
// value. It returns the next surviving instruction for the driver's cursor
// and whether the buffer was eliminated.
//
// A store always consumes its operand, so unlike the copy site there are no
// lifetime constraints to check against the source: no source-modification
// scan and no access-scope extension are needed.
func (o *optimizer) tryEliminateStoreIntoTemp(si *ir.Instruction) (*ir.Instruction, bool) {
	next := si.Next()

	if si.StoreKind() == ir.StoreAssign {
		return next, false
	}
	temp := si.Dest().Def()
	if temp == nil || temp.Op() != ir.AllocStack {
		return next, false
	}
	// A lexical buffer is tied to a source-level binding whose lifetime the
	// stored value would have to outlive.
	if temp.IsLexical() {
		return next, false
	}
	// A conditionally initialized buffer cannot be converted to a single
	// SSA value.
	if temp.HasDynamicLifetime() {
		return next, false
	}
	tempObj := temp.Result()

	// Scan all uses of the buffer; bail on any user not handled by the
	// rewrite below.
	for _, use := range tempObj.Uses() {
		user := use.User()
		if user == si {
			continue
		}
		switch user.Op() {
		case ir.DestroyAddr, ir.DeallocStack, ir.Load, ir.FixLifetime:
		case ir.CopyAddr:
			if user.Dest() == tempObj {
				return next, false
			}
		case ir.MarkDependence:
			if user.DependenceValue() == tempObj {
				return next, false
			}
		default:
			return next, false
		}
	}

	o.debug.Printf("  success: replace temp %s", tempObj.Name())

	stored := si.Src()

	// Replace all uses by deleting the users or converting them into the
	// equivalent operation on the stored value.
	var toDelete []*ir.Instruction
	for _, use := range tempObj.Uses() {
		user := use.User()
		if user == si {
			continue
		}
		switch user.Op() {
		case ir.DestroyAddr:
			ir.NewBuilder(user).EmitDestroyValue(stored)
			toDelete = append(toDelete, user)

		case ir.DeallocStack:
			toDelete = append(toDelete, user)

		case ir.CopyAddr:
			// A copy out of the buffer becomes a store of the value,
			// copied first unless the copy took it.
			b := ir.NewBuilder(user)
			v := stored
			if !user.IsTakeOfSrc() {
				v = b.EmitCopyValue(v)
			}
			b.Store(v, user.Dest(), storeKindFor(user, v))
			toDelete = append(toDelete, user)

		case ir.Load:
			// The store forwards the value, so a load [take] is the value
			// itself and a load [copy] is a copy of it.
			v := stored
			if user.LoadKind() == ir.LoadCopy {
				v = ir.NewBuilder(user).EmitCopyValue(v)
			}
			user.Result().ReplaceAllUsesWith(v)
			toDelete = append(toDelete, user)

		case ir.FixLifetime:
			ir.NewBuilder(user).FixLifetime(stored)
			toDelete = append(toDelete, user)

		case ir.MarkDependence:
			repl := ir.NewBuilder(user).MarkDependence(user.DependenceValue(), stored)
			user.Result().ReplaceAllUsesWith(repl.Result())
			toDelete = append(toDelete, user)

		default:
			// The scan above admits exactly the kinds rewritten here.
			panic(fmt.Sprintf("temprvalue: unhandled user %s of stored temp", user))
		}
	}

	for i := len(toDelete) - 1; i >= 0; i-- {
		toDelete[i].Erase()
	}

	// The deletions may have removed the instruction the cursor would have
	// advanced to.
	next = si.Next()
	si.Erase()
	temp.Erase()

	o.metrics.Counter(metrics.TempBufferStoreElim).Incr()
	o.changed = true
	return next, true
}

// storeKindFor picks the ownership qualifier for the store replacing a
// copy_addr out of the buffer.
func storeKindFor(copy *ir.Instruction, v *ir.Value) ir.StoreKind {
	if v.Type().IsTrivial() {
		return ir.StoreTrivial
	}
	if copy.IsInitOfDest() {
		return ir.StoreInit
	}
	return ir.StoreAssign
}
