// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"strings"
	"testing"
)

func TestOperandSetMaintainsUseLists(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, true, Owned)
	b := fn.AddParam("b", tt, true, Owned)
	bld := NewBuilderAtEnd(fn.NewBlock("bb0"))

	destroy := bld.DestroyAddr(a)
	if exp, act := 1, a.NumUses(); act != exp {
		t.Fatalf("expected %d use of %%a, got %d", exp, act)
	}

	destroy.Operand(0).Set(b)
	if a.HasUses() {
		t.Error("expected the old operand to have no uses after retargeting")
	}
	if exp, act := 1, b.NumUses(); act != exp {
		t.Errorf("expected %d use of %%b, got %d", exp, act)
	}
	if b.FirstUse().User() != destroy {
		t.Error("use not registered on the retargeted operand")
	}
}

func TestReplaceAllUsesWith(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, false, Owned)
	b := fn.AddParam("b", tt, false, Owned)
	bld := NewBuilderAtEnd(fn.NewBlock("bb0"))

	fix := bld.FixLifetime(a)
	destroy := bld.DestroyValue(a)

	a.ReplaceAllUsesWith(b)
	if a.HasUses() {
		t.Error("expected no remaining uses of the replaced value")
	}
	if exp, act := 2, b.NumUses(); act != exp {
		t.Fatalf("expected %d uses of %%b, got %d", exp, act)
	}
	if fix.Operand(0).Get() != b || destroy.Operand(0).Get() != b {
		t.Error("uses not retargeted to the replacement value")
	}
}

func TestEraseUnlinksAndReleasesOperands(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, true, Owned)
	block := fn.NewBlock("bb0")
	bld := NewBuilderAtEnd(block)

	destroy := bld.DestroyAddr(a)
	ret := bld.Return(nil)

	destroy.Erase()
	if a.HasUses() {
		t.Error("expected erased instruction to release its operands")
	}
	if block.First() != ret || ret.Prev() != nil {
		t.Error("erased instruction still linked into the block")
	}
	if destroy.Block() != nil {
		t.Error("erased instruction still reports a block")
	}
}

func TestErasePanicsOnLiveUses(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, true, Owned)
	bld := NewBuilderAtEnd(fn.NewBlock("bb0"))

	load := bld.Load(a, LoadCopy)
	bld.DestroyValue(load.Result())

	defer func() {
		if recover() == nil {
			t.Error("expected panic when erasing a definition with live uses")
		}
	}()
	load.Erase()
}

func TestMoveAfter(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, true, Owned)
	block := fn.NewBlock("bb0")
	bld := NewBuilderAtEnd(block)

	acc := bld.BeginAccess(a, AccessRead)
	end := bld.EndAccess(acc.Result())
	load := bld.Load(acc.Result(), LoadCopy)

	end.MoveAfter(load)

	var ops []Op
	for in := block.First(); in != nil; in = in.Next() {
		ops = append(ops, in.Op())
	}
	exp := []Op{BeginAccess, Load, EndAccess}
	if len(ops) != len(exp) {
		t.Fatalf("expected %d instructions, got %d", len(exp), len(ops))
	}
	for i := range exp {
		if ops[i] != exp[i] {
			t.Errorf("position %d: expected %v, got %v", i, exp[i], ops[i])
		}
	}
	if block.Last() != end || load.Next() != end {
		t.Error("block links not updated by MoveAfter")
	}
}

func TestBuilderInsertBefore(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, false, Owned)
	block := fn.NewBlock("bb0")
	ret := NewBuilderAtEnd(block).Return(nil)

	NewBuilder(ret).DestroyValue(a)
	if block.First().Op() != DestroyValue || block.First().Next() != ret {
		t.Error("expected destroy_value inserted before the return")
	}
}

func TestEmitCopyAndDestroySkipTrivial(t *testing.T) {
	trivial := &Type{Name: "Flag", Attrs: Trivial}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", trivial, false, Owned)
	block := fn.NewBlock("bb0")
	bld := NewBuilderAtEnd(block)

	if v := bld.EmitCopyValue(a); v != a {
		t.Error("expected trivial copy to return the value unchanged")
	}
	if in := bld.EmitDestroyValue(a); in != nil {
		t.Error("expected no destroy for a trivial value")
	}
	if block.First() != nil {
		t.Error("expected no instructions emitted for a trivial value")
	}
}

func TestEndAccessesAndAccessedAddress(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, true, Owned)
	bld := NewBuilderAtEnd(fn.NewBlock("bb0"))

	acc := bld.BeginAccess(a, AccessRead)
	end := bld.EndAccess(acc.Result())

	ends := acc.EndAccesses()
	if len(ends) != 1 || ends[0] != end {
		t.Fatalf("expected the single end_access, got %v", ends)
	}
	if end.BeginAccessInst() != acc {
		t.Error("end_access not linked to its begin_access")
	}
	if acc.AccessedAddress() != a || end.AccessedAddress() != a {
		t.Error("expected both scope markers to report the accessed address")
	}
}

func TestTerminatorSuccessors(t *testing.T) {
	flag := &Type{Name: "Flag", Attrs: Trivial}
	fn := NewFunction("f", true)
	c := fn.AddParam("c", flag, false, Owned)
	bb0 := fn.NewBlock("bb0")
	bb1 := fn.NewBlock("bb1")
	bb2 := fn.NewBlock("bb2")

	NewBuilderAtEnd(bb0).CondBranch(c, bb1, bb2)
	NewBuilderAtEnd(bb1).Return(nil)
	NewBuilderAtEnd(bb2).Unreachable()

	succs := bb0.Succs()
	if len(succs) != 2 || succs[0] != bb1 || succs[1] != bb2 {
		t.Errorf("unexpected successors %v", succs)
	}
	if len(bb1.Preds()) != 1 || bb1.Preds()[0] != bb0 {
		t.Errorf("unexpected predecessors %v", bb1.Preds())
	}
	if bb0.Terminator() == nil || bb0.Terminator().Op() != CondBranch {
		t.Error("expected cond_br terminator")
	}
}

func TestPrinterAssignsFreshNames(t *testing.T) {
	tt := &Type{Name: "T"}
	fn := NewFunction("f", true)
	a := fn.AddParam("a", tt, false, Owned)
	bld := NewBuilderAtEnd(fn.NewBlock("bb0"))

	cv := bld.CopyValue(a) // result is unnamed
	bld.DestroyValue(cv.Result())
	bld.DestroyValue(a)
	bld.Return(nil)

	out := fn.String()
	if !strings.Contains(out, "%0 = copy_value %a") {
		t.Errorf("expected a fresh name for the unnamed result, got:\n%s", out)
	}
	if !strings.Contains(out, "destroy_value %0") {
		t.Errorf("expected the fresh name at the use site, got:\n%s", out)
	}
	// The parameter was already printed in the header; its later use must
	// still carry the sigil.
	if !strings.Contains(out, "destroy_value %a") {
		t.Errorf("expected the parameter name at its use site, got:\n%s", out)
	}
}

func TestTypeAttrsString(t *testing.T) {
	cases := []struct {
		attrs TypeAttrs
		exp   string
	}{
		{Trivial, "trivial"},
		{Union | OptionalLayout, "union, optional"},
		{MoveOnly | ContainsUnion, "moveonly, contains_union"},
		{0, ""},
	}
	for _, tc := range cases {
		if act := tc.attrs.String(); act != tc.exp {
			t.Errorf("attrs %b: expected %q, got %q", tc.attrs, tc.exp, act)
		}
	}
}

func TestModuleTypeInterning(t *testing.T) {
	m := NewModule()
	a := m.Type("T")
	b := m.Type("T")
	if a != b {
		t.Error("expected the same *Type for repeated lookups")
	}
	a.Attrs |= Union
	if !m.Type("T").IsOrHasUnion() {
		t.Error("attribute update not visible through the module")
	}
}
