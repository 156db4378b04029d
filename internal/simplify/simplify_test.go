// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package simplify

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oir-project/oir/internal/parser"
	"github.com/oir-project/oir/v1/ir"
)

func parseFunc(t *testing.T, src string) (*ir.Module, *ir.Function) {
	t.Helper()
	mod, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mod, mod.Funcs[0]
}

func inst(t *testing.T, fn *ir.Function, op ir.Op) *ir.Instruction {
	t.Helper()
	for _, b := range fn.Blocks() {
		for in := b.First(); in != nil; in = in.Next() {
			if in.Op() == op {
				return in
			}
		}
	}
	t.Fatalf("no %v instruction", op)
	return nil
}

func nop(*ir.Instruction) {}

func TestDeadEndBlocks(t *testing.T) {
	_, fn := parseFunc(t, `func @f(%flag : $Flag) [ossa] {
bb0:
  cond_br %flag, bb1, bb2
bb1:
  return
bb2:
  br bb3
bb3:
  unreachable
}
`)
	de := NewDeadEndBlocks(fn)
	exp := map[string]bool{"bb0": false, "bb1": false, "bb2": true, "bb3": true}
	for _, b := range fn.Blocks() {
		if act := de.IsDeadEnd(b); act != exp[b.Name()] {
			t.Errorf("IsDeadEnd(%s): expected %v, got %v", b.Name(), exp[b.Name()], act)
		}
	}
}

func TestEraseIfDeadRemovesEmptyScope(t *testing.T) {
	mod, fn := parseFunc(t, `func @f(%src : $*T [guaranteed]) [ossa] {
bb0:
  %acc = begin_access [read] %src
  end_access %acc
  return
}
`)
	EraseIfDead(inst(t, fn, ir.BeginAccess), NewDeadEndBlocks(fn), nop)
	exp := `func @f(%src : $*T [guaranteed]) [ossa] {
bb0:
  return
}
`
	if diff := cmp.Diff(exp, mod.String()); diff != "" {
		t.Errorf("unexpected module (-want, +got):\n%s", diff)
	}
}

func TestEraseIfDeadKeepsUsedScope(t *testing.T) {
	mod, fn := parseFunc(t, `func @f(%src : $*T [guaranteed]) [ossa] {
bb0:
  %acc = begin_access [read] %src
  %v = load [copy] %acc
  end_access %acc
  destroy_value %v
  return
}
`)
	before := mod.String()
	EraseIfDead(inst(t, fn, ir.BeginAccess), NewDeadEndBlocks(fn), nop)
	if diff := cmp.Diff(before, mod.String()); diff != "" {
		t.Errorf("scope with a real use must survive (-want, +got):\n%s", diff)
	}
}

func TestEraseIfDeadFollowsOperands(t *testing.T) {
	// Erasing the dead projection leaves the access scope empty, which the
	// worklist then erases as well.
	mod, fn := parseFunc(t, `func @f(%src : $*T [guaranteed]) [ossa] {
bb0:
  %acc = begin_access [read] %src
  %f = field_addr %acc, 0 : $*F
  end_access %acc
  return
}
`)
	var erased []ir.Op
	EraseIfDead(inst(t, fn, ir.FieldAddr), NewDeadEndBlocks(fn), func(in *ir.Instruction) {
		erased = append(erased, in.Op())
	})
	exp := `func @f(%src : $*T [guaranteed]) [ossa] {
bb0:
  return
}
`
	if diff := cmp.Diff(exp, mod.String()); diff != "" {
		t.Errorf("unexpected module (-want, +got):\n%s", diff)
	}
	expOps := []ir.Op{ir.FieldAddr, ir.EndAccess, ir.BeginAccess}
	if len(erased) != len(expOps) {
		t.Fatalf("expected %d erased instructions, got %v", len(expOps), erased)
	}
	for i := range expOps {
		if erased[i] != expOps[i] {
			t.Errorf("erase order %d: expected %v, got %v", i, expOps[i], erased[i])
		}
	}
}

func TestEraseIfDeadDropsDeadEndUsers(t *testing.T) {
	// The only real use of the scope is its end_access; the read on the
	// unreachable-terminated path dies with the scope, together with the
	// destroy of the loaded value.
	mod, fn := parseFunc(t, `func @f(%src : $*T [guaranteed], %flag : $Flag) [ossa] {
bb0:
  %acc = begin_access [read] %src
  end_access %acc
  cond_br %flag, bb1, bb2
bb1:
  return
bb2:
  %v = load [copy] %acc
  destroy_value %v
  unreachable
}
`)
	var erasedOps []ir.Op
	EraseIfDead(inst(t, fn, ir.BeginAccess), NewDeadEndBlocks(fn), func(in *ir.Instruction) {
		erasedOps = append(erasedOps, in.Op())
	})
	exp := `func @f(%src : $*T [guaranteed], %flag : $Flag) [ossa] {
bb0:
  cond_br %flag, bb1, bb2
bb1:
  return
bb2:
  unreachable
}
`
	if diff := cmp.Diff(exp, mod.String()); diff != "" {
		t.Errorf("unexpected module (-want, +got):\n%s", diff)
	}
	expOps := []ir.Op{ir.EndAccess, ir.DestroyValue, ir.Load, ir.BeginAccess}
	if len(erasedOps) != len(expOps) {
		t.Fatalf("expected %d erased instructions, got %v", len(expOps), erasedOps)
	}
	for i := range expOps {
		if erasedOps[i] != expOps[i] {
			t.Errorf("erase order %d: expected %v, got %v", i, expOps[i], erasedOps[i])
		}
	}
}

func TestEraseIfDeadKeepsScopeBranchedInDeadEnd(t *testing.T) {
	// A terminator cannot be erased along with the scope, so the scope
	// must survive.
	mod, fn := parseFunc(t, `func @f(%src : $*T [guaranteed], %flag : $Flag) [ossa] {
bb0:
  %acc = begin_access [read] %src
  end_access %acc
  cond_br %flag, bb1, bb2
bb1:
  return
bb2:
  br bb3(%acc)
bb3(%a : $*T):
  unreachable
}
`)
	before := mod.String()
	EraseIfDead(inst(t, fn, ir.BeginAccess), NewDeadEndBlocks(fn), nop)
	if diff := cmp.Diff(before, mod.String()); diff != "" {
		t.Errorf("scope branched in a dead-end block must survive (-want, +got):\n%s", diff)
	}
}

func TestEraseIfDeadIgnoresEffectfulInstructions(t *testing.T) {
	mod, fn := parseFunc(t, `func @f(%src : $*T [guaranteed], %dst : $*T) [ossa] {
bb0:
  copy_addr %src to [init] %dst
  return
}
`)
	before := mod.String()
	EraseIfDead(inst(t, fn, ir.CopyAddr), NewDeadEndBlocks(fn), nop)
	if diff := cmp.Diff(before, mod.String()); diff != "" {
		t.Errorf("effectful instruction must survive (-want, +got):\n%s", diff)
	}
}
