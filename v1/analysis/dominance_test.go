// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package analysis

import (
	"testing"

	"github.com/oir-project/oir/v1/ir"
)

func block(t *testing.T, fn *ir.Function, name string) *ir.Block {
	t.Helper()
	for _, b := range fn.Blocks() {
		if b.Name() == name {
			return b
		}
	}
	t.Fatalf("no block named %s", name)
	return nil
}

func TestDomTreeDiamond(t *testing.T) {
	fn := parseFunc(t, `func @f(%flag : $Flag) [ossa] {
bb0:
  cond_br %flag, bb1, bb2
bb1:
  br bb3
bb2:
  br bb3
bb3:
  return
}
`)
	dom := NewDomTree(fn)
	bb0 := block(t, fn, "bb0")
	bb1 := block(t, fn, "bb1")
	bb2 := block(t, fn, "bb2")
	bb3 := block(t, fn, "bb3")

	cases := []struct {
		note string
		a, b *ir.Block
		exp  bool
	}{
		{"entry dominates everything", bb0, bb3, true},
		{"entry dominates a branch arm", bb0, bb1, true},
		{"a block dominates itself", bb1, bb1, true},
		{"one arm does not dominate the join", bb1, bb3, false},
		{"arms do not dominate each other", bb1, bb2, false},
		{"the join does not dominate the entry", bb3, bb0, false},
	}
	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			if act := dom.Dominates(tc.a, tc.b); act != tc.exp {
				t.Errorf("Dominates(%s, %s): expected %v, got %v", tc.a.Name(), tc.b.Name(), tc.exp, act)
			}
		})
	}

	if idom := dom.IDom(bb3); idom != bb0 {
		t.Errorf("expected idom(bb3) = bb0, got %v", idom.Name())
	}
	if idom := dom.IDom(bb0); idom != bb0 {
		t.Errorf("expected the entry to be its own idom, got %v", idom.Name())
	}
}

func TestDomTreeLoop(t *testing.T) {
	fn := parseFunc(t, `func @f(%flag : $Flag) [ossa] {
bb0:
  br bb1
bb1:
  cond_br %flag, bb1, bb2
bb2:
  return
}
`)
	dom := NewDomTree(fn)
	bb0 := block(t, fn, "bb0")
	bb1 := block(t, fn, "bb1")
	bb2 := block(t, fn, "bb2")

	if !dom.Dominates(bb1, bb2) {
		t.Error("expected the loop header to dominate the exit")
	}
	if dom.IDom(bb1) != bb0 {
		t.Error("back edge must not affect the loop header's idom")
	}
}

func TestDomTreeUnreachableBlock(t *testing.T) {
	fn := parseFunc(t, `func @f() [ossa] {
bb0:
  return
bb1:
  unreachable
}
`)
	dom := NewDomTree(fn)
	if dom.Dominates(block(t, fn, "bb0"), block(t, fn, "bb1")) {
		t.Error("nothing dominates an unreachable block")
	}
}
