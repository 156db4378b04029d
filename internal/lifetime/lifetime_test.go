// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package lifetime

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oir-project/oir/internal/parser"
	"github.com/oir-project/oir/v1/analysis"
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

func firstResult(t *testing.T, fn *ir.Function, op ir.Op) *ir.Value {
	t.Helper()
	for _, b := range fn.Blocks() {
		for in := b.First(); in != nil; in = in.Next() {
			if in.Op() == op {
				return in.Result()
			}
		}
	}
	t.Fatalf("no %v instruction", op)
	return nil
}

func TestCompleteArgumentOnUnreachablePath(t *testing.T) {
	mod, fn := parseFunc(t, `type $Flag [trivial]
type $U [union]

func @f(%src : $U, %flag : $Flag) [ossa] {
bb0:
  fix_lifetime %src
  cond_br %flag, bb1, bb2
bb1:
  destroy_value %src
  return
bb2:
  unreachable
}
`)
	dom := analysis.NewDomTree(fn)
	if !Complete(fn, dom, fn.Params()[0], LivenessBoundary) {
		t.Fatal("expected a destroy to be inserted")
	}
	exp := `type $Flag [trivial]
type $U [union]

func @f(%src : $U, %flag : $Flag) [ossa] {
bb0:
  fix_lifetime %src
  cond_br %flag, bb1, bb2
bb1:
  destroy_value %src
  return
bb2:
  destroy_value %src
  unreachable
}
`
	if diff := cmp.Diff(exp, mod.String()); diff != "" {
		t.Errorf("unexpected module (-want, +got):\n%s", diff)
	}
}

func TestCompleteBoundaryPlacement(t *testing.T) {
	src := `type $Flag [trivial]

func @f(%src : $*T [guaranteed], %other : $T [guaranteed], %flag : $Flag) [ossa] {
bb0:
  %v = load [copy] %src
  cond_br %flag, bb1, bb2
bb1:
  destroy_value %v
  return
bb2:
  fix_lifetime %v
  fix_lifetime %other
  unreachable
}
`
	t.Run("liveness boundary", func(t *testing.T) {
		mod, fn := parseFunc(t, src)
		v := firstResult(t, fn, ir.Load)
		if !Complete(fn, analysis.NewDomTree(fn), v, LivenessBoundary) {
			t.Fatal("expected a destroy to be inserted")
		}
		exp := `type $Flag [trivial]

func @f(%src : $*T [guaranteed], %other : $T [guaranteed], %flag : $Flag) [ossa] {
bb0:
  %v = load [copy] %src
  cond_br %flag, bb1, bb2
bb1:
  destroy_value %v
  return
bb2:
  fix_lifetime %v
  destroy_value %v
  fix_lifetime %other
  unreachable
}
`
		if diff := cmp.Diff(exp, mod.String()); diff != "" {
			t.Errorf("unexpected module (-want, +got):\n%s", diff)
		}
	})

	t.Run("availability boundary", func(t *testing.T) {
		mod, fn := parseFunc(t, src)
		v := firstResult(t, fn, ir.Load)
		if !Complete(fn, analysis.NewDomTree(fn), v, AvailabilityBoundary) {
			t.Fatal("expected a destroy to be inserted")
		}
		exp := `type $Flag [trivial]

func @f(%src : $*T [guaranteed], %other : $T [guaranteed], %flag : $Flag) [ossa] {
bb0:
  %v = load [copy] %src
  cond_br %flag, bb1, bb2
bb1:
  destroy_value %v
  return
bb2:
  fix_lifetime %v
  fix_lifetime %other
  destroy_value %v
  unreachable
}
`
		if diff := cmp.Diff(exp, mod.String()); diff != "" {
			t.Errorf("unexpected module (-want, +got):\n%s", diff)
		}
	})
}

func TestCompleteNoChangeCases(t *testing.T) {
	t.Run("trivial value", func(t *testing.T) {
		_, fn := parseFunc(t, `type $Flag [trivial]

func @f(%flag : $Flag) [ossa] {
bb0:
  unreachable
}
`)
		if Complete(fn, analysis.NewDomTree(fn), fn.Params()[0], LivenessBoundary) {
			t.Error("trivial values need no destroys")
		}
	})

	t.Run("consumed on every path", func(t *testing.T) {
		_, fn := parseFunc(t, `type $Flag [trivial]

func @f(%v : $T, %flag : $Flag) [ossa] {
bb0:
  cond_br %flag, bb1, bb2
bb1:
  destroy_value %v
  return
bb2:
  apply @sink(%v)
  unreachable
}
`)
		if Complete(fn, analysis.NewDomTree(fn), fn.Params()[0], LivenessBoundary) {
			t.Error("expected no destroys when every path consumes the value")
		}
	})

	t.Run("block parameter", func(t *testing.T) {
		_, fn := parseFunc(t, `func @f(%v : $T) [ossa] {
bb0:
  br bb1(%v)
bb1(%w : $T):
  destroy_value %w
  return
}
`)
		w := fn.Blocks()[1].Params()[0]
		if Complete(fn, analysis.NewDomTree(fn), w, LivenessBoundary) {
			t.Error("block parameters are not completed")
		}
	})
}
