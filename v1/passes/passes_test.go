// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package passes

import (
	"strings"
	"testing"

	"github.com/oir-project/oir/internal/parser"
	"github.com/oir-project/oir/v1/ir"
	"github.com/oir-project/oir/v1/logging"
	logtest "github.com/oir-project/oir/v1/logging/test"
	"github.com/oir-project/oir/v1/metrics"
)

type countingPass struct {
	name string
	inv  Invalidation
	runs []string
}

func (p *countingPass) Name() string { return p.name }

func (p *countingPass) Run(f *ir.Function) Invalidation {
	p.runs = append(p.runs, f.Name())
	return p.inv
}

func parseModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	mod, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mod
}

func TestRunnerAppliesPipelinePerFunction(t *testing.T) {
	mod := parseModule(t, `func @a(%x : $T) [ossa] {
bb0:
  destroy_value %x
  return
}

func @b(%x : $T) [ossa] {
bb0:
  destroy_value %x
  return
}
`)
	first := &countingPass{name: "first", inv: InvalidateNothing}
	second := &countingPass{name: "second", inv: InvalidateInstructions}

	inv := NewRunner().WithPasses(first, second).Run(mod)
	if inv != InvalidateInstructions {
		t.Errorf("expected the union of invalidations, got %v", inv)
	}
	for _, p := range []*countingPass{first, second} {
		if len(p.runs) != 2 || p.runs[0] != "a" || p.runs[1] != "b" {
			t.Errorf("pass %s: expected runs on [a b], got %v", p.name, p.runs)
		}
	}
}

func TestRunnerWithoutPasses(t *testing.T) {
	mod := parseModule(t, `func @a(%x : $T) [ossa] {
bb0:
  destroy_value %x
  return
}
`)
	if inv := NewRunner().Run(mod); inv != InvalidateNothing {
		t.Errorf("expected InvalidateNothing, got %v", inv)
	}
}

func TestRunnerLogsChangedFunctions(t *testing.T) {
	mod := parseModule(t, `func @a(%x : $T) [ossa] {
bb0:
  destroy_value %x
  return
}
`)
	logger := logtest.New()
	logger.SetLevel(logging.Debug)
	p := &countingPass{name: "rewrite", inv: InvalidateInstructions}
	NewRunner().WithPasses(p).WithLogger(logger).Run(mod)

	entries := logger.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %v", entries)
	}
	if entries[0].Level != logging.Debug {
		t.Errorf("expected a debug entry, got level %v", entries[0].Level)
	}
	if !strings.Contains(entries[0].Message, "rewrite") || !strings.Contains(entries[0].Message, "a") {
		t.Errorf("expected the pass and function name in %q", entries[0].Message)
	}
}

func TestRunnerRecordsPassTimings(t *testing.T) {
	mod := parseModule(t, `func @a(%x : $T) [ossa] {
bb0:
  destroy_value %x
  return
}
`)
	m := metrics.New()
	p := &countingPass{name: "noop", inv: InvalidateNothing}
	NewRunner().WithPasses(p).WithMetrics(m).Run(mod)

	key := "timer_" + metrics.PassRun + "_noop_ns"
	if _, ok := m.All()[key]; !ok {
		t.Errorf("expected timing metric %q, got %v", key, m.All())
	}
}
