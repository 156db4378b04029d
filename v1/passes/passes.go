// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package passes defines the function pass interface and the runner that
// applies a pipeline of passes to every function of a module.
package passes

import (
	"github.com/oir-project/oir/v1/ir"
	"github.com/oir-project/oir/v1/logging"
	"github.com/oir-project/oir/v1/metrics"
)

// Invalidation describes which derived analysis state a pass run made
// stale. Passes report the union of everything they changed.
type Invalidation uint32

const (
	// InvalidateNothing reports that the function was left unchanged.
	InvalidateNothing Invalidation = 0

	// InvalidateInstructions reports that instructions were added, removed,
	// or rewritten, while the block structure is intact.
	InvalidateInstructions Invalidation = 1 << iota

	// InvalidateAll reports arbitrary changes including the CFG.
	InvalidateAll Invalidation = ^Invalidation(0)
)

// FunctionPass is an optimization applied to one function at a time.
type FunctionPass interface {
	Name() string
	Run(f *ir.Function) Invalidation
}

// Runner applies a pass pipeline to a module.
type Runner struct {
	passes  []FunctionPass
	logger  logging.Logger
	metrics metrics.Metrics
}

// NewRunner returns a runner with no passes configured.
func NewRunner() *Runner {
	return &Runner{
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.NoOp(),
	}
}

// WithPasses sets the pipeline. Passes run in the given order on each
// function.
func (r *Runner) WithPasses(passes ...FunctionPass) *Runner {
	r.passes = passes
	return r
}

// WithLogger sets the logger used while running.
func (r *Runner) WithLogger(logger logging.Logger) *Runner {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithMetrics sets the metrics sink for per-pass timings.
func (r *Runner) WithMetrics(m metrics.Metrics) *Runner {
	if m != nil {
		r.metrics = m
	}
	return r
}

// Run applies the pipeline to every function in m and returns the union of
// the reported invalidations.
func (r *Runner) Run(m *ir.Module) Invalidation {
	var total Invalidation
	for _, f := range m.Funcs {
		for _, p := range r.passes {
			timer := r.metrics.Timer(metrics.PassRun + "_" + p.Name())
			timer.Start()
			inv := p.Run(f)
			timer.Stop()
			if inv != InvalidateNothing {
				r.logger.Debug("pass %v changed function %v", p.Name(), f.Name())
			}
			total |= inv
		}
	}
	return total
}
