// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package temprvalue eliminates short-lived immutable temporary buffers.
//
// Front-end lowering materializes stack temporaries to hold a value while
// it is copied or stored from some original location, then immediately
// reads and destroys the buffer:
//
//	%temp = alloc_stack $T
//	copy_addr %src to [init] %temp
//	// no writes to %src or %temp
//	destroy_addr %temp
//	dealloc_stack %temp
//
// The pass proves the source is unmodified during the buffer's lifetime
// and retargets every use of the buffer to the source, erasing the buffer.
// A second variant handles stores into temporaries, a simple form of
// redundant-load elimination:
//
//	%temp = alloc_stack $T
//	store %src to [init] %temp
//	%v = load [take] %temp
//	dealloc_stack %temp
package temprvalue

import (
	"github.com/oir-project/oir/internal/debug"
	"github.com/oir-project/oir/internal/lifetime"
	"github.com/oir-project/oir/internal/simplify"
	"github.com/oir-project/oir/v1/analysis"
	"github.com/oir-project/oir/v1/ir"
	"github.com/oir-project/oir/v1/logging"
	"github.com/oir-project/oir/v1/metrics"
	"github.com/oir-project/oir/v1/passes"
)

// Pass is the temporary-buffer elimination pass. Construct with New and
// configure with the With* methods before running.
type Pass struct {
	aa      analysis.AliasAnalysis
	logger  logging.Logger
	metrics metrics.Metrics
	debug   debug.Debug
}

// New returns the pass with the built-in alias analysis and no-op
// observability sinks.
func New() *Pass {
	return &Pass{
		aa:      analysis.New(),
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.NoOp(),
		debug:   debug.Discard(),
	}
}

// WithAliasAnalysis overrides the alias oracle.
func (p *Pass) WithAliasAnalysis(aa analysis.AliasAnalysis) *Pass {
	if aa != nil {
		p.aa = aa
	}
	return p
}

// WithLogger sets the logger.
func (p *Pass) WithLogger(logger logging.Logger) *Pass {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithMetrics sets the metrics sink.
func (p *Pass) WithMetrics(m metrics.Metrics) *Pass {
	if m != nil {
		p.metrics = m
	}
	return p
}

// WithDebug sets the sink for verbose trace output.
func (p *Pass) WithDebug(d debug.Debug) *Pass {
	if d != nil {
		p.debug = d
	}
	return p
}

// Name returns the pass name.
func (p *Pass) Name() string { return "temp-buffer-elim" }

// optimizer holds the per-run state of one Run invocation.
type optimizer struct {
	fn      *ir.Function
	aa      analysis.AliasAnalysis
	logger  logging.Logger
	metrics metrics.Metrics
	debug   debug.Debug

	changed bool

	// deadCopies are identity copies (same source and destination) which
	// either directly result from a successful copy elimination or were
	// created by an earlier iteration, where another copy_addr copied the
	// temporary back to the source location. They are erased in cleanup.
	deadCopies []*ir.Instruction

	// valuesToComplete are stored values of eliminated store-site buffers
	// whose type is or contains a tagged union. Buffer elimination converts
	// their address lifetime to value form, which can leave the lifetime
	// incomplete on paths that never destroyed the buffer.
	valuesToComplete []*ir.Value
}

// Run applies the pass to f.
func (p *Pass) Run(f *ir.Function) passes.Invalidation {
	o := &optimizer{
		fn:      f,
		aa:      p.aa,
		logger:  p.logger,
		metrics: p.metrics,
		debug:   p.debug,
	}

	o.debug.Printf("copy peephole in func %s", f.Name())

	for _, block := range f.Blocks() {
		// Advance the cursor only after an elimination attempt: a successful
		// attempt may delete instructions after the current one, but never
		// the current one itself.
		for in := block.First(); in != nil; {
			switch in.Op() {
			case ir.CopyAddr:
				o.tryEliminateCopyIntoTemp(in)
				if in.Src() == in.Dest() {
					o.deadCopies = append(o.deadCopies, in)
				}
				in = in.Next()
			case ir.Store:
				stored := in.Src()
				isOrHasUnion := stored.Type().IsOrHasUnion()
				next, eliminated := o.tryEliminateStoreIntoTemp(in)
				if eliminated && isOrHasUnion {
					o.valuesToComplete = append(o.valuesToComplete, stored)
				}
				in = next
			default:
				in = in.Next()
			}
		}
	}

	o.cleanup()

	if !o.changed {
		return passes.InvalidateNothing
	}
	return passes.InvalidateInstructions
}

// cleanup erases the identity copies left behind by the per-site
// rewrites, simplifies anything that died with them, and completes the
// lifetimes of union-typed stored values.
func (o *optimizer) cleanup() {
	if len(o.deadCopies) > 0 {
		deadEnds := simplify.NewDeadEndBlocks(o.fn)
		// The simplifier can erase instructions still queued here when it
		// drops a dead-end user tree; track its erasures to keep the queue
		// in sync.
		erased := map[*ir.Instruction]bool{}
		onDelete := func(in *ir.Instruction) { erased[in] = true }
		for _, deadCopy := range o.deadCopies {
			if erased[deadCopy] {
				continue
			}
			srcDef := deadCopy.Src().Def()
			deadCopy.Erase()
			o.metrics.Counter(metrics.TempBufferIdentityCopy).Incr()
			// Simplify any access scope markers that were only used by the
			// dead copy and other now-unused addresses.
			if srcDef != nil {
				simplify.EraseIfDead(srcDef, deadEnds, onDelete)
			}
		}
		o.changed = true
	}

	if len(o.valuesToComplete) > 0 {
		dom := analysis.NewDomTree(o.fn)
		for _, v := range o.valuesToComplete {
			lifetime.Complete(o.fn, dom, v, lifetime.LivenessBoundary)
		}
	}
}
