// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/oir-project/oir/v1/metrics"
)

func BenchmarkMetricsMarshaling(b *testing.B) {
	m := metrics.New()

	// Setup a handful of metrics across each type.
	for i := 0; i < 10; i++ {
		m.Timer(fmt.Sprintf("pass_timer_example_%d", i)).Start()
	}
	time.Sleep(1 * time.Millisecond)
	for i := 0; i < 10; i++ {
		m.Timer(fmt.Sprintf("pass_timer_example_%d", i)).Stop()
	}

	for i := 0; i < 10; i++ {
		m.Counter(fmt.Sprintf("pass_counter_example_%d", i)).Add(uint64(i))
	}

	for i := 0; i < 10; i++ {
		for j := 0; j < 100; j++ {
			m.Histogram(fmt.Sprintf("pass_histogram_example_%d", i)).Update(int64(i + j))
		}
	}

	for i := 0; i < b.N; i++ {
		bs, err := json.Marshal(m)
		if err != nil {
			b.Fatalf("Unexpected error: %v", err)
		}
		if len(bs) == 0 {
			b.Fatalf("No output")
		}
	}
}

func BenchmarkMetricsTimerStartStopRestart(b *testing.B) {
	m := metrics.New()

	for i := 0; i < b.N; i++ {
		m.Timer("foo").Start()
		_ = m.Timer("foo").Stop()
		_ = m.Timer("foo").Stop() // Second stop to exercise the sync guard.
		m.Timer("foo").Start()
		_ = m.Timer("foo").Stop()
	}
}
