// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package debug provides the sink for optional pass trace output.
package debug

import (
	"io"
	"log"
)

// Debug allows passes to emit verbose trace messages.
type Debug interface {
	Printf(format string, args ...interface{})
}

// New returns a debug sink writing to w.
func New(w io.Writer) Debug {
	return log.New(w, "", log.LstdFlags)
}

// Discard returns a debug sink that drops all messages.
func Discard() Debug {
	return discard{}
}

type discard struct{}

func (discard) Printf(string, ...interface{}) {}
