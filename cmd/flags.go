// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/pflag"
)

func addConfigFileFlag(fs *pflag.FlagSet, file *string) {
	fs.StringVarP(file, "config-file", "c", "", "set path of configuration file")
}

func addOutputFlag(fs *pflag.FlagSet, output *string) {
	fs.StringVarP(output, "output", "o", "", "set output file path (default stdout)")
}

func addStatsFlag(fs *pflag.FlagSet, stats *bool) {
	fs.BoolVar(stats, "stats", false, "report pass statistics")
}

func addLogLevelFlag(fs *pflag.FlagSet, level *string) {
	fs.StringVar(level, "log-level", "", "set log level {debug, info, warn, error}")
}

func addLogFormatFlag(fs *pflag.FlagSet, format *string) {
	fs.StringVar(format, "log-format", "", "set log format {text, json}")
}
