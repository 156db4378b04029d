// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oir-project/oir/internal/debug"
	"github.com/oir-project/oir/internal/parser"
	"github.com/oir-project/oir/v1/config"
	"github.com/oir-project/oir/v1/ir"
	"github.com/oir-project/oir/v1/logging"
	"github.com/oir-project/oir/v1/metrics"
	"github.com/oir-project/oir/v1/passes"
	"github.com/oir-project/oir/v1/passes/temprvalue"
)

type optParams struct {
	configFile string
	output     string
	stats      bool
	logLevel   string
	logFormat  string
}

func init() {
	var params optParams

	optCommand := &cobra.Command{
		Use:   "opt [file]",
		Short: "Optimize a textual IR module",
		Long: `Optimize a textual IR module.

Parses the module, runs the configured pass pipeline on every function, and
prints the optimized module. Reads from stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runOpt(&params, args, os.Stdout)
		},
	}

	addConfigFileFlag(optCommand.Flags(), &params.configFile)
	addOutputFlag(optCommand.Flags(), &params.output)
	addStatsFlag(optCommand.Flags(), &params.stats)
	addLogLevelFlag(optCommand.Flags(), &params.logLevel)
	addLogFormatFlag(optCommand.Flags(), &params.logFormat)
	RootCommand.AddCommand(optCommand)
}

func runOpt(params *optParams, args []string, out io.Writer) error {
	conf, err := config.Load(params.configFile)
	if err != nil {
		return err
	}
	if params.logLevel != "" {
		conf.Logging.Level = params.logLevel
	}
	if params.logFormat != "" {
		conf.Logging.Format = params.logFormat
	}
	if params.stats {
		conf.Stats = true
	}

	logger, err := setupLogging(conf.Logging)
	if err != nil {
		return err
	}

	m := metrics.NoOp()
	if conf.Stats {
		m = metrics.New()
	}

	mod, err := parseInput(args, m)
	if err != nil {
		return err
	}

	pipeline, err := buildPipeline(conf, logger, m)
	if err != nil {
		return err
	}

	passes.NewRunner().
		WithLogger(logger).
		WithMetrics(m).
		WithPasses(pipeline...).
		Run(mod)

	if params.output != "" {
		f, err := os.Create(params.output)
		if err != nil {
			return errors.Wrap(err, "opt: create output")
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, mod.String())

	if conf.Stats {
		renderStats(os.Stderr, m)
	}
	return nil
}

func parseInput(args []string, m metrics.Metrics) (*ir.Module, error) {
	var src []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}

	timer := m.Timer(metrics.IRParse)
	timer.Start()
	mod, err := parser.Parse(string(src))
	timer.Stop()
	return mod, err
}

func buildPipeline(conf *config.Config, logger logging.Logger, m metrics.Metrics) ([]passes.FunctionPass, error) {
	dbg := debug.Discard()
	if conf.Logging.Level == "debug" {
		dbg = debug.New(os.Stderr)
	}

	pipeline := make([]passes.FunctionPass, 0, len(conf.Passes))
	for _, name := range conf.Passes {
		switch name {
		case "temp-buffer-elim":
			pipeline = append(pipeline, temprvalue.New().
				WithLogger(logger).
				WithMetrics(m).
				WithDebug(dbg))
		default:
			return nil, errors.Errorf("unknown pass %q", name)
		}
	}
	return pipeline, nil
}

func setupLogging(conf config.LoggingConfig) (logging.Logger, error) {
	logger := logging.New()
	switch conf.Level {
	case "debug":
		logger.SetLevel(logging.Debug)
	case "info":
		logger.SetLevel(logging.Info)
	case "warn":
		logger.SetLevel(logging.Warn)
	case "error":
		logger.SetLevel(logging.Error)
	default:
		return nil, errors.Errorf("invalid log level %q", conf.Level)
	}
	if conf.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetOutput(os.Stderr)
	return logger, nil
}

func renderStats(w io.Writer, m metrics.Metrics) {
	all := m.All()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", all[k])})
	}
	table.Render()
}
