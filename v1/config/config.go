// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config implements OIR configuration file parsing and validation.
package config

import (
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// knownPasses are the pass names accepted in a pipeline.
var knownPasses = []string{"temp-buffer-elim"}

// Config represents the configuration file that the oir CLI can be started
// with.
type Config struct {
	// Logging controls the CLI's log output.
	Logging LoggingConfig `yaml:"logging"`

	// Passes is the pipeline, in execution order. Empty means the default
	// pipeline.
	Passes []string `yaml:"passes"`

	// Stats enables metric collection and reporting.
	Stats bool `yaml:"stats"`
}

// LoggingConfig represents the logging options.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ParseConfig parses and validates a configuration document.
func ParseConfig(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses the configuration file at path. An empty path
// yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		c := Default()
		return &c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read")
	}
	return ParseConfig(raw)
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "error", Format: "text"},
		Passes:  []string{"temp-buffer-elim"},
	}
}

func (c *Config) validate() error {
	def := Default()
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if len(c.Passes) == 0 {
		c.Passes = def.Passes
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("config: invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.Errorf("config: invalid logging format %q", c.Logging.Format)
	}
	for _, name := range c.Passes {
		if !slices.Contains(knownPasses, name) {
			return errors.Errorf("config: unknown pass %q", name)
		}
	}
	return nil
}
