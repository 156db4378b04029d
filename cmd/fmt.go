// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/oir-project/oir/internal/parser"
)

func init() {
	fmtCommand := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Format a textual IR module",
		Long:  "Parse a textual IR module and reprint it in canonical form. Reads from stdin when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runFmt(args, os.Stdout)
		},
	}
	RootCommand.AddCommand(fmtCommand)
}

func runFmt(args []string, out io.Writer) error {
	var src []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	mod, err := parser.Parse(string(src))
	if err != nil {
		return err
	}
	fmt.Fprint(out, mod.String())
	return nil
}
