// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
	"github.com/bureau-foundation/tracer/lib/version"
)

func versionCommand(stdio streams) *cli.Command {
	var short bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "bureau-tracer version [--short]",
		Flags: func() *pflag.FlagSet {
			short = false
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&short, "short", false, "print only the version number")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer version [--short]"); err != nil {
				return err
			}
			if short {
				fmt.Fprintln(stdio.stdout, version.Short())
				return nil
			}
			fmt.Fprintf(stdio.stdout, "bureau-tracer %s\n", version.Full())
			return nil
		},
	}
}
