// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
	"github.com/bureau-foundation/tracer/lib/redact"
)

func patternsCommand(stdio streams) *cli.Command {
	return &cli.Command{
		Name:    "patterns",
		Summary: "Inspect and test the redaction patterns",
		Subcommands: []*cli.Command{
			patternsListCommand(stdio),
			patternsScanCommand(stdio),
		},
	}
}

// patternFlags select the engine the pattern commands use: the
// configured one, optionally at a different mode.
type patternFlags struct {
	commonFlags
	mode string
}

func (flags *patternFlags) bind(flagSet *pflag.FlagSet) {
	flags.commonFlags.bind(flagSet)
	flagSet.StringVar(&flags.mode, "mode", "", "privacy mode: minimal, moderate, or strict (default: privacy.mode)")
}

func (flags *patternFlags) engine() (*redact.Engine, error) {
	cfg, logger, err := flags.setup()
	if err != nil {
		return nil, err
	}
	if flags.mode != "" {
		cfg.Privacy.Mode = flags.mode
	}
	return newEngine(cfg.Privacy, logger)
}

func patternsListCommand(stdio streams) *cli.Command {
	var flags patternFlags
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "list",
		Summary: "List registered patterns and whether the mode scans them",
		Usage:   "bureau-tracer patterns list [flags]",
		Flags: func() *pflag.FlagSet {
			flags, output = patternFlags{}, cli.JSONOutput{}
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.bind(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer patterns list [flags]"); err != nil {
				return err
			}
			engine, err := flags.engine()
			if err != nil {
				return err
			}
			summaries := engine.Patterns()
			if done, err := output.EmitJSON(stdio.stdout, summaries); done {
				return err
			}

			fmt.Fprintf(stdio.stdout, "mode %s\n\n", engine.Mode())
			writer := tabwriter.NewWriter(stdio.stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "NAME\tLEVEL\tSTATE\tDESCRIPTION")
			for _, summary := range summaries {
				state := "active"
				switch {
				case !summary.Enabled:
					state = "disabled"
				case !summary.Active:
					state = "off in mode"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", summary.Name, summary.Level, state, summary.Description)
			}
			return writer.Flush()
		},
	}
}

// scanResult is the JSON form of a scan.
type scanResult struct {
	Masked     string            `json:"masked"`
	Assessment redact.Assessment `json:"assessment"`
}

func patternsScanCommand(stdio streams) *cli.Command {
	var flags patternFlags
	var output cli.JSONOutput
	var check bool
	return &cli.Command{
		Name:    "scan",
		Summary: "Mask text from stdin or files and report its sensitivity",
		Description: `Mask text with the configured patterns, write the masked text to
stdout, and report what was found on stderr. With --check the exit code
is 1 when the text holds HIGH or MAXIMUM level content.`,
		Usage: "bureau-tracer patterns scan [flags] [file...]",
		Examples: []cli.Example{
			{Description: "Check a prompt before sharing it", Command: "pbpaste | bureau-tracer patterns scan --check"},
		},
		Flags: func() *pflag.FlagSet {
			flags, output, check = patternFlags{}, cli.JSONOutput{}, false
			flagSet := pflag.NewFlagSet("scan", pflag.ContinueOnError)
			flags.bind(flagSet)
			output.AddFlag(flagSet)
			flagSet.BoolVar(&check, "check", false, "exit 1 when the text needs review")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			engine, err := flags.engine()
			if err != nil {
				return err
			}
			text, err := readInputs(stdio.stdin, args)
			if err != nil {
				return err
			}

			masked, _ := engine.Mask(text)
			assessment := engine.Analyze(text)
			done, err := output.EmitJSON(stdio.stdout, scanResult{Masked: masked, Assessment: assessment})
			if err != nil {
				return err
			}
			if !done {
				if _, err := io.WriteString(stdio.stdout, masked); err != nil {
					return cli.Internal("writing masked text: %w", err)
				}
				if assessment.Matches == 0 {
					fmt.Fprintln(stdio.stderr, "level SAFE: nothing detected")
				} else {
					fmt.Fprintf(stdio.stderr, "level %s: %s (%s)\n", assessment.Level,
						strings.Join(assessment.Detected, ", "), plural(assessment.Matches, "match"))
				}
			}

			if check && assessment.RequiresApproval {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// readInputs concatenates the named files, or reads stdin when there
// are none.
func readInputs(stdin io.Reader, paths []string) (string, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", cli.Internal("reading stdin: %w", err)
		}
		return string(data), nil
	}
	var builder strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", cli.NotFound("%w", err)
			}
			return "", cli.Internal("%w", err)
		}
		builder.Write(data)
	}
	return builder.String(), nil
}
