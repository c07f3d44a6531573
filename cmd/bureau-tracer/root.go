// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
)

// root builds the command tree. With no subcommand, bureau-tracer
// records a session.
func root() *cli.Command {
	return newRoot(standardStreams())
}

func newRoot(stdio streams) *cli.Command {
	run := runCommand(stdio)
	return &cli.Command{
		Name:        "bureau-tracer",
		Summary:     "Record and inspect conversations with an interactive terminal program",
		Description: "Record and inspect conversations with an interactive terminal program.\n\nWith no command, bureau-tracer runs \"run\".",
		Usage:       "bureau-tracer [command] [flags] [-- program-args...]",
		Flags:       run.Flags,
		Run:         run.Run,
		HelpOutput:  stdio.stderr,
		Subcommands: []*cli.Command{
			run,
			sessionsCommand(stdio),
			patternsCommand(stdio),
			keygenCommand(stdio),
			versionCommand(stdio),
		},
	}
}
