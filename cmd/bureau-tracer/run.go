// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tracer/capture"
	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
	"github.com/bureau-foundation/tracer/lib/config"
	"github.com/bureau-foundation/tracer/lib/ptyio"
	"github.com/bureau-foundation/tracer/lib/sealed"
	"github.com/bureau-foundation/tracer/lib/session"
	"github.com/bureau-foundation/tracer/lib/sessionindex"
	"github.com/bureau-foundation/tracer/lib/sessionstore"
)

type runFlags struct {
	commonFlags
	command string
	mode    string
	debug   bool
}

func runCommand(stdio streams) *cli.Command {
	var flags runFlags
	return &cli.Command{
		Name:    "run",
		Summary: "Record a session (the default command)",
		Description: `Run the program on a pseudo-terminal and record each prompt and
response as a masked interaction.

The program owns the terminal while it runs. Ctrl-D on an empty line,
the program exiting, or SIGTERM ends the session. Arguments after "--"
are passed to the program.`,
		Usage: "bureau-tracer run [flags] [-- program-args...]",
		Examples: []cli.Example{
			{Description: "Record a Claude session with the configured defaults", Command: "bureau-tracer"},
			{Description: "Record with a debug log and raw transcript", Command: "bureau-tracer run --debug"},
			{Description: "Pass arguments to the program", Command: "bureau-tracer run -- --model opus"},
		},
		Flags: func() *pflag.FlagSet {
			flags = runFlags{}
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flags.bind(flagSet)
			flagSet.StringVar(&flags.command, "command", "", "program to run (default: capture.command)")
			flagSet.StringVar(&flags.mode, "mode", "", "privacy mode: minimal, moderate, or strict (default: privacy.mode)")
			flagSet.BoolVar(&flags.debug, "debug", false, "write a debug log and raw transcript next to the session")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if flags.command != "" {
				cfg.Capture.Command = flags.command
			}
			if flags.mode != "" {
				cfg.Privacy.Mode = flags.mode
			}
			if flags.debug {
				cfg.Capture.Debug = true
			}
			if err := cfg.Validate(); err != nil {
				return cli.Validation("invalid configuration:\n%w", err)
			}
			logger, err := cli.NewCommandLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			return record(ctx, cfg, args, stdio, logger)
		},
	}
}

// record runs one capture to completion. Everything that can fail is
// set up before the program starts, because once it does the operator
// terminal belongs to the program and nothing may be logged to it.
func record(ctx context.Context, cfg *config.Config, args []string, stdio streams, logger *slog.Logger) error {
	if err := cfg.EnsurePaths(); err != nil {
		return cli.Internal("%w", err)
	}
	timing, err := cfg.Capture.Timing()
	if err != nil {
		return cli.Validation("%w", err)
	}
	engine, err := newEngine(cfg.Privacy, logger)
	if err != nil {
		return err
	}

	var sealer *sealed.Sealer
	if len(cfg.Storage.SealRecipients) > 0 {
		sealer, err = sealed.NewSealer(cfg.Storage.SealRecipients)
		if err != nil {
			return cli.Validation("storage.seal_recipients: %w", err)
		}
	}
	archive, err := sessionstore.ParseArchive(cfg.Storage.Archive)
	if err != nil {
		return cli.Validation("storage.archive: %w", err)
	}

	// The sink logger runs during the capture: it must stay off the
	// terminal, so it shares the per-session debug log or discards.
	var captureLogger *slog.Logger
	id := session.NewID(time.Now())
	var transcript *capture.Transcript
	if cfg.Capture.Debug {
		debugPath := filepath.Join(cfg.Paths.Sessions, "debug-"+id+".log")
		debugFile, err := os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return cli.Internal("opening debug log: %w", err)
		}
		defer closeLogged(logger, "debug log", debugFile)
		captureLogger, err = cli.NewFileLogger(debugFile, "debug")
		if err != nil {
			return err
		}
		transcript = capture.NewTranscript(0)
	}

	fileSink, err := sessionstore.NewFileSink(cfg.Paths.Sessions, sessionstore.FileSinkOptions{
		Archive: archive,
		Logger:  captureLogger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	sinks := session.MultiSink{fileSink}
	if cfg.Storage.Index {
		index, err := sessionindex.Open(sessionindex.Config{Path: cfg.Storage.IndexPath, Logger: captureLogger})
		if err != nil {
			// The artifact is authoritative; the index can be rebuilt
			// with "sessions reindex".
			logger.Warn("session index unavailable; recording to files only", "path", cfg.Storage.IndexPath, "error", err)
		} else {
			defer closeLogged(logger, "session index", index)
			sinks = append(sinks, index)
		}
	}

	manager, err := capture.NewManager(capture.Config{
		Engine:          engine,
		Sink:            sinks,
		Detector:        capture.PromptMarker{Marker: cfg.Capture.PromptMarker},
		PollInterval:    timing.PollInterval,
		TeardownTimeout: timing.TeardownTimeout,
		MaxDuration:     timing.MaxDuration,
		KeepRaw:         cfg.Storage.KeepRaw,
		Sealer:          sealer,
		Debug:           cfg.Capture.Debug,
		Logger:          captureLogger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}

	fmt.Fprintf(stdio.stderr, "bureau-tracer: recording %s as %s (privacy %s)\r\n", cfg.Capture.Command, id, engine.Mode())

	running, err := manager.Start(ctx, capture.Request{
		ID:         id,
		Platform:   ptyio.NewTerminal(stdio.input, stdio.screen),
		Command:    cfg.Capture.Command,
		Args:       args,
		Transcript: transcript,
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionExists) {
			return cli.Conflict("%w", err)
		}
		return cli.Internal("%w", err)
	}
	final, err := running.Result()
	if err != nil {
		if final.ID == "" && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)) {
			return cli.NotFound("%w", err).WithHint("Set capture.command or pass --command with a program on PATH.")
		}
		return cli.Internal("%w", err)
	}

	if transcript != nil {
		transcriptPath := filepath.Join(cfg.Paths.Sessions, "debug-"+id+".raw")
		if err := transcript.WriteFile(transcriptPath); err != nil {
			logger.Warn("writing transcript failed", "path", transcriptPath, "error", err)
		}
	}

	fmt.Fprintf(stdio.stderr, "bureau-tracer: session %s %s with %s\n",
		final.ID, final.Status, plural(len(final.Interactions), "interaction"))
	fmt.Fprintf(stdio.stderr, "bureau-tracer: saved to %s\n", fileSink.Directory())
	return nil
}
