// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
	"github.com/bureau-foundation/tracer/lib/config"
	"github.com/bureau-foundation/tracer/lib/redact"
	"github.com/bureau-foundation/tracer/lib/sessionindex"
	"github.com/bureau-foundation/tracer/lib/sessionview"
)

// streams are the files a command talks to. Captures run the program
// on input and screen; every other command reads stdin and writes
// stdout.
type streams struct {
	input  *os.File
	screen *os.File
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func standardStreams() streams {
	return streams{
		input:  os.Stdin,
		screen: os.Stdout,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// stdoutTerminal returns the width of stdout when it is a terminal.
func (s streams) stdoutTerminal() (width int, ok bool) {
	file, isFile := s.stdout.(*os.File)
	if !isFile || !term.IsTerminal(int(file.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

// printer returns a viewer printer for stdout, colored when stdout is
// a terminal.
func (s streams) printer() *sessionview.Printer {
	width, color := s.stdoutTerminal()
	return sessionview.NewPrinter(s.stdout, sessionview.Options{Color: color, Width: width})
}

// commonFlags are accepted by every command that reads configuration.
type commonFlags struct {
	configPath string
	logLevel   string
}

func (flags *commonFlags) bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&flags.configPath, "config", "", "config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, or error (default: from config)")
}

// load reads and validates the configuration. A config that fails
// validation is a usage error: nothing was attempted yet.
func (flags *commonFlags) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cli.NotFound("loading config: %w", err)
		}
		return nil, cli.Validation("loading config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// setup loads the configuration and builds the command logger.
func (flags *commonFlags) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.NewCommandLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newEngine builds the redaction engine from the privacy section:
// built-in patterns at the configured mode, then the custom pattern
// file, disabled names, and the allowlist. Bad custom records are
// logged and skipped; an unreadable pattern file is an error.
func newEngine(privacy config.PrivacyConfig, logger *slog.Logger) (*redact.Engine, error) {
	mode, err := redact.ParseMode(privacy.Mode)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	engine := redact.NewDefault(mode)

	if privacy.PatternsFile != "" {
		skipped, err := redact.LoadInto(engine, privacy.PatternsFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, cli.NotFound("loading patterns: %w", err)
			}
			return nil, cli.Validation("loading patterns: %w", err)
		}
		for _, skip := range skipped {
			logger.Warn("skipped custom pattern", "file", privacy.PatternsFile, "error", skip)
		}
	}
	for _, name := range privacy.DisabledPatterns {
		if err := engine.Disable(name); err != nil {
			return nil, cli.Validation("privacy.disabled_patterns: %w", err)
		}
	}
	for _, value := range privacy.Allowlist {
		engine.Allow(value)
	}
	return engine, nil
}

// openIndex opens the session index, or reports that indexing is off.
func openIndex(cfg *config.Config, logger *slog.Logger) (*sessionindex.Index, error) {
	if !cfg.Storage.Index {
		return nil, cli.Validation("the session index is disabled").
			WithHint("Set storage.index: true in the config, then run 'bureau-tracer sessions reindex'.")
	}
	index, err := sessionindex.Open(sessionindex.Config{Path: cfg.Storage.IndexPath, Logger: logger})
	if err != nil {
		return nil, cli.Transient("%w", err)
	}
	return index, nil
}

// requireArgs checks the positional argument count.
func requireArgs(args []string, want int, usage string) error {
	if len(args) != want {
		return cli.Validation("expected %d argument(s), got %d", want, len(args)).
			WithHint("Usage: " + usage)
	}
	return nil
}

// closeLogged closes c and logs a failure.
func closeLogged(logger *slog.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", "what", what, "error", err)
	}
}

// plural formats a count with its noun: "1 session", "2 sessions",
// "3 matches".
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "s") {
		return fmt.Sprintf("%d %ses", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
