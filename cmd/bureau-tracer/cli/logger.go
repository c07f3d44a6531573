// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr for command
// operations. When stderr is a terminal it uses slog.TextHandler for
// human-readable output; when stderr is piped or redirected it uses
// slog.JSONHandler so the lines can be parsed.
//
// level is one of debug, info, warn, or error.
func NewCommandLogger(level string) (*slog.Logger, error) {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

// NewFileLogger creates a JSON logger writing to w. Capture debug logs
// use it: the operator's terminal belongs to the monitored program
// while a capture runs.
func NewFileLogger(w io.Writer, level string) (*slog.Logger, error) {
	return newLogger(w, false, level)
}

func newLogger(w io.Writer, text bool, level string) (*slog.Logger, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return nil, Validation("invalid log level %q: must be debug, info, warn, or error", level)
	}
	options := &slog.HandlerOptions{Level: parsed}
	if text {
		return slog.New(slog.NewTextHandler(w, options)), nil
	}
	return slog.New(slog.NewJSONHandler(w, options)), nil
}
