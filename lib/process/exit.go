// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry a process exit code.
type exitCoder interface {
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits. The exit code comes
// from the first error in the chain that has an ExitCode method, or 1.
// An error whose message is empty (an exit code with nothing to say)
// prints nothing.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err to w and returns the exit code Fatal would use.
func report(w io.Writer, err error) int {
	code := 1
	var coder exitCoder
	if errors.As(err, &coder) {
		code = coder.ExitCode()
	}
	if message := err.Error(); message != "" {
		// "\r\n" so the line starts at column 0 even if the terminal
		// was left in raw mode.
		fmt.Fprintf(w, "error: %s\r\n", message)
	}
	return code
}
