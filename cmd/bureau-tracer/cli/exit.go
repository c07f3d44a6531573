// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output; "patterns scan" uses it to report that the scanned text
// needs review.
type ExitError struct {
	Code int
}

// Error is empty so that process.Fatal prints nothing.
func (e *ExitError) Error() string {
	return ""
}

// String describes the error for logs.
func (e *ExitError) String() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
