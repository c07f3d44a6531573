// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"io/fs"
	"testing"
)

func TestToolErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *ToolError
		category ErrorCategory
		exitCode int
	}{
		{"validation", Validation("bad %s", "input"), CategoryValidation, 2},
		{"not_found", NotFound("no session %s", "pty-1"), CategoryNotFound, 3},
		{"forbidden", Forbidden("sealed"), CategoryForbidden, 4},
		{"conflict", Conflict("already recording"), CategoryConflict, 5},
		{"transient", Transient("database locked"), CategoryTransient, 75},
		{"internal", Internal("disk full"), CategoryInternal, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.err.Category != test.category {
				t.Errorf("Category = %q, want %q", test.err.Category, test.category)
			}
			if got := test.err.ExitCode(); got != test.exitCode {
				t.Errorf("ExitCode() = %d, want %d", got, test.exitCode)
			}
		})
	}
}

func TestToolErrorMessage(t *testing.T) {
	err := NotFound("no session matches %q", "pty-9")
	if got := err.Error(); got != `no session matches "pty-9"` {
		t.Errorf("Error() = %q", got)
	}

	err.WithHint("Run 'bureau-tracer sessions list' to see recorded sessions.")
	want := "no session matches \"pty-9\"\n\nRun 'bureau-tracer sessions list' to see recorded sessions."
	if got := err.Error(); got != want {
		t.Errorf("Error() with hint = %q, want %q", got, want)
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	err := Internal("reading artifact: %w", fs.ErrPermission)
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is should see through ToolError")
	}

	var wrapped error = err
	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("errors.As should find the ToolError")
	}
	if toolErr.Category != CategoryInternal {
		t.Errorf("Category = %q, want internal", toolErr.Category)
	}
}

func TestToolErrorUnknownCategoryExitsOne(t *testing.T) {
	err := &ToolError{Category: "mystery", Err: errors.New("x")}
	if got := err.ExitCode(); got != 1 {
		t.Errorf("ExitCode() = %d, want 1", got)
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}
	if err.Error() != "" {
		t.Errorf("Error() = %q, want empty", err.Error())
	}
	if err.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", err.ExitCode())
	}
	if err.String() != "exit code 3" {
		t.Errorf("String() = %q", err.String())
	}
}
