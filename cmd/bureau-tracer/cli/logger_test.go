// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewFileLoggerWritesJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := NewFileLogger(&buffer, "debug")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Debug("state transition", "from", "idle", "to", "capturing_input")

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buffer.String())
	}
	if record["msg"] != "state transition" || record["to"] != "capturing_input" {
		t.Errorf("record = %v", record)
	}
}

func TestNewFileLoggerHonorsLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := NewFileLogger(&buffer, "warn")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buffer.String(), "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(buffer.String(), "shown") {
		t.Error("warn record missing")
	}
}

func TestNewLoggerTextHandler(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := newLogger(&buffer, true, "info")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("session saved", "interactions", 3)
	if !strings.Contains(buffer.String(), "msg=\"session saved\" interactions=3") {
		t.Errorf("text output = %q", buffer.String())
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewFileLogger(&bytes.Buffer{}, "chatty")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Fatalf("error = %v, want a validation ToolError", err)
	}
}

func TestEmitJSON(t *testing.T) {
	var buffer bytes.Buffer
	output := JSONOutput{}
	if done, err := output.EmitJSON(&buffer, []string{"a"}); done || err != nil {
		t.Fatalf("EmitJSON without --json = (%v, %v), want (false, nil)", done, err)
	}

	output.OutputJSON = true
	var names []string
	done, err := output.EmitJSON(&buffer, names)
	if !done || err != nil {
		t.Fatalf("EmitJSON = (%v, %v), want (true, nil)", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("nil slice encoded as %q, want []", buffer.String())
	}
}
