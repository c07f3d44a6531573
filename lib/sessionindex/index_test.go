// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionindex

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/tracer/lib/session"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := Open(Config{Path: filepath.Join(t.TempDir(), "index.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := index.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return index
}

func interaction(sequence int, offset time.Duration, prompt, response string, detected ...string) session.Interaction {
	return session.Interaction{
		ID:          session.InteractionID(sequence),
		Sequence:    sequence,
		Timestamp:   testStart.Add(offset),
		UserPrompt:  prompt,
		Response:    response,
		MessageType: session.MessageTypeInteraction,
		RawUser:     "raw " + prompt,
		Detected:    detected,
	}
}

// record drives a full session through the index the way a capture does.
func record(t *testing.T, index *Index, id string, start time.Time, status session.Status, interactions ...session.Interaction) {
	t.Helper()
	current := session.New(id, "/work", start, session.Metadata{MonitorType: session.MonitorTypePTY, Command: "claude", Mode: "strict"})
	if err := index.Begin(current.Snapshot()); err != nil {
		t.Fatalf("Begin(%s): %v", id, err)
	}
	for _, entry := range interactions {
		if err := current.Append(entry); err != nil {
			t.Fatal(err)
		}
		if err := index.Append(id, entry); err != nil {
			t.Fatalf("Append(%s, %d): %v", id, entry.Sequence, err)
		}
	}
	if err := current.Finalize(status, start.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := index.Finish(current.Snapshot()); err != nil {
		t.Fatalf("Finish(%s): %v", id, err)
	}
}

func TestSearchNewestFirst(t *testing.T) {
	index := openTestIndex(t)
	record(t, index, "pty-a", testStart, session.StatusCompleted,
		interaction(0, time.Minute, "list files", "here are your files"),
		interaction(1, 2*time.Minute, "mail [EMAIL_REDACTED]", "sent", "EMAIL"),
	)
	record(t, index, "pty-b", testStart.Add(time.Hour), session.StatusTimeout,
		interaction(0, 3*time.Minute, "run tests", "all passed"),
	)

	records, err := index.Search(context.Background(), SearchFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var prompts []string
	for _, entry := range records {
		prompts = append(prompts, entry.UserPrompt)
	}
	if got := strings.Join(prompts, "|"); got != "run tests|mail [EMAIL_REDACTED]|list files" {
		t.Errorf("Search order = %s", got)
	}
	if records[1].Command != "claude" || records[1].SessionID != "pty-a" {
		t.Errorf("record context = %+v", records[1])
	}
	if strings.Join(records[1].Detected, ",") != "EMAIL" {
		t.Errorf("Detected = %v, want [EMAIL]", records[1].Detected)
	}
	if records[0].Detected != nil {
		t.Errorf("Detected for clean interaction = %v, want nil", records[0].Detected)
	}
	if !records[2].Timestamp.Equal(testStart.Add(time.Minute)) {
		t.Errorf("Timestamp = %v", records[2].Timestamp)
	}
}

func TestSearchFilters(t *testing.T) {
	index := openTestIndex(t)
	record(t, index, "pty-a", testStart, session.StatusCompleted,
		interaction(0, time.Minute, "list files", "here are your files"),
		interaction(1, 2*time.Minute, "explain 100% coverage", "it_means all"),
	)
	record(t, index, "pty-b", testStart, session.StatusCompleted,
		interaction(0, 3*time.Minute, "LIST processes", "ps output"),
	)

	tests := []struct {
		name   string
		filter SearchFilter
		want   int
	}{
		{"by session", SearchFilter{SessionID: "pty-a"}, 2},
		{"contains is case-insensitive", SearchFilter{Contains: "list"}, 2},
		{"contains matches response", SearchFilter{Contains: "ps out"}, 1},
		{"percent is literal", SearchFilter{Contains: "100%"}, 1},
		{"underscore is literal", SearchFilter{Contains: "t_m"}, 1},
		{"since", SearchFilter{Since: testStart.Add(150 * time.Second)}, 1},
		{"limit", SearchFilter{Limit: 2}, 2},
	}
	for _, test := range tests {
		records, err := index.Search(context.Background(), test.filter)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if len(records) != test.want {
			t.Errorf("%s: got %d records, want %d", test.name, len(records), test.want)
		}
	}
}

func TestRawTextIsNotIndexed(t *testing.T) {
	index := openTestIndex(t)
	record(t, index, "pty-a", testStart, session.StatusCompleted,
		interaction(0, time.Minute, "masked prompt", "masked response"),
	)
	records, err := index.Search(context.Background(), SearchFilter{Contains: "raw "})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("raw text found in index: %+v", records)
	}
}

func TestStats(t *testing.T) {
	index := openTestIndex(t)
	record(t, index, "pty-a", testStart, session.StatusCompleted,
		interaction(0, time.Minute, "a", "b", "EMAIL", "JWT"),
		interaction(1, 2*time.Minute, "c", "d", "EMAIL"),
		interaction(2, 3*time.Minute, "e", "f"),
	)
	record(t, index, "pty-b", testStart, session.StatusTimeout,
		interaction(0, 4*time.Minute, "g", "h", "PHONE_US"),
	)
	record(t, index, "pty-c", testStart, session.StatusCompleted)

	stats, err := index.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Sessions != 3 || stats.Interactions != 4 || stats.Redacted != 3 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.ByStatus["completed"] != 2 || stats.ByStatus["timeout"] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
	var patterns []string
	for _, pattern := range stats.Patterns {
		patterns = append(patterns, pattern.Name)
	}
	if got := strings.Join(patterns, ","); got != "EMAIL,JWT,PHONE_US" {
		t.Errorf("Patterns = %s, want EMAIL,JWT,PHONE_US", got)
	}
	if stats.Patterns[0].Count != 2 {
		t.Errorf("EMAIL count = %d, want 2", stats.Patterns[0].Count)
	}
}

func TestFinishIndexesMissedInteractions(t *testing.T) {
	index := openTestIndex(t)
	current := session.New("pty-a", "/work", testStart, session.Metadata{Command: "claude"})
	if err := index.Begin(current.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := current.Append(interaction(0, time.Minute, "never appended", "x")); err != nil {
		t.Fatal(err)
	}
	if err := current.Finalize(session.StatusError, testStart.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := index.Finish(current.Snapshot()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	records, err := index.Search(context.Background(), SearchFilter{SessionID: "pty-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].UserPrompt != "never appended" {
		t.Errorf("records = %+v", records)
	}
}

func TestAppendWithoutBeginFails(t *testing.T) {
	index := openTestIndex(t)
	if err := index.Append("pty-missing", interaction(0, 0, "x", "y")); err == nil {
		t.Error("Append for an unknown session should fail")
	}
}

func TestImportReplaces(t *testing.T) {
	index := openTestIndex(t)
	record(t, index, "pty-a", testStart, session.StatusCompleted,
		interaction(0, time.Minute, "old", "old"),
	)

	replacement := session.New("pty-a", "/work", testStart, session.Metadata{Command: "claude"})
	for sequence, prompt := range []string{"new one", "new two"} {
		if err := replacement.Append(interaction(sequence, time.Duration(sequence)*time.Minute, prompt, "r")); err != nil {
			t.Fatal(err)
		}
	}
	if err := replacement.Finalize(session.StatusCompleted, testStart.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	artifact := replacement.Artifact()
	if err := index.Import(context.Background(), &artifact); err != nil {
		t.Fatalf("Import: %v", err)
	}

	records, err := index.Search(context.Background(), SearchFilter{SessionID: "pty-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].UserPrompt != "new two" {
		t.Errorf("records after import = %+v", records)
	}
}
