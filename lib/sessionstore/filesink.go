// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/tracer/lib/session"
)

// FileSink writes one JSON artifact per session into a directory.
// Safe for concurrent use by multiple sessions.
type FileSink struct {
	directory string
	archive   Archive
	logger    *slog.Logger

	mutex    sync.Mutex
	sessions map[string]*session.Session
}

// FileSinkOptions configures a FileSink.
type FileSinkOptions struct {
	// Archive selects compression for finished artifacts. The zero
	// value keeps plain JSON.
	Archive Archive

	// Logger receives archive outcomes. Nil discards.
	Logger *slog.Logger
}

// NewFileSink creates the sessions directory if needed and returns a
// sink writing into it.
func NewFileSink(directory string, options FileSinkOptions) (*FileSink, error) {
	if directory == "" {
		return nil, fmt.Errorf("sessions directory is required")
	}
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	archive := options.Archive
	if archive == "" {
		archive = ArchiveNone
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSink{
		directory: directory,
		archive:   archive,
		logger:    logger,
		sessions:  make(map[string]*session.Session),
	}, nil
}

// Directory returns the sessions directory.
func (sink *FileSink) Directory() string {
	return sink.directory
}

// Path returns the plain artifact path for a session id.
func (sink *FileSink) Path(sessionID string) string {
	return filepath.Join(sink.directory, sessionID+".json")
}

// Begin starts tracking a session and writes its initial artifact.
func (sink *FileSink) Begin(current session.Session) error {
	tracked := current
	tracked.Interactions = append([]session.Interaction(nil), current.Interactions...)

	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	if _, exists := sink.sessions[current.ID]; exists {
		return fmt.Errorf("%w: %s", session.ErrSessionExists, current.ID)
	}
	sink.sessions[current.ID] = &tracked
	return sink.writeLocked(&tracked)
}

// Append adds an interaction to a tracked session and rewrites its
// artifact in full.
func (sink *FileSink) Append(sessionID string, interaction session.Interaction) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	tracked, exists := sink.sessions[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", session.ErrUnknownSession, sessionID)
	}
	if err := tracked.Append(interaction); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return sink.writeLocked(tracked)
}

// Finish writes the finalized session and, when configured, replaces
// the plain artifact with a compressed one. The finalized session is
// authoritative: interactions whose Append failed are written here.
func (sink *FileSink) Finish(final session.Session) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	delete(sink.sessions, final.ID)

	data, err := marshalArtifact(&final)
	if err != nil {
		return err
	}
	plainPath := sink.Path(final.ID)
	if err := writeAtomic(plainPath, data); err != nil {
		return fmt.Errorf("writing session %s: %w", final.ID, err)
	}
	if sink.archive == ArchiveNone {
		return nil
	}

	compressed, err := compress(data, sink.archive)
	if err != nil {
		return fmt.Errorf("archiving session %s: %w", final.ID, err)
	}
	archivePath := plainPath + sink.archive.Extension()
	if err := writeAtomic(archivePath, compressed); err != nil {
		return fmt.Errorf("archiving session %s: %w", final.ID, err)
	}
	if err := os.Remove(plainPath); err != nil {
		return fmt.Errorf("removing archived plain artifact: %w", err)
	}
	sink.logger.Debug("session archived",
		"session_id", final.ID,
		"format", string(sink.archive),
		"plain_bytes", len(data),
		"archived_bytes", len(compressed),
	)
	return nil
}

func (sink *FileSink) writeLocked(tracked *session.Session) error {
	data, err := marshalArtifact(tracked)
	if err != nil {
		return err
	}
	if err := writeAtomic(sink.Path(tracked.ID), data); err != nil {
		return fmt.Errorf("writing session %s: %w", tracked.ID, err)
	}
	return nil
}

func marshalArtifact(current *session.Session) ([]byte, error) {
	data, err := json.MarshalIndent(current.Artifact(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling session %s: %w", current.ID, err)
	}
	return append(data, '\n'), nil
}
