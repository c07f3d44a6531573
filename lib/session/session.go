// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session defines the data model of a monitored session and
// the sink interfaces that persist it.
//
// A [Session] is created when a capture starts, grows by one
// [Interaction] per finalized turn, and is finalized exactly once with
// a terminal [Status] and end time. Interactions are immutable once
// appended; their sequence numbers start at 0 and increase by one.
//
// Session is not safe for concurrent mutation. Each capture loop owns
// its Session; other goroutines read it through [Session.Snapshot].
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusTimeout   Status = "timeout"
)

// Terminal reports whether status is a finalized state.
func (status Status) Terminal() bool {
	switch status {
	case StatusCompleted, StatusError, StatusTimeout:
		return true
	default:
		return false
	}
}

// MonitorTypePTY identifies sessions captured through a pseudo-terminal.
const MonitorTypePTY = "pty"

// MessageTypeInteraction is the message type of every recorded turn.
const MessageTypeInteraction = "interaction"

// Metadata records how a session was captured.
type Metadata struct {
	MonitorType string `json:"monitor_type"`
	Command     string `json:"command"`
	Debug       bool   `json:"debug,omitempty"`
	Mode        string `json:"privacy_mode,omitempty"`
}

// Interaction is one reconstructed user/assistant turn.
type Interaction struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence_number"`
	Timestamp time.Time `json:"timestamp"`

	// UserPrompt and Response hold masked text.
	UserPrompt string `json:"user_prompt"`
	Response   string `json:"claude_response"`

	MessageType string `json:"message_type"`

	// RawUser and RawAssistant hold the unmasked text, a sealed
	// envelope of it, or nothing when raw capture is disabled.
	RawUser      string `json:"raw_user,omitempty"`
	RawAssistant string `json:"raw_assistant,omitempty"`

	// Detected lists the names of patterns masked in either text.
	Detected []string `json:"detected_patterns,omitempty"`
}

// InteractionID formats the identifier of the interaction with the
// given sequence number.
func InteractionID(sequence int) string {
	return fmt.Sprintf("int-%d", sequence)
}

// ErrOutOfSequence is returned when an appended interaction does not
// carry the next sequence number.
var ErrOutOfSequence = errors.New("interaction out of sequence")

// ErrFinalized is returned when mutating a session that has already
// been finalized.
var ErrFinalized = errors.New("session already finalized")

// Session is one monitored run of a target program.
type Session struct {
	ID           string
	ProjectPath  string
	Start        time.Time
	End          time.Time
	Status       Status
	Metadata     Metadata
	Interactions []Interaction
}

// New creates an active session.
func New(id, projectPath string, start time.Time, metadata Metadata) *Session {
	return &Session{
		ID:          id,
		ProjectPath: projectPath,
		Start:       start,
		Status:      StatusActive,
		Metadata:    metadata,
	}
}

// NewID returns a session identifier of the form
// pty-YYYYMMDD-HHMMSS-xxxxxxxx. The random suffix keeps sessions
// started in the same second distinct.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "pty-" + now.Format("20060102-150405") + "-" + suffix
}

// NextSequence returns the sequence number the next interaction must
// carry.
func (session *Session) NextSequence() int {
	return len(session.Interactions)
}

// Append adds a finalized interaction.
func (session *Session) Append(interaction Interaction) error {
	if session.Status.Terminal() {
		return ErrFinalized
	}
	if interaction.Sequence != session.NextSequence() {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfSequence, interaction.Sequence, session.NextSequence())
	}
	session.Interactions = append(session.Interactions, interaction)
	return nil
}

// Finalize sets the terminal status and end time. Finalizing twice is
// an error and leaves the first result in place.
func (session *Session) Finalize(status Status, end time.Time) error {
	if session.Status.Terminal() {
		return ErrFinalized
	}
	if !status.Terminal() {
		return fmt.Errorf("finalize with non-terminal status %q", status)
	}
	session.Status = status
	session.End = end
	return nil
}

// Snapshot returns a copy that shares no mutable state with session.
func (session *Session) Snapshot() Session {
	copied := *session
	copied.Interactions = make([]Interaction, len(session.Interactions))
	for index, interaction := range session.Interactions {
		interaction.Detected = append([]string(nil), interaction.Detected...)
		copied.Interactions[index] = interaction
	}
	return copied
}
