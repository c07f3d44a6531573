// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "time"

// Artifact is the persisted JSON form of a session. Field names match
// the artifacts written by earlier tracer versions so existing session
// directories stay readable.
type Artifact struct {
	ID                string        `json:"id"`
	SessionID         string        `json:"session_id"`
	ProjectPath       string        `json:"project_path"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           *time.Time    `json:"end_time"`
	Status            Status        `json:"status"`
	Metadata          Metadata      `json:"metadata"`
	Interactions      []Interaction `json:"interactions"`
	TotalInteractions int           `json:"total_interactions"`
}

// Artifact converts the session to its persisted form. The end time is
// null until the session is finalized.
func (session *Session) Artifact() Artifact {
	snapshot := session.Snapshot()
	artifact := Artifact{
		ID:                snapshot.ID,
		SessionID:         snapshot.ID,
		ProjectPath:       snapshot.ProjectPath,
		StartTime:         snapshot.Start,
		Status:            snapshot.Status,
		Metadata:          snapshot.Metadata,
		Interactions:      snapshot.Interactions,
		TotalInteractions: len(snapshot.Interactions),
	}
	if !snapshot.End.IsZero() {
		end := snapshot.End
		artifact.EndTime = &end
	}
	return artifact
}

// Session converts a loaded artifact back into a Session.
func (artifact Artifact) Session() *Session {
	id := artifact.SessionID
	if id == "" {
		id = artifact.ID
	}
	restored := &Session{
		ID:           id,
		ProjectPath:  artifact.ProjectPath,
		Start:        artifact.StartTime,
		Status:       artifact.Status,
		Metadata:     artifact.Metadata,
		Interactions: artifact.Interactions,
	}
	if artifact.EndTime != nil {
		restored.End = *artifact.EndTime
	}
	if restored.Status == "" {
		restored.Status = StatusActive
	}
	return restored
}
