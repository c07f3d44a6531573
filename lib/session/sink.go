// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

// InteractionSink durably records finished turns. A failed Append is
// reported to the caller, which logs it and keeps capturing; writes are
// never retried.
type InteractionSink interface {
	Append(sessionID string, interaction Interaction) error
}

// Sink is an InteractionSink that also observes session start and
// finalization.
type Sink interface {
	InteractionSink

	// Begin is called once, after the session is created and before
	// any interaction is appended.
	Begin(session Session) error

	// Finish is called once with the finalized session.
	Finish(session Session) error
}

// MultiSink fans every call out to each sink in order. A failing sink
// does not prevent later sinks from being called; all failures are
// joined into the returned error.
type MultiSink []Sink

func (sinks MultiSink) Begin(session Session) error {
	var errs []error
	for index, sink := range sinks {
		if err := sink.Begin(session); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", index, err))
		}
	}
	return errors.Join(errs...)
}

func (sinks MultiSink) Append(sessionID string, interaction Interaction) error {
	var errs []error
	for index, sink := range sinks {
		if err := sink.Append(sessionID, interaction); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", index, err))
		}
	}
	return errors.Join(errs...)
}

func (sinks MultiSink) Finish(session Session) error {
	var errs []error
	for index, sink := range sinks {
		if err := sink.Finish(session); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", index, err))
		}
	}
	return errors.Join(errs...)
}

// Discard is a Sink that records nothing.
var Discard Sink = discard{}

type discard struct{}

func (discard) Begin(Session) error { return nil }
func (discard) Append(string, Interaction) error { return nil }
func (discard) Finish(Session) error { return nil }
