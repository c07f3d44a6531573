// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/tracer/lib/clock"
	"github.com/bureau-foundation/tracer/lib/redact"
	"github.com/bureau-foundation/tracer/lib/sanitize"
	"github.com/bureau-foundation/tracer/lib/sealed"
	"github.com/bureau-foundation/tracer/lib/session"
)

// State is the segmenter's position within a turn.
type State int

const (
	// StateIdle waits for the operator to start typing.
	StateIdle State = iota
	// StateCapturingInput buffers the operator's prompt.
	StateCapturingInput
	// StateCapturingOutput buffers the program's response.
	StateCapturingOutput
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateCapturingInput:
		return "capturing-input"
	case StateCapturingOutput:
		return "capturing-output"
	default:
		return "unknown"
	}
}

// maxPendingOutput bounds the unterminated output line kept between
// chunks. A longer line is processed as if it had ended.
const maxPendingOutput = 64 << 10

// SegmenterConfig holds the collaborators of a [Segmenter].
type SegmenterConfig struct {
	// Session receives every finished interaction. Required.
	Session *session.Session

	// Engine masks both sides of each turn. Required.
	Engine *redact.Engine

	// Detector decides when a response has ended. Nil means
	// PromptMarker{Marker: DefaultMarker}.
	Detector BoundaryDetector

	// Sink persists finished interactions. Nil discards.
	Sink session.InteractionSink

	// KeepRaw records the unmasked text in RawUser and RawAssistant.
	KeepRaw bool

	// Sealer, when set, encrypts the raw text before it is recorded.
	Sealer *sealed.Sealer

	// Clock stamps interactions. Nil means the real clock.
	Clock clock.Clock

	// Logger receives state transitions and save results. Nil discards.
	Logger *slog.Logger
}

// Segmenter reconstructs turns from operator input and program output.
// It is not safe for concurrent use: a session's proxy loop is its only
// caller.
type Segmenter struct {
	session  *session.Session
	engine   *redact.Engine
	detector BoundaryDetector
	sink     session.InteractionSink
	keepRaw  bool
	sealer   *sealed.Sealer
	clock    clock.Clock
	logger   *slog.Logger

	state State

	// user is the operator's keystrokes for the current turn, before
	// line editing is applied.
	user strings.Builder

	// prompt is the cleaned user text, fixed at submission. echo is
	// the same text as it appears once sanitized on screen.
	prompt string
	echo   string

	assistant []string

	// pending is output after the last line break.
	pending string
}

// NewSegmenter returns an idle segmenter.
func NewSegmenter(config SegmenterConfig) (*Segmenter, error) {
	if config.Session == nil {
		return nil, errors.New("segmenter: Session is required")
	}
	if config.Engine == nil {
		return nil, errors.New("segmenter: Engine is required")
	}
	segmenter := &Segmenter{
		session:  config.Session,
		engine:   config.Engine,
		detector: config.Detector,
		sink:     config.Sink,
		keepRaw:  config.KeepRaw,
		sealer:   config.Sealer,
		clock:    config.Clock,
		logger:   config.Logger,
	}
	if segmenter.detector == nil {
		segmenter.detector = PromptMarker{Marker: DefaultMarker}
	}
	if segmenter.sink == nil {
		segmenter.sink = session.Discard
	}
	if segmenter.clock == nil {
		segmenter.clock = clock.Real()
	}
	if segmenter.logger == nil {
		segmenter.logger = slog.New(slog.DiscardHandler)
	}
	return segmenter, nil
}

// State returns the current state.
func (segmenter *Segmenter) State() State {
	return segmenter.state
}

// Input consumes text typed by the operator. A carriage return or
// newline submits the buffered prompt, even an empty one. Keystrokes
// made while a response is being captured are not recorded.
func (segmenter *Segmenter) Input(text string) {
	for _, r := range text {
		if segmenter.state == StateCapturingOutput {
			return
		}
		if r == '\r' || r == '\n' {
			segmenter.submit()
			segmenter.transition(StateCapturingOutput)
			continue
		}
		segmenter.user.WriteRune(r)
		if segmenter.state == StateIdle {
			segmenter.transition(StateCapturingInput)
		}
	}
}

// Output consumes text written by the program. Complete lines are
// processed immediately; an unterminated line is held until its line
// break arrives, unless it already shows the idle prompt.
func (segmenter *Segmenter) Output(text string) {
	segmenter.pending += text
	for {
		index := strings.IndexAny(segmenter.pending, "\r\n")
		if index < 0 {
			break
		}
		line := segmenter.pending[:index]
		segmenter.pending = segmenter.pending[index+1:]
		segmenter.processLine(line)
	}

	if segmenter.pending == "" {
		return
	}
	if len(segmenter.pending) > maxPendingOutput || segmenter.detector.Detect(sanitize.Sanitize(segmenter.pending)) == BoundaryReached {
		line := segmenter.pending
		segmenter.pending = ""
		segmenter.processLine(line)
	}
}

// Flush finalizes whatever the current turn holds. The proxy calls it
// during teardown so that a program exiting mid-turn still yields its
// last interaction. It reports whether an interaction was recorded.
func (segmenter *Segmenter) Flush() bool {
	before := segmenter.session.NextSequence()
	if segmenter.pending != "" {
		line := segmenter.pending
		segmenter.pending = ""
		segmenter.processLine(line)
	}
	switch segmenter.state {
	case StateCapturingInput:
		segmenter.submit()
		segmenter.finalize()
	case StateCapturingOutput:
		segmenter.finalize()
	}
	return segmenter.session.NextSequence() > before
}

func (segmenter *Segmenter) submit() {
	segmenter.prompt = sanitize.CleanInput(segmenter.user.String())
	segmenter.echo = sanitize.Sanitize(segmenter.prompt)
}

func (segmenter *Segmenter) processLine(raw string) {
	for _, line := range sanitize.Lines(raw) {
		if segmenter.state != StateCapturingOutput {
			continue
		}
		boundary := segmenter.detector.Detect(line) == BoundaryReached
		switch {
		case segmenter.isPromptLine(line):
		case segmenter.echo != "" && line == segmenter.echo:
			segmenter.logger.Debug("dropping echoed prompt")
		default:
			segmenter.assistant = append(segmenter.assistant, line)
		}
		if boundary {
			segmenter.finalize()
		}
	}
}

func (segmenter *Segmenter) isPromptLine(line string) bool {
	if detector, ok := segmenter.detector.(PromptLineDetector); ok {
		return detector.IsPromptLine(line)
	}
	return false
}

// finalize turns the buffers into an interaction and returns to idle.
// A turn without a prompt is dropped.
func (segmenter *Segmenter) finalize() {
	prompt := strings.TrimSpace(segmenter.prompt)
	response := strings.Join(segmenter.assistant, "\n")
	responseLines := len(segmenter.assistant)
	segmenter.reset()

	if prompt == "" {
		segmenter.logger.Debug("discarding turn without a prompt", "response_lines", responseLines)
		return
	}

	maskedPrompt, promptMatches := segmenter.engine.Mask(prompt)
	maskedResponse, responseMatches := segmenter.engine.Mask(response)

	sequence := segmenter.session.NextSequence()
	interaction := session.Interaction{
		ID:          session.InteractionID(sequence),
		Sequence:    sequence,
		Timestamp:   segmenter.clock.Now().UTC(),
		UserPrompt:  maskedPrompt,
		Response:    maskedResponse,
		MessageType: session.MessageTypeInteraction,
		Detected:    redact.Names(append(promptMatches, responseMatches...)),
	}
	if segmenter.keepRaw {
		interaction.RawUser = segmenter.raw(prompt)
		interaction.RawAssistant = segmenter.raw(response)
	}

	if err := segmenter.session.Append(interaction); err != nil {
		segmenter.logger.Error("interaction rejected by session", "sequence", sequence, "error", err)
		return
	}
	if err := segmenter.sink.Append(segmenter.session.ID, interaction); err != nil {
		segmenter.logger.Warn("interaction not persisted", "sequence", sequence, "error", err)
	}
	segmenter.logger.Info("interaction saved",
		"sequence", sequence,
		"prompt_bytes", len(maskedPrompt),
		"response_bytes", len(maskedResponse),
		"detected", interaction.Detected,
	)
}

// raw returns the text to store in a raw field: verbatim, or sealed
// when recipients are configured. A sealing failure stores nothing
// rather than leaking plaintext.
func (segmenter *Segmenter) raw(text string) string {
	if segmenter.sealer == nil {
		return text
	}
	envelope, err := segmenter.sealer.Seal(text)
	if err != nil {
		segmenter.logger.Warn("sealing raw text failed; omitting it", "error", err)
		return ""
	}
	return envelope
}

func (segmenter *Segmenter) reset() {
	segmenter.user.Reset()
	segmenter.prompt = ""
	segmenter.echo = ""
	segmenter.assistant = nil
	segmenter.transition(StateIdle)
}

func (segmenter *Segmenter) transition(next State) {
	if segmenter.state == next {
		return
	}
	segmenter.logger.Debug("segmenter state", "from", segmenter.state.String(), "to", next.String())
	segmenter.state = next
}
