// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/tracer/lib/clock"
	"github.com/bureau-foundation/tracer/lib/ptyio"
	"github.com/bureau-foundation/tracer/lib/session"
)

// Request describes one capture for [Manager.Start].
type Request struct {
	// ID names the session. Empty generates one.
	ID string

	// Platform is the terminal the program runs on. Required.
	Platform ptyio.Platform

	// Command and Args are the program to run.
	Command string
	Args    []string

	// Logger overrides the manager's logger for this session, for
	// example to write a per-session debug file.
	Logger *slog.Logger

	// Transcript, when set, records the program's raw output.
	Transcript *Transcript
}

// Capture is a running session started by a [Manager].
type Capture struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	result session.Session
	err    error
}

// Done is closed when the capture has finished and its session is
// final.
func (capture *Capture) Done() <-chan struct{} {
	return capture.done
}

// Result returns the finalized session and the error from Run. Call it
// after Done is closed.
func (capture *Capture) Result() (session.Session, error) {
	<-capture.done
	return capture.result, capture.err
}

// Stop asks the capture to end. Teardown still runs; wait on Done for
// the final session.
func (capture *Capture) Stop() {
	capture.cancel()
}

// Manager runs isolated captures concurrently. Each gets its own proxy
// and segmenter; the redaction engine and sink in the template config
// are shared.
type Manager struct {
	template Config
	clock    clock.Clock
	logger   *slog.Logger
	active   *session.Registry[*Capture]
	wait     sync.WaitGroup
}

// NewManager returns a manager whose captures are configured from
// template. Platform, SessionID, Logger, and Transcript are set per
// request.
func NewManager(template Config) (*Manager, error) {
	if template.Engine == nil {
		return nil, errors.New("capture manager: Engine is required")
	}
	manager := &Manager{
		template: template,
		clock:    template.Clock,
		logger:   template.Logger,
		active:   session.NewRegistry[*Capture](),
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	return manager, nil
}

// Start registers a new capture and runs it in the background. A
// duplicate ID is rejected before anything is spawned; a spawn failure
// is reported by the capture's Result.
func (manager *Manager) Start(ctx context.Context, request Request) (*Capture, error) {
	id := request.ID
	if id == "" {
		id = session.NewID(manager.clock.Now())
	}

	config := manager.template
	config.Platform = request.Platform
	config.SessionID = id
	config.Transcript = request.Transcript
	config.Logger = manager.logger
	if request.Logger != nil {
		config.Logger = request.Logger
	}
	proxy, err := NewProxy(config)
	if err != nil {
		return nil, err
	}

	captureContext, cancel := context.WithCancel(ctx)
	capture := &Capture{ID: id, cancel: cancel, done: make(chan struct{})}
	if err := manager.active.Add(id, capture); err != nil {
		cancel()
		return nil, err
	}

	manager.wait.Add(1)
	go func() {
		defer manager.wait.Done()
		defer cancel()
		capture.result, capture.err = proxy.Run(captureContext, request.Command, request.Args...)
		if _, err := manager.active.Remove(id); err != nil {
			manager.logger.Error("capture missing from active table", "session_id", id, "error", err)
		}
		close(capture.done)
	}()
	return capture, nil
}

// Get returns the running capture with the given ID.
func (manager *Manager) Get(id string) (*Capture, bool) {
	return manager.active.Get(id)
}

// Active returns the IDs of running captures, sorted.
func (manager *Manager) Active() []string {
	return manager.active.IDs()
}

// Stop ends the capture with the given ID.
func (manager *Manager) Stop(id string) error {
	capture, ok := manager.active.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrUnknownSession, id)
	}
	capture.Stop()
	return nil
}

// Wait blocks until every started capture has finished.
func (manager *Manager) Wait() {
	manager.wait.Wait()
}
