// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/bureau-foundation/tracer/lib/clock"
	"github.com/bureau-foundation/tracer/lib/ptyio"
	"github.com/bureau-foundation/tracer/lib/redact"
	"github.com/bureau-foundation/tracer/lib/sealed"
	"github.com/bureau-foundation/tracer/lib/session"
)

const (
	// DefaultPollInterval bounds each readiness wait.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultTeardownTimeout is how long teardown waits for the child
	// after SIGHUP.
	DefaultTeardownTimeout = 2 * time.Second

	// drainTimeout is how long the PTY may stay quiet after the child
	// exits before its remaining output is considered read.
	drainTimeout = 50 * time.Millisecond

	// readChunkSize is the most either side is read at once.
	readChunkSize = 1024

	// endOfTransmission is Ctrl-D. Typed on its own it ends the capture
	// instead of reaching the child.
	endOfTransmission = 0x04
)

// Config configures a [Proxy].
type Config struct {
	// Platform provides the operator terminal and PTY allocation.
	// Required.
	Platform ptyio.Platform

	// Engine masks every recorded turn. Required.
	Engine *redact.Engine

	// Sink persists the session. Nil discards.
	Sink session.Sink

	// Detector decides when a response has ended. Nil means the
	// default prompt marker.
	Detector BoundaryDetector

	// SessionID names the session. Empty generates one with
	// session.NewID.
	SessionID string

	// ProjectPath is recorded in the session. Empty means the working
	// directory.
	ProjectPath string

	// PollInterval bounds each readiness wait. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// TeardownTimeout bounds the wait for the child after SIGHUP. Zero
	// means DefaultTeardownTimeout.
	TeardownTimeout time.Duration

	// MaxDuration ends the capture with status timeout once exceeded.
	// Zero means no limit.
	MaxDuration time.Duration

	// KeepRaw records unmasked text alongside the masked text, sealed
	// when Sealer is set.
	KeepRaw bool
	Sealer  *sealed.Sealer

	// Debug is recorded in the session metadata.
	Debug bool

	// Transcript, when set, receives every byte the child writes.
	Transcript *Transcript

	// Clock is the time source. Nil means the real clock.
	Clock clock.Clock

	// Logger receives capture events. It must not write to the
	// operator's terminal. Nil discards.
	Logger *slog.Logger
}

// Proxy runs one monitored program and records its session.
type Proxy struct {
	config Config
	clock  clock.Clock
	logger *slog.Logger
}

// NewProxy validates config and applies defaults.
func NewProxy(config Config) (*Proxy, error) {
	if config.Platform == nil {
		return nil, errors.New("capture: Platform is required")
	}
	if config.Engine == nil {
		return nil, errors.New("capture: Engine is required")
	}
	if config.Sink == nil {
		config.Sink = session.Discard
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.TeardownTimeout <= 0 {
		config.TeardownTimeout = DefaultTeardownTimeout
	}
	proxy := &Proxy{config: config, clock: config.Clock, logger: config.Logger}
	if proxy.clock == nil {
		proxy.clock = clock.Real()
	}
	if proxy.logger == nil {
		proxy.logger = slog.New(slog.DiscardHandler)
	}
	return proxy, nil
}

// Run spawns name with args on a new pseudo-terminal and relays the
// operator's terminal to it until the child exits, input ends, ctx is
// cancelled, or MaxDuration passes. It returns the finalized session.
//
// A spawn failure is returned before any session exists. Once the child
// is running, I/O failures end the capture with status error rather
// than an error return, and teardown always finalizes the session and
// restores the terminal.
func (proxy *Proxy) Run(ctx context.Context, name string, args ...string) (result session.Session, err error) {
	child, err := proxy.config.Platform.Spawn(name, args...)
	if err != nil {
		return session.Session{}, fmt.Errorf("spawn %s: %w", name, err)
	}

	start := proxy.clock.Now()
	id := proxy.config.SessionID
	if id == "" {
		id = session.NewID(start)
	}
	projectPath := proxy.config.ProjectPath
	if projectPath == "" {
		projectPath, _ = os.Getwd()
	}
	current := session.New(id, projectPath, start.UTC(), session.Metadata{
		MonitorType: session.MonitorTypePTY,
		Command:     name,
		Debug:       proxy.config.Debug,
		Mode:        string(proxy.config.Engine.Mode()),
	})
	logger := proxy.logger.With("session_id", id)
	logger.Info("capture started", "command", name, "pid", child.Pid(), "project_path", projectPath)

	if err := proxy.config.Sink.Begin(current.Snapshot()); err != nil {
		logger.Warn("session start not persisted", "error", err)
	}

	segmenter, err := NewSegmenter(SegmenterConfig{
		Session:  current,
		Engine:   proxy.config.Engine,
		Detector: proxy.config.Detector,
		Sink:     proxy.config.Sink,
		KeepRaw:  proxy.config.KeepRaw,
		Sealer:   proxy.config.Sealer,
		Clock:    proxy.clock,
		Logger:   logger,
	})
	if err != nil {
		// Unreachable: the session and engine are both set above.
		return session.Session{}, err
	}

	// Deferred in this order so the terminal is restored last, after
	// teardown has finished with the child.
	restore, rawErr := proxy.config.Platform.MakeRaw()
	if rawErr == nil {
		defer func() {
			if restoreErr := restore(); restoreErr != nil {
				logger.Warn("restoring terminal mode failed", "error", restoreErr)
			}
		}()
	}

	status := session.StatusError
	defer func() {
		result = proxy.teardown(child, segmenter, current, status, logger)
	}()

	if rawErr != nil {
		logger.Error("entering raw mode failed", "error", rawErr)
		return session.Session{}, rawErr
	}

	status = proxy.loop(ctx, child, segmenter, logger, start)
	return session.Session{}, nil
}

// loop relays bytes until something ends the session and returns the
// status the session should finish with.
func (proxy *Proxy) loop(ctx context.Context, child ptyio.Child, segmenter *Segmenter, logger *slog.Logger, start time.Time) session.Status {
	platform := proxy.config.Platform
	buffer := make([]byte, readChunkSize)
	var inputText, outputText decoder

	// forward relays one read of child output to the operator and the
	// segmenter, and reports whether the child's stream has ended.
	forward := func() (bool, session.Status) {
		n, err := child.Read(buffer)
		if n > 0 {
			chunk := buffer[:n]
			if proxy.config.Transcript != nil {
				proxy.config.Transcript.Write(chunk)
			}
			if _, writeErr := platform.Output().Write(chunk); writeErr != nil {
				logger.Warn("writing to operator terminal failed", "error", writeErr)
				return true, session.StatusError
			}
			segmenter.Output(outputText.decode(chunk))
		}
		if n == 0 || err != nil {
			return true, endStatus(logger, "child output", err)
		}
		return false, ""
	}

	for {
		if ctx.Err() != nil {
			logger.Info("capture interrupted", "cause", context.Cause(ctx))
			return session.StatusCompleted
		}
		if ptyio.Exited(child) {
			logger.Info("child exited", "error", child.Err())
			return proxy.drain(ctx, child, forward, logger)
		}
		if proxy.config.MaxDuration > 0 && proxy.clock.Now().Sub(start) >= proxy.config.MaxDuration {
			logger.Warn("capture exceeded maximum duration", "max_duration", proxy.config.MaxDuration)
			return session.StatusTimeout
		}

		ready, err := platform.Wait(child, proxy.config.PollInterval)
		if err != nil {
			logger.Warn("waiting for terminal input failed", "error", err)
			return session.StatusError
		}

		if ready.Input {
			n, err := platform.Input().Read(buffer)
			if n == 0 || (err != nil && !errors.Is(err, io.EOF)) {
				return endStatus(logger, "operator input", err)
			}
			chunk := buffer[:n]
			if n == 1 && chunk[0] == endOfTransmission {
				logger.Info("operator ended input")
				return session.StatusCompleted
			}
			if _, err := child.Write(chunk); err != nil {
				logger.Warn("writing to child failed", "error", err)
				return session.StatusError
			}
			logger.Debug("operator input", "bytes", n)
			segmenter.Input(inputText.decode(chunk))
			if err != nil {
				return endStatus(logger, "operator input", err)
			}
		}

		if ready.Child {
			if ended, status := forward(); ended {
				return status
			}
		}
	}
}

// drain reads what the child wrote before exiting and is still
// buffered in the PTY. It stops at end of file, or once the PTY stays
// quiet for drainTimeout.
func (proxy *Proxy) drain(ctx context.Context, child ptyio.Child, forward func() (bool, session.Status), logger *slog.Logger) session.Status {
	for ctx.Err() == nil {
		ready, err := proxy.config.Platform.Wait(child, drainTimeout)
		if err != nil {
			logger.Debug("waiting for remaining output failed", "error", err)
			return session.StatusCompleted
		}
		if !ready.Child {
			return session.StatusCompleted
		}
		if ended, status := forward(); ended {
			return status
		}
	}
	return session.StatusCompleted
}

// endStatus classifies the end of a stream: a clean end of file (or an
// empty read) completes the session, anything else is an error.
func endStatus(logger *slog.Logger, source string, err error) session.Status {
	if err == nil || errors.Is(err, io.EOF) {
		logger.Info("stream closed", "source", source)
		return session.StatusCompleted
	}
	logger.Warn("read failed", "source", source, "error", err)
	return session.StatusError
}

// teardown stops the child within TeardownTimeout, flushes the pending
// turn, and finalizes the session. A child that ignores SIGHUP is
// killed and the session ends with status timeout.
func (proxy *Proxy) teardown(child ptyio.Child, segmenter *Segmenter, current *session.Session, status session.Status, logger *slog.Logger) session.Session {
	if !ptyio.Exited(child) {
		if err := child.Signal(syscall.SIGHUP); err != nil {
			logger.Debug("signalling child failed", "error", err)
		}
		select {
		case <-child.Done():
		case <-proxy.clock.After(proxy.config.TeardownTimeout):
			logger.Warn("child ignored SIGHUP; killing it", "teardown_timeout", proxy.config.TeardownTimeout)
			if err := child.Kill(); err != nil {
				logger.Warn("killing child failed", "error", err)
			}
			status = session.StatusTimeout
			select {
			case <-child.Done():
			case <-proxy.clock.After(proxy.config.TeardownTimeout):
				logger.Error("child still running after kill", "pid", child.Pid())
			}
		}
	}
	if err := child.Close(); err != nil {
		logger.Debug("closing PTY failed", "error", err)
	}

	if segmenter.Flush() {
		logger.Info("flushed pending turn at teardown")
	}

	if err := current.Finalize(status, proxy.clock.Now().UTC()); err != nil {
		logger.Error("finalizing session failed", "error", err)
	}
	final := current.Snapshot()
	if err := proxy.config.Sink.Finish(final); err != nil {
		logger.Warn("final session not persisted", "error", err)
	}
	logger.Info("capture finished",
		"status", string(final.Status),
		"interactions", len(final.Interactions),
		"duration", final.End.Sub(final.Start),
	)
	return final
}
