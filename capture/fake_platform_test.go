// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/bureau-foundation/tracer/lib/ptyio"
)

// step is one scripted event. Exactly one field is set.
type step struct {
	// input is typed by the operator.
	input string
	// inputEOF closes the operator's input.
	inputEOF bool
	// output is written by the child.
	output string
	// outputErr fails the next child read.
	outputErr error
	// outputEOF closes the child's PTY.
	outputEOF bool
	// exit ends the child process.
	exit bool
	// do runs inside Wait, on the proxy's goroutine.
	do func()
}

// fakePlatform replays a script through the Platform interface. Each
// Wait consumes one step; once the script is exhausted, Wait reports
// nothing ready.
type fakePlatform struct {
	mutex sync.Mutex

	steps    []step
	spawnErr error
	rawErr   error

	// ignoreHangup makes the child survive SIGHUP.
	ignoreHangup bool

	child         *fakeChild
	spawned       []string
	rawCalls      int
	restoreCalls  int
	restoredAfter bool // restore ran after the child was closed
	screen        bytes.Buffer

	pendingInput []byte
	inputClosed  bool
}

func newFakePlatform(steps ...step) *fakePlatform {
	return &fakePlatform{steps: steps}
}

func (platform *fakePlatform) Spawn(name string, args ...string) (ptyio.Child, error) {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	if platform.spawnErr != nil {
		return nil, platform.spawnErr
	}
	platform.spawned = append([]string{name}, args...)
	platform.child = &fakeChild{
		platform:     platform,
		done:         make(chan struct{}),
		ignoreHangup: platform.ignoreHangup,
	}
	return platform.child, nil
}

func (platform *fakePlatform) MakeRaw() (func() error, error) {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	if platform.rawErr != nil {
		return nil, platform.rawErr
	}
	platform.rawCalls++
	return func() error {
		platform.mutex.Lock()
		defer platform.mutex.Unlock()
		platform.restoreCalls++
		platform.restoredAfter = platform.child != nil && platform.child.closed
		return nil
	}, nil
}

func (platform *fakePlatform) Input() io.Reader { return fakeInput{platform} }

func (platform *fakePlatform) Output() io.Writer { return fakeOutput{platform} }

func (platform *fakePlatform) Wait(child ptyio.Child, timeout time.Duration) (ptyio.Ready, error) {
	platform.mutex.Lock()
	if len(platform.steps) == 0 {
		platform.mutex.Unlock()
		// Real time, but far below any test timeout: an exhausted
		// script only idles until the test cancels or the child exits.
		time.Sleep(time.Millisecond)
		return ptyio.Ready{}, nil
	}
	next := platform.steps[0]
	platform.steps = platform.steps[1:]
	fake := platform.child
	platform.mutex.Unlock()

	switch {
	case next.do != nil:
		next.do()
		return ptyio.Ready{}, nil
	case next.exit:
		fake.exit()
		return ptyio.Ready{}, nil
	case next.input != "" || next.inputEOF:
		platform.mutex.Lock()
		platform.pendingInput = []byte(next.input)
		platform.inputClosed = next.inputEOF
		platform.mutex.Unlock()
		return ptyio.Ready{Input: true}, nil
	default:
		fake.queue(next)
		return ptyio.Ready{Child: true}, nil
	}
}

func (platform *fakePlatform) screenText() string {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	return platform.screen.String()
}

type fakeInput struct{ platform *fakePlatform }

func (input fakeInput) Read(buffer []byte) (int, error) {
	platform := input.platform
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	if platform.inputClosed {
		return 0, io.EOF
	}
	n := copy(buffer, platform.pendingInput)
	platform.pendingInput = platform.pendingInput[n:]
	return n, nil
}

type fakeOutput struct{ platform *fakePlatform }

func (output fakeOutput) Write(data []byte) (int, error) {
	output.platform.mutex.Lock()
	defer output.platform.mutex.Unlock()
	return output.platform.screen.Write(data)
}

type fakeChild struct {
	platform     *fakePlatform
	ignoreHangup bool

	mutex    sync.Mutex
	next     step
	received bytes.Buffer
	signals  []os.Signal
	killed   bool
	closed   bool

	done     chan struct{}
	exitOnce sync.Once
}

func (child *fakeChild) queue(next step) {
	child.mutex.Lock()
	defer child.mutex.Unlock()
	child.next = next
}

func (child *fakeChild) Read(buffer []byte) (int, error) {
	child.mutex.Lock()
	defer child.mutex.Unlock()
	next := child.next
	child.next = step{}
	switch {
	case next.outputErr != nil:
		return 0, next.outputErr
	case next.outputEOF:
		return 0, io.EOF
	default:
		return copy(buffer, next.output), nil
	}
}

func (child *fakeChild) Write(data []byte) (int, error) {
	child.mutex.Lock()
	defer child.mutex.Unlock()
	return child.received.Write(data)
}

func (child *fakeChild) Pid() int { return 4242 }

func (child *fakeChild) Done() <-chan struct{} { return child.done }

func (child *fakeChild) Err() error { return nil }

func (child *fakeChild) Signal(sig os.Signal) error {
	child.mutex.Lock()
	child.signals = append(child.signals, sig)
	ignore := child.ignoreHangup && sig == syscall.SIGHUP
	child.mutex.Unlock()
	if !ignore {
		child.exit()
	}
	return nil
}

func (child *fakeChild) Kill() error {
	child.mutex.Lock()
	child.killed = true
	child.mutex.Unlock()
	child.exit()
	return nil
}

func (child *fakeChild) Close() error {
	child.mutex.Lock()
	defer child.mutex.Unlock()
	if child.closed {
		return errors.New("closed twice")
	}
	child.closed = true
	return nil
}

func (child *fakeChild) exit() {
	child.exitOnce.Do(func() { close(child.done) })
}

func (child *fakeChild) receivedText() string {
	child.mutex.Lock()
	defer child.mutex.Unlock()
	return child.received.String()
}

func (child *fakeChild) state() (signals []os.Signal, killed, closed bool) {
	child.mutex.Lock()
	defer child.mutex.Unlock()
	return append([]os.Signal(nil), child.signals...), child.killed, child.closed
}
