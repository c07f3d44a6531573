// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ptyio

import (
	"io"
	"os"
	"time"
)

// Ready reports which sources have data (or a hangup) pending.
type Ready struct {
	Input bool
	Child bool
}

// Platform abstracts the operator terminal and PTY allocation.
type Platform interface {
	// Spawn starts name with args on the slave side of a new
	// pseudo-terminal. The child inherits the caller's environment and
	// working directory.
	Spawn(name string, args ...string) (Child, error)

	// MakeRaw puts the operator terminal into raw mode. The returned
	// function restores the previous mode and is safe to call more than
	// once.
	MakeRaw() (restore func() error, err error)

	// Input is the operator's keyboard side.
	Input() io.Reader

	// Output is the operator's screen side.
	Output() io.Writer

	// Wait blocks until the operator input or the child is readable, or
	// until timeout passes. A timeout returns the zero Ready and a nil
	// error.
	Wait(child Child, timeout time.Duration) (Ready, error)
}

// Child is a running program attached to a pseudo-terminal. Reads and
// writes go through the PTY master. Read returns io.EOF once the slave
// side has closed.
type Child interface {
	io.ReadWriter

	// Pid is the child's process id.
	Pid() int

	// Done is closed when the process has exited and been reaped.
	Done() <-chan struct{}

	// Err is the process's exit error. Valid after Done is closed.
	Err() error

	// Signal delivers sig to the child.
	Signal(sig os.Signal) error

	// Kill forcibly terminates the child.
	Kill() error

	// Close releases the PTY master.
	Close() error
}

// Exited reports, without blocking, whether child has exited.
func Exited(child Child) bool {
	select {
	case <-child.Done():
		return true
	default:
		return false
	}
}
