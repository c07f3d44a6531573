// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ptyio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Default PTY dimensions when the operator side is not a terminal.
const (
	defaultColumns = 80
	defaultRows    = 24
)

// Terminal is the Linux [Platform]: the operator terminal is a pair of
// files (normally os.Stdin and os.Stdout) and children run on devpts
// pseudo-terminals.
type Terminal struct {
	input  *os.File
	output *os.File
}

// NewTerminal returns a platform reading operator keystrokes from input
// and writing the child's screen to output.
func NewTerminal(input, output *os.File) *Terminal {
	return &Terminal{input: input, output: output}
}

// Input returns the operator input file.
func (t *Terminal) Input() io.Reader { return t.input }

// Output returns the operator output file.
func (t *Terminal) Output() io.Writer { return t.output }

// MakeRaw switches the operator input to raw mode. When the input is not
// a terminal (piped, or under test) there is nothing to switch and the
// restore function is a no-op.
func (t *Terminal) MakeRaw() (func() error, error) {
	fd := int(t.input.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	var once sync.Once
	return func() error {
		var restoreErr error
		once.Do(func() { restoreErr = term.Restore(fd, state) })
		return restoreErr
	}, nil
}

// Spawn allocates a PTY pair sized like the operator terminal and starts
// name on the slave side as a session leader with the slave as its
// controlling terminal.
func (t *Terminal) Spawn(name string, args ...string) (Child, error) {
	master, slavePath, err := openPTY()
	if err != nil {
		return nil, fmt.Errorf("allocate PTY: %w", err)
	}

	slave, err := os.OpenFile(slavePath, os.O_RDWR, 0)
	if err != nil {
		master.Close()
		return nil, fmt.Errorf("open PTY slave %s: %w", slavePath, err)
	}

	columns, rows := defaultColumns, defaultRows
	if width, height, sizeErr := term.GetSize(int(t.output.Fd())); sizeErr == nil && width > 0 && height > 0 {
		columns, rows = width, height
	}
	if err := setWindowSize(int(master.Fd()), uint16(columns), uint16(rows)); err != nil {
		slave.Close()
		master.Close()
		return nil, fmt.Errorf("set PTY size: %w", err)
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0, // fd 0 in child = slave PTY
	}

	if err := cmd.Start(); err != nil {
		slave.Close()
		master.Close()
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	// The child has its own copies on fds 0-2.
	slave.Close()

	child := &ptyChild{
		master: master,
		cmd:    cmd,
		done:   make(chan struct{}),
	}
	go func() {
		child.err = cmd.Wait()
		close(child.done)
	}()
	return child, nil
}

// Wait polls the operator input and the child's PTY master. Hangups and
// errors count as readable so that the following Read reports them.
func (t *Terminal) Wait(child Child, timeout time.Duration) (Ready, error) {
	spawned, ok := child.(*ptyChild)
	if !ok {
		return Ready{}, fmt.Errorf("wait: child %T was not spawned by this terminal", child)
	}

	fds := []unix.PollFd{
		{Fd: int32(t.input.Fd()), Events: unix.POLLIN},
		{Fd: int32(spawned.master.Fd()), Events: unix.POLLIN},
	}
	_, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return Ready{}, nil
		}
		return Ready{}, fmt.Errorf("poll: %w", err)
	}

	const readable = unix.POLLIN | unix.POLLHUP | unix.POLLERR
	return Ready{
		Input: fds[0].Revents&readable != 0,
		Child: fds[1].Revents&readable != 0,
	}, nil
}

type ptyChild struct {
	master *os.File
	cmd    *exec.Cmd
	done   chan struct{}
	err    error
}

// Read maps EIO to io.EOF: on Linux a master read fails with EIO once
// every slave descriptor has closed, which is the normal end of a child.
func (c *ptyChild) Read(buffer []byte) (int, error) {
	n, err := c.master.Read(buffer)
	if err != nil && errors.Is(err, syscall.EIO) {
		return n, io.EOF
	}
	return n, err
}

func (c *ptyChild) Write(data []byte) (int, error) { return c.master.Write(data) }

func (c *ptyChild) Pid() int { return c.cmd.Process.Pid }

func (c *ptyChild) Done() <-chan struct{} { return c.done }

func (c *ptyChild) Err() error { return c.err }

func (c *ptyChild) Signal(sig os.Signal) error { return c.cmd.Process.Signal(sig) }

func (c *ptyChild) Kill() error { return c.cmd.Process.Kill() }

func (c *ptyChild) Close() error { return c.master.Close() }

// openPTY allocates a PTY master/slave pair using the Linux devpts interface.
// Returns the master as an *os.File and the filesystem path to the slave.
func openPTY() (master *os.File, slavePath string, err error) {
	master, err = os.OpenFile("/dev/ptmx", os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, "", fmt.Errorf("open /dev/ptmx: %w", err)
	}

	fd := int(master.Fd())

	ptyNumber, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, "", fmt.Errorf("get PTY number (TIOCGPTN): %w", err)
	}

	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, "", fmt.Errorf("unlock PTY slave (TIOCSPTLCK): %w", err)
	}

	slavePath = fmt.Sprintf("/dev/pts/%d", ptyNumber)
	return master, slavePath, nil
}

// setWindowSize sets the terminal dimensions on a PTY master fd.
func setWindowSize(fd int, columns, rows uint16) error {
	return unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, &unix.Winsize{
		Col: columns,
		Row: rows,
	})
}
