// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ptyio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/bureau-foundation/tracer/lib/testutil"
)

// newTestTerminal returns a Terminal whose operator input is a pipe the
// test controls, so poll never sees a readable /dev/null.
func newTestTerminal(t *testing.T) (*Terminal, *os.File) {
	t.Helper()
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skipf("no /dev/ptmx: %v", err)
	}
	inputReader, inputWriter, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	output, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		inputReader.Close()
		inputWriter.Close()
		output.Close()
	})
	return NewTerminal(inputReader, output), inputWriter
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

// readAll drains a child until EOF using Wait, the way the proxy does.
func readAll(t *testing.T, terminal *Terminal, child Child) []byte {
	t.Helper()
	var output bytes.Buffer
	buffer := make([]byte, 1024)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		ready, err := terminal.Wait(child, 100*time.Millisecond)
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if !ready.Child {
			continue
		}
		n, err := child.Read(buffer)
		output.Write(buffer[:n])
		if errors.Is(err, io.EOF) {
			return output.Bytes()
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	t.Fatal("child output did not reach EOF")
	return nil
}

func TestSpawnRelaysOutputAndEOF(t *testing.T) {
	terminal, _ := newTestTerminal(t)
	echo := lookPath(t, "echo")

	child, err := terminal.Spawn(echo, "hello from the pty")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer child.Close()

	output := readAll(t, terminal, child)
	// The PTY line discipline turns \n into \r\n.
	if !bytes.Contains(output, []byte("hello from the pty\r\n")) {
		t.Errorf("output = %q", output)
	}

	testutil.RequireClosed(t, child.Done(), 5*time.Second, "child exit")
	if err := child.Err(); err != nil {
		t.Errorf("Err() = %v, want nil for a clean exit", err)
	}
	if !Exited(child) {
		t.Error("Exited() = false after Done closed")
	}
}

func TestSpawnEchoesInput(t *testing.T) {
	terminal, _ := newTestTerminal(t)
	cat := lookPath(t, "cat")

	child, err := terminal.Spawn(cat)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer child.Close()

	if Exited(child) {
		t.Fatal("cat exited before receiving input")
	}
	// ^D on an empty line is end of input for the slave's line discipline.
	if _, err := child.Write([]byte("ping\n\x04")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	output := readAll(t, terminal, child)
	// Once from the terminal's echo, once from cat itself.
	if got := bytes.Count(output, []byte("ping")); got != 2 {
		t.Errorf("ping appeared %d times in %q, want 2", got, output)
	}
	testutil.RequireClosed(t, child.Done(), 5*time.Second, "cat exit")
}

func TestWaitReportsOperatorInput(t *testing.T) {
	terminal, inputWriter := newTestTerminal(t)
	sleep := lookPath(t, "sleep")

	child, err := terminal.Spawn(sleep, "30")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() {
		_ = child.Kill()
		<-child.Done()
		child.Close()
	}()

	ready, err := terminal.Wait(child, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ready.Input {
		t.Error("input ready before anything was typed")
	}

	if _, err := inputWriter.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	ready, err = terminal.Wait(child, time.Second)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ready.Input {
		t.Error("input not ready after a keystroke")
	}
}

func TestSignalEndsChild(t *testing.T) {
	terminal, _ := newTestTerminal(t)
	sleep := lookPath(t, "sleep")

	child, err := terminal.Spawn(sleep, "30")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer child.Close()

	if child.Pid() <= 0 {
		t.Errorf("Pid() = %d", child.Pid())
	}
	if err := child.Signal(syscall.SIGHUP); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	testutil.RequireClosed(t, child.Done(), 5*time.Second, "sleep exit after SIGHUP")
	if child.Err() == nil {
		t.Error("Err() = nil for a signalled child")
	}
}

func TestSpawnMissingCommand(t *testing.T) {
	terminal, _ := newTestTerminal(t)

	if _, err := terminal.Spawn("/nonexistent/bureau-tracer-test-binary"); err == nil {
		t.Fatal("Spawn of a missing binary succeeded")
	}
}

func TestMakeRawOnPipeIsNoop(t *testing.T) {
	terminal, _ := newTestTerminal(t)

	restore, err := terminal.MakeRaw()
	if err != nil {
		t.Fatalf("MakeRaw: %v", err)
	}
	if err := restore(); err != nil {
		t.Errorf("restore: %v", err)
	}
	if err := restore(); err != nil {
		t.Errorf("second restore: %v", err)
	}
}

func TestWaitRejectsForeignChild(t *testing.T) {
	terminal, _ := newTestTerminal(t)

	if _, err := terminal.Wait(foreignChild{}, time.Millisecond); err == nil {
		t.Fatal("Wait accepted a child it did not spawn")
	}
}

type foreignChild struct{ Child }
