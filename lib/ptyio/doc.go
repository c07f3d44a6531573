// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ptyio is the terminal capability the capture proxy runs on:
// spawning a program on a fresh pseudo-terminal, switching the
// operator's terminal to raw mode and back, and waiting for either side
// to become readable.
//
// The proxy depends only on the [Platform] and [Child] interfaces, so
// its loop can be driven by a scripted platform in tests. [Terminal] is
// the Linux implementation, allocating PTYs through /dev/ptmx and
// waiting with poll(2).
package ptyio
