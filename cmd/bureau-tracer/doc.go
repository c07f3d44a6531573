// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-tracer records conversations with an interactive terminal
// program (the Claude CLI by default). It runs the program on a
// pseudo-terminal, relays the operator's keystrokes and the program's
// output unchanged, and rebuilds each prompt and response into an
// interaction that is masked for secrets and personal data before it
// is written anywhere.
//
// Usage:
//
//	bureau-tracer [run] [flags] [-- program-args...]
//	bureau-tracer sessions list|show|search|browse|stats|reindex
//	bureau-tracer patterns list|scan
//	bureau-tracer keygen
//
// Sessions are written as JSON artifacts under the sessions directory
// (optionally compressed once finished) and, when enabled, into a
// SQLite index of masked text used by search and stats.
package main
