// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sanitize turns raw terminal output into plain text suitable
// for turn analysis and redaction.
//
// [Sanitize] removes escape sequences, stray control characters, the
// box-drawing and bullet glyphs the monitored CLI decorates its output
// with, and a fixed set of boilerplate lines (banners, hints, cwd
// echoes, timing annotations). It preserves line structure: each
// surviving line is trimmed with internal runs of horizontal whitespace
// collapsed, and blank lines are dropped. Sanitize is pure and
// idempotent.
//
// [CleanInput] reconstructs what an operator actually submitted from
// the keystrokes that produced it, applying backspace and line-kill
// editing before stripping escape sequences.
package sanitize
