// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture records the conversation of an interactive program
// by sitting between the operator's terminal and the program's
// pseudo-terminal.
//
// A [Proxy] relays bytes in both directions unchanged and feeds a
// decoded copy of each chunk to a [Segmenter]. The segmenter is a
// three-state machine (idle, capturing input, capturing output) that
// turns the operator's keystrokes and the program's screen output into
// user/assistant turns. A turn ends when the program redraws its idle
// prompt, as judged by a [BoundaryDetector]. Each finished turn is
// masked with a shared [redact.Engine] and handed to a
// [session.InteractionSink].
//
// Everything for one session runs on the proxy's single loop; the only
// state shared between concurrent sessions is the redaction engine.
// [Manager] keeps the table of running sessions.
//
// Boundary detection is heuristic. The default [PromptMarker] treats
// any sanitized output containing the marker as the idle prompt, so a
// response that itself contains the marker ends its turn early.
package capture
