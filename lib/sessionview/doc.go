// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionview renders recorded sessions for a terminal.
//
// A [Printer] carries the theme, the wrap width, and a lipgloss
// renderer with a fixed color profile. With color off every style
// renders as plain text, which is what pipes and tests see.
//
// [Printer.Show] prints one session: a header, then each interaction
// with the prompt as typed and the response rendered as markdown
// (goldmark for structure, chroma for fenced code). [Printer.List] and
// [Printer.Stats] print tables for the CLI. [Rank] orders indexed
// interactions against a fuzzy query with fzf's matcher, and [Browse]
// runs an interactive bubbletea browser over a sessions directory.
//
// Everything here reads masked text unless [ShowOptions.Raw] is set,
// in which case sealed raw fields are opened with the supplied age
// identities.
package sessionview
