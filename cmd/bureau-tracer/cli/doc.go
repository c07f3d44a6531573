// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for bureau-tracer: a tree of
// [Command] values with pflag flag sets, help rendering, typo
// suggestions for commands and flags, and categorized errors that map
// to process exit codes.
//
// The framework deliberately has no global state. The binary builds its
// tree in main and calls [Command.Execute] on the root; every Run
// function receives the context that main derived from signal handling.
package cli
