// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionindex keeps a SQLite index of recorded sessions for
// search and statistics.
//
// [Index] implements [session.Sink], so a capture can write to the
// index and the JSON artifact in the same pass through a
// session.MultiSink. Only masked text is indexed: raw user and
// assistant fields never reach the database. Detected pattern names are
// stored as a deterministic CBOR list.
//
// The index is derived data. [Index.Import] rebuilds rows from session
// artifacts, so a lost or corrupt index.db can be regenerated from the
// sessions directory.
package sessionindex
