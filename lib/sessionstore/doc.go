// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionstore persists session artifacts as JSON files in a
// sessions directory.
//
// [FileSink] implements [session.Sink]. Each session has one artifact,
// <session-id>.json, which is rewritten in full after every appended
// interaction. Writes are atomic (temporary file, fsync, rename, fsync
// parent directory), so a reader sees either the previous complete
// artifact or the new one, never a torn write. Readers may still find
// the file missing between Begin and the first write, and must not
// assume that two reads observe the same version.
//
// When the session finishes the artifact can be archived: compressed
// with zstd or lz4 into <session-id>.json.zst or <session-id>.json.lz4,
// replacing the plain file. [List] and [Load] read all three forms.
package sessionstore
