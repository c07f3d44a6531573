// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package redact detects and masks sensitive substrings in captured
// terminal text before it is persisted.
//
// An [Engine] holds an ordered registry of [Pattern] values, each a
// case-insensitive regular expression tagged with a sensitivity [Level].
// The engine's [Mode] selects which levels are scanned:
//
//   - [ModeMinimal] scans only [LevelMaximum] patterns (credentials).
//   - [ModeModerate] adds [LevelHigh].
//   - [ModeStrict] scans every level.
//
// [Engine.Scan] runs every active pattern over the whole text and
// resolves overlaps: candidates are ordered by ascending start offset,
// ties broken by descending end offset, and a candidate is kept only if
// it starts at or after the end of the last kept match. At most one kept
// [Match] covers any text offset. [Engine.Mask] applies the kept matches
// right to left so earlier replacements never shift offsets of matches
// not yet applied.
//
// Patterns are registered at construction ([New], [NewDefault]) or
// added later with [Engine.Add] and [Engine.AddSpecs]. A pattern whose
// expression does not compile is reported and skipped; it never aborts
// registration of the others or a later scan. Patterns can be toggled
// by name with [Engine.Enable] and [Engine.Disable].
//
// An Engine is an explicitly constructed value with no package-level
// registry. One Engine may be shared by many capture sessions: scans
// take a read lock, mutation takes the write lock.
//
// Pattern configuration files ([LoadPatternFile]) are YAML or
// JSON-with-comments lists of [PatternSpec] records.
package redact
