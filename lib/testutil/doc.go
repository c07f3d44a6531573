// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern used when a test waits on a goroutine (a capture loop, a
// child process). They are the only place tests use a wall-clock
// timeout; everything else runs on clock.Fake.
//
// Helpers call t.Fatalf on failure rather than returning errors.
package testutil
