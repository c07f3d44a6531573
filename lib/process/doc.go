// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helper used by main before the
// structured logger exists, or after it can no longer be trusted (the
// terminal may still be in raw mode when a capture fails).
package process
