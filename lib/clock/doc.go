// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The capture loop stamps interactions and sessions with Now and bounds
// teardown and session length with After. Production code uses
// [Real]; tests use [Fake], which stands still until advanced, so
// timestamps are exact and timeouts fire on demand:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go proxy.Run(ctx, command)
//	fake.WaitForTimers(1)        // teardown is waiting on the child
//	fake.Advance(5 * time.Second) // child did not exit in time
package clock
