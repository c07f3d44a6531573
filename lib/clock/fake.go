// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.waitersChanged = sync.NewCond(&clock.mutex)
	return clock
}

// FakeClock is a Clock whose time moves only through Advance. Each
// After call registers a waiter that fires when the clock reaches its
// deadline.
type FakeClock struct {
	mutex          sync.Mutex
	current        time.Time
	waiters        []fakeWaiter
	waitersChanged *sync.Cond
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// Now returns the current fake time.
func (clock *FakeClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.current
}

// After registers a waiter for d from now.
func (clock *FakeClock) After(d time.Duration) <-chan time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- clock.current
		return channel
	}
	clock.waiters = append(clock.waiters, fakeWaiter{deadline: clock.current.Add(d), channel: channel})
	clock.waitersChanged.Broadcast()
	return channel
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline has been reached, in deadline order.
func (clock *FakeClock) Advance(d time.Duration) {
	clock.mutex.Lock()
	clock.current = clock.current.Add(d)
	now := clock.current

	var expired, remaining []fakeWaiter
	for _, waiter := range clock.waiters {
		if waiter.deadline.After(now) {
			remaining = append(remaining, waiter)
		} else {
			expired = append(expired, waiter)
		}
	}
	clock.waiters = remaining
	clock.mutex.Unlock()

	sort.SliceStable(expired, func(i, j int) bool {
		return expired[i].deadline.Before(expired[j].deadline)
	})
	for _, waiter := range expired {
		waiter.channel <- now
	}
}

// WaitForTimers blocks until at least n waiters are pending. Use it to
// avoid racing a goroutine that is about to call After.
func (clock *FakeClock) WaitForTimers(n int) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	for len(clock.waiters) < n {
		clock.waitersChanged.Wait()
	}
}

// PendingCount returns the number of waiters that have not fired.
func (clock *FakeClock) PendingCount() int {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return len(clock.waiters)
}
