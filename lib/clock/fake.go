// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock pinned to initial. Time moves only when
// Advance is called; all timers and tickers registered against the
// fake fire synchronously, in deadline order, inside Advance.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. AfterFunc callbacks
// run synchronously in the goroutine calling Advance; do not call
// Advance from inside a callback.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	timers     []*fakeTimer
	registered *sync.Cond
}

// fakeTimer is one pending After, AfterFunc, or ticker registration.
type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time // nil for AfterFunc
	fn       func()         // nil for After and tickers
	interval time.Duration  // non-zero for tickers; rescheduled after firing
	stopped  bool
	fired    bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot channel timer. A non-positive duration
// delivers immediately without registering.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.timers = append(c.timers, &fakeTimer{deadline: c.now.Add(d), ch: ch})
	c.registered.Broadcast()
	return ch
}

// AfterFunc registers f to run when the clock advances past now+d. A
// non-positive duration calls f synchronously before returning.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, timer)
	c.registered.Broadcast()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if timer.stopped || timer.fired {
			return false
		}
		timer.stopped = true
		return true
	}}
}

// NewTicker registers a repeating timer. Panics if d <= 0, matching
// time.NewTicker.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	timer := &fakeTimer{deadline: c.now.Add(d), ch: ch, interval: d}
	c.timers = append(c.timers, timer)
	c.registered.Broadcast()

	return &Ticker{C: ch, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		timer.stopped = true
	}}
}

// Advance moves the clock forward by d. Every timer whose deadline
// falls within the new time fires: AfterFunc callbacks run
// synchronously in the calling goroutine, channel timers send
// non-blocking (overflowing ticks are dropped, matching time.Ticker).
// Tickers spanning several intervals fire once per interval.
//
// Callbacks may register new timers; Advance keeps draining until no
// expired timer remains.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		expired := c.takeExpired(target)
		if len(expired) == 0 {
			return
		}
		sort.Slice(expired, func(i, j int) bool {
			return expired[i].deadline.Before(expired[j].deadline)
		})
		for _, timer := range expired {
			if timer.fn != nil {
				timer.fn()
				continue
			}
			select {
			case timer.ch <- target:
			default:
			}
		}
	}
}

// takeExpired removes and returns timers due at or before target,
// rescheduling tickers for their next interval.
func (c *FakeClock) takeExpired(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired, rest []*fakeTimer
	for _, timer := range c.timers {
		switch {
		case timer.stopped:
		case !timer.deadline.After(target):
			expired = append(expired, timer)
		default:
			rest = append(rest, timer)
		}
	}
	for _, timer := range expired {
		if timer.interval > 0 {
			timer.deadline = timer.deadline.Add(timer.interval)
			rest = append(rest, timer)
		} else {
			timer.fired = true
		}
	}
	c.timers = rest
	return expired
}

// WaitForTimers blocks until at least n timers are pending. Call it
// after starting a background goroutine and before Advance, so the
// goroutine's timer registration is guaranteed to be visible.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.registered.Wait()
	}
}

// PendingTimers returns the number of live registrations. Tests use
// it to assert that stopped components do not leak timers.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			n++
		}
	}
	return n
}
