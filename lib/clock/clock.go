// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by the core. Production
// code injects Real(); tests inject Fake() and advance it explicitly.
//
// No production code in this module calls time.Now, time.After,
// time.AfterFunc, or time.NewTicker directly — every timer-driven
// component takes a Clock in its config struct.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once, after d elapses.
	// If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc schedules f to run after d elapses. The returned
	// Timer cancels the pending call via Stop. Its C field is nil,
	// matching time.AfterFunc.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. The channel has capacity 1:
// if the consumer falls behind, ticks are dropped, matching
// time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. No tick is delivered after Stop returns.
// C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Timer is a pending one-shot scheduled by AfterFunc. C is always nil
// for AfterFunc timers.
type Timer struct {
	C <-chan time.Time

	stop func() bool
}

// Stop cancels the pending call. It returns false when the timer
// already fired or was already stopped.
func (t *Timer) Stop() bool { return t.stop() }
