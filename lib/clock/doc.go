// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that every
// timer-driven component in the core can be tested deterministically.
//
// Production code holds a Clock field and calls it instead of the
// time package:
//
//	sim := tracking.New(tracking.Config{Clock: clock.Real(), ...})
//
// Tests construct a fake pinned to a known instant and advance it by
// hand:
//
//	c := clock.Fake(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
//	sim := tracking.New(tracking.Config{Clock: c, ...})
//	sim.Start()
//	c.WaitForTimers(1)       // ticker registered by the tick goroutine
//	c.Advance(15 * time.Second) // one deterministic tick
//
// WaitForTimers removes the race between a background goroutine
// registering its timer and the test advancing time; no test in this
// module synchronizes with time.Sleep.
package clock
