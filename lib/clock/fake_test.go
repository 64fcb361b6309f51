// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func TestFakeNowAdvances(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(epoch.Add(90 * time.Second)) {
		t.Fatalf("Now() after advance = %v", got)
	}
}

func TestFakeAfterFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(time.Minute)

	c.Advance(59 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-ch:
		if !at.Equal(epoch.Add(time.Minute)) {
			t.Fatalf("fired at %v", at)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	c := Fake(epoch)
	var fired atomic.Int32

	timer := c.AfterFunc(time.Minute, func() { fired.Add(1) })
	if !timer.Stop() {
		t.Fatal("Stop on a pending timer returned false")
	}
	c.Advance(2 * time.Minute)
	if fired.Load() != 0 {
		t.Fatal("stopped timer fired")
	}
	if timer.Stop() {
		t.Fatal("second Stop returned true")
	}
}

func TestFakeAfterFuncRunsSynchronously(t *testing.T) {
	c := Fake(epoch)
	var fired atomic.Int32
	c.AfterFunc(time.Minute, func() { fired.Add(1) })
	c.Advance(time.Minute)
	if fired.Load() != 1 {
		t.Fatalf("fired %d times, want 1", fired.Load())
	}
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(10 * time.Second)
	defer ticker.Stop()

	ticks := 0
	// Three intervals, but the channel holds one tick at a time, so
	// drain after each advance.
	for i := 0; i < 3; i++ {
		c.Advance(10 * time.Second)
		select {
		case <-ticker.C:
			ticks++
		default:
		}
	}
	if ticks != 3 {
		t.Fatalf("received %d ticks, want 3", ticks)
	}
}

func TestFakeTickerStopRemovesRegistration(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	if got := c.PendingTimers(); got != 1 {
		t.Fatalf("PendingTimers = %d, want 1", got)
	}
	ticker.Stop()
	if got := c.PendingTimers(); got != 0 {
		t.Fatalf("PendingTimers after Stop = %d, want 0", got)
	}
}

func TestFakeCallbackMayRegisterNewTimer(t *testing.T) {
	c := Fake(epoch)
	var chain atomic.Int32
	c.AfterFunc(time.Second, func() {
		chain.Add(1)
		c.AfterFunc(time.Second, func() { chain.Add(1) })
	})
	c.Advance(2 * time.Second)
	if chain.Load() != 2 {
		t.Fatalf("chain fired %d times, want 2", chain.Load())
	}
}

func TestWaitForTimersUnblocksOnRegistration(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.WaitForTimers(1)
		close(done)
	}()
	c.After(time.Minute)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForTimers did not unblock")
	}
}
