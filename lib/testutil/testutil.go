// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for package tests.
//
// [RequireReceive] and [RequireNoReceive] encapsulate the
// select-with-timeout pattern so individual tests never call
// time.After themselves — the timeout here is a hang-prevention
// safety valve, not a synchronization mechanism. Everything
// timer-driven in this module synchronizes through lib/clock fakes.
//
// [UniqueID] hands out monotonically increasing identifiers for
// tests that need distinguishable record ids without reaching for
// time.Now.
package testutil

import (
	"fmt"
	"sync/atomic"
	"time"
)

// failer is the subset of *testing.T these helpers need.
type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout or fails the
// test.
func RequireReceive[T any](t failer, ch <-chan T, timeout time.Duration, message string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without a value: %s", message)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, message)
	}
	panic("unreachable")
}

// RequireNoReceive fails the test if ch delivers a value within wait.
// Use it to assert that a suppressed side effect really did not
// happen.
func RequireNoReceive[T any](t failer, ch <-chan T, wait time.Duration, message string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %v: %s", v, message)
	case <-time.After(wait):
	}
}

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" with a process-unique N.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
