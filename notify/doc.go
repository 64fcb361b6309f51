// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify turns domain events into user-facing notifications
// and routes them through delivery channels.
//
// Every notification, whatever its origin (bus ingestion, typed
// constructors, the synthetic VIP generator), funnels through a single
// Add path: persist first, then toast, then audio and system channels
// subject to preferences, quiet hours, and host permission. The toast
// channel is never suppressed, and urgent notifications cut through
// quiet hours.
package notify
