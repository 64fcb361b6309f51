// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventbus provides the in-process publish/subscribe router
// that connects the local store, the notification service, the
// tracking feed, and UI subscribers.
//
// The bus is a direct dispatcher, not a durable log. Delivery is
// synchronous and in subscription order on the publishing goroutine;
// a publish with no subscribers is silently lost, which is fine
// because the local store — not the bus — is the durability layer.
// Topics are exact strings of the form "<kind>:<owner>"; there are no
// wildcards.
//
// Handlers are isolated: a panicking handler is logged and skipped,
// and never prevents delivery to the handlers after it. A handler may
// unsubscribe itself (or others) during its own invocation, and may
// publish further events; nested publishes are queued and dispatched
// after the current handler loop finishes, which bounds stack depth
// and preserves per-publish ordering.
//
// Concurrent publishers are serialized: a Publish arriving while
// another goroutine is mid-dispatch waits for that dispatch to
// finish, then runs its own. A top-level Publish therefore returns
// only after every current handler for its event has been invoked.
package eventbus
