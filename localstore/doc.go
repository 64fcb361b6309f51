// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package localstore is the authoritative-for-now cache of domain
// entities: bookings, activities, and the per-owner profile.
//
// Writes follow the local-first contract: a mutation is applied to
// the in-memory state, written through to the local database, and
// only then published as a domain event — publish-after-write, never
// before. The caller gets its record back immediately; mirroring to
// the remote backend happens later, off this path, and its outcome
// never changes local state. Once applied, a local mutation is final
// for the lifetime of the process.
//
// Every record carries a monotonic local-write sequence number,
// persisted with it. Remote/local precedence in ApplyRemote is
// decided by comparing sequence numbers, not wall-clock timestamps,
// which keeps the policy immune to clock skew.
//
// When the local database cannot be opened or a write to it fails,
// the store degrades to memory-only operation: a warning is logged
// once and every operation keeps working. Data written in that mode
// does not survive a restart — an accepted, documented trade-off, not
// a silent failure.
package localstore
