// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the shared data types that cross package
// boundaries: entity records, domain events, and the topic naming
// convention used to route events between the local store, the
// notification service, and UI subscribers.
//
// Types in this package are plain data. They carry no behavior beyond
// construction helpers and are safe to copy. Entity payloads are
// opaque CBOR blobs — the local store never interprets business
// fields, with the single exception of the profile record, whose
// shape ([Profile]) is owned here so that point accrual can patch it.
package schema
