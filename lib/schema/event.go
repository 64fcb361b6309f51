// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// EventKind is the mutation type carried by a domain event.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// DomainEvent is the transient envelope describing one entity
// mutation. It exists only for fan-out over the event bus and is
// never persisted: the local store is the durability layer, not the
// bus. Events are immutable once published — handlers must not
// modify the embedded record.
type DomainEvent struct {
	// Topic is the routing key the event was published on.
	Topic string

	// Kind is the mutation type.
	Kind EventKind

	// Entity is the record state after the mutation was applied.
	Entity EntityRecord

	// OccurredAt is when the mutation was applied locally.
	OccurredAt time.Time
}
