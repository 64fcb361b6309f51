// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// EntityKind identifies a class of locally cached entities. The kind
// doubles as the remote table name and as the first component of the
// event topic for that entity class.
type EntityKind string

const (
	// KindBooking is a trip booking created by the user.
	KindBooking EntityKind = "bookings"

	// KindActivity is an activity log entry (check-in, points earned,
	// itinerary change).
	KindActivity EntityKind = "activities"

	// KindProfile is the per-owner profile record. Singleton: the
	// record id equals the owner id.
	KindProfile EntityKind = "profile"
)

// Valid reports whether k is one of the known entity kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindBooking, KindActivity, KindProfile:
		return true
	}
	return false
}

// EntityRecord is one locally cached entity. The local store is the
// exclusive owner of these records; every other component sees them
// only inside domain events or as read-only query results.
type EntityRecord struct {
	// Kind is the entity class this record belongs to.
	Kind EntityKind `json:"kind"`

	// ID is unique within a kind. Re-inserting an existing id is an
	// update, never a second insert.
	ID string `json:"id"`

	// OwnerID is the authenticated subject the record belongs to.
	OwnerID string `json:"owner_id"`

	// Payload is the caller-defined business data, CBOR-encoded. The
	// store persists and routes it without interpretation.
	Payload []byte `json:"payload"`

	// Seq is the monotonic local-write sequence number assigned when
	// the record was last written locally. Remote/local precedence is
	// decided by comparing Seq values, never wall-clock timestamps.
	Seq uint64 `json:"seq"`

	// CreatedAt is when this revision of the record was written.
	CreatedAt time.Time `json:"created_at"`
}

// Topic returns the event routing key for an entity kind and owner,
// in the canonical "<kind>:<owner>" form (e.g. "bookings:user-42").
func Topic(kind EntityKind, ownerID string) string {
	return string(kind) + ":" + ownerID
}

// TrackingTopic is the routing key for live fleet tracking updates.
// Tracking events are consumed by notification and UI layers only;
// they never touch the local store.
const TrackingTopic = "tracking:fleet"

// Profile is the decoded payload of a KindProfile record. Unlike
// bookings and activities, the profile shape is known to the core so
// that AddPoints can patch it without a round trip through the UI.
type Profile struct {
	DisplayName string `cbor:"display_name" json:"display_name"`
	Points      int64  `cbor:"points" json:"points"`
}
