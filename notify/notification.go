// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import "time"

// Type classifies a notification for the front end's filtering and
// iconography.
type Type string

const (
	TypeBooking  Type = "booking"
	TypeReminder Type = "reminder"
	TypeUpdate   Type = "update"
	TypeAlert    Type = "alert"
	TypeVIP      Type = "vip"
)

// Priority drives channel selection and quiet-hours suppression.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Action is an optional deep link attached to a notification.
type Action struct {
	Label  string `cbor:"label" json:"label"`
	Target string `cbor:"target" json:"target"`
}

// Notification is one delivered record. Mutations after creation are
// limited to the Read flag and removal.
type Notification struct {
	ID        string    `cbor:"id" json:"id"`
	OwnerID   string    `cbor:"owner_id" json:"ownerId"`
	Type      Type      `cbor:"type" json:"type"`
	Priority  Priority  `cbor:"priority" json:"priority"`
	Title     string    `cbor:"title" json:"title"`
	Message   string    `cbor:"message" json:"message"`
	CreatedAt time.Time `cbor:"created_at" json:"createdAt"`
	Read      bool      `cbor:"read" json:"read"`
	Action    *Action   `cbor:"action,omitempty" json:"action,omitempty"`
}

// Draft is the input to Add. ID, OwnerID, CreatedAt, and Read are
// assigned by the service.
type Draft struct {
	Type     Type
	Priority Priority
	Title    string
	Message  string
	Action   *Action
}
