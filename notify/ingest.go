// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"github.com/waypoint-travel/waypoint/eventbus"
	"github.com/waypoint-travel/waypoint/lib/schema"
)

// attachBus subscribes to the owner's entity topics. Each domain event
// maps through a fixed per-kind template into the same Add path used
// by every other caller.
func (s *Service) attachBus() {
	s.unsubscribes = append(s.unsubscribes,
		s.bus.Subscribe(schema.Topic(schema.KindBooking, s.ownerID), s.onBookingEvent),
		s.bus.Subscribe(schema.Topic(schema.KindActivity, s.ownerID), s.onActivityEvent),
	)
}

func (s *Service) onBookingEvent(e eventbus.Event) {
	event, ok := e.Payload.(schema.DomainEvent)
	if !ok {
		return
	}

	var draft Draft
	switch event.Kind {
	case schema.EventInsert:
		draft = Draft{
			Type:     TypeBooking,
			Priority: PriorityHigh,
			Title:    "Booking confirmed",
			Message:  "Your booking is confirmed and saved on this device.",
			Action:   &Action{Label: "View booking", Target: "/bookings"},
		}
	case schema.EventUpdate:
		draft = Draft{
			Type:     TypeUpdate,
			Priority: PriorityMedium,
			Title:    "Booking updated",
			Message:  "One of your bookings changed.",
			Action:   &Action{Label: "View booking", Target: "/bookings"},
		}
	default:
		return
	}

	if _, err := s.Add(draft); err != nil {
		s.logger.Warn("booking notification failed", "error", err)
	}
}

func (s *Service) onActivityEvent(e eventbus.Event) {
	event, ok := e.Payload.(schema.DomainEvent)
	if !ok || event.Kind != schema.EventInsert {
		return
	}

	_, err := s.Add(Draft{
		Type:     TypeUpdate,
		Priority: PriorityLow,
		Title:    "Activity logged",
		Message:  "A new activity was added to your timeline.",
	})
	if err != nil {
		s.logger.Warn("activity notification failed", "error", err)
	}
}
