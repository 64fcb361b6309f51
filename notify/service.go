// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waypoint-travel/waypoint/eventbus"
	"github.com/waypoint-travel/waypoint/lib/clock"
	"github.com/waypoint-travel/waypoint/lib/localdb"
)

// Config carries the dependencies for a Service.
type Config struct {
	// OwnerID scopes the service to one authenticated user. When
	// empty the service still accepts direct Add calls but attaches
	// no bus ingestion and refuses to start the VIP generator.
	OwnerID string

	// Bus is the event source for ingestion. Required.
	Bus *eventbus.Bus

	// Clock supplies creation timestamps, quiet-hours evaluation, and
	// the VIP generator's timers. Required.
	Clock clock.Clock

	// Logger is required.
	Logger *slog.Logger

	// DB persists notifications. Nil starts the service memory-only.
	DB *localdb.Pool

	// Prefs is the delivery configuration. Zero value disables sound
	// and quiet hours; use DefaultPreferences for the usual defaults.
	Prefs Preferences

	// Toast is the in-app channel. Required.
	Toast ToastSink

	// Audio is optional. Nil disables the audio channel entirely.
	Audio AudioSink

	// System is optional. Nil disables the system channel entirely.
	System SystemNotifier

	// Rand drives the VIP generator's interval and probability rolls.
	// Nil seeds a generator from the clock.
	Rand *rand.Rand
}

// Service owns the notification list. All mutations funnel through
// add, which serializes state changes under one mutex and runs channel
// and listener side effects outside it.
type Service struct {
	ownerID string
	bus     *eventbus.Bus
	clk     clock.Clock
	logger  *slog.Logger
	prefs   Preferences
	toast   ToastSink
	audio   AudioSink
	system  SystemNotifier
	rand    *rand.Rand

	mu            sync.Mutex
	notifications []Notification // newest first
	listeners     map[uint64]func([]Notification)
	nextListener  uint64

	// permissionAsked ensures the lazy permission prompt happens at
	// most once per process.
	permissionAsked bool

	vipRunning bool
	vipTimer   *clock.Timer

	unsubscribes []func()

	db       *localdb.Pool
	degraded bool
}

// Open builds the service, loads persisted notifications, and attaches
// bus ingestion for the owner's booking and activity topics.
func Open(cfg Config) (*Service, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("notify: Bus is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("notify: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("notify: Logger is required")
	}
	if cfg.Toast == nil {
		return nil, fmt.Errorf("notify: Toast is required")
	}

	random := cfg.Rand
	if random == nil {
		random = rand.New(rand.NewSource(cfg.Clock.Now().UnixNano()))
	}

	s := &Service{
		ownerID:   cfg.OwnerID,
		bus:       cfg.Bus,
		clk:       cfg.Clock,
		logger:    cfg.Logger,
		prefs:     cfg.Prefs,
		toast:     cfg.Toast,
		audio:     cfg.Audio,
		system:    cfg.System,
		rand:      random,
		listeners: make(map[uint64]func([]Notification)),
		db:        cfg.DB,
	}

	if s.db != nil {
		if err := s.loadAll(); err != nil {
			s.logger.Warn("notification store unreadable, starting memory-only", "error", err)
			s.db = nil
		}
	}
	s.degraded = s.db == nil

	if s.ownerID != "" {
		s.attachBus()
	}
	return s, nil
}

// Close stops the VIP generator and detaches bus ingestion. The
// notification list stays readable.
func (s *Service) Close() {
	s.StopVIPOffers()
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	s.unsubscribes = nil
}

// Add creates, persists, and delivers one notification. Zero-value
// Type and Priority default to update/medium.
func (s *Service) Add(draft Draft) (Notification, error) {
	if draft.Title == "" {
		return Notification{}, fmt.Errorf("notify: draft needs a title")
	}
	if draft.Type == "" {
		draft.Type = TypeUpdate
	}
	if draft.Priority == "" {
		draft.Priority = PriorityMedium
	}

	n := Notification{
		ID:        uuid.NewString(),
		OwnerID:   s.ownerID,
		Type:      draft.Type,
		Priority:  draft.Priority,
		Title:     draft.Title,
		Message:   draft.Message,
		CreatedAt: s.clk.Now(),
		Action:    draft.Action,
	}

	s.mu.Lock()
	s.persistLocked(n)
	s.notifications = append([]Notification{n}, s.notifications...)
	plan := s.deliveryPlanLocked(n)
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.deliver(n, plan)
	for _, listener := range listeners {
		listener(snapshot)
	}
	return n, nil
}

// deliveryPlan captures the channel decisions made under the mutex so
// the sink calls can run outside it.
type deliveryPlan struct {
	audio            bool
	system           bool
	askPermission    bool
	suppressedByHush bool
}

func (s *Service) deliveryPlanLocked(n Notification) deliveryPlan {
	var plan deliveryPlan

	hushed := s.prefs.QuietHours.Contains(s.clk.Now()) && n.Priority != PriorityUrgent
	plan.suppressedByHush = hushed

	if s.audio != nil && s.prefs.Sound && !hushed {
		plan.audio = true
	}

	if s.system != nil && !hushed {
		switch s.system.Permission() {
		case PermissionGranted:
			plan.system = true
		case PermissionUndetermined:
			highEnough := n.Priority == PriorityHigh || n.Priority == PriorityUrgent
			if highEnough && !s.permissionAsked {
				s.permissionAsked = true
				plan.askPermission = true
			}
		}
	}
	return plan
}

func (s *Service) deliver(n Notification, plan deliveryPlan) {
	// Toast is never suppressed: local state must stay visible even
	// when the louder channels are quiet.
	s.toast.Toast(n)

	if plan.audio {
		s.audio.Play(toneFor(n.Priority))
	}

	if plan.askPermission {
		if s.system.RequestPermission() == PermissionGranted {
			plan.system = true
		}
	}
	if plan.system {
		s.system.Notify(n)
	}

	if plan.suppressedByHush {
		s.logger.Debug("quiet hours suppressed loud channels",
			"id", n.ID, "priority", n.Priority)
	}
}

// Degraded reports whether the service is running without
// persistence: opened memory-only, or dropped there by a storage
// failure. Notifications keep flowing either way; the list is lost
// on restart.
func (s *Service) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// All returns the notification list, most recent first.
func (s *Service) All() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnreadCount recomputes the unread total from the list on every call.
// There is no separate counter to drift.
func (s *Service) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAsRead flags one notification. It reports whether the id was
// found.
func (s *Service) MarkAsRead(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			s.persistLocked(s.notifications[i])
			found = true
			break
		}
	}
	if !found {
		// Already-read entries still count as found.
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				found = true
				break
			}
		}
	}
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if found {
		for _, listener := range listeners {
			listener(snapshot)
		}
	}
	return found
}

// MarkAllAsRead flags every unread notification.
func (s *Service) MarkAllAsRead() {
	s.mu.Lock()
	for i := range s.notifications {
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			s.persistLocked(s.notifications[i])
		}
	}
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// Remove deletes one notification. It reports whether the id was
// found.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.deleteLocked(id)
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			found = true
			break
		}
	}
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if found {
		for _, listener := range listeners {
			listener(snapshot)
		}
	}
	return found
}

// Subscribe registers a listener that receives the full notification
// list after every mutation. The returned function unsubscribes and is
// idempotent.
func (s *Service) Subscribe(listener func([]Notification)) func() {
	s.mu.Lock()
	token := s.nextListener
	s.nextListener++
	s.listeners[token] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, token)
			s.mu.Unlock()
		})
	}
}

func (s *Service) snapshotLocked() []Notification {
	return append([]Notification(nil), s.notifications...)
}

func (s *Service) listenersLocked() []func([]Notification) {
	out := make([]func([]Notification), 0, len(s.listeners))
	for _, listener := range s.listeners {
		out = append(out, listener)
	}
	return out
}

// BookingConfirmed raises the high-priority confirmation shown after a
// successful booking.
func (s *Service) BookingConfirmed(destination string) (Notification, error) {
	return s.Add(Draft{
		Type:     TypeBooking,
		Priority: PriorityHigh,
		Title:    "Booking confirmed",
		Message:  fmt.Sprintf("Your trip to %s is confirmed.", destination),
		Action:   &Action{Label: "View booking", Target: "/bookings"},
	})
}

// TripReminder raises a departure reminder.
func (s *Service) TripReminder(destination string, departure time.Time) (Notification, error) {
	return s.Add(Draft{
		Type:     TypeReminder,
		Priority: PriorityMedium,
		Title:    "Upcoming trip",
		Message: fmt.Sprintf("Your trip to %s departs %s.",
			destination, departure.Format("Mon Jan 2 15:04")),
		Action: &Action{Label: "View itinerary", Target: "/trips"},
	})
}

// VIPUpgrade raises a synthetic upgrade offer.
func (s *Service) VIPUpgrade(offer string) (Notification, error) {
	return s.Add(Draft{
		Type:     TypeVIP,
		Priority: PriorityHigh,
		Title:    "VIP offer",
		Message:  offer,
		Action:   &Action{Label: "See offer", Target: "/offers"},
	})
}

// TripUpdate raises a medium-priority change notice for an existing
// trip.
func (s *Service) TripUpdate(summary string) (Notification, error) {
	return s.Add(Draft{
		Type:     TypeUpdate,
		Priority: PriorityMedium,
		Title:    "Trip updated",
		Message:  summary,
	})
}
