// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/waypoint-travel/waypoint/eventbus"
	"github.com/waypoint-travel/waypoint/lib/clock"
	"github.com/waypoint-travel/waypoint/lib/codec"
	"github.com/waypoint-travel/waypoint/lib/localdb"
	"github.com/waypoint-travel/waypoint/lib/schema"
)

// Config holds the parameters for opening a Store.
type Config struct {
	// Bus receives one domain event per mutation. Required.
	Bus *eventbus.Bus

	// Clock provides record timestamps. Required.
	Clock clock.Clock

	// Logger receives degradation warnings and skipped-apply debug
	// messages. Required.
	Logger *slog.Logger

	// DB is the local database pool. Nil opens the store in
	// memory-only mode (the caller has already logged why).
	DB *localdb.Pool

	// Mirror, when non-nil, is invoked after each locally originated
	// mutation with the written record and the mutation kind. The
	// session wires this to the reconciliation worker's Enqueue.
	// Records applied via ApplyRemote are never mirrored — they came
	// from the backend, and sending them back would create a
	// feedback loop.
	Mirror func(record schema.EntityRecord, kind schema.EventKind)
}

// Store caches domain entities locally. All public methods are safe
// for concurrent use; mutations are serialized by an internal mutex.
type Store struct {
	bus    *eventbus.Bus
	clk    clock.Clock
	logger *slog.Logger
	mirror func(schema.EntityRecord, schema.EventKind)

	mu sync.Mutex
	// records is kind → owner → id → record. The in-memory state is
	// what reads are served from; the database exists to survive
	// restarts.
	records  map[schema.EntityKind]map[string]map[string]schema.EntityRecord
	seq      uint64
	db       *localdb.Pool // nil once degraded
	degraded bool
}

// Open constructs the store and loads all persisted entities. A
// database read failure at open degrades to memory-only instead of
// failing: the user's session must start even with a corrupt cache.
func Open(cfg Config) (*Store, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("localstore: Bus is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("localstore: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("localstore: Logger is required")
	}

	store := &Store{
		bus:     cfg.Bus,
		clk:     cfg.Clock,
		logger:  cfg.Logger,
		mirror:  cfg.Mirror,
		records: make(map[schema.EntityKind]map[string]map[string]schema.EntityRecord),
		db:      cfg.DB,
	}
	if cfg.DB == nil {
		store.degraded = true
	} else if err := store.loadAll(); err != nil {
		store.logger.Warn("local cache unreadable, continuing memory-only",
			"error", err,
		)
		store.db = nil
		store.degraded = true
	}
	return store, nil
}

// InsertBooking stores a new booking for owner and publishes its
// INSERT event. The payload is opaque CBOR; the store never inspects
// it. The caller never waits on, or hears about, the remote mirror.
func (s *Store) InsertBooking(ownerID string, payload []byte) (schema.EntityRecord, error) {
	return s.insert(schema.KindBooking, ownerID, payload)
}

// ListBookings returns owner's bookings most-recent-first. A limit
// of zero or less returns everything.
func (s *Store) ListBookings(ownerID string, limit int) []schema.EntityRecord {
	return s.list(schema.KindBooking, ownerID, limit)
}

// InsertActivity stores a new activity entry for owner and publishes
// its INSERT event.
func (s *Store) InsertActivity(ownerID string, payload []byte) (schema.EntityRecord, error) {
	return s.insert(schema.KindActivity, ownerID, payload)
}

// ListActivities returns owner's activities most-recent-first.
func (s *Store) ListActivities(ownerID string, limit int) []schema.EntityRecord {
	return s.list(schema.KindActivity, ownerID, limit)
}

// GetProfile returns owner's profile record, if one exists. The
// profile is a singleton: its record id equals the owner id.
func (s *Store) GetProfile(ownerID string) (schema.EntityRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[schema.KindProfile][ownerID][ownerID]
	return record, ok
}

// AddPoints adjusts owner's loyalty point balance, creating the
// profile when absent, and returns the updated profile. This is the
// one place the core interprets a payload: the profile shape is
// owned by lib/schema precisely so this patch stays local.
func (s *Store) AddPoints(ownerID string, delta int64) (schema.Profile, error) {
	if ownerID == "" {
		return schema.Profile{}, fmt.Errorf("localstore: owner id is required")
	}

	s.mu.Lock()
	var profile schema.Profile
	if existing, ok := s.records[schema.KindProfile][ownerID][ownerID]; ok {
		if err := codec.Unmarshal(existing.Payload, &profile); err != nil {
			s.mu.Unlock()
			return schema.Profile{}, fmt.Errorf("localstore: decoding profile payload: %w", err)
		}
	}
	profile.Points += delta

	payload, err := codec.Marshal(profile)
	if err != nil {
		s.mu.Unlock()
		return schema.Profile{}, fmt.Errorf("localstore: encoding profile payload: %w", err)
	}

	record, eventKind := s.upsertLocked(schema.KindProfile, ownerID, ownerID, payload)
	s.mu.Unlock()

	s.finishMutation(record, eventKind)
	return profile, nil
}

// ApplyRemote seeds or overrides the local cache with a record from
// the remote backend. The incoming record wins only when the local
// copy is absent or older by sequence number; a skipped apply is
// logged, never silent. Applied records publish an UPDATE event and
// are not mirrored back.
func (s *Store) ApplyRemote(record schema.EntityRecord) error {
	if !record.Kind.Valid() {
		return fmt.Errorf("localstore: unknown entity kind %q", record.Kind)
	}
	if record.ID == "" || record.OwnerID == "" {
		return fmt.Errorf("localstore: remote record missing id or owner")
	}

	s.mu.Lock()
	if local, ok := s.records[record.Kind][record.OwnerID][record.ID]; ok && local.Seq >= record.Seq {
		s.mu.Unlock()
		s.logger.Debug("remote record older than local write, keeping local",
			"kind", record.Kind,
			"id", record.ID,
			"local_seq", local.Seq,
			"remote_seq", record.Seq,
		)
		return nil
	}
	if record.Seq > s.seq {
		s.seq = record.Seq
	}
	s.persistLocked(record)
	s.applyLocked(record)
	s.mu.Unlock()

	s.publish(record, schema.EventUpdate)
	return nil
}

// Seq returns the current local-write sequence number.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Degraded reports whether the store is running without persistence:
// opened memory-only, or dropped there by a storage failure. Reads
// and writes keep working either way; state is lost on restart.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// insert generates an id and writes a fresh record.
func (s *Store) insert(kind schema.EntityKind, ownerID string, payload []byte) (schema.EntityRecord, error) {
	if ownerID == "" {
		return schema.EntityRecord{}, fmt.Errorf("localstore: owner id is required")
	}

	s.mu.Lock()
	record, eventKind := s.upsertLocked(kind, ownerID, uuid.NewString(), payload)
	s.mu.Unlock()

	s.finishMutation(record, eventKind)
	return record, nil
}

// upsertLocked assigns the next sequence number, persists, and
// applies a record. Returns the written record and whether this was
// an INSERT or an UPDATE of an existing id.
func (s *Store) upsertLocked(kind schema.EntityKind, ownerID, id string, payload []byte) (schema.EntityRecord, schema.EventKind) {
	s.seq++
	record := schema.EntityRecord{
		Kind:      kind,
		ID:        id,
		OwnerID:   ownerID,
		Payload:   payload,
		Seq:       s.seq,
		CreatedAt: s.clk.Now(),
	}

	eventKind := schema.EventInsert
	if _, exists := s.records[kind][ownerID][id]; exists {
		eventKind = schema.EventUpdate
	}

	s.persistLocked(record)
	s.applyLocked(record)
	return record, eventKind
}

// applyLocked writes a record into the in-memory state.
func (s *Store) applyLocked(record schema.EntityRecord) {
	owners, ok := s.records[record.Kind]
	if !ok {
		owners = make(map[string]map[string]schema.EntityRecord)
		s.records[record.Kind] = owners
	}
	byID, ok := owners[record.OwnerID]
	if !ok {
		byID = make(map[string]schema.EntityRecord)
		owners[record.OwnerID] = byID
	}
	byID[record.ID] = record
}

// finishMutation publishes the domain event and hands the record to
// the mirror hook. Runs outside the mutex: handlers re-entering the
// store (a dashboard counter re-querying a list) must not deadlock.
func (s *Store) finishMutation(record schema.EntityRecord, kind schema.EventKind) {
	s.publish(record, kind)
	if s.mirror != nil {
		s.mirror(record, kind)
	}
}

func (s *Store) publish(record schema.EntityRecord, kind schema.EventKind) {
	topic := schema.Topic(record.Kind, record.OwnerID)
	s.bus.Publish(topic, schema.DomainEvent{
		Topic:      topic,
		Kind:       kind,
		Entity:     record,
		OccurredAt: record.CreatedAt,
	})
}

// list returns owner's records of one kind, newest local write first.
func (s *Store) list(kind schema.EntityKind, ownerID string, limit int) []schema.EntityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.records[kind][ownerID]
	out := make([]schema.EntityRecord, 0, len(byID))
	for _, record := range byID {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
