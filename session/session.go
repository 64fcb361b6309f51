// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package session assembles one user's component graph: event bus,
// entity store, reconciliation worker, notification service, and
// fleet simulator, all sharing one local database. There are no
// package-level singletons; everything is injected through Config and
// torn down by Shutdown.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/waypoint-travel/waypoint/eventbus"
	"github.com/waypoint-travel/waypoint/lib/clock"
	"github.com/waypoint-travel/waypoint/lib/localdb"
	"github.com/waypoint-travel/waypoint/localstore"
	"github.com/waypoint-travel/waypoint/notify"
	"github.com/waypoint-travel/waypoint/reconcile"
	"github.com/waypoint-travel/waypoint/remote"
	"github.com/waypoint-travel/waypoint/tracking"
)

// Config carries everything a session needs. Logger, Clock, and Toast
// are required; the rest degrades gracefully when absent.
type Config struct {
	// OwnerID is the authenticated subject. Required.
	OwnerID string

	Logger *slog.Logger
	Clock  clock.Clock

	// Rand seeds the notification generator and the simulator. Nil
	// uses a clock-seeded source.
	Rand *rand.Rand

	// StatePath is the sqlite file for local persistence. Empty runs
	// the whole session memory-only.
	StatePath string

	// Remote is the backend for best-effort reconciliation. Nil
	// disables mirroring entirely.
	Remote remote.Store

	// PreferencesPath points at the user's JSONC notification
	// preferences. Empty or unreadable falls back to defaults.
	PreferencesPath string

	// Toast is required; Audio and System are optional channels.
	Toast  notify.ToastSink
	Audio  notify.AudioSink
	System notify.SystemNotifier

	// TrackingInterval and TrackingUnits shape the simulator.
	// Zero values take the simulator's defaults.
	TrackingInterval time.Duration
	TrackingUnits    int
}

// Session is one user's running component graph.
type Session struct {
	Bus           *eventbus.Bus
	Store         *localstore.Store
	Notifications *notify.Service
	Tracker       *tracking.Simulator

	logger *slog.Logger
	worker *reconcile.Worker
	db     *localdb.Pool
	cancel context.CancelFunc
}

// New builds the graph without starting any background work. A
// database that cannot be opened degrades the session to memory-only
// rather than failing it; a broken preferences file falls back to
// defaults. Only missing required dependencies are errors.
func New(cfg Config) (*Session, error) {
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("session: OwnerID is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("session: Logger is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	s := &Session{logger: cfg.Logger}
	s.Bus = eventbus.New(cfg.Logger)

	if cfg.StatePath != "" {
		pool, err := localdb.Open(localdb.Config{
			Path:   cfg.StatePath,
			Logger: cfg.Logger,
			Schema: localstore.Schema + notify.Schema,
		})
		if err != nil {
			cfg.Logger.Warn("local database unavailable, running memory-only",
				"path", cfg.StatePath, "error", err)
		} else {
			s.db = pool
		}
	}

	if cfg.Remote != nil {
		worker, err := reconcile.New(reconcile.Config{
			Remote: cfg.Remote,
			Logger: cfg.Logger,
		})
		if err != nil {
			s.close()
			return nil, err
		}
		s.worker = worker
	}

	storeCfg := localstore.Config{
		Bus:    s.Bus,
		Clock:  cfg.Clock,
		Logger: cfg.Logger,
		DB:     s.db,
	}
	if s.worker != nil {
		storeCfg.Mirror = s.worker.Enqueue
	}
	store, err := localstore.Open(storeCfg)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("opening entity store: %w", err)
	}
	s.Store = store

	prefs := notify.DefaultPreferences()
	if cfg.PreferencesPath != "" {
		loaded, err := notify.LoadPreferences(cfg.PreferencesPath)
		if err != nil {
			cfg.Logger.Warn("notification preferences unreadable, using defaults",
				"path", cfg.PreferencesPath, "error", err)
		} else {
			prefs = loaded
		}
	}
	notifications, err := notify.Open(notify.Config{
		OwnerID: cfg.OwnerID,
		Bus:     s.Bus,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
		DB:      s.db,
		Prefs:   prefs,
		Toast:   cfg.Toast,
		Audio:   cfg.Audio,
		System:  cfg.System,
		Rand:    cfg.Rand,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("opening notification service: %w", err)
	}
	s.Notifications = notifications

	var units []tracking.Unit
	if cfg.TrackingUnits > 0 {
		units = tracking.DefaultFleet(cfg.TrackingUnits)
	}
	tracker, err := tracking.New(tracking.Config{
		Bus:      s.Bus,
		Clock:    cfg.Clock,
		Logger:   cfg.Logger,
		Rand:     cfg.Rand,
		Interval: cfg.TrackingInterval,
		Units:    units,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("building fleet simulator: %w", err)
	}
	s.Tracker = tracker

	return s, nil
}

// Start launches the background tasks: reconciliation, the synthetic
// offer generator, and the fleet simulator.
func (s *Session) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	if s.worker != nil {
		s.worker.Start(ctx)
	}
	if err := s.Notifications.StartVIPOffers(); err != nil {
		return err
	}
	s.Tracker.Start()
	return nil
}

// Shutdown stops all background work, waiting up to ctx's deadline for
// the reconciliation worker to wind down, then closes the database.
func (s *Session) Shutdown(ctx context.Context) error {
	s.Tracker.Stop()
	s.Notifications.Close()

	var waitErr error
	if s.cancel != nil {
		s.cancel()
		if s.worker != nil {
			waitErr = s.worker.Wait(ctx)
		}
	}

	s.close()
	return waitErr
}

func (s *Session) close() {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
}
