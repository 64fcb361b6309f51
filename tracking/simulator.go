// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package tracking

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/waypoint-travel/waypoint/eventbus"
	"github.com/waypoint-travel/waypoint/lib/clock"
	"github.com/waypoint-travel/waypoint/lib/schema"
)

const defaultInterval = 15 * time.Second

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Unit is one simulated vehicle. The simulator owns every field;
// other components only ever see copies.
type Unit struct {
	ID          string    `json:"id"`
	Route       string    `json:"route"`
	Position    Position  `json:"position"`
	Destination Position  `json:"destination"`
	Occupancy   int       `json:"occupancy"`
	Capacity    int       `json:"capacity"`
	BasePrice   float64   `json:"basePrice"`
	PriceFactor float64   `json:"priceFactor"`
	ETAMinutes  float64   `json:"etaMinutes"`
	LastUpdate  time.Time `json:"lastUpdate"`
}

// Price is the unit's current effective price.
func (u Unit) Price() float64 { return u.BasePrice * u.PriceFactor }

// FleetUpdate is the batched payload published on the tracking topic
// after every tick.
type FleetUpdate struct {
	Units      []Unit
	OccurredAt time.Time
}

// Config carries the dependencies for a Simulator.
type Config struct {
	// Bus receives one FleetUpdate per tick. Required.
	Bus *eventbus.Bus

	// Clock drives the tick interval. Required.
	Clock clock.Clock

	// Logger is required.
	Logger *slog.Logger

	// Rand drives the random walks. Nil seeds a generator from the
	// clock, which is fine everywhere except deterministic tests.
	Rand *rand.Rand

	// Interval between ticks. Defaults to 15s.
	Interval time.Duration

	// Units is the initial fleet. Empty means DefaultFleet(4).
	Units []Unit
}

// Simulator owns the fleet. All mutation happens on the tick
// goroutine; Snapshot takes the mutex only long enough to copy.
type Simulator struct {
	bus      *eventbus.Bus
	clk      clock.Clock
	logger   *slog.Logger
	rand     *rand.Rand
	interval time.Duration

	mu      sync.Mutex
	units   []Unit
	running bool
	ticker  *clock.Ticker
	stop    chan struct{}
	done    chan struct{}
}

func New(cfg Config) (*Simulator, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("tracking: Bus is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("tracking: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("tracking: Logger is required")
	}

	random := cfg.Rand
	if random == nil {
		random = rand.New(rand.NewSource(cfg.Clock.Now().UnixNano()))
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	units := cfg.Units
	if len(units) == 0 {
		units = DefaultFleet(4)
	}
	for i := range units {
		if units[i].Capacity <= 0 {
			return nil, fmt.Errorf("tracking: unit %s has no capacity", units[i].ID)
		}
		if units[i].PriceFactor == 0 {
			units[i].PriceFactor = 1.0
		}
		units[i].LastUpdate = cfg.Clock.Now()
	}

	return &Simulator{
		bus:      cfg.Bus,
		clk:      cfg.Clock,
		logger:   cfg.Logger,
		rand:     random,
		interval: interval,
		units:    units,
	}, nil
}

// DefaultFleet builds n units spread over a fixed set of routes.
func DefaultFleet(n int) []Unit {
	routes := []struct {
		name     string
		from, to Position
		eta      float64
	}{
		{"airport-express", Position{38.774, -9.134}, Position{38.714, -9.140}, 35},
		{"coastal-line", Position{38.708, -9.387}, Position{38.697, -9.206}, 50},
		{"old-town-loop", Position{38.711, -9.133}, Position{38.716, -9.142}, 20},
		{"riverside", Position{38.696, -9.177}, Position{38.710, -9.127}, 28},
	}
	units := make([]Unit, 0, n)
	for i := 0; i < n; i++ {
		route := routes[i%len(routes)]
		units = append(units, Unit{
			ID:          fmt.Sprintf("unit-%d", i+1),
			Route:       route.name,
			Position:    route.from,
			Destination: route.to,
			Occupancy:   10 + 5*(i%3),
			Capacity:    40,
			BasePrice:   2.50,
			PriceFactor: 1.0,
			ETAMinutes:  route.eta,
		})
	}
	return units
}

// Start launches the tick loop. Idempotent while running.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.ticker = s.clk.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.ticker, s.stop, s.done)
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
// Safe to call when the simulator was never started.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
}

// Snapshot returns a copy of the fleet. Callers may hold it as long
// as they like.
func (s *Simulator) Snapshot() []Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Unit(nil), s.units...)
}

func (s *Simulator) run(ticker *clock.Ticker, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick mutates every unit under the mutex, then publishes the batched
// snapshot outside it so slow subscribers never block Snapshot.
func (s *Simulator) tick() {
	now := s.clk.Now()

	s.mu.Lock()
	stepMinutes := s.interval.Minutes()
	for i := range s.units {
		s.advance(&s.units[i], stepMinutes, now)
	}
	snapshot := append([]Unit(nil), s.units...)
	s.mu.Unlock()

	s.bus.Publish(schema.TrackingTopic, FleetUpdate{
		Units:      snapshot,
		OccurredAt: now,
	})
}

func (s *Simulator) advance(unit *Unit, stepMinutes float64, now time.Time) {
	// Occupancy walks ±1..3, clamped to the vehicle.
	delta := 1 + s.rand.Intn(3)
	if s.rand.Intn(2) == 0 {
		delta = -delta
	}
	unit.Occupancy = clampInt(unit.Occupancy+delta, 0, unit.Capacity)

	// Price drifts up to ±10% of its current factor, clamped to
	// [0.8, 1.2] of base.
	drift := 1 + (s.rand.Float64()*0.2 - 0.1)
	unit.PriceFactor = clampFloat(unit.PriceFactor*drift, 0.8, 1.2)

	// Progress toward the destination is monotonic. An arrived unit
	// stays arrived.
	if unit.ETAMinutes > 0 {
		fraction := stepMinutes / unit.ETAMinutes
		if fraction >= 1 {
			unit.Position = unit.Destination
			unit.ETAMinutes = 0
		} else {
			unit.Position.Lat += (unit.Destination.Lat - unit.Position.Lat) * fraction
			unit.Position.Lon += (unit.Destination.Lon - unit.Position.Lon) * fraction
			unit.ETAMinutes -= stepMinutes
		}
	}
	unit.LastUpdate = now
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
