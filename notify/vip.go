// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"fmt"
	"time"
)

const (
	// vipMinInterval and vipIntervalSpan bound the uniform draw for
	// the next fire: [2, 5) minutes.
	vipMinInterval  = 2 * time.Minute
	vipIntervalSpan = 3 * time.Minute

	// vipProbability is the chance that a fire actually emits an
	// offer.
	vipProbability = 0.3
)

// vipCatalog is the fixed pool the generator draws from, uniformly.
var vipCatalog = []string{
	"Complimentary lounge access on your next departure.",
	"Business-class upgrade available for your upcoming trip.",
	"Late checkout unlocked at your booked hotel.",
	"Double points on every booking this week.",
}

// StartVIPOffers begins the synthetic offer generator. It refuses to
// run without an authenticated owner and is a no-op when already
// running.
func (s *Service) StartVIPOffers() error {
	if s.ownerID == "" {
		return fmt.Errorf("notify: VIP offers need an authenticated owner")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vipRunning {
		return nil
	}
	s.vipRunning = true
	s.scheduleVIPLocked()
	return nil
}

// StopVIPOffers cancels the generator. Safe to call when it was never
// started.
func (s *Service) StopVIPOffers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vipRunning = false
	if s.vipTimer != nil {
		s.vipTimer.Stop()
		s.vipTimer = nil
	}
}

func (s *Service) scheduleVIPLocked() {
	interval := vipMinInterval + time.Duration(s.rand.Float64()*float64(vipIntervalSpan))
	s.vipTimer = s.clk.AfterFunc(interval, s.vipFire)
}

func (s *Service) vipFire() {
	s.mu.Lock()
	if !s.vipRunning {
		s.mu.Unlock()
		return
	}
	emit := s.rand.Float64() < vipProbability
	offer := vipCatalog[s.rand.Intn(len(vipCatalog))]
	s.scheduleVIPLocked()
	s.mu.Unlock()

	if !emit {
		return
	}
	if _, err := s.VIPUpgrade(offer); err != nil {
		s.logger.Warn("VIP offer failed", "error", err)
	}
}
