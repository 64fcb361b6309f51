// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"

	"github.com/waypoint-travel/waypoint/notify"
)

// The headless daemon renders every delivery channel as a log line.

type logToast struct {
	logger *slog.Logger
}

func (s *logToast) Toast(n notify.Notification) {
	s.logger.Info("toast",
		"type", n.Type, "priority", n.Priority,
		"title", n.Title, "message", n.Message,
	)
}

type logAudio struct {
	logger *slog.Logger
}

func (s *logAudio) Play(pattern notify.TonePattern) {
	s.logger.Info("audio", "pattern", pattern)
}

// logNotifier grants permission on request, so the lazy-request flow
// is exercised end to end even without a host notification API.
type logNotifier struct {
	logger  *slog.Logger
	granted bool
}

func (s *logNotifier) Permission() notify.Permission {
	if s.granted {
		return notify.PermissionGranted
	}
	return notify.PermissionUndetermined
}

func (s *logNotifier) RequestPermission() notify.Permission {
	s.granted = true
	s.logger.Info("system notification permission granted")
	return notify.PermissionGranted
}

func (s *logNotifier) Notify(n notify.Notification) {
	s.logger.Info("system notification", "priority", n.Priority, "title", n.Title)
}
