// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/tidwall/jsonc"
)

// QuietHours is a local-time window during which only the toast
// channel fires for non-urgent notifications. Start and End are
// "HH:MM" on a 24-hour clock; a window may wrap past midnight
// (Start "22:00", End "07:00").
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Preferences is the user's delivery configuration. The file on disk
// is JSONC so users can annotate their overrides.
type Preferences struct {
	Sound      bool       `json:"sound"`
	QuietHours QuietHours `json:"quietHours"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Sound: true,
		QuietHours: QuietHours{
			Enabled: false,
			Start:   "22:00",
			End:     "07:00",
		},
	}
}

// LoadPreferences reads path, treating a missing file as defaults.
func LoadPreferences(path string) (Preferences, error) {
	preferences := DefaultPreferences()

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return preferences, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("reading preferences: %w", err)
	}

	if err := json.Unmarshal(jsonc.ToJSON(raw), &preferences); err != nil {
		return Preferences{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := preferences.validate(); err != nil {
		return Preferences{}, fmt.Errorf("%s: %w", path, err)
	}
	return preferences, nil
}

func (p Preferences) validate() error {
	if !p.QuietHours.Enabled {
		return nil
	}
	if _, err := parseClockTime(p.QuietHours.Start); err != nil {
		return fmt.Errorf("quietHours.start: %w", err)
	}
	if _, err := parseClockTime(p.QuietHours.End); err != nil {
		return fmt.Errorf("quietHours.end: %w", err)
	}
	return nil
}

// Contains reports whether now's local wall time falls in [Start, End).
// An equal Start and End is an empty window.
func (q QuietHours) Contains(now time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err := parseClockTime(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClockTime(q.End)
	if err != nil {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return minute >= start && minute < end
	default: // wraps past midnight
		return minute >= start || minute < end
	}
}

// parseClockTime converts "HH:MM" to minutes since midnight.
func parseClockTime(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", value)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
