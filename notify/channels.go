// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

// TonePattern names an audible pattern. The three patterns must stay
// distinguishable so urgency is audible without looking at the screen.
type TonePattern string

const (
	// ToneFlat is the default single flat tone for low and medium
	// priority.
	ToneFlat TonePattern = "flat"
	// ToneDescending is a single descending tone for high priority.
	ToneDescending TonePattern = "descending"
	// ToneTriple is the multi-tone pattern reserved for urgent.
	ToneTriple TonePattern = "triple"
)

// Permission is the host's answer for the system-notification channel.
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// ToastSink is the in-app channel. It receives every notification
// regardless of preferences or quiet hours.
type ToastSink interface {
	Toast(n Notification)
}

// AudioSink plays the tone pattern selected for a notification's
// priority.
type AudioSink interface {
	Play(pattern TonePattern)
}

// SystemNotifier is the host OS notification channel. Permission is
// requested lazily, only when a high or urgent notification first
// needs the channel.
type SystemNotifier interface {
	Permission() Permission
	RequestPermission() Permission
	Notify(n Notification)
}

// toneFor maps priority to the audible pattern.
func toneFor(priority Priority) TonePattern {
	switch priority {
	case PriorityUrgent:
		return ToneTriple
	case PriorityHigh:
		return ToneDescending
	default:
		return ToneFlat
	}
}
