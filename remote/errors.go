// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
)

// Error is a structured error from the remote backend. Callers use
// errors.As to extract it:
//
//	var remoteErr *remote.Error
//	if errors.As(err, &remoteErr) {
//	    if remoteErr.Code == remote.CodeConflict { ... }
//	}
type Error struct {
	// Code is the backend error code (e.g. "W_CONFLICT").
	Code string `json:"code"`
	// Message is the human-readable description from the backend.
	Message string `json:"message"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Backend error codes.
const (
	CodeUnauthorized = "W_UNAUTHORIZED"
	CodeNotFound     = "W_NOT_FOUND"
	CodeConflict     = "W_CONFLICT"
	CodeRateLimited  = "W_RATE_LIMITED"
	CodeUnknown      = "W_UNKNOWN"
)

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code string) bool {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Code == code
	}
	return false
}
