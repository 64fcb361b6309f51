// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds binary entrypoint helpers. Fatal is the one
// sanctioned pre-logger error path: main() uses it for errors from
// run() that occur before the structured logger exists.
package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
