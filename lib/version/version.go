// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build version information for Waypoint
// binaries. The Version variable is stamped at build time via
// -ldflags; unstamped development builds report "dev".
package version

import "fmt"

// Version is the semantic version of the build, injected with:
//
//	-ldflags "-X github.com/waypoint-travel/waypoint/lib/version.Version=v1.2.3"
var Version = "dev"

// Print writes the component name and version to stdout. This is one
// of the two sanctioned raw-output call sites in the module (the
// other is lib/process); everything else logs through slog.
func Print(component string) {
	fmt.Printf("%s %s\n", component, Version)
}
