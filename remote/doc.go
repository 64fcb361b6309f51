// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote defines the Remote Store capability consumed by the
// reconciliation worker, and an HTTP implementation of it.
//
// The remote backend is an external collaborator: every call may be
// slow or fail, and nothing in the core ever blocks on it from a
// caller's perspective. Callers present a context with a deadline;
// the reconciliation worker treats any error as terminal for that
// attempt — there are no retries, by policy.
package remote
