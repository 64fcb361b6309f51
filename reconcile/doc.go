// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile pushes local writes to the remote backend on a
// best-effort basis. Each mirrored write gets exactly one delivery
// attempt; a failed attempt is logged and dropped. The worker never
// blocks the writer and never feeds results back into local state,
// so a dead backend costs nothing but warnings.
package reconcile
