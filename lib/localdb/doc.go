// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package localdb provides the SQLite connection pool behind the
// local entity cache and the notification store.
//
// It wraps zombiezen.com/go/sqlite with client-appropriate defaults:
// WAL journal mode so UI reads never block background writes,
// synchronous=NORMAL for process-crash durability without
// fsync-per-commit cost, and a busy timeout instead of immediate
// SQLITE_BUSY errors. The source of truth for everything in this
// database is either the user's own just-made writes or the remote
// backend, so durability across OS crashes is not required.
//
// The pool exposes zombiezen's Take/Put model directly: callers
// borrow a connection, run SQL through sqlitex, and return it.
// Connections are not safe for concurrent use; each goroutine must
// hold its own for the duration of its work. There is no query
// builder and no ORM layer — stores in this module write their own
// SQL.
package localdb
