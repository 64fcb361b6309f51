// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import "context"

// Record is one row as the remote backend sees it. Field naming is
// the backend's concern; the core builds records from entity data and
// never round-trips them through business logic.
type Record map[string]any

// Filter restricts a Query to rows whose columns equal the given
// values. An empty filter selects everything in the table.
type Filter map[string]any

// Store is the remote database capability. All methods honor ctx
// cancellation and deadlines. Implementations must be safe for
// concurrent use.
type Store interface {
	// Insert creates a row and returns it as stored by the backend.
	Insert(ctx context.Context, table string, record Record) (Record, error)

	// Update applies a partial patch to the row with the given id.
	Update(ctx context.Context, table string, id string, patch Record) error

	// Query returns the rows matching filter.
	Query(ctx context.Context, table string, filter Filter) ([]Record, error)
}
