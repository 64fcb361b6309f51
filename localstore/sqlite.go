// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/waypoint-travel/waypoint/lib/blob"
	"github.com/waypoint-travel/waypoint/lib/schema"
)

// Schema is the entity table layout. The session composes this with
// the notification store's schema into one database.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	kind       TEXT    NOT NULL,
	owner_id   TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	payload    BLOB    NOT NULL,
	seq        INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (kind, owner_id, id)
);
CREATE INDEX IF NOT EXISTS entities_by_owner_seq
	ON entities (kind, owner_id, seq DESC);
CREATE TABLE IF NOT EXISTS localstore_meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

const seqKey = "write_seq"

// persistLocked writes one record and the advanced sequence counter
// in a single transaction. A failure flips the store into memory-only
// mode: the in-memory state was already (or is about to be) updated,
// the caller's write succeeds regardless, and one warning records the
// degradation.
func (s *Store) persistLocked(record schema.EntityRecord) {
	if s.db == nil {
		return
	}
	if err := s.writeRecord(record); err != nil {
		s.logger.Warn("local cache write failed, continuing memory-only",
			"kind", record.Kind,
			"id", record.ID,
			"error", err,
		)
		s.db = nil
		s.degraded = true
	}
}

func (s *Store) writeRecord(record schema.EntityRecord) (err error) {
	ctx := context.Background()
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer end(&err)

	err = sqlitex.Execute(conn, `
		INSERT OR REPLACE INTO entities (kind, owner_id, id, payload, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				string(record.Kind),
				record.OwnerID,
				record.ID,
				blob.Pack(record.Payload),
				int64(record.Seq),
				record.CreatedAt.UnixNano(),
			},
		})
	if err != nil {
		return fmt.Errorf("writing entity: %w", err)
	}

	err = sqlitex.Execute(conn, `
		INSERT OR REPLACE INTO localstore_meta (key, value) VALUES (?, ?)`,
		&sqlitex.ExecOptions{Args: []any{seqKey, int64(s.seq)}})
	if err != nil {
		return fmt.Errorf("writing sequence counter: %w", err)
	}
	return nil
}

// loadAll reads every persisted entity and the sequence counter into
// memory. Called once at Open, before the store is visible to any
// other goroutine, so no locking.
func (s *Store) loadAll() error {
	ctx := context.Background()
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)

	err = sqlitex.Execute(conn, `
		SELECT kind, owner_id, id, payload, seq, created_at FROM entities`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				framed := make([]byte, stmt.ColumnLen(3))
				stmt.ColumnBytes(3, framed)
				payload, err := blob.Unpack(framed)
				if err != nil {
					return fmt.Errorf("record %s: %w", stmt.ColumnText(2), err)
				}
				s.applyLocked(schema.EntityRecord{
					Kind:      schema.EntityKind(stmt.ColumnText(0)),
					OwnerID:   stmt.ColumnText(1),
					ID:        stmt.ColumnText(2),
					Payload:   payload,
					Seq:       uint64(stmt.ColumnInt64(4)),
					CreatedAt: time.Unix(0, stmt.ColumnInt64(5)),
				})
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("reading entities: %w", err)
	}

	err = sqlitex.Execute(conn, `
		SELECT value FROM localstore_meta WHERE key = ?`,
		&sqlitex.ExecOptions{
			Args: []any{seqKey},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				s.seq = uint64(stmt.ColumnInt64(0))
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("reading sequence counter: %w", err)
	}
	return nil
}
