// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/waypoint-travel/waypoint/lib/blob"
	"github.com/waypoint-travel/waypoint/lib/codec"
)

// Schema is the notification table layout. The session composes this
// with the entity store's schema into one database.
const Schema = `
CREATE TABLE IF NOT EXISTS notifications (
	owner_id   TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	data       BLOB    NOT NULL,
	PRIMARY KEY (owner_id, id)
);
CREATE INDEX IF NOT EXISTS notifications_by_owner_created
	ON notifications (owner_id, created_at DESC);
`

// persistLocked upserts one notification. A write failure flips the
// service into memory-only mode with one warning; the caller's
// mutation succeeds either way.
func (s *Service) persistLocked(n Notification) {
	if s.db == nil {
		return
	}
	if err := s.writeNotification(n); err != nil {
		s.logger.Warn("notification write failed, continuing memory-only",
			"id", n.ID, "error", err)
		s.db = nil
		s.degraded = true
	}
}

func (s *Service) writeNotification(n Notification) error {
	encoded, err := codec.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	ctx := context.Background()
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT OR REPLACE INTO notifications (owner_id, id, created_at, data)
		VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{n.OwnerID, n.ID, n.CreatedAt.UnixNano(), blob.Pack(encoded)},
		})
	if err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}

// deleteLocked removes one row. Best effort: a failure degrades like a
// failed write.
func (s *Service) deleteLocked(id string) {
	if s.db == nil {
		return
	}
	if err := s.deleteNotification(id); err != nil {
		s.logger.Warn("notification delete failed, continuing memory-only",
			"id", id, "error", err)
		s.db = nil
		s.degraded = true
	}
}

func (s *Service) deleteNotification(id string) error {
	ctx := context.Background()
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)

	return sqlitex.Execute(conn, `
		DELETE FROM notifications WHERE owner_id = ? AND id = ?`,
		&sqlitex.ExecOptions{Args: []any{s.ownerID, id}})
}

// loadAll reads the owner's persisted notifications, newest first.
// Called once at Open, before the service is shared.
func (s *Service) loadAll() error {
	ctx := context.Background()
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)

	err = sqlitex.Execute(conn, `
		SELECT id, data FROM notifications
		WHERE owner_id = ? ORDER BY created_at DESC`,
		&sqlitex.ExecOptions{
			Args: []any{s.ownerID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				framed := make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, framed)
				encoded, err := blob.Unpack(framed)
				if err != nil {
					return fmt.Errorf("notification %s: %w", stmt.ColumnText(0), err)
				}
				var n Notification
				if err := codec.Unmarshal(encoded, &n); err != nil {
					return fmt.Errorf("notification %s: %w", stmt.ColumnText(0), err)
				}
				s.notifications = append(s.notifications, n)
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("reading notifications: %w", err)
	}
	return nil
}
