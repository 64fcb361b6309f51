// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package localdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening a pool. Path is required.
type Config struct {
	// Path is the filesystem path of the database file, created on
	// first open. ":memory:" is accepted for tests but forces
	// PoolSize 1 (each in-memory connection is independent).
	Path string

	// PoolSize is the number of connections. Defaults to 2 when zero
	// or negative: a single-user client needs one writer and one
	// concurrent reader, not a server-sized pool.
	PoolSize int

	// Logger receives open/close messages. Nil means discard.
	Logger *slog.Logger

	// Schema is executed once per connection after the standard
	// pragmas. Stores use it for CREATE TABLE IF NOT EXISTS setup.
	Schema string
}

// Pool is a fixed-size SQLite connection pool. The pool itself is
// safe for concurrent use; individual connections are not.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open creates the pool and validates the configuration. The caller
// owns the pool and must Close it.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("localdb: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	size := cfg.PoolSize
	if size <= 0 {
		size = 2
	}
	if cfg.Path == ":memory:" {
		size = 1
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepare(conn, cfg.Schema)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("localdb: opening %s: %w", cfg.Path, err)
	}

	logger.Info("local database opened", "path", cfg.Path, "pool_size", size)

	return &Pool{inner: inner, logger: logger, path: cfg.Path}, nil
}

// Take borrows a connection, blocking until one is free or ctx is
// cancelled. Pair every Take with a deferred Put.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("localdb: take: %w", err)
	}
	return conn, nil
}

// Put returns a borrowed connection. Safe with nil.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Close closes every connection. Blocks until borrowed connections
// are returned.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		return fmt.Errorf("localdb: closing %s: %w", p.path, err)
	}
	p.logger.Info("local database closed", "path", p.path)
	return nil
}

// prepare applies the standard pragmas and the store schema to a
// fresh connection.
func prepare(conn *sqlite.Conn, schema string) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("localdb: %s: %w", pragma, err)
		}
	}
	if schema != "" {
		if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
			return fmt.Errorf("localdb: applying schema: %w", err)
		}
	}
	return nil
}
