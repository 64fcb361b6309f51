// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package localdb

import (
	"context"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("Open with empty Path succeeded")
	}
}

func TestSchemaAppliedAndReadBack(t *testing.T) {
	pool, err := Open(Config{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Schema: "CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT);",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	ctx := context.Background()
	conn, err := pool.Take(ctx)
	if err != nil {
		t.Fatal(err)
	}
	err = sqlitex.Execute(conn, "INSERT INTO kv (k, v) VALUES ('greeting', 'hello')", nil)
	pool.Put(conn)
	if err != nil {
		t.Fatal(err)
	}

	conn, err = pool.Take(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Put(conn)

	var got string
	err = sqlitex.Execute(conn, "SELECT v FROM kv WHERE k = 'greeting'", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			got = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("read back %q, want %q", got, "hello")
	}
}
