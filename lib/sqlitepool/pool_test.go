// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/tracer/lib/sqlitepool"
)

func pragmaInt(t *testing.T, conn *sqlite.Conn, pragma string) int {
	t.Helper()
	var value int
	err := sqlitex.Execute(conn, "PRAGMA "+pragma, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("PRAGMA %s: %v", pragma, err)
	}
	return value
}

func TestStandardPragmas(t *testing.T) {
	pool := openTestPool(t, nil)
	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	var journalMode string
	err = sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			journalMode = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}
	if synchronous := pragmaInt(t, conn, "synchronous"); synchronous != 1 {
		t.Errorf("synchronous = %d, want 1 (NORMAL)", synchronous)
	}
	if foreignKeys := pragmaInt(t, conn, "foreign_keys"); foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}
}

func TestOnConnectSchemaAndForeignKeys(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, `
			CREATE TABLE IF NOT EXISTS parents (id TEXT PRIMARY KEY);
			CREATE TABLE IF NOT EXISTS children (
				parent_id TEXT NOT NULL REFERENCES parents(id),
				value TEXT NOT NULL
			);
		`, nil)
	})
	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	err = sqlitex.Execute(conn, "INSERT INTO children (parent_id, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{"missing", "orphan"},
	})
	if err == nil {
		t.Error("orphan insert succeeded; foreign keys not enforced")
	}

	if err := sqlitex.Execute(conn, "INSERT INTO parents (id) VALUES ('p')", nil); err != nil {
		t.Fatalf("INSERT parent: %v", err)
	}
	if err := sqlitex.Execute(conn, "INSERT INTO children (parent_id, value) VALUES ('p', 'ok')", nil); err != nil {
		t.Errorf("INSERT child: %v", err)
	}
}

func TestConcurrentTake(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, `CREATE TABLE IF NOT EXISTS numbers (value INTEGER NOT NULL);`, nil)
	})
	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := sqlitex.ExecuteScript(conn, `INSERT INTO numbers (value) VALUES (1), (2), (3);`, nil); err != nil {
		t.Fatal(err)
	}
	pool.Put(conn)

	var waitGroup sync.WaitGroup
	for range 6 {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			conn, err := pool.Take(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			defer pool.Put(conn)
			var sum int64
			err = sqlitex.Execute(conn, "SELECT value FROM numbers", &sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					sum += stmt.ColumnInt64(0)
					return nil
				},
			})
			if err != nil {
				t.Error(err)
			} else if sum != 6 {
				t.Errorf("sum = %d, want 6", sum)
			}
		}()
	}
	waitGroup.Wait()
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Fatal("expected error for empty Path")
	}
}

func TestTakeHonorsCancellation(t *testing.T) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "cancel.db"),
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	pool.Put(conn)
}

func openTestPool(t *testing.T, onConnect func(*sqlite.Conn) error) *sqlitepool.Pool {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		OnConnect: onConnect,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}
