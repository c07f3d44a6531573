// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite connection pools with the tracer's
// standard pragmas.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, do their work, and [Pool.Put] it back. Connections are
// not safe for concurrent use; each goroutine holds its own.
//
// # Pragmas
//
//   - journal_mode=WAL: a capture can write while a viewer reads.
//   - synchronous=NORMAL: commits survive a process crash. The index
//     is derived from session artifacts and can be rebuilt, so OS-crash
//     durability is not required.
//   - busy_timeout=5000: two concurrent captures wait for the write
//     lock instead of failing with SQLITE_BUSY.
//   - foreign_keys=ON: interactions reference their session row.
//   - temp_store=MEMORY.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   filepath.Join(sessionsDir, "index.db"),
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
