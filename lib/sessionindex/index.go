// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/tracer/lib/codec"
	"github.com/bureau-foundation/tracer/lib/session"
	"github.com/bureau-foundation/tracer/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                 TEXT PRIMARY KEY,
	project_path       TEXT NOT NULL,
	command            TEXT NOT NULL,
	privacy_mode       TEXT NOT NULL DEFAULT '',
	start_time         INTEGER NOT NULL,
	end_time           INTEGER,
	status             TEXT NOT NULL,
	total_interactions INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS interactions (
	session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	sequence    INTEGER NOT NULL,
	timestamp   INTEGER NOT NULL,
	user_prompt TEXT NOT NULL,
	response    TEXT NOT NULL,
	detected    BLOB,
	PRIMARY KEY (session_id, sequence)
);

CREATE INDEX IF NOT EXISTS interactions_by_time ON interactions(timestamp DESC);
`

// Config holds the parameters for opening an index.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// Logger receives pool messages. Nil discards.
	Logger *slog.Logger
}

// Index is the SQLite session index. Safe for concurrent use.
type Index struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens or creates the index database.
func Open(config Config) (*Index, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   config.Path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session index: %w", err)
	}
	return &Index{pool: pool, logger: logger}, nil
}

// Close closes the database.
func (index *Index) Close() error {
	return index.pool.Close()
}

// Begin records a new session row. Re-beginning an id replaces the row
// and keeps its interactions.
func (index *Index) Begin(current session.Session) error {
	return index.withTransaction(context.Background(), "begin", func(conn *sqlite.Conn) error {
		return upsertSession(conn, current)
	})
}

// Append records one interaction and bumps the session's count.
func (index *Index) Append(sessionID string, interaction session.Interaction) error {
	return index.withTransaction(context.Background(), "append", func(conn *sqlite.Conn) error {
		if err := insertInteraction(conn, sessionID, interaction); err != nil {
			return err
		}
		return updateCount(conn, sessionID)
	})
}

// Finish writes the finalized session: status, end time, and any
// interactions the index has not seen.
func (index *Index) Finish(final session.Session) error {
	return index.withTransaction(context.Background(), "finish", func(conn *sqlite.Conn) error {
		return writeSession(conn, final)
	})
}

// Import writes a session loaded from an artifact, replacing whatever
// the index held for it.
func (index *Index) Import(ctx context.Context, artifact *session.Artifact) error {
	restored := artifact.Session()
	return index.withTransaction(ctx, "import", func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "DELETE FROM interactions WHERE session_id = ?",
			&sqlitex.ExecOptions{Args: []any{restored.ID}}); err != nil {
			return err
		}
		return writeSession(conn, *restored)
	})
}

func (index *Index) withTransaction(ctx context.Context, operation string, body func(conn *sqlite.Conn) error) (err error) {
	conn, err := index.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("session index %s: %w", operation, err)
	}
	defer index.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("session index %s: begin transaction: %w", operation, err)
	}
	defer endTransaction(&err)

	if err = body(conn); err != nil {
		return fmt.Errorf("session index %s: %w", operation, err)
	}
	return nil
}

func writeSession(conn *sqlite.Conn, current session.Session) error {
	if err := upsertSession(conn, current); err != nil {
		return err
	}
	for _, interaction := range current.Interactions {
		if err := insertInteraction(conn, current.ID, interaction); err != nil {
			return err
		}
	}
	return updateCount(conn, current.ID)
}

func updateCount(conn *sqlite.Conn, sessionID string) error {
	return sqlitex.Execute(conn,
		`UPDATE sessions SET total_interactions =
			(SELECT COUNT(*) FROM interactions WHERE session_id = ?1)
		WHERE id = ?1`,
		&sqlitex.ExecOptions{Args: []any{sessionID}})
}

func upsertSession(conn *sqlite.Conn, current session.Session) error {
	var endTime any
	if !current.End.IsZero() {
		endTime = current.End.UnixMilli()
	}
	return sqlitex.Execute(conn,
		`INSERT INTO sessions (id, project_path, command, privacy_mode, start_time, end_time, status, total_interactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_path = excluded.project_path,
			command = excluded.command,
			privacy_mode = excluded.privacy_mode,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			status = excluded.status,
			total_interactions = MAX(sessions.total_interactions, excluded.total_interactions)`,
		&sqlitex.ExecOptions{Args: []any{
			current.ID,
			current.ProjectPath,
			current.Metadata.Command,
			current.Metadata.Mode,
			current.Start.UnixMilli(),
			endTime,
			string(current.Status),
			len(current.Interactions),
		}})
}

// insertInteraction ignores an interaction already present under the
// same (session, sequence): interactions are immutable.
func insertInteraction(conn *sqlite.Conn, sessionID string, interaction session.Interaction) error {
	detected, err := codec.MarshalStrings(interaction.Detected)
	if err != nil {
		return fmt.Errorf("encoding detected patterns: %w", err)
	}
	var detectedArg any
	if detected != nil {
		detectedArg = detected
	}
	return sqlitex.Execute(conn,
		`INSERT OR IGNORE INTO interactions (session_id, sequence, timestamp, user_prompt, response, detected)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			sessionID,
			interaction.Sequence,
			interaction.Timestamp.UnixMilli(),
			interaction.UserPrompt,
			interaction.Response,
			detectedArg,
		}})
}

func readDetected(stmt *sqlite.Stmt, column int) ([]string, error) {
	if stmt.ColumnIsNull(column) {
		return nil, nil
	}
	blob := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, blob)
	return codec.UnmarshalStrings(blob)
}

func fromMillis(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}
