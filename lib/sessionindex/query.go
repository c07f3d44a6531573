// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultSearchLimit bounds Search when the filter has no limit.
const DefaultSearchLimit = 500

// Record is one indexed interaction with its session context.
type Record struct {
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Sequence   int       `json:"sequence_number"`
	Timestamp  time.Time `json:"timestamp"`
	UserPrompt string    `json:"user_prompt"`
	Response   string    `json:"claude_response"`
	Detected   []string  `json:"detected_patterns,omitempty"`
}

// SearchFilter narrows Search. Zero-valued fields are not applied.
type SearchFilter struct {
	// SessionID restricts results to one session.
	SessionID string

	// Contains is a case-insensitive substring of the prompt or
	// response. Fuzzy ranking happens in the caller; this is a coarse
	// prefilter.
	Contains string

	// Since excludes interactions recorded before it.
	Since time.Time

	// Limit is the maximum number of records. Zero means
	// DefaultSearchLimit.
	Limit int
}

// Search returns indexed interactions, newest first.
func (index *Index) Search(ctx context.Context, filter SearchFilter) ([]Record, error) {
	conn, err := index.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("session index search: %w", err)
	}
	defer index.pool.Put(conn)

	var conditions []string
	var args []any
	if filter.SessionID != "" {
		conditions = append(conditions, "i.session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Contains != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Contains)) + "%"
		conditions = append(conditions, `(lower(i.user_prompt) LIKE ? ESCAPE '\' OR lower(i.response) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "i.timestamp >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query := "SELECT i.session_id, s.command, i.sequence, i.timestamp, i.user_prompt, i.response, i.detected " +
		"FROM interactions i JOIN sessions s ON s.id = i.session_id"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.timestamp DESC, i.session_id DESC, i.sequence DESC LIMIT ?"
	args = append(args, limit)

	var records []Record
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			detected, err := readDetected(stmt, 6)
			if err != nil {
				return fmt.Errorf("decoding detected patterns: %w", err)
			}
			records = append(records, Record{
				SessionID:  stmt.ColumnText(0),
				Command:    stmt.ColumnText(1),
				Sequence:   stmt.ColumnInt(2),
				Timestamp:  fromMillis(stmt.ColumnInt64(3)),
				UserPrompt: stmt.ColumnText(4),
				Response:   stmt.ColumnText(5),
				Detected:   detected,
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session index search: %w", err)
	}
	return records, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

// PatternCount is how many interactions a pattern was detected in.
type PatternCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the index.
type Stats struct {
	Sessions     int            `json:"sessions"`
	Interactions int            `json:"interactions"`
	ByStatus     map[string]int `json:"by_status"`

	// Patterns is sorted by descending count, then name.
	Patterns []PatternCount `json:"patterns"`

	// Redacted is the number of interactions with at least one
	// detected pattern.
	Redacted int `json:"redacted_interactions"`
}

// Stats counts sessions by status and pattern detections across all
// interactions.
func (index *Index) Stats(ctx context.Context) (Stats, error) {
	conn, err := index.pool.Take(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("session index stats: %w", err)
	}
	defer index.pool.Put(conn)

	stats := Stats{ByStatus: make(map[string]int)}
	err = sqlitex.Execute(conn, "SELECT status, COUNT(*) FROM sessions GROUP BY status", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count := stmt.ColumnInt(1)
			stats.ByStatus[stmt.ColumnText(0)] = count
			stats.Sessions += count
			return nil
		},
	})
	if err != nil {
		return Stats{}, fmt.Errorf("session index stats: %w", err)
	}

	// Detected lists are CBOR, so frequencies are tallied here rather
	// than in SQL.
	counts := make(map[string]int)
	err = sqlitex.Execute(conn, "SELECT detected FROM interactions", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stats.Interactions++
			detected, err := readDetected(stmt, 0)
			if err != nil {
				return fmt.Errorf("decoding detected patterns: %w", err)
			}
			if len(detected) > 0 {
				stats.Redacted++
			}
			for _, name := range detected {
				counts[name]++
			}
			return nil
		},
	})
	if err != nil {
		return Stats{}, fmt.Errorf("session index stats: %w", err)
	}

	for name, count := range counts {
		stats.Patterns = append(stats.Patterns, PatternCount{Name: name, Count: count})
	}
	sort.Slice(stats.Patterns, func(i, j int) bool {
		if stats.Patterns[i].Count != stats.Patterns[j].Count {
			return stats.Patterns[i].Count > stats.Patterns[j].Count
		}
		return stats.Patterns[i].Name < stats.Patterns[j].Name
	})
	return stats, nil
}
