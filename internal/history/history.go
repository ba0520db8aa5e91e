// Package history persists compile invocation records in a local SQLite
// database so past results can be inspected with `presencec history`.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded compile invocation.
type Entry struct {
	ID          string
	Presences   string // comma-joined presence names of the invocation
	StartedAt   time.Time
	Duration    time.Duration
	Diagnostics int
	Success     bool
}

// Store is a SQLite-backed history store. Use ":memory:" for tests.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		presences TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		diagnostics INTEGER NOT NULL,
		success INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_started_at ON invocations(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one invocation entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	success := 0
	if e.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO invocations (id, presences, started_at, duration_ms, diagnostics, success) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Presences, e.StartedAt.Unix(), e.Duration.Milliseconds(), e.Diagnostics, success,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, presences, started_at, duration_ms, diagnostics, success FROM invocations ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started int64
		var durationMS int64
		var success int
		if err := rows.Scan(&e.ID, &e.Presences, &started, &durationMS, &e.Diagnostics, &success); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		e.StartedAt = time.Unix(started, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Success = success == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
