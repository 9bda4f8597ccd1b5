// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for sessions, progress, and analytics events.
type Store struct {
	db *sql.DB
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps read-modify-write transactions from racing.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			level_id TEXT NOT NULL,
			n_back INTEGER NOT NULL,
			mode TEXT NOT NULL,
			trial_count INTEGER NOT NULL,
			trial_duration_ms INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			started_unix_ms INTEGER NOT NULL,
			ended_at TEXT NOT NULL,
			completed INTEGER NOT NULL,
			combined_accuracy REAL NOT NULL,
			combined_dprime REAL NOT NULL,
			position_stats TEXT NOT NULL,
			audio_stats TEXT NOT NULL,
			trials TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_unix_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_level ON sessions(level_id);`,
		`CREATE TABLE IF NOT EXISTS progress (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_level_id TEXT NOT NULL,
			total_sessions INTEGER NOT NULL,
			total_training_ms INTEGER NOT NULL,
			current_streak INTEGER NOT NULL,
			longest_streak INTEGER NOT NULL,
			last_session_date TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS unlocked_levels (
			level_id TEXT PRIMARY KEY,
			unlocked_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS level_progress (
			level_id TEXT PRIMARY KEY,
			best_accuracy REAL NOT NULL,
			best_dprime REAL NOT NULL,
			sessions_played INTEGER NOT NULL,
			last_played_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS analytics_events (
			id INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			category TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			ts TEXT NOT NULL,
			ts_unix_ms INTEGER NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON analytics_events(ts_unix_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_events_category ON analytics_events(category, type);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func rollback(tx *sql.Tx) {
	if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
		// Best-effort rollback.
		_ = rerr
	}
}
