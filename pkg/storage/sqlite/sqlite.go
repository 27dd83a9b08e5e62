// Package sqlite provides a SQLite-backed storage driver for local,
// single-process use. Trace documents are stored as JSON text; timestamps
// are normalized RFC 3339 UTC strings so lexical comparison is
// chronological comparison.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// schema creates all tables and indexes. Every statement is idempotent,
// so it runs at each open.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    project_id  TEXT PRIMARY KEY,
    name        TEXT,
    description TEXT,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS traces (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id      TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
    user_id         TEXT,
    trace_id        TEXT NOT NULL,
    version         TEXT,
    trace_timestamp TEXT,
    revision        TEXT,
    trace_record    TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    UNIQUE (project_id, trace_id)
);

CREATE INDEX IF NOT EXISTS traces_project_event_idx
    ON traces (project_id, trace_timestamp DESC);

CREATE INDEX IF NOT EXISTS traces_project_revision_idx
    ON traces (project_id, revision);

CREATE TABLE IF NOT EXISTS conversation_contents (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
    url        TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (project_id, url)
);

CREATE TABLE IF NOT EXISTS commit_links (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id    TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
    commit_sha    TEXT NOT NULL,
    parent_sha    TEXT,
    trace_ids     TEXT NOT NULL,
    files_changed TEXT,
    committed_at  TEXT,
    ledger        TEXT,
    created_at    TEXT NOT NULL,
    UNIQUE (project_id, commit_sha)
);

CREATE INDEX IF NOT EXISTS commit_links_project_parent_idx
    ON commit_links (project_id, parent_sha);
`

// SQLiteDriver implements storage.Driver using SQLite.
type SQLiteDriver struct {
	db *sql.DB
}

// NewSQLiteDriver creates a new SQLite-backed storer.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteDriver{db: db}, nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteDriver) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteDriver) Close() error {
	return s.db.Close()
}

// ensureProject inserts the project row if it does not exist yet. Writes
// that reference a project run it first inside their transaction.
func ensureProject(ctx context.Context, tx *sql.Tx, projectID string) error {
	now := nowString()
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO projects (project_id, created_at, updated_at)
		VALUES (?, ?, ?)
	`, projectID, now, now)
	if err != nil {
		return fmt.Errorf("ensure project: %w", err)
	}
	return nil
}

// nowString is the stored form of the current time.
func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseStoredTime reads a timestamp previously written by this driver.
// The zero time stands in for anything unreadable.
func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
