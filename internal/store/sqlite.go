// Package store persists the canonical job registry, preference
// profiles, applications, and scrape bookkeeping in SQLite. It is pure
// mechanism: the dedup engine and lifecycle manager own the policy.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrProfileNotFound is returned when a user has no stored profile.
var ErrProfileNotFound = errors.New("profile not found")

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	company     TEXT NOT NULL,
	title       TEXT NOT NULL,
	location    TEXT NOT NULL,
	desc_hash   TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	first_seen  INTEGER NOT NULL,
	last_seen   INTEGER NOT NULL,
	active      INTEGER NOT NULL DEFAULT 1,
	UNIQUE (company, title, location, desc_hash)
);

CREATE TABLE IF NOT EXISTS provenance (
	job_id      TEXT NOT NULL,
	source      TEXT NOT NULL,
	external_id TEXT NOT NULL,
	PRIMARY KEY (job_id, source, external_id)
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id            TEXT PRIMARY KEY,
	keywords           TEXT NOT NULL,
	locations          TEXT NOT NULL,
	role_types         TEXT NOT NULL,
	excluded_companies TEXT NOT NULL,
	min_score          REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	user_id       TEXT NOT NULL,
	job_id        TEXT NOT NULL,
	state         TEXT NOT NULL,
	follow_up_due INTEGER,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	PRIMARY KEY (user_id, job_id)
);

CREATE TABLE IF NOT EXISTS application_history (
	user_id TEXT NOT NULL,
	job_id  TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	state   TEXT NOT NULL,
	actor   TEXT NOT NULL,
	at      INTEGER NOT NULL,
	PRIMARY KEY (user_id, job_id, seq)
);

CREATE TABLE IF NOT EXISTS parse_failures (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	source  TEXT NOT NULL,
	payload TEXT NOT NULL,
	reason  TEXT NOT NULL,
	at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cursors (
	source TEXT PRIMARY KEY,
	cursor TEXT NOT NULL
);
`

// Open opens (or creates) the SQLite database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Timestamps are stored as unix nanoseconds so range queries compare
// correctly regardless of zone or formatting.

func toNanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func toNullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}
