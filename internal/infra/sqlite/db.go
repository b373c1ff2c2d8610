// Package sqlite provides durable storage for the SafeRent core:
// pending requests, the append-only ledger, and latest-per-student
// notifications. All survive process restart with identical read/write
// semantics.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB wraps the SQLite connection and exposes typed operations.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single connection: modernc.org/sqlite serializes writers anyway,
	// and this keeps transactions on one handle.
	sqldb.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	db := &DB{db: sqldb}
	if err := db.migrate(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.db.Close() }

// migrate applies the schema. Each statement is a single SQL statement
// (SQLite executes one at a time).
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
func Migrations() []string {
	return []string{
		// Pending requests — at most one undecided request per student
		`CREATE TABLE IF NOT EXISTS pending_requests (
			id           TEXT PRIMARY KEY,
			student_id   TEXT NOT NULL UNIQUE,
			income       INTEGER NOT NULL,
			guarantor    INTEGER NOT NULL,
			history      INTEGER NOT NULL,
			score        INTEGER NOT NULL,
			band         TEXT NOT NULL,
			submitted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_submitted ON pending_requests(submitted_at)`,

		// Ledger blocks — append-only, ordered by index
		`CREATE TABLE IF NOT EXISTS ledger_blocks (
			block_index   INTEGER PRIMARY KEY,
			timestamp     TEXT NOT NULL,
			student_id    TEXT NOT NULL,
			score         INTEGER NOT NULL,
			band          TEXT NOT NULL,
			validator     TEXT NOT NULL,
			previous_hash TEXT NOT NULL,
			hash          TEXT NOT NULL,
			signature     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_student ON ledger_blocks(student_id)`,

		// Notifications — latest decision per student
		`CREATE TABLE IF NOT EXISTS notifications (
			student_id  TEXT PRIMARY KEY,
			outcome     TEXT NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			block_index INTEGER NOT NULL DEFAULT -1,
			decided_at  TEXT NOT NULL
		)`,
	}
}
