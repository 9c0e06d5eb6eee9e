package snapshot

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
// 2 - Last-write ordering keys on nodes, edges, and pending edges
const currentSchemaVersion = 2

// Store is a SQLite-backed snapshot of the materialized graph.
type Store struct {
	db *sql.DB
}

// Open creates or opens a snapshot database at the given path. Applies the
// required pragmas and schema; idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect snapshot: %w", err)
	}

	// SQLite supports one writer at a time; limit the pool to avoid
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if version == 1 {
		if err := migrateV2(db); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateV2 adds the last-write ordering key columns to a v1 snapshot. The
// zero key orders before every real record, so migrated rows accept the
// next write unconditionally, matching the v1 behavior they were built
// under.
func migrateV2(db *sql.DB) error {
	stmts := []string{
		"ALTER TABLE nodes ADD COLUMN status_at TEXT NOT NULL DEFAULT '0001-01-01T00:00:00Z'",
		"ALTER TABLE nodes ADD COLUMN status_author TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE nodes ADD COLUMN status_seq INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE edges ADD COLUMN written_at TEXT NOT NULL DEFAULT '0001-01-01T00:00:00Z'",
		"ALTER TABLE edges ADD COLUMN written_author TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE edges ADD COLUMN written_seq INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE pending_edges ADD COLUMN written_at TEXT NOT NULL DEFAULT '0001-01-01T00:00:00Z'",
		"ALTER TABLE pending_edges ADD COLUMN written_author TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE pending_edges ADD COLUMN written_seq INTEGER NOT NULL DEFAULT 0",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}

// Exists reports whether a snapshot database is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
