// Package index provides the SQLite-backed document catalog, corpus snapshots,
// revision log and optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	slug       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revisions (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revisions_slug_created ON revisions(slug, created_at);
CREATE INDEX IF NOT EXISTS idx_revisions_created ON revisions(created_at);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := addCreatedAt(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: migrate documents: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// addCreatedAt upgrades a documents table that predates created_at. Existing
// rows take their last update time as creation time.
func addCreatedAt(conn *sql.DB) error {
	var n int
	err := conn.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('documents') WHERE name = 'created_at'`).Scan(&n)
	if err != nil || n > 0 {
		return err
	}
	if _, err := conn.Exec(`ALTER TABLE documents ADD COLUMN created_at DATETIME NOT NULL DEFAULT '1970-01-01 00:00:00'`); err != nil {
		return err
	}
	_, err = conn.Exec(`UPDATE documents SET created_at = updated_at`)
	return err
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
