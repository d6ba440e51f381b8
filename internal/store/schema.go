// Package store provides SQLite-backed persistence for the Tatami catalog
// and curriculum composition, with optional FTS5 technique search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS disciplines (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
	id            TEXT PRIMARY KEY,
	discipline_id TEXT NOT NULL REFERENCES disciplines(id),
	name          TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS techniques (
	id          TEXT PRIMARY KEY,
	category_id TEXT NOT NULL REFERENCES categories(id),
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS assets (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	title            TEXT NOT NULL,
	url              TEXT NOT NULL DEFAULT '',
	thumbnail_url    TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	checksum         TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT 'manual',
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS curricula (
	id            TEXT PRIMARY KEY,
	discipline_id TEXT NOT NULL REFERENCES disciplines(id),
	name          TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS curriculum_elements (
	id            TEXT PRIMARY KEY,
	curriculum_id TEXT NOT NULL REFERENCES curricula(id),
	kind          TEXT NOT NULL,
	ord           INTEGER NOT NULL,
	technique_id  TEXT NOT NULL DEFAULT '',
	asset_id      TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL DEFAULT '',
	details       TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(curriculum_id, ord)
);

CREATE INDEX IF NOT EXISTS idx_categories_discipline ON categories(discipline_id);
CREATE INDEX IF NOT EXISTS idx_techniques_category   ON techniques(category_id);
CREATE INDEX IF NOT EXISTS idx_curricula_discipline  ON curricula(discipline_id);
CREATE INDEX IF NOT EXISTS idx_elements_curriculum   ON curriculum_elements(curriculum_id);
CREATE INDEX IF NOT EXISTS idx_assets_checksum       ON assets(checksum);
`

// DB wraps a sql.DB with catalog and curriculum operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
