//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS techniques_fts USING fts5(
			id UNINDEXED,
			name,
			description,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, name, description string) error {
	_, _ = tx.Exec(`DELETE FROM techniques_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO techniques_fts (id, name, description) VALUES (?, ?, ?)`,
		id, name, description)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM techniques_fts WHERE id = ?`, id)
}

// SearchTechniques performs an FTS5 full-text search over technique names
// and descriptions, returning matches with highlighted snippets.
func (db *DB) SearchTechniques(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id,
		       name,
		       snippet(techniques_fts, 2, '<b>', '</b>', '...', 64)
		FROM techniques_fts
		WHERE techniques_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
