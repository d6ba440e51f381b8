//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on the techniques table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string) error {
	// Name and description already live in the techniques table.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchTechniques performs a LIKE-based search (fallback when FTS5 is not
// compiled in).
func (db *DB) SearchTechniques(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, name, substr(description, 1, 200)
		FROM techniques
		WHERE name LIKE ? OR description LIKE ?
		ORDER BY name
		LIMIT ?
	`, like, like, limit)
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
