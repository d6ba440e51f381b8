package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
)

// InsertElement persists a new curriculum element. A collision on the
// (curriculum_id, ord) unique constraint maps to apperr.ErrConflict so the
// caller can re-allocate the ordinal and retry.
func (db *DB) InsertElement(e *models.CurriculumElement) error {
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := db.conn.Exec(`
		INSERT INTO curriculum_elements (id, curriculum_id, kind, ord, technique_id, asset_id, title, details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CurriculumID, string(e.Kind), e.Ord, e.TechniqueID, e.AssetID, e.Title, e.Details, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("store: insert element: %w", err)
	}
	return nil
}

// ElementsByCurriculum returns a curriculum's elements in ascending ordinal
// order.
func (db *DB) ElementsByCurriculum(curriculumID string) ([]models.CurriculumElement, error) {
	rows, err := db.conn.Query(`
		SELECT id, curriculum_id, kind, ord, technique_id, asset_id, title, details, created_at, updated_at
		FROM curriculum_elements
		WHERE curriculum_id = ?
		ORDER BY ord ASC
	`, curriculumID)
	if err != nil {
		return nil, fmt.Errorf("store: elements by curriculum: %w", err)
	}
	defer rows.Close()

	var out []models.CurriculumElement
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ElementScoped returns the element only if it belongs to the given
// curriculum; apperr.ErrNotFound otherwise. The two-key lookup prevents
// cross-curriculum mutation.
func (db *DB) ElementScoped(curriculumID, elementID string) (*models.CurriculumElement, error) {
	row := db.conn.QueryRow(`
		SELECT id, curriculum_id, kind, ord, technique_id, asset_id, title, details, created_at, updated_at
		FROM curriculum_elements
		WHERE curriculum_id = ? AND id = ?
	`, curriculumID, elementID)

	var e models.CurriculumElement
	var kind string
	err := row.Scan(&e.ID, &e.CurriculumID, &kind, &e.Ord, &e.TechniqueID, &e.AssetID, &e.Title, &e.Details, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: element scoped: %w", err)
	}
	e.Kind = models.ElementKind(kind)
	return &e, nil
}

// UpdateElement persists the mutable element fields. Kind, ordinal, and
// owning curriculum are never written through this path.
func (db *DB) UpdateElement(e *models.CurriculumElement) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := db.conn.Exec(`
		UPDATE curriculum_elements
		SET technique_id = ?, asset_id = ?, title = ?, details = ?, updated_at = ?
		WHERE curriculum_id = ? AND id = ?
	`, e.TechniqueID, e.AssetID, e.Title, e.Details, e.UpdatedAt, e.CurriculumID, e.ID)
	if err != nil {
		return fmt.Errorf("store: update element: %w", err)
	}
	return noneUpdated(res)
}

// DeleteElement removes one element. Remaining ordinals are left untouched;
// gaps are fine, only relative order matters.
func (db *DB) DeleteElement(curriculumID, elementID string) error {
	res, err := db.conn.Exec(`
		DELETE FROM curriculum_elements WHERE curriculum_id = ? AND id = ?
	`, curriculumID, elementID)
	if err != nil {
		return fmt.Errorf("store: delete element: %w", err)
	}
	return noneUpdated(res)
}

// BatchUpdateOrdinals reassigns ordinals for a curriculum in a single
// transaction. All ordinals are first shifted to a negative shadow range so
// the final assignments cannot trip the (curriculum_id, ord) unique
// constraint mid-batch. An update that matches no row means a concurrent
// delete won the race; the whole batch rolls back with apperr.ErrConflict.
func (db *DB) BatchUpdateOrdinals(curriculumID string, updates []models.OrdinalUpdate) ([]models.CurriculumElement, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	if _, err := tx.Exec(`
		UPDATE curriculum_elements SET ord = -(ord + 1) WHERE curriculum_id = ?
	`, curriculumID); err != nil {
		return nil, fmt.Errorf("store: shadow ordinals: %w", err)
	}

	stmt, err := tx.Prepare(`
		UPDATE curriculum_elements SET ord = ?, updated_at = ? WHERE curriculum_id = ? AND id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("store: prepare ordinal update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		res, err := stmt.Exec(u.Ord, now, curriculumID, u.ElementID)
		if err != nil {
			return nil, fmt.Errorf("store: update ordinal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, apperr.ErrConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit ordinals: %w", err)
	}
	return db.ElementsByCurriculum(curriculumID)
}

// scanElement scans one element row from a multi-row query.
func scanElement(rows *sql.Rows) (models.CurriculumElement, error) {
	var e models.CurriculumElement
	var kind string
	err := rows.Scan(&e.ID, &e.CurriculumID, &kind, &e.Ord, &e.TechniqueID, &e.AssetID, &e.Title, &e.Details, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Kind = models.ElementKind(kind)
	return e, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
