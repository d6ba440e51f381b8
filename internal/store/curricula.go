package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
)

// InsertCurriculum persists a new curriculum.
func (db *DB) InsertCurriculum(c *models.Curriculum) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := db.conn.Exec(`
		INSERT INTO curricula (id, discipline_id, name, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.DisciplineID, c.Name, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert curriculum: %w", err)
	}
	return nil
}

// GetCurriculum returns one curriculum or apperr.ErrNotFound.
func (db *DB) GetCurriculum(id string) (*models.Curriculum, error) {
	var c models.Curriculum
	err := db.conn.QueryRow(`
		SELECT id, discipline_id, name, notes, created_at, updated_at
		FROM curricula WHERE id = ?
	`, id).Scan(&c.ID, &c.DisciplineID, &c.Name, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get curriculum: %w", err)
	}
	return &c, nil
}

// ListCurricula returns the curricula of a discipline, or all when
// disciplineID is empty.
func (db *DB) ListCurricula(disciplineID string) ([]models.Curriculum, error) {
	q := `SELECT id, discipline_id, name, notes, created_at, updated_at FROM curricula`
	args := []any{}
	if disciplineID != "" {
		q += ` WHERE discipline_id = ?`
		args = append(args, disciplineID)
	}
	q += ` ORDER BY name`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list curricula: %w", err)
	}
	defer rows.Close()

	var out []models.Curriculum
	for rows.Next() {
		var c models.Curriculum
		if err := rows.Scan(&c.ID, &c.DisciplineID, &c.Name, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCurriculum persists name/notes changes.
func (db *DB) UpdateCurriculum(c *models.Curriculum) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := db.conn.Exec(`
		UPDATE curricula SET name = ?, notes = ?, updated_at = ? WHERE id = ?
	`, c.Name, c.Notes, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("store: update curriculum: %w", err)
	}
	return noneUpdated(res)
}

// DeleteCurriculum removes a curriculum and all of its elements in one
// transaction.
func (db *DB) DeleteCurriculum(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM curriculum_elements WHERE curriculum_id = ?`, id)
	res, err := tx.Exec(`DELETE FROM curricula WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete curriculum: %w", err)
	}
	if err := noneUpdated(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CurriculumExists reports whether a curriculum id is known.
func (db *DB) CurriculumExists(id string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM curricula WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: curriculum exists: %w", err)
	}
	return true, nil
}
