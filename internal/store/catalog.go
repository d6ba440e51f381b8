package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
)

// --- Disciplines ---

// InsertDiscipline persists a new discipline.
func (db *DB) InsertDiscipline(d *models.Discipline) error {
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := db.conn.Exec(`
		INSERT INTO disciplines (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert discipline: %w", err)
	}
	return nil
}

// GetDiscipline returns one discipline or apperr.ErrNotFound.
func (db *DB) GetDiscipline(id string) (*models.Discipline, error) {
	var d models.Discipline
	err := db.conn.QueryRow(`
		SELECT id, name, description, created_at, updated_at
		FROM disciplines WHERE id = ?
	`, id).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get discipline: %w", err)
	}
	return &d, nil
}

// ListDisciplines returns all disciplines ordered by name.
func (db *DB) ListDisciplines() ([]models.Discipline, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, description, created_at, updated_at
		FROM disciplines ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list disciplines: %w", err)
	}
	defer rows.Close()

	var out []models.Discipline
	for rows.Next() {
		var d models.Discipline
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDiscipline persists name/description changes.
func (db *DB) UpdateDiscipline(d *models.Discipline) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := db.conn.Exec(`
		UPDATE disciplines SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`, d.Name, d.Description, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("store: update discipline: %w", err)
	}
	return noneUpdated(res)
}

// DeleteDiscipline removes a discipline.
func (db *DB) DeleteDiscipline(id string) error {
	res, err := db.conn.Exec(`DELETE FROM disciplines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete discipline: %w", err)
	}
	return noneUpdated(res)
}

// --- Categories ---

// InsertCategory persists a new category.
func (db *DB) InsertCategory(c *models.Category) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := db.conn.Exec(`
		INSERT INTO categories (id, discipline_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.DisciplineID, c.Name, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert category: %w", err)
	}
	return nil
}

// GetCategory returns one category or apperr.ErrNotFound.
func (db *DB) GetCategory(id string) (*models.Category, error) {
	var c models.Category
	err := db.conn.QueryRow(`
		SELECT id, discipline_id, name, created_at, updated_at
		FROM categories WHERE id = ?
	`, id).Scan(&c.ID, &c.DisciplineID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get category: %w", err)
	}
	return &c, nil
}

// ListCategories returns the categories of a discipline, or all when
// disciplineID is empty.
func (db *DB) ListCategories(disciplineID string) ([]models.Category, error) {
	q := `SELECT id, discipline_id, name, created_at, updated_at FROM categories`
	args := []any{}
	if disciplineID != "" {
		q += ` WHERE discipline_id = ?`
		args = append(args, disciplineID)
	}
	q += ` ORDER BY name`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.DisciplineID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCategory persists a name change.
func (db *DB) UpdateCategory(c *models.Category) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := db.conn.Exec(`
		UPDATE categories SET name = ?, updated_at = ? WHERE id = ?
	`, c.Name, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("store: update category: %w", err)
	}
	return noneUpdated(res)
}

// DeleteCategory removes a category.
func (db *DB) DeleteCategory(id string) error {
	res, err := db.conn.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete category: %w", err)
	}
	return noneUpdated(res)
}

// --- Techniques ---

// InsertTechnique persists a new technique and its search entry.
func (db *DB) InsertTechnique(t *models.Technique) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO techniques (id, category_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.CategoryID, t.Name, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert technique: %w", err)
	}
	if err := ftsUpsert(tx, t.ID, t.Name, t.Description); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTechnique returns one technique or apperr.ErrNotFound.
func (db *DB) GetTechnique(id string) (*models.Technique, error) {
	var t models.Technique
	err := db.conn.QueryRow(`
		SELECT id, category_id, name, description, created_at, updated_at
		FROM techniques WHERE id = ?
	`, id).Scan(&t.ID, &t.CategoryID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get technique: %w", err)
	}
	return &t, nil
}

// ListTechniques returns the techniques of a category, or all when
// categoryID is empty.
func (db *DB) ListTechniques(categoryID string) ([]models.Technique, error) {
	q := `SELECT id, category_id, name, description, created_at, updated_at FROM techniques`
	args := []any{}
	if categoryID != "" {
		q += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	q += ` ORDER BY name`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list techniques: %w", err)
	}
	defer rows.Close()

	var out []models.Technique
	for rows.Next() {
		var t models.Technique
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTechnique persists name/description changes and refreshes search.
func (db *DB) UpdateTechnique(t *models.Technique) error {
	t.UpdatedAt = time.Now().UTC()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`
		UPDATE techniques SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`, t.Name, t.Description, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("store: update technique: %w", err)
	}
	if err := noneUpdated(res); err != nil {
		return err
	}
	if err := ftsUpsert(tx, t.ID, t.Name, t.Description); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTechnique removes a technique and its search entry. Curriculum
// elements referencing it are left in place; they enrich to null.
func (db *DB) DeleteTechnique(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	res, err := tx.Exec(`DELETE FROM techniques WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete technique: %w", err)
	}
	if err := noneUpdated(res); err != nil {
		return err
	}
	return tx.Commit()
}

// TechniqueSummaries batch-fetches display summaries for the given ids.
// Unknown ids are simply absent from the result map.
func (db *DB) TechniqueSummaries(ids []string) (map[string]models.TechniqueSummary, error) {
	out := make(map[string]models.TechniqueSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args := inClause(`SELECT id, name, description FROM techniques WHERE id IN`, ids)
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: technique summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.TechniqueSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// --- Assets ---

// InsertAsset persists a new asset.
func (db *DB) InsertAsset(a *models.Asset) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Source == "" {
		a.Source = models.AssetSourceManual
	}
	_, err := db.conn.Exec(`
		INSERT INTO assets (id, kind, title, url, thumbnail_url, duration_seconds, checksum, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Kind, a.Title, a.URL, a.ThumbnailURL, a.DurationSeconds, a.Checksum, a.Source, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert asset: %w", err)
	}
	return nil
}

// GetAsset returns one asset or apperr.ErrNotFound.
func (db *DB) GetAsset(id string) (*models.Asset, error) {
	var a models.Asset
	err := db.conn.QueryRow(`
		SELECT id, kind, title, url, thumbnail_url, duration_seconds, checksum, source, created_at, updated_at
		FROM assets WHERE id = ?
	`, id).Scan(&a.ID, &a.Kind, &a.Title, &a.URL, &a.ThumbnailURL, &a.DurationSeconds, &a.Checksum, &a.Source, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get asset: %w", err)
	}
	return &a, nil
}

// ListAssets returns all assets ordered by title.
func (db *DB) ListAssets() ([]models.Asset, error) {
	rows, err := db.conn.Query(`
		SELECT id, kind, title, url, thumbnail_url, duration_seconds, checksum, source, created_at, updated_at
		FROM assets ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Kind, &a.Title, &a.URL, &a.ThumbnailURL, &a.DurationSeconds, &a.Checksum, &a.Source, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAsset persists mutable asset fields.
func (db *DB) UpdateAsset(a *models.Asset) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := db.conn.Exec(`
		UPDATE assets SET kind = ?, title = ?, url = ?, thumbnail_url = ?, duration_seconds = ?, checksum = ?, updated_at = ?
		WHERE id = ?
	`, a.Kind, a.Title, a.URL, a.ThumbnailURL, a.DurationSeconds, a.Checksum, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("store: update asset: %w", err)
	}
	return noneUpdated(res)
}

// DeleteAsset removes an asset. Elements referencing it enrich to null.
func (db *DB) DeleteAsset(id string) error {
	res, err := db.conn.Exec(`DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete asset: %w", err)
	}
	return noneUpdated(res)
}

// AssetSummaries batch-fetches display summaries for the given ids.
// Unknown ids are simply absent from the result map.
func (db *DB) AssetSummaries(ids []string) (map[string]models.AssetSummary, error) {
	out := make(map[string]models.AssetSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args := inClause(`SELECT id, title, url, thumbnail_url, duration_seconds FROM assets WHERE id IN`, ids)
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: asset summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.AssetSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.URL, &s.ThumbnailURL, &s.DurationSeconds); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// LibraryAssetIndex maps media URL -> (id, checksum) for all library-sourced
// assets. Used by the media sync to detect new, changed, and stale files.
func (db *DB) LibraryAssetIndex() (map[string]LibraryAssetRef, error) {
	rows, err := db.conn.Query(`
		SELECT id, url, checksum FROM assets WHERE source = ?
	`, models.AssetSourceLibrary)
	if err != nil {
		return nil, fmt.Errorf("store: library asset index: %w", err)
	}
	defer rows.Close()

	out := make(map[string]LibraryAssetRef)
	for rows.Next() {
		var ref LibraryAssetRef
		var url string
		if err := rows.Scan(&ref.ID, &url, &ref.Checksum); err != nil {
			return nil, err
		}
		out[url] = ref
	}
	return out, rows.Err()
}

// LibraryAssetRef identifies a library asset by id and content checksum.
type LibraryAssetRef struct {
	ID       string
	Checksum string
}

// noneUpdated converts a zero-row Exec result into apperr.ErrNotFound.
func noneUpdated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// inClause builds "prefix (?,?,...)" and its args for an IN query.
func inClause(prefix string, ids []string) (string, []any) {
	args := make([]any, len(ids))
	q := prefix + " ("
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args[i] = id
	}
	q += ")"
	return q, args
}
