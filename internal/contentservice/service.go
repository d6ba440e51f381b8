// Package contentservice provides CRUD over the Tatami catalog:
// disciplines, categories, techniques, assets, and curricula.
package contentservice

import (
	"context"
	"fmt"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
	"github.com/tatamihq/tatami/internal/store"
)

// Service coordinates catalog operations against the store.
type Service struct {
	db store.Catalog
}

// NewService creates a new content service.
func NewService(db store.Catalog) *Service {
	return &Service{db: db}
}

// --- Disciplines ---

// CreateDiscipline persists a new discipline.
func (s *Service) CreateDiscipline(_ context.Context, name, description string) (*models.Discipline, error) {
	d := &models.Discipline{ID: models.NewID(), Name: name, Description: description}
	if err := s.db.InsertDiscipline(d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDiscipline returns one discipline.
func (s *Service) GetDiscipline(_ context.Context, id string) (*models.Discipline, error) {
	return s.db.GetDiscipline(id)
}

// ListDisciplines returns all disciplines.
func (s *Service) ListDisciplines(_ context.Context) ([]models.Discipline, error) {
	return s.db.ListDisciplines()
}

// UpdateDiscipline applies name/description changes.
func (s *Service) UpdateDiscipline(_ context.Context, id, name, description string) (*models.Discipline, error) {
	d, err := s.db.GetDiscipline(id)
	if err != nil {
		return nil, err
	}
	d.Name, d.Description = name, description
	if err := s.db.UpdateDiscipline(d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDiscipline removes a discipline.
func (s *Service) DeleteDiscipline(_ context.Context, id string) error {
	return s.db.DeleteDiscipline(id)
}

// --- Categories ---

// CreateCategory persists a new category under an existing discipline.
func (s *Service) CreateCategory(_ context.Context, disciplineID, name string) (*models.Category, error) {
	if _, err := s.db.GetDiscipline(disciplineID); err != nil {
		return nil, fmt.Errorf("discipline %s: %w", disciplineID, err)
	}
	c := &models.Category{ID: models.NewID(), DisciplineID: disciplineID, Name: name}
	if err := s.db.InsertCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(_ context.Context, id string) (*models.Category, error) {
	return s.db.GetCategory(id)
}

// ListCategories returns categories, optionally filtered by discipline.
func (s *Service) ListCategories(_ context.Context, disciplineID string) ([]models.Category, error) {
	return s.db.ListCategories(disciplineID)
}

// UpdateCategory applies a name change.
func (s *Service) UpdateCategory(_ context.Context, id, name string) (*models.Category, error) {
	c, err := s.db.GetCategory(id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.db.UpdateCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(_ context.Context, id string) error {
	return s.db.DeleteCategory(id)
}

// --- Techniques ---

// CreateTechnique persists a new technique under an existing category.
func (s *Service) CreateTechnique(_ context.Context, categoryID, name, description string) (*models.Technique, error) {
	if _, err := s.db.GetCategory(categoryID); err != nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, err)
	}
	t := &models.Technique{ID: models.NewID(), CategoryID: categoryID, Name: name, Description: description}
	if err := s.db.InsertTechnique(t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTechnique returns one technique.
func (s *Service) GetTechnique(_ context.Context, id string) (*models.Technique, error) {
	return s.db.GetTechnique(id)
}

// ListTechniques returns techniques, optionally filtered by category.
func (s *Service) ListTechniques(_ context.Context, categoryID string) ([]models.Technique, error) {
	return s.db.ListTechniques(categoryID)
}

// UpdateTechnique applies name/description changes.
func (s *Service) UpdateTechnique(_ context.Context, id, name, description string) (*models.Technique, error) {
	t, err := s.db.GetTechnique(id)
	if err != nil {
		return nil, err
	}
	t.Name, t.Description = name, description
	if err := s.db.UpdateTechnique(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTechnique removes a technique. Curriculum elements referencing it
// are left dangling on purpose; they enrich to null.
func (s *Service) DeleteTechnique(_ context.Context, id string) error {
	return s.db.DeleteTechnique(id)
}

// SearchTechniques runs a full-text (or LIKE fallback) search.
func (s *Service) SearchTechniques(_ context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.db.SearchTechniques(query, limit)
}

// --- Assets ---

// CreateAsset registers a manual asset with an external URL.
func (s *Service) CreateAsset(_ context.Context, a *models.Asset) (*models.Asset, error) {
	if !validAssetKind(a.Kind) {
		return nil, fmt.Errorf("%w: kind must be one of: video, image, document", apperr.ErrInvalidArgument)
	}
	a.ID = models.NewID()
	a.Source = models.AssetSourceManual
	if err := s.db.InsertAsset(a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAsset returns one asset.
func (s *Service) GetAsset(_ context.Context, id string) (*models.Asset, error) {
	return s.db.GetAsset(id)
}

// ListAssets returns all assets.
func (s *Service) ListAssets(_ context.Context) ([]models.Asset, error) {
	return s.db.ListAssets()
}

// UpdateAsset applies metadata changes to an existing asset.
func (s *Service) UpdateAsset(_ context.Context, id string, apply func(*models.Asset)) (*models.Asset, error) {
	a, err := s.db.GetAsset(id)
	if err != nil {
		return nil, err
	}
	apply(a)
	if !validAssetKind(a.Kind) {
		return nil, fmt.Errorf("%w: kind must be one of: video, image, document", apperr.ErrInvalidArgument)
	}
	if err := s.db.UpdateAsset(a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAsset removes an asset. Elements referencing it enrich to null.
func (s *Service) DeleteAsset(_ context.Context, id string) error {
	return s.db.DeleteAsset(id)
}

// --- Curricula ---

// CreateCurriculum persists a new curriculum under an existing discipline.
func (s *Service) CreateCurriculum(_ context.Context, disciplineID, name, notes string) (*models.Curriculum, error) {
	if _, err := s.db.GetDiscipline(disciplineID); err != nil {
		return nil, fmt.Errorf("discipline %s: %w", disciplineID, err)
	}
	c := &models.Curriculum{ID: models.NewID(), DisciplineID: disciplineID, Name: name, Notes: notes}
	if err := s.db.InsertCurriculum(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCurriculum returns one curriculum.
func (s *Service) GetCurriculum(_ context.Context, id string) (*models.Curriculum, error) {
	return s.db.GetCurriculum(id)
}

// ListCurricula returns curricula, optionally filtered by discipline.
func (s *Service) ListCurricula(_ context.Context, disciplineID string) ([]models.Curriculum, error) {
	return s.db.ListCurricula(disciplineID)
}

// UpdateCurriculum applies name/notes changes.
func (s *Service) UpdateCurriculum(_ context.Context, id, name, notes string) (*models.Curriculum, error) {
	c, err := s.db.GetCurriculum(id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Notes = name, notes
	if err := s.db.UpdateCurriculum(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCurriculum removes a curriculum and its elements.
func (s *Service) DeleteCurriculum(_ context.Context, id string) error {
	return s.db.DeleteCurriculum(id)
}

func validAssetKind(kind string) bool {
	switch kind {
	case models.AssetKindVideo, models.AssetKindImage, models.AssetKindDocument:
		return true
	}
	return false
}
