package store

import "github.com/tatamihq/tatami/internal/models"

// SearchResult is one technique search hit.
type SearchResult struct {
	ID      string
	Name    string
	Snippet string
}

// Catalog is the store surface consumed by the content service.
type Catalog interface {
	InsertDiscipline(*models.Discipline) error
	GetDiscipline(id string) (*models.Discipline, error)
	ListDisciplines() ([]models.Discipline, error)
	UpdateDiscipline(*models.Discipline) error
	DeleteDiscipline(id string) error

	InsertCategory(*models.Category) error
	GetCategory(id string) (*models.Category, error)
	ListCategories(disciplineID string) ([]models.Category, error)
	UpdateCategory(*models.Category) error
	DeleteCategory(id string) error

	InsertTechnique(*models.Technique) error
	GetTechnique(id string) (*models.Technique, error)
	ListTechniques(categoryID string) ([]models.Technique, error)
	UpdateTechnique(*models.Technique) error
	DeleteTechnique(id string) error

	InsertAsset(*models.Asset) error
	GetAsset(id string) (*models.Asset, error)
	ListAssets() ([]models.Asset, error)
	UpdateAsset(*models.Asset) error
	DeleteAsset(id string) error

	InsertCurriculum(*models.Curriculum) error
	GetCurriculum(id string) (*models.Curriculum, error)
	ListCurricula(disciplineID string) ([]models.Curriculum, error)
	UpdateCurriculum(*models.Curriculum) error
	DeleteCurriculum(id string) error

	SearchTechniques(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
