package composition

import "github.com/tatamihq/tatami/internal/models"

// ElementStore is the persistence surface the composition engine needs.
// *store.DB satisfies it; tests use an in-memory implementation.
//
// BatchUpdateOrdinals must apply all reassignments in one transaction: a
// concurrent reader never observes a partially reordered curriculum.
type ElementStore interface {
	InsertElement(*models.CurriculumElement) error
	ElementsByCurriculum(curriculumID string) ([]models.CurriculumElement, error)
	ElementScoped(curriculumID, elementID string) (*models.CurriculumElement, error)
	UpdateElement(*models.CurriculumElement) error
	DeleteElement(curriculumID, elementID string) error
	BatchUpdateOrdinals(curriculumID string, updates []models.OrdinalUpdate) ([]models.CurriculumElement, error)
}

// CurriculumChecker reports whether a curriculum id is known.
type CurriculumChecker interface {
	CurriculumExists(id string) (bool, error)
}

// TechniqueLookup batch-fetches technique display summaries.
// Ids that no longer resolve are absent from the returned map.
type TechniqueLookup interface {
	TechniqueSummaries(ids []string) (map[string]models.TechniqueSummary, error)
}

// AssetLookup batch-fetches asset display summaries.
// Ids that no longer resolve are absent from the returned map.
type AssetLookup interface {
	AssetSummaries(ids []string) (map[string]models.AssetSummary, error)
}
