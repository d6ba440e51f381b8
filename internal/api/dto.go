package api

import "github.com/tatamihq/tatami/internal/composition"

// DisciplineRequest is the request body for creating or updating a discipline.
type DisciplineRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryRequest is the request body for creating or updating a category.
type CategoryRequest struct {
	DisciplineID string `json:"discipline_id"`
	Name         string `json:"name"`
}

// TechniqueRequest is the request body for creating or updating a technique.
type TechniqueRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AssetRequest is the request body for registering or updating a manual asset.
type AssetRequest struct {
	Kind            string `json:"kind"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CurriculumRequest is the request body for creating or updating a curriculum.
type CurriculumRequest struct {
	DisciplineID string `json:"discipline_id"`
	Name         string `json:"name"`
	Notes        string `json:"notes"`
}

// ReorderRequest is the request body for a full-list reorder. ElementIDs
// must be exactly a permutation of the curriculum's current element ids.
type ReorderRequest struct {
	ElementIDs []string `json:"element_ids"`
}

// NewElementRequest aliases the composition payload for adding an element.
type NewElementRequest = composition.NewElement

// ElementPatchRequest aliases the composition payload for patching an element.
type ElementPatchRequest = composition.Patch

// ImportResponse is returned after an outline import.
type ImportResponse struct {
	CurriculumID string `json:"curriculum_id"`
	Name         string `json:"name"`
	Elements     int    `json:"elements"`
}
