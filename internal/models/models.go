// Package models defines the domain types for Tatami.
package models

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque identifier for any entity.
func NewID() string {
	return uuid.NewString()
}

// Discipline is a top-level practice area (e.g. judo, BJJ).
type Discipline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category groups techniques within a discipline.
type Category struct {
	ID           string    `json:"id"`
	DisciplineID string    `json:"discipline_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Technique is a single teachable technique.
type Technique struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Asset kinds.
const (
	AssetKindVideo    = "video"
	AssetKindImage    = "image"
	AssetKindDocument = "document"
)

// Asset sources. Library assets are discovered by the media sync;
// manual assets are registered through the API with an external URL.
const (
	AssetSourceManual  = "manual"
	AssetSourceLibrary = "library"
)

// Asset is a reference media item (video, image, or document).
type Asset struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	Checksum        string    `json:"checksum,omitempty"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Curriculum is a named, ordered collection of elements.
type Curriculum struct {
	ID           string    `json:"id"`
	DisciplineID string    `json:"discipline_id"`
	Name         string    `json:"name"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ElementKind discriminates the three element payload shapes.
type ElementKind string

// Element kinds.
const (
	ElementKindTechnique ElementKind = "technique"
	ElementKindAsset     ElementKind = "asset"
	ElementKindText      ElementKind = "text"
)

// Valid reports whether k is one of the three known kinds.
func (k ElementKind) Valid() bool {
	switch k {
	case ElementKindTechnique, ElementKindAsset, ElementKindText:
		return true
	}
	return false
}

// CurriculumElement is one entry in a curriculum's ordered list.
//
// Ord is unique per curriculum but not necessarily contiguous: deletions
// leave gaps, only the relative order matters. TechniqueID is set for
// technique elements, AssetID for asset elements; Title carries the primary
// content of text elements and Details holds optional notes for any kind.
type CurriculumElement struct {
	ID           string      `json:"id"`
	CurriculumID string      `json:"curriculum_id"`
	Kind         ElementKind `json:"kind"`
	Ord          int         `json:"ord"`
	TechniqueID  string      `json:"technique_id,omitempty"`
	AssetID      string      `json:"asset_id,omitempty"`
	Title        string      `json:"title,omitempty"`
	Details      string      `json:"details,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrdinalUpdate pairs an element id with its new ordinal position.
type OrdinalUpdate struct {
	ElementID string
	Ord       int
}

// TechniqueSummary is the enrichment payload for technique elements.
type TechniqueSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AssetSummary is the enrichment payload for asset elements.
type AssetSummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// MediaFile is lightweight metadata for a file in the media library,
// as reported by the storage provider.
type MediaFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
