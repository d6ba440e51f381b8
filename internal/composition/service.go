// Package composition implements the curriculum composition engine: an
// ordered, heterogeneous list of elements (technique, asset, or free text)
// per curriculum, with append-at-tail insertion, atomic full-list
// reordering, per-kind payload validation, and batched reference
// enrichment.
package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
)

// ordinalRetries bounds the insert retry loop when an ordinal allocation
// loses a race against another writer (e.g. a second process on the same
// database) before the failure surfaces as apperr.ErrConflict.
const ordinalRetries = 3

// NewElement is the payload for adding an element. Kind determines which
// reference field is required; Details is optional for every kind.
type NewElement struct {
	Kind        models.ElementKind `json:"kind"`
	TechniqueID string             `json:"technique_id"`
	AssetID     string             `json:"asset_id"`
	Title       string             `json:"title"`
	Details     string             `json:"details"`
}

// Patch lists the element fields mutable after creation. Nil fields are
// left untouched. Kind, ordinal, and owning curriculum are deliberately
// absent: they cannot be changed through an update.
type Patch struct {
	TechniqueID *string `json:"technique_id"`
	AssetID     *string `json:"asset_id"`
	Title       *string `json:"title"`
	Details     *string `json:"details"`
}

// EnrichedElement is an element with its references resolved for display.
// Technique and Asset are nil when the referenced entity no longer exists
// (or for kinds that carry no such reference).
type EnrichedElement struct {
	models.CurriculumElement
	Technique *models.TechniqueSummary `json:"technique"`
	Asset     *models.AssetSummary     `json:"asset"`
}

// Service orchestrates element persistence, validation, ordinal
// allocation, and enrichment for curricula.
type Service struct {
	elements  ElementStore
	curricula CurriculumChecker
	resolver  *Resolver
	locks     *curriculumLocks
}

// NewService creates a composition service.
func NewService(elements ElementStore, curricula CurriculumChecker, resolver *Resolver) *Service {
	return &Service{
		elements:  elements,
		curricula: curricula,
		resolver:  resolver,
		locks:     newCurriculumLocks(),
	}
}

// AddElement validates the payload and appends a new element at the tail
// of the curriculum (ordinal = highest existing + 1, or 0 when empty).
// Other elements' ordinals are never touched.
func (s *Service) AddElement(_ context.Context, curriculumID string, in NewElement) (*models.CurriculumElement, error) {
	if err := s.requireCurriculum(curriculumID); err != nil {
		return nil, err
	}
	if err := validateNewElement(in); err != nil {
		return nil, err
	}

	mu := s.locks.get(curriculumID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt < ordinalRetries; attempt++ {
		existing, err := s.elements.ElementsByCurriculum(curriculumID)
		if err != nil {
			return nil, err
		}
		elem := &models.CurriculumElement{
			ID:           models.NewID(),
			CurriculumID: curriculumID,
			Kind:         in.Kind,
			Ord:          nextOrdinal(existing),
			TechniqueID:  in.TechniqueID,
			AssetID:      in.AssetID,
			Title:        in.Title,
			Details:      in.Details,
		}
		err = s.elements.InsertElement(elem)
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return elem, nil
	}
	return nil, fmt.Errorf("%w: ordinal allocation lost %d races", apperr.ErrConflict, ordinalRetries)
}

// ListElements returns the curriculum's elements in ascending ordinal
// order, each enriched with its resolved technique or asset summary. The
// two lookups are batched: one call each per list, regardless of element
// count. Dangling references enrich to nil rather than failing the call.
func (s *Service) ListElements(ctx context.Context, curriculumID string) ([]EnrichedElement, error) {
	if err := s.requireCurriculum(curriculumID); err != nil {
		return nil, err
	}

	elems, err := s.elements.ElementsByCurriculum(curriculumID)
	if err != nil {
		return nil, err
	}

	techniqueIDs, assetIDs := collectReferenceIDs(elems)
	techniques, assets, err := s.resolver.Resolve(ctx, techniqueIDs, assetIDs)
	if err != nil {
		return nil, err
	}

	out := make([]EnrichedElement, len(elems))
	for i, e := range elems {
		enriched := EnrichedElement{CurriculumElement: e}
		if e.TechniqueID != "" {
			if t, ok := techniques[e.TechniqueID]; ok {
				enriched.Technique = &t
			}
		}
		if e.AssetID != "" {
			if a, ok := assets[e.AssetID]; ok {
				enriched.Asset = &a
			}
		}
		out[i] = enriched
	}
	return out, nil
}

// UpdateElement merges the patch onto the element scoped by both ids and
// persists it. Kind consistency is intentionally not re-checked here: a
// technique or asset element created as a placeholder may have its
// reference populated later.
func (s *Service) UpdateElement(_ context.Context, curriculumID, elementID string, patch Patch) (*models.CurriculumElement, error) {
	elem, err := s.elements.ElementScoped(curriculumID, elementID)
	if err != nil {
		return nil, err
	}

	if patch.TechniqueID != nil {
		elem.TechniqueID = *patch.TechniqueID
	}
	if patch.AssetID != nil {
		elem.AssetID = *patch.AssetID
	}
	if patch.Title != nil {
		elem.Title = *patch.Title
	}
	if patch.Details != nil {
		elem.Details = *patch.Details
	}

	if err := s.elements.UpdateElement(elem); err != nil {
		return nil, err
	}
	return elem, nil
}

// RemoveElement deletes the element scoped by both ids. Remaining
// ordinals are not renumbered; the resulting gap is harmless because only
// relative order matters.
func (s *Service) RemoveElement(_ context.Context, curriculumID, elementID string) error {
	return s.elements.DeleteElement(curriculumID, elementID)
}

// Reorder atomically reassigns ordinals so the curriculum's elements match
// orderedIDs (position i becomes ordinal i). The input must be exactly a
// permutation of the curriculum's current element ids; foreign, missing,
// or duplicated ids reject the whole request before anything is written.
// Returns the elements in their new order.
func (s *Service) Reorder(_ context.Context, curriculumID string, orderedIDs []string) ([]models.CurriculumElement, error) {
	if err := s.requireCurriculum(curriculumID); err != nil {
		return nil, err
	}

	mu := s.locks.get(curriculumID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.elements.ElementsByCurriculum(curriculumID)
	if err != nil {
		return nil, err
	}
	if err := validateReorder(current, orderedIDs); err != nil {
		return nil, err
	}

	updates := make([]models.OrdinalUpdate, len(orderedIDs))
	for i, id := range orderedIDs {
		updates[i] = models.OrdinalUpdate{ElementID: id, Ord: i}
	}
	return s.elements.BatchUpdateOrdinals(curriculumID, updates)
}

// requireCurriculum maps an unknown curriculum id to apperr.ErrNotFound.
func (s *Service) requireCurriculum(curriculumID string) error {
	ok, err := s.curricula.CurriculumExists(curriculumID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: curriculum %s", apperr.ErrNotFound, curriculumID)
	}
	return nil
}
