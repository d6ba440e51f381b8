package composition

import (
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
)

// validateNewElement enforces the per-kind payload contract at creation
// time: a technique element needs a technique reference, an asset element
// an asset reference, and a text element a title. Violations wrap
// apperr.ErrInvalidArgument and name the missing field.
func validateNewElement(in NewElement) error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Kind,
			validation.Required,
			validation.In(models.ElementKindTechnique, models.ElementKindAsset, models.ElementKindText).
				Error("must be one of: technique, asset, text")),
		validation.Field(&in.TechniqueID,
			validation.Required.When(in.Kind == models.ElementKindTechnique).
				Error("is required for technique elements")),
		validation.Field(&in.AssetID,
			validation.Required.When(in.Kind == models.ElementKindAsset).
				Error("is required for asset elements")),
		validation.Field(&in.Title,
			validation.Required.When(in.Kind == models.ElementKindText).
				Error("is required for text elements")),
	); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, err)
	}
	return nil
}

// validateReorder verifies that orderedIDs is exactly a permutation of the
// curriculum's current element ids: no foreign ids, no missing ids, no
// duplicates. Offending ids are listed in the error.
func validateReorder(current []models.CurriculumElement, orderedIDs []string) error {
	existing := make(map[string]struct{}, len(current))
	for _, e := range current {
		existing[e.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(orderedIDs))
	var foreign, duplicate []string
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			duplicate = append(duplicate, id)
			continue
		}
		seen[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			foreign = append(foreign, id)
		}
	}

	var missing []string
	for id := range existing {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(foreign) == 0 && len(duplicate) == 0 && len(missing) == 0 {
		return nil
	}

	var parts []string
	if len(foreign) > 0 {
		sort.Strings(foreign)
		parts = append(parts, fmt.Sprintf("unknown element ids: %s", strings.Join(foreign, ", ")))
	}
	if len(duplicate) > 0 {
		sort.Strings(duplicate)
		parts = append(parts, fmt.Sprintf("duplicate element ids: %s", strings.Join(duplicate, ", ")))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		parts = append(parts, fmt.Sprintf("missing element ids: %s", strings.Join(missing, ", ")))
	}
	return fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, strings.Join(parts, "; "))
}
