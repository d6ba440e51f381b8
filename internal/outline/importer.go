package outline

import (
	"context"
	"fmt"
	"strings"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/composition"
	"github.com/tatamihq/tatami/internal/models"
)

// Catalog is the slice of the content service the importer needs.
type Catalog interface {
	ListDisciplines(ctx context.Context) ([]models.Discipline, error)
	CreateCurriculum(ctx context.Context, disciplineID, name, notes string) (*models.Curriculum, error)
}

// Composer appends elements to a curriculum.
type Composer interface {
	AddElement(ctx context.Context, curriculumID string, in composition.NewElement) (*models.CurriculumElement, error)
}

// Import parses an outline and materializes it as a new curriculum with
// its elements appended in document order. The frontmatter discipline is
// matched against existing disciplines by id or by case-insensitive name.
//
// Element appends are not transactional with curriculum creation: a
// failed append returns the error along with the partially built
// curriculum id in the error chain, and previously appended elements
// stay in place.
func Import(ctx context.Context, data []byte, catalog Catalog, composer Composer) (*models.Curriculum, int, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, err)
	}

	disciplineID, err := resolveDiscipline(ctx, catalog, doc.Discipline)
	if err != nil {
		return nil, 0, err
	}

	cur, err := catalog.CreateCurriculum(ctx, disciplineID, doc.Name, doc.Notes)
	if err != nil {
		return nil, 0, err
	}

	for i, item := range doc.Items {
		in := composition.NewElement{
			Kind:        item.Kind,
			TechniqueID: item.TechniqueID,
			AssetID:     item.AssetID,
			Title:       item.Title,
			Details:     item.Details,
		}
		if _, err := composer.AddElement(ctx, cur.ID, in); err != nil {
			return cur, i, fmt.Errorf("outline: item %d (%s): %w", i+1, item.Kind, err)
		}
	}
	return cur, len(doc.Items), nil
}

func resolveDiscipline(ctx context.Context, catalog Catalog, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: outline frontmatter is missing discipline", apperr.ErrInvalidArgument)
	}
	disciplines, err := catalog.ListDisciplines(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range disciplines {
		if d.ID == ref || strings.EqualFold(d.Name, ref) {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("%w: discipline %q", apperr.ErrNotFound, ref)
}
