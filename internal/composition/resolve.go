package composition

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tatamihq/tatami/internal/models"
)

// Resolver turns technique and asset id sets into display-summary maps for
// enrichment. Both lookups are batched (one call each per list request) and
// run concurrently.
type Resolver struct {
	techniques TechniqueLookup
	assets     AssetLookup
}

// NewResolver creates a resolver over the two lookup collaborators.
func NewResolver(techniques TechniqueLookup, assets AssetLookup) *Resolver {
	return &Resolver{techniques: techniques, assets: assets}
}

// Resolve batch-fetches summaries for the given id sets. Ids that no longer
// resolve are absent from the returned maps; callers enrich those
// references to null rather than failing.
func (r *Resolver) Resolve(ctx context.Context, techniqueIDs, assetIDs []string) (map[string]models.TechniqueSummary, map[string]models.AssetSummary, error) {
	var (
		techniques map[string]models.TechniqueSummary
		assets     map[string]models.AssetSummary
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		techniques, err = r.techniques.TechniqueSummaries(techniqueIDs)
		if err != nil {
			return fmt.Errorf("composition: resolve techniques: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assets, err = r.assets.AssetSummaries(assetIDs)
		if err != nil {
			return fmt.Errorf("composition: resolve assets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if techniques == nil {
		techniques = map[string]models.TechniqueSummary{}
	}
	if assets == nil {
		assets = map[string]models.AssetSummary{}
	}
	return techniques, assets, nil
}

// collectReferenceIDs gathers the distinct non-empty technique and asset ids
// across a curriculum's elements.
func collectReferenceIDs(elems []models.CurriculumElement) (techniqueIDs, assetIDs []string) {
	techSeen := make(map[string]struct{})
	assetSeen := make(map[string]struct{})
	for _, e := range elems {
		if e.TechniqueID != "" {
			if _, ok := techSeen[e.TechniqueID]; !ok {
				techSeen[e.TechniqueID] = struct{}{}
				techniqueIDs = append(techniqueIDs, e.TechniqueID)
			}
		}
		if e.AssetID != "" {
			if _, ok := assetSeen[e.AssetID]; !ok {
				assetSeen[e.AssetID] = struct{}{}
				assetIDs = append(assetIDs, e.AssetID)
			}
		}
	}
	return techniqueIDs, assetIDs
}
