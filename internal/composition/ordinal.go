package composition

import "github.com/tatamihq/tatami/internal/models"

// nextOrdinal returns the tail position for a new element: one past the
// highest existing ordinal, or 0 for an empty curriculum. Ordinals may have
// gaps after deletions, so this scans for the maximum rather than counting.
func nextOrdinal(elems []models.CurriculumElement) int {
	next := 0
	for _, e := range elems {
		if e.Ord >= next {
			next = e.Ord + 1
		}
	}
	return next
}
