package composition

import "sync"

// curriculumLocks hands out one mutex per curriculum id. The per-curriculum
// critical section serializes ordinal allocation and reordering so the
// (curriculum_id, ord) uniqueness invariant holds under concurrent requests.
//
// Entries persist for the life of the process.
type curriculumLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCurriculumLocks() *curriculumLocks {
	return &curriculumLocks{locks: make(map[string]*sync.Mutex)}
}

// get returns the mutex for a curriculum, creating it on first use.
func (c *curriculumLocks) get(curriculumID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.locks[curriculumID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[curriculumID] = m
	}
	return m
}
