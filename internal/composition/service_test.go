package composition

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/tatamihq/tatami/internal/apperr"
	"github.com/tatamihq/tatami/internal/models"
)

// memStore is an in-memory ElementStore used to exercise the engine
// without a database. It honors the same contracts as the sqlite store:
// scoped lookups, conflict on duplicate ordinals, transactional batch
// updates (all-or-nothing).
type memStore struct {
	mu       sync.Mutex
	elements map[string]*models.CurriculumElement

	// insertFailures, when positive, makes that many InsertElement calls
	// fail with apperr.ErrConflict before succeeding.
	insertFailures int
}

func newMemStore() *memStore {
	return &memStore{elements: make(map[string]*models.CurriculumElement)}
}

func (m *memStore) InsertElement(e *models.CurriculumElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertFailures > 0 {
		m.insertFailures--
		return apperr.ErrConflict
	}
	for _, other := range m.elements {
		if other.CurriculumID == e.CurriculumID && other.Ord == e.Ord {
			return apperr.ErrConflict
		}
	}
	cp := *e
	m.elements[e.ID] = &cp
	return nil
}

func (m *memStore) ElementsByCurriculum(curriculumID string) ([]models.CurriculumElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CurriculumElement
	for _, e := range m.elements {
		if e.CurriculumID == curriculumID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ord < out[j].Ord })
	return out, nil
}

func (m *memStore) ElementScoped(curriculumID, elementID string) (*models.CurriculumElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elements[elementID]
	if !ok || e.CurriculumID != curriculumID {
		return nil, apperr.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) UpdateElement(e *models.CurriculumElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.elements[e.ID]
	if !ok || stored.CurriculumID != e.CurriculumID {
		return apperr.ErrNotFound
	}
	stored.TechniqueID = e.TechniqueID
	stored.AssetID = e.AssetID
	stored.Title = e.Title
	stored.Details = e.Details
	return nil
}

func (m *memStore) DeleteElement(curriculumID, elementID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elements[elementID]
	if !ok || e.CurriculumID != curriculumID {
		return apperr.ErrNotFound
	}
	delete(m.elements, elementID)
	return nil
}

func (m *memStore) BatchUpdateOrdinals(curriculumID string, updates []models.OrdinalUpdate) ([]models.CurriculumElement, error) {
	m.mu.Lock()
	for _, u := range updates {
		e, ok := m.elements[u.ElementID]
		if !ok || e.CurriculumID != curriculumID {
			m.mu.Unlock()
			return nil, apperr.ErrConflict
		}
	}
	for _, u := range updates {
		m.elements[u.ElementID].Ord = u.Ord
	}
	m.mu.Unlock()
	return m.ElementsByCurriculum(curriculumID)
}

// memCurricula is a fixed set of known curriculum ids.
type memCurricula map[string]bool

func (m memCurricula) CurriculumExists(id string) (bool, error) { return m[id], nil }

// fakeLookups serves summaries from maps and counts batch calls.
type fakeLookups struct {
	techniques map[string]models.TechniqueSummary
	assets     map[string]models.AssetSummary

	techniqueCalls int
	assetCalls     int
}

func (f *fakeLookups) TechniqueSummaries(ids []string) (map[string]models.TechniqueSummary, error) {
	f.techniqueCalls++
	out := make(map[string]models.TechniqueSummary)
	for _, id := range ids {
		if s, ok := f.techniques[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeLookups) AssetSummaries(ids []string) (map[string]models.AssetSummary, error) {
	f.assetCalls++
	out := make(map[string]models.AssetSummary)
	for _, id := range ids {
		if s, ok := f.assets[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func testService(t *testing.T, curricula ...string) (*Service, *memStore, *fakeLookups) {
	t.Helper()
	known := memCurricula{}
	for _, id := range curricula {
		known[id] = true
	}
	st := newMemStore()
	lookups := &fakeLookups{
		techniques: map[string]models.TechniqueSummary{},
		assets:     map[string]models.AssetSummary{},
	}
	svc := NewService(st, known, NewResolver(lookups, lookups))
	return svc, st, lookups
}

func mustAdd(t *testing.T, svc *Service, curriculumID string, in NewElement) *models.CurriculumElement {
	t.Helper()
	e, err := svc.AddElement(context.Background(), curriculumID, in)
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	return e
}

func TestAddElementAssignsTailOrdinals(t *testing.T) {
	svc, _, _ := testService(t, "c1")

	first := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "Intro"})
	if first.Ord != 0 {
		t.Errorf("first ord = %d, want 0", first.Ord)
	}
	second := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "Warm-up"})
	if second.Ord != 1 {
		t.Errorf("second ord = %d, want 1", second.Ord)
	}
	if first.ID == second.ID {
		t.Error("elements share an id")
	}
}

func TestAddElementAfterDeletionContinuesFromMax(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})
	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "b"})
	c := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "c"})

	if err := svc.RemoveElement(context.Background(), "c1", c.ID); err != nil {
		t.Fatalf("RemoveElement: %v", err)
	}
	// Max surviving ord is 1, so the next append lands at 2.
	d := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "d"})
	if d.Ord != 2 {
		t.Errorf("ord after delete = %d, want 2", d.Ord)
	}
}

func TestAddElementKindValidation(t *testing.T) {
	cases := []struct {
		name    string
		in      NewElement
		wantErr string
	}{
		{"technique without reference", NewElement{Kind: models.ElementKindTechnique}, "technique_id"},
		{"asset without reference", NewElement{Kind: models.ElementKindAsset}, "asset_id"},
		{"text without title", NewElement{Kind: models.ElementKindText}, "title"},
		{"unknown kind", NewElement{Kind: "quiz"}, "kind"},
		{"missing kind", NewElement{}, "kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st, _ := testService(t, "c1")
			_, err := svc.AddElement(context.Background(), "c1", tc.in)
			if !errors.Is(err, apperr.ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not name %q", err, tc.wantErr)
			}
			if len(st.elements) != 0 {
				t.Error("validation failure wrote an element")
			}
		})
	}
}

func TestAddElementTextSucceeds(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	e := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "Warm-up"})

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != e.ID || listed[0].Kind != models.ElementKindText {
		t.Fatalf("listed = %+v, want one text element %s", listed, e.ID)
	}
}

func TestAddElementUnknownCurriculum(t *testing.T) {
	svc, _, _ := testService(t) // no curricula
	_, err := svc.AddElement(context.Background(), "ghost", NewElement{Kind: models.ElementKindText, Title: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddElementRetriesOrdinalConflict(t *testing.T) {
	svc, st, _ := testService(t, "c1")
	st.insertFailures = 2

	e := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "x"})
	if e.Ord != 0 {
		t.Errorf("ord = %d, want 0", e.Ord)
	}
}

func TestAddElementSurfacesConflictWhenRetriesExhausted(t *testing.T) {
	svc, st, _ := testService(t, "c1")
	st.insertFailures = ordinalRetries

	_, err := svc.AddElement(context.Background(), "c1", NewElement{Kind: models.ElementKindText, Title: "x"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestReorderRoundTrip(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	a := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})
	b := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "b"})
	c := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "c"})

	reordered, err := svc.Reorder(context.Background(), "c1", []string{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	wantOrder := []string{c.ID, a.ID, b.ID}
	for i, e := range reordered {
		if e.ID != wantOrder[i] {
			t.Fatalf("position %d = %s, want %s", i, e.ID, wantOrder[i])
		}
		if e.Ord != i {
			t.Errorf("position %d ord = %d, want %d", i, e.Ord, i)
		}
	}

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	for i, e := range listed {
		if e.ID != wantOrder[i] {
			t.Fatalf("listed position %d = %s, want %s", i, e.ID, wantOrder[i])
		}
	}
}

func TestReorderRejectsForeignIDs(t *testing.T) {
	svc, _, _ := testService(t, "c1", "c2")
	a := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})
	b := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "b"})
	other := mustAdd(t, svc, "c2", NewElement{Kind: models.ElementKindText, Title: "other"})

	_, err := svc.Reorder(context.Background(), "c1", []string{b.ID, a.ID, other.ID})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), other.ID) {
		t.Errorf("error %q does not list the foreign id %s", err, other.ID)
	}
	assertOrder(t, svc, "c1", []string{a.ID, b.ID})
}

func TestReorderRejectsPartialInput(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	a := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})
	b := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "b"})

	_, err := svc.Reorder(context.Background(), "c1", []string{b.ID})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), a.ID) {
		t.Errorf("error %q does not list the missing id %s", err, a.ID)
	}
	assertOrder(t, svc, "c1", []string{a.ID, b.ID})
}

func TestReorderRejectsDuplicateIDs(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	a := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})
	b := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "b"})

	_, err := svc.Reorder(context.Background(), "c1", []string{a.ID, a.ID, b.ID})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestReorderUnknownCurriculum(t *testing.T) {
	svc, _, _ := testService(t)
	_, err := svc.Reorder(context.Background(), "ghost", nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveElementKeepsGaps(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	a := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})
	b := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "b"})
	c := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "c"})

	if err := svc.RemoveElement(context.Background(), "c1", b.ID); err != nil {
		t.Fatalf("RemoveElement: %v", err)
	}

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("len = %d, want 2", len(listed))
	}
	// No compaction: surviving ordinals are exactly 0 and 2.
	if listed[0].ID != a.ID || listed[0].Ord != 0 {
		t.Errorf("first = %s ord %d, want %s ord 0", listed[0].ID, listed[0].Ord, a.ID)
	}
	if listed[1].ID != c.ID || listed[1].Ord != 2 {
		t.Errorf("second = %s ord %d, want %s ord 2", listed[1].ID, listed[1].Ord, c.ID)
	}
}

func TestRemoveElementScopedNotFound(t *testing.T) {
	svc, _, _ := testService(t, "c1", "c2")
	a := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})

	err := svc.RemoveElement(context.Background(), "c2", a.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateElementMergesPatch(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	e := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "Warm-up", Details: "old"})

	title := "Cool-down"
	details := "new"
	updated, err := svc.UpdateElement(context.Background(), "c1", e.ID, Patch{Title: &title, Details: &details})
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	if updated.Title != "Cool-down" || updated.Details != "new" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Kind != models.ElementKindText || updated.Ord != e.Ord {
		t.Error("update touched kind or ordinal")
	}
}

func TestUpdateElementAllowsLateReferencePick(t *testing.T) {
	// Placeholder-then-pick: a reference may be populated after creation;
	// the kind contract is only enforced at creation time.
	svc, _, _ := testService(t, "c1")
	e := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindTechnique, TechniqueID: "t-old"})

	id := "t-new"
	updated, err := svc.UpdateElement(context.Background(), "c1", e.ID, Patch{TechniqueID: &id})
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	if updated.TechniqueID != "t-new" {
		t.Errorf("technique id = %q, want t-new", updated.TechniqueID)
	}
}

func TestUpdateElementScopedNotFound(t *testing.T) {
	svc, _, _ := testService(t, "c1", "c2")
	e := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "a"})

	_, err := svc.UpdateElement(context.Background(), "c2", e.ID, Patch{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListElementsEnrichment(t *testing.T) {
	svc, _, lookups := testService(t, "c1")
	lookups.techniques["t1"] = models.TechniqueSummary{ID: "t1", Name: "Uchi Mata"}
	lookups.assets["a1"] = models.AssetSummary{ID: "a1", Title: "Uchi Mata breakdown", DurationSeconds: 90}

	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindTechnique, TechniqueID: "t1"})
	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindAsset, AssetID: "a1"})
	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "Notes"})

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if listed[0].Technique == nil || listed[0].Technique.Name != "Uchi Mata" {
		t.Errorf("technique enrichment = %+v", listed[0].Technique)
	}
	if listed[1].Asset == nil || listed[1].Asset.DurationSeconds != 90 {
		t.Errorf("asset enrichment = %+v", listed[1].Asset)
	}
	if listed[2].Technique != nil || listed[2].Asset != nil {
		t.Error("text element got an enrichment payload")
	}
}

func TestListElementsEnrichmentIsBatched(t *testing.T) {
	svc, _, lookups := testService(t, "c1")
	for i := 0; i < 5; i++ {
		mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindTechnique, TechniqueID: "t1"})
	}

	if _, err := svc.ListElements(context.Background(), "c1"); err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if lookups.techniqueCalls != 1 || lookups.assetCalls != 1 {
		t.Errorf("lookup calls = %d/%d, want 1/1", lookups.techniqueCalls, lookups.assetCalls)
	}
}

func TestListElementsDanglingReferenceIsNull(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	// t-gone is never registered with the lookup: the referenced technique
	// has been deleted. The element still lists, with a nil summary.
	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindTechnique, TechniqueID: "t-gone"})

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("len = %d, want 1", len(listed))
	}
	if listed[0].Technique != nil {
		t.Errorf("technique = %+v, want nil", listed[0].Technique)
	}
}

func TestOrdinalsStayUniquePerCurriculum(t *testing.T) {
	svc, _, _ := testService(t, "c1")
	var ids []string
	for i := 0; i < 6; i++ {
		e := mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "x"})
		ids = append(ids, e.ID)
	}
	mustRemove(t, svc, "c1", ids[2])
	ids = append(ids[:2], ids[3:]...)
	// Reverse the remaining five and add one more.
	rev := make([]string, len(ids))
	for i, id := range ids {
		rev[len(ids)-1-i] = id
	}
	if _, err := svc.Reorder(context.Background(), "c1", rev); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	mustAdd(t, svc, "c1", NewElement{Kind: models.ElementKindText, Title: "tail"})

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	seen := map[int]bool{}
	for _, e := range listed {
		if seen[e.Ord] {
			t.Fatalf("duplicate ordinal %d", e.Ord)
		}
		seen[e.Ord] = true
	}
}

func TestConcurrentAddsKeepOrdinalsUnique(t *testing.T) {
	svc, _, _ := testService(t, "c1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddElement(context.Background(), "c1", NewElement{Kind: models.ElementKindText, Title: "x"})
		}()
	}
	wg.Wait()

	listed, err := svc.ListElements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(listed) != 16 {
		t.Fatalf("len = %d, want 16", len(listed))
	}
	seen := map[int]bool{}
	for _, e := range listed {
		if seen[e.Ord] {
			t.Fatalf("duplicate ordinal %d", e.Ord)
		}
		seen[e.Ord] = true
	}
}

// Scenario from the composition design notes: empty curriculum, add text
// then technique, swap them, list.
func TestComposeReorderListScenario(t *testing.T) {
	svc, _, lookups := testService(t, "C1")
	lookups.techniques["42"] = models.TechniqueSummary{ID: "42", Name: "Seoi Nage"}

	e1 := mustAdd(t, svc, "C1", NewElement{Kind: models.ElementKindText, Title: "Intro"})
	if e1.Ord != 0 {
		t.Fatalf("e1 ord = %d, want 0", e1.Ord)
	}
	e2 := mustAdd(t, svc, "C1", NewElement{Kind: models.ElementKindTechnique, TechniqueID: "42"})
	if e2.Ord != 1 {
		t.Fatalf("e2 ord = %d, want 1", e2.Ord)
	}

	if _, err := svc.Reorder(context.Background(), "C1", []string{e2.ID, e1.ID}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	listed, err := svc.ListElements(context.Background(), "C1")
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if listed[0].ID != e2.ID || listed[0].Ord != 0 {
		t.Errorf("first = %s ord %d, want %s ord 0", listed[0].ID, listed[0].Ord, e2.ID)
	}
	if listed[1].ID != e1.ID || listed[1].Ord != 1 {
		t.Errorf("second = %s ord %d, want %s ord 1", listed[1].ID, listed[1].Ord, e1.ID)
	}
	if listed[0].Technique == nil || listed[0].Technique.Name != "Seoi Nage" {
		t.Errorf("technique enrichment = %+v", listed[0].Technique)
	}
}

func assertOrder(t *testing.T, svc *Service, curriculumID string, wantIDs []string) {
	t.Helper()
	listed, err := svc.ListElements(context.Background(), curriculumID)
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(listed) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(listed), len(wantIDs))
	}
	for i, e := range listed {
		if e.ID != wantIDs[i] {
			t.Fatalf("position %d = %s, want %s", i, e.ID, wantIDs[i])
		}
	}
}

func mustRemove(t *testing.T, svc *Service, curriculumID, elementID string) {
	t.Helper()
	if err := svc.RemoveElement(context.Background(), curriculumID, elementID); err != nil {
		t.Fatalf("RemoveElement: %v", err)
	}
}
