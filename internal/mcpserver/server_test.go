package mcpserver

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tatamihq/tatami/internal/composition"
	"github.com/tatamihq/tatami/internal/contentservice"
	"github.com/tatamihq/tatami/internal/store"
)

func testServer(t *testing.T) (*Server, *contentservice.Service) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "tatami-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	content := contentservice.NewService(db)
	comp := composition.NewService(db, db, composition.NewResolver(db, db))

	srv := New(content, comp)
	return srv, content
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_techniques":
		result, err = srv.searchTechniques(ctx, req)
	case "list_curricula":
		result, err = srv.listCurricula(ctx, req)
	case "read_curriculum":
		result, err = srv.readCurriculum(ctx, req)
	case "add_element":
		result, err = srv.addElement(ctx, req)
	case "reorder_elements":
		result, err = srv.reorderElements(ctx, req)
	case "import_curriculum":
		result, err = srv.importCurriculum(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// seed creates a discipline, a technique under it, and an empty curriculum.
func seed(t *testing.T, content *contentservice.Service) (disciplineID, techniqueID, curriculumID string) {
	t.Helper()
	ctx := context.Background()

	d, err := content.CreateDiscipline(ctx, "Judo", "")
	if err != nil {
		t.Fatal(err)
	}
	cat, err := content.CreateCategory(ctx, d.ID, "Throws")
	if err != nil {
		t.Fatal(err)
	}
	tech, err := content.CreateTechnique(ctx, cat.ID, "Seoi Nage", "Shoulder throw")
	if err != nil {
		t.Fatal(err)
	}
	cur, err := content.CreateCurriculum(ctx, d.ID, "White Belt", "")
	if err != nil {
		t.Fatal(err)
	}
	return d.ID, tech.ID, cur.ID
}

func TestSearchTechniques(t *testing.T) {
	srv, content := testServer(t)
	seed(t, content)

	r := callTool(t, srv, "search_techniques", map[string]interface{}{"query": "Seoi"})
	if r.IsError {
		t.Fatalf("search errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Seoi Nage") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestAddAndReadElements(t *testing.T) {
	srv, content := testServer(t)
	_, techID, curID := seed(t, content)

	r := callTool(t, srv, "add_element", map[string]interface{}{
		"curriculum_id": curID,
		"kind":          "technique",
		"technique_id":  techID,
	})
	if r.IsError {
		t.Fatalf("add errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "position 0") {
		t.Errorf("add result = %q", resultText(r))
	}

	r = callTool(t, srv, "add_element", map[string]interface{}{
		"curriculum_id": curID,
		"kind":          "text",
		"title":         "Water break",
	})
	if r.IsError {
		t.Fatalf("add text errored: %s", resultText(r))
	}

	r = callTool(t, srv, "read_curriculum", map[string]interface{}{"curriculum_id": curID})
	if r.IsError {
		t.Fatalf("read errored: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "Seoi Nage") || !strings.Contains(text, "Water break") {
		t.Errorf("read result missing content: %q", text)
	}
}

func TestAddElementValidation(t *testing.T) {
	srv, content := testServer(t)
	_, _, curID := seed(t, content)

	r := callTool(t, srv, "add_element", map[string]interface{}{
		"curriculum_id": curID,
		"kind":          "technique",
	})
	if !r.IsError {
		t.Error("expected error for technique element without technique_id")
	}
}

func TestReorderElements(t *testing.T) {
	srv, content := testServer(t)
	_, _, curID := seed(t, content)

	var ids []string
	for _, title := range []string{"a", "b"} {
		r := callTool(t, srv, "add_element", map[string]interface{}{
			"curriculum_id": curID,
			"kind":          "text",
			"title":         title,
		})
		text := resultText(r)
		// "added element <id> at position <n>"
		fields := strings.Fields(text)
		ids = append(ids, fields[2])
	}

	r := callTool(t, srv, "reorder_elements", map[string]interface{}{
		"curriculum_id": curID,
		"element_ids":   ids[1] + ", " + ids[0],
	})
	if r.IsError {
		t.Fatalf("reorder errored: %s", resultText(r))
	}

	// Partial list is rejected.
	r = callTool(t, srv, "reorder_elements", map[string]interface{}{
		"curriculum_id": curID,
		"element_ids":   ids[0],
	})
	if !r.IsError {
		t.Error("expected error for partial reorder")
	}
}

func TestListCurricula(t *testing.T) {
	srv, content := testServer(t)
	seed(t, content)

	r := callTool(t, srv, "list_curricula", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("list errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "White Belt") {
		t.Errorf("list result = %q", resultText(r))
	}
}

func TestImportCurriculum(t *testing.T) {
	srv, content := testServer(t)
	_, techID, _ := seed(t, content)

	outlineDoc := "---\nname: Imported\ndiscipline: Judo\n---\n" +
		"- Warm-up\n" +
		"- [[technique:" + techID + "]]\n"
	r := callTool(t, srv, "import_curriculum", map[string]interface{}{"outline": outlineDoc})
	if r.IsError {
		t.Fatalf("import errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "2 elements") {
		t.Errorf("import result = %q", resultText(r))
	}
}

func TestImportUnknownDiscipline(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "import_curriculum", map[string]interface{}{
		"outline": "---\nname: Plan\ndiscipline: Capoeira\n---\n- item\n",
	})
	if !r.IsError {
		t.Error("expected error for unknown discipline")
	}
}

func TestReadCurriculumMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_curriculum", map[string]interface{}{"curriculum_id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing curriculum")
	}
}
