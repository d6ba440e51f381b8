// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Tatami tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tatamihq/tatami/internal/composition"
	"github.com/tatamihq/tatami/internal/contentservice"
	"github.com/tatamihq/tatami/internal/models"
	"github.com/tatamihq/tatami/internal/outline"
)

// Server wraps the MCP server with Tatami tools.
type Server struct {
	mcp     *server.MCPServer
	content *contentservice.Service
	comp    *composition.Service
}

// New creates a new MCP server with all Tatami tools registered.
func New(content *contentservice.Service, comp *composition.Service) *Server {
	s := &Server{content: content, comp: comp}

	s.mcp = server.NewMCPServer(
		"Tatami",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_techniques",
		mcp.WithDescription("Full-text search through technique names and descriptions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchTechniques)

	s.mcp.AddTool(mcp.NewTool("list_curricula",
		mcp.WithDescription("List all curricula, optionally filtered by discipline."),
		mcp.WithString("discipline_id", mcp.Description("Optional discipline id to filter by")),
	), s.listCurricula)

	s.mcp.AddTool(mcp.NewTool("read_curriculum",
		mcp.WithDescription("Read a curriculum and its ordered elements with resolved technique and asset references."),
		mcp.WithString("curriculum_id", mcp.Required(), mcp.Description("Curriculum id")),
	), s.readCurriculum)

	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Append an element at the end of a curriculum. "+
			"kind is one of technique, asset, or text; technique elements need "+
			"technique_id, asset elements need asset_id, text elements need title."),
		mcp.WithString("curriculum_id", mcp.Required(), mcp.Description("Curriculum id")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Element kind: technique, asset, or text")),
		mcp.WithString("technique_id", mcp.Description("Technique id (for technique elements)")),
		mcp.WithString("asset_id", mcp.Description("Asset id (for asset elements)")),
		mcp.WithString("title", mcp.Description("Title (required for text elements)")),
		mcp.WithString("details", mcp.Description("Optional free-form notes")),
	), s.addElement)

	s.mcp.AddTool(mcp.NewTool("reorder_elements",
		mcp.WithDescription("Atomically reorder a curriculum. element_ids must list "+
			"every element id in the curriculum exactly once, comma-separated, in the "+
			"desired order; the whole request is rejected otherwise."),
		mcp.WithString("curriculum_id", mcp.Required(), mcp.Description("Curriculum id")),
		mcp.WithString("element_ids", mcp.Required(), mcp.Description("Comma-separated element ids in the desired order")),
	), s.reorderElements)

	s.mcp.AddTool(mcp.NewTool("import_curriculum",
		mcp.WithDescription("Create a curriculum from a Markdown outline. "+
			"The outline MUST follow the canonical format (YAML frontmatter with name and "+
			"discipline, list items with optional [[technique:ID]] / [[asset:ID]] references). "+
			"Read the tatami://outline-format resource first."),
		mcp.WithString("outline", mcp.Required(), mcp.Description("Markdown outline following the Tatami outline format")),
	), s.importCurriculum)

	// Resource: outline format contract.
	s.mcp.AddResource(
		mcp.NewResource("tatami://outline-format", "Curriculum Outline Format",
			mcp.WithResourceDescription("Canonical Markdown outline format accepted by import_curriculum."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOutlineFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchTechniques(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.content.SearchTechniques(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCurricula(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	disciplineID := ""
	if d, err := req.RequireString("discipline_id"); err == nil {
		disciplineID = d
	}
	items, err := s.content.ListCurricula(ctx, disciplineID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readCurriculum(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("curriculum_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cur, err := s.content.GetCurriculum(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	elems, err := s.comp.ListElements(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"curriculum": cur,
		"elements":   elems,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	curriculumID, err := req.RequireString("curriculum_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := composition.NewElement{Kind: models.ElementKind(kind)}
	if v, err := req.RequireString("technique_id"); err == nil {
		in.TechniqueID = v
	}
	if v, err := req.RequireString("asset_id"); err == nil {
		in.AssetID = v
	}
	if v, err := req.RequireString("title"); err == nil {
		in.Title = v
	}
	if v, err := req.RequireString("details"); err == nil {
		in.Details = v
	}

	elem, err := s.comp.AddElement(ctx, curriculumID, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added element %s at position %d", elem.ID, elem.Ord)), nil
}

func (s *Server) reorderElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	curriculumID, err := req.RequireString("curriculum_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("element_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}

	elems, err := s.comp.Reorder(ctx, curriculumID, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reordered %d elements", len(elems))), nil
}

func (s *Server) importCurriculum(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("outline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cur, n, err := outline.Import(ctx, []byte(raw), s.content, s.comp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported curriculum %s (%q) with %d elements", cur.ID, cur.Name, n)), nil
}

func (s *Server) readOutlineFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tatami://outline-format",
			MIMEType: "text/markdown",
			Text:     OutlineFormatContract,
		},
	}, nil
}
