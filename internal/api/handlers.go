package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tatamihq/tatami/internal/composition"
	"github.com/tatamihq/tatami/internal/contentservice"
	"github.com/tatamihq/tatami/internal/models"
	"github.com/tatamihq/tatami/internal/outline"
)

const maxBodyBytes = 10 << 20

// Publisher pushes change events to connected clients.
type Publisher interface {
	PublishChange(eventType string, data map[string]string)
}

// Handler holds API route handlers.
type Handler struct {
	content *contentservice.Service
	comp    *composition.Service
	events  Publisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(content *contentservice.Service, comp *composition.Service, events Publisher) *Handler {
	return &Handler{content: content, comp: comp, events: events}
}

func (h *Handler) publish(eventType string, data map[string]string) {
	if h.events != nil {
		h.events.PublishChange(eventType, data)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// --- Disciplines ---

// ListDisciplines handles GET /api/disciplines.
func (h *Handler) ListDisciplines(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListDisciplines(r.Context())
	if err != nil {
		writeError(w, "list disciplines", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"disciplines": items})
}

// CreateDiscipline handles POST /api/disciplines.
func (h *Handler) CreateDiscipline(w http.ResponseWriter, r *http.Request) {
	var req DisciplineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	d, err := h.content.CreateDiscipline(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, "create discipline", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// GetDiscipline handles GET /api/disciplines/{id}.
func (h *Handler) GetDiscipline(w http.ResponseWriter, r *http.Request) {
	d, err := h.content.GetDiscipline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get discipline", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDiscipline handles PUT /api/disciplines/{id}.
func (h *Handler) UpdateDiscipline(w http.ResponseWriter, r *http.Request) {
	var req DisciplineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	d, err := h.content.UpdateDiscipline(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		writeError(w, "update discipline", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDiscipline handles DELETE /api/disciplines/{id}.
func (h *Handler) DeleteDiscipline(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteDiscipline(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete discipline", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Categories ---

// ListCategories handles GET /api/categories with optional ?discipline_id=.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListCategories(r.Context(), r.URL.Query().Get("discipline_id"))
	if err != nil {
		writeError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": items})
}

// CreateCategory handles POST /api/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DisciplineID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("discipline_id and name are required"))
		return
	}
	c, err := h.content.CreateCategory(r.Context(), req.DisciplineID, req.Name)
	if err != nil {
		writeError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetCategory handles GET /api/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.content.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCategory handles PUT /api/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	c, err := h.content.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Techniques ---

// ListTechniques handles GET /api/techniques with optional ?category_id=.
func (h *Handler) ListTechniques(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListTechniques(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		writeError(w, "list techniques", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"techniques": items})
}

// CreateTechnique handles POST /api/techniques.
func (h *Handler) CreateTechnique(w http.ResponseWriter, r *http.Request) {
	var req TechniqueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CategoryID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("category_id and name are required"))
		return
	}
	t, err := h.content.CreateTechnique(r.Context(), req.CategoryID, req.Name, req.Description)
	if err != nil {
		writeError(w, "create technique", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTechnique handles GET /api/techniques/{id}.
func (h *Handler) GetTechnique(w http.ResponseWriter, r *http.Request) {
	t, err := h.content.GetTechnique(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get technique", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTechnique handles PUT /api/techniques/{id}.
func (h *Handler) UpdateTechnique(w http.ResponseWriter, r *http.Request) {
	var req TechniqueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	t, err := h.content.UpdateTechnique(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		writeError(w, "update technique", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTechnique handles DELETE /api/techniques/{id}.
func (h *Handler) DeleteTechnique(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteTechnique(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete technique", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.content.SearchTechniques(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// --- Assets ---

// ListAssets handles GET /api/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListAssets(r.Context())
	if err != nil {
		writeError(w, "list assets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": items})
}

// CreateAsset handles POST /api/assets. Assets created here are manual;
// library assets come from the media directory sync.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req AssetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title and url are required"))
		return
	}
	a, err := h.content.CreateAsset(r.Context(), &models.Asset{
		Kind:            req.Kind,
		Title:           req.Title,
		URL:             req.URL,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		writeError(w, "create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAsset handles GET /api/assets/{id}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.content.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get asset", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateAsset handles PUT /api/assets/{id}.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req AssetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	a, err := h.content.UpdateAsset(r.Context(), chi.URLParam(r, "id"), func(a *models.Asset) {
		a.Title = req.Title
		a.ThumbnailURL = req.ThumbnailURL
		a.DurationSeconds = req.DurationSeconds
		if req.Kind != "" {
			a.Kind = req.Kind
		}
		// URL stays under sync control for library assets.
		if a.Source == models.AssetSourceManual && req.URL != "" {
			a.URL = req.URL
		}
	})
	if err != nil {
		writeError(w, "update asset", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAsset handles DELETE /api/assets/{id}.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteAsset(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Curricula ---

// ListCurricula handles GET /api/curricula with optional ?discipline_id=.
func (h *Handler) ListCurricula(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListCurricula(r.Context(), r.URL.Query().Get("discipline_id"))
	if err != nil {
		writeError(w, "list curricula", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"curricula": items})
}

// CreateCurriculum handles POST /api/curricula.
func (h *Handler) CreateCurriculum(w http.ResponseWriter, r *http.Request) {
	var req CurriculumRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DisciplineID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("discipline_id and name are required"))
		return
	}
	c, err := h.content.CreateCurriculum(r.Context(), req.DisciplineID, req.Name, req.Notes)
	if err != nil {
		writeError(w, "create curriculum", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetCurriculum handles GET /api/curricula/{id}.
func (h *Handler) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	c, err := h.content.GetCurriculum(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get curriculum", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCurriculum handles PUT /api/curricula/{id}.
func (h *Handler) UpdateCurriculum(w http.ResponseWriter, r *http.Request) {
	var req CurriculumRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	c, err := h.content.UpdateCurriculum(r.Context(), chi.URLParam(r, "id"), req.Name, req.Notes)
	if err != nil {
		writeError(w, "update curriculum", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCurriculum handles DELETE /api/curricula/{id}.
func (h *Handler) DeleteCurriculum(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteCurriculum(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete curriculum", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCurriculum handles POST /api/curricula/import with a Markdown
// outline body.
func (h *Handler) ImportCurriculum(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	cur, n, err := outline.Import(r.Context(), data, h.content, h.comp)
	if err != nil {
		writeError(w, "import curriculum", err)
		return
	}
	h.publish("curriculum.imported", map[string]string{"curriculum_id": cur.ID})
	writeJSON(w, http.StatusCreated, ImportResponse{CurriculumID: cur.ID, Name: cur.Name, Elements: n})
}
