package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListElements handles GET /api/curricula/{id}/elements. Elements come
// back in ordinal order with their technique/asset references resolved;
// a dangling reference resolves to null, never an error.
func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) {
	curriculumID := chi.URLParam(r, "id")
	items, err := h.comp.ListElements(r.Context(), curriculumID)
	if err != nil {
		writeError(w, "list elements", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": items})
}

// AddElement handles POST /api/curricula/{id}/elements. The new element
// is appended at the tail; clients cannot pick an ordinal.
func (h *Handler) AddElement(w http.ResponseWriter, r *http.Request) {
	curriculumID := chi.URLParam(r, "id")
	var req NewElementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	elem, err := h.comp.AddElement(r.Context(), curriculumID, req)
	if err != nil {
		writeError(w, "add element", err)
		return
	}
	h.publish("element.added", map[string]string{
		"curriculum_id": curriculumID,
		"element_id":    elem.ID,
	})
	writeJSON(w, http.StatusCreated, elem)
}

// UpdateElement handles PATCH /api/curricula/{id}/elements/{elementID}.
// Only title, details, and the reference fields are patchable; kind and
// ordinal are fixed at creation.
func (h *Handler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	curriculumID := chi.URLParam(r, "id")
	elementID := chi.URLParam(r, "elementID")
	var req ElementPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	elem, err := h.comp.UpdateElement(r.Context(), curriculumID, elementID, req)
	if err != nil {
		writeError(w, "update element", err)
		return
	}
	h.publish("element.updated", map[string]string{
		"curriculum_id": curriculumID,
		"element_id":    elem.ID,
	})
	writeJSON(w, http.StatusOK, elem)
}

// RemoveElement handles DELETE /api/curricula/{id}/elements/{elementID}.
func (h *Handler) RemoveElement(w http.ResponseWriter, r *http.Request) {
	curriculumID := chi.URLParam(r, "id")
	elementID := chi.URLParam(r, "elementID")
	if err := h.comp.RemoveElement(r.Context(), curriculumID, elementID); err != nil {
		writeError(w, "remove element", err)
		return
	}
	h.publish("element.removed", map[string]string{
		"curriculum_id": curriculumID,
		"element_id":    elementID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// ReorderElements handles PUT /api/curricula/{id}/elements/order. The
// body must list every element id in the curriculum exactly once; the
// whole request is rejected otherwise and no ordinal changes.
func (h *Handler) ReorderElements(w http.ResponseWriter, r *http.Request) {
	curriculumID := chi.URLParam(r, "id")
	var req ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	elems, err := h.comp.Reorder(r.Context(), curriculumID, req.ElementIDs)
	if err != nil {
		writeError(w, "reorder elements", err)
		return
	}
	h.publish("curriculum.reordered", map[string]string{"curriculum_id": curriculumID})
	writeJSON(w, http.StatusOK, map[string]any{"elements": elems})
}
