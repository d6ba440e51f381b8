package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tatamihq/tatami/internal/composition"
	"github.com/tatamihq/tatami/internal/contentservice"
	"github.com/tatamihq/tatami/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events is published to after element mutations; may be nil.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// files/mediaRoot back the upload endpoint; files may be nil to disable it.
func NewRouter(content *contentservice.Service, comp *composition.Service, events Publisher, authEnabled bool, token string, sseHandler http.Handler, files storage.Provider, mediaRoot string) chi.Router {
	h := NewHandler(content, comp, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog CRUD.
	r.Get("/disciplines", h.ListDisciplines)
	r.Post("/disciplines", h.CreateDiscipline)
	r.Get("/disciplines/{id}", h.GetDiscipline)
	r.Put("/disciplines/{id}", h.UpdateDiscipline)
	r.Delete("/disciplines/{id}", h.DeleteDiscipline)

	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Get("/categories/{id}", h.GetCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)

	r.Get("/techniques", h.ListTechniques)
	r.Post("/techniques", h.CreateTechnique)
	r.Get("/techniques/{id}", h.GetTechnique)
	r.Put("/techniques/{id}", h.UpdateTechnique)
	r.Delete("/techniques/{id}", h.DeleteTechnique)

	r.Get("/assets", h.ListAssets)
	r.Post("/assets", h.CreateAsset)
	r.Get("/assets/{id}", h.GetAsset)
	r.Put("/assets/{id}", h.UpdateAsset)
	r.Delete("/assets/{id}", h.DeleteAsset)

	// Curricula and composition.
	r.Get("/curricula", h.ListCurricula)
	r.Post("/curricula", h.CreateCurriculum)
	r.Post("/curricula/import", h.ImportCurriculum)
	r.Get("/curricula/{id}", h.GetCurriculum)
	r.Put("/curricula/{id}", h.UpdateCurriculum)
	r.Delete("/curricula/{id}", h.DeleteCurriculum)

	r.Get("/curricula/{id}/elements", h.ListElements)
	r.Post("/curricula/{id}/elements", h.AddElement)
	r.Put("/curricula/{id}/elements/order", h.ReorderElements)
	r.Patch("/curricula/{id}/elements/{elementID}", h.UpdateElement)
	r.Delete("/curricula/{id}/elements/{elementID}", h.RemoveElement)

	// Search.
	r.Get("/search", h.Search)

	// Media upload (auth-protected).
	if files != nil {
		mh := NewMediaHandler(files, mediaRoot)
		r.Post("/media", mh.Upload)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
