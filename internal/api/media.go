package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tatamihq/tatami/internal/media"
	"github.com/tatamihq/tatami/internal/storage"
)

const maxUploadBytes = 50 << 20 // 50 MB

// MediaHandler accepts media uploads and serves library files. Uploads go
// through the storage provider so the directory watcher indexes them as
// library assets.
type MediaHandler struct {
	files storage.Provider
	root  string
}

// NewMediaHandler creates a handler over the media root.
func NewMediaHandler(files storage.Provider, root string) *MediaHandler {
	return &MediaHandler{files: files, root: root}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return cleaned, nil
}

// Upload handles POST /api/media (multipart/form-data, field "file").
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if !storage.IsMediaFile(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported media type"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	if err := h.files.Write(name, data); err != nil {
		writeError(w, "media upload", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"filename": name,
		"size":     int64(len(data)),
		"url":      media.FileURL(name),
	})
}

// ServeFile handles GET /media/*.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if rel == "" || strings.Contains(rel, "..") {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	abs := filepath.Join(h.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(abs, filepath.Clean(h.root)+string(os.PathSeparator)) {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
