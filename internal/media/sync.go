// Package media keeps the asset catalog in step with the files in the
// media directory: files dropped into the directory become library assets,
// removed files retire them.
package media

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/tatamihq/tatami/internal/models"
	"github.com/tatamihq/tatami/internal/storage"
	"github.com/tatamihq/tatami/internal/store"
)

// URLPrefix is where the HTTP layer serves media files from.
const URLPrefix = "/media/"

// FileURL maps a media-root-relative path to its served URL.
func FileURL(rel string) string {
	return URLPrefix + path.Clean(filepath.ToSlash(rel))
}

// KindForFile infers the asset kind from a file extension.
func KindForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".webm", ".mkv":
		return models.AssetKindVideo
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return models.AssetKindImage
	default:
		return models.AssetKindDocument
	}
}

// TitleForFile derives a display title from a file name: extension
// stripped, separators replaced with spaces.
func TitleForFile(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

// Sync walks the media directory and brings the asset catalog up to date:
//   - new/changed files are upserted as library assets
//   - library assets whose files are gone are removed
//
// Manual assets (registered through the API with external URLs) are never
// touched.
func Sync(db *store.DB, files storage.Provider, logger *slog.Logger) error {
	onDisk, err := files.List("")
	if err != nil {
		return err
	}

	known, err := db.LibraryAssetIndex()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(onDisk))
	for _, f := range onDisk {
		url := FileURL(f.Path)
		seen[url] = struct{}{}

		ref, ok := known[url]
		if ok && ref.Checksum == f.Checksum {
			continue
		}
		if err := upsertAsset(db, ref, ok, f); err != nil {
			logger.Warn("sync: upsert failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", f.Path))
		}
	}

	// Retire assets whose files are gone.
	for url, ref := range known {
		if _, ok := seen[url]; !ok {
			if err := db.DeleteAsset(ref.ID); err != nil {
				logger.Warn("sync: delete failed", slog.String("url", url), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("url", url))
			}
		}
	}

	return nil
}

// upsertAsset creates or refreshes the library asset for one media file.
func upsertAsset(db *store.DB, ref store.LibraryAssetRef, exists bool, f models.MediaFile) error {
	if exists {
		a, err := db.GetAsset(ref.ID)
		if err != nil {
			return err
		}
		a.Checksum = f.Checksum
		return db.UpdateAsset(a)
	}
	return db.InsertAsset(&models.Asset{
		ID:       models.NewID(),
		Kind:     KindForFile(f.Path),
		Title:    TitleForFile(f.Path),
		URL:      FileURL(f.Path),
		Checksum: f.Checksum,
		Source:   models.AssetSourceLibrary,
	})
}
