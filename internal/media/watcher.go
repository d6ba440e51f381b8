package media

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tatamihq/tatami/internal/storage"
	"github.com/tatamihq/tatami/internal/store"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "synced" or "removed"; rel is the file path relative to
// the media root.
type EventCallback func(kind string, rel string)

// Watch starts an fsnotify watcher on the media root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful catalog mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that retires library
// assets whose files no longer exist on disk.
func Watch(ctx context.Context, db *store.DB, files storage.Provider, mediaRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, mediaRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", mediaRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, files, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			} else if cb != nil {
				cb("synced", "")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: add to watcher and sweep their contents.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					scheduleReconcile()
					continue
				}
			}

			if !storage.IsMediaFile(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(mediaRoot, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if err := syncOne(db, files, rel); err != nil {
					logger.Warn("watcher: sync failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				logger.Debug("watcher: synced", slog.String("path", rel))
				if cb != nil {
					cb("synced", rel)
				}

			case ev.Op&fsnotify.Remove != 0:
				if err := retireOne(db, rel); err != nil {
					logger.Warn("watcher: retire failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", rel))
				if cb != nil {
					cb("removed", rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a separate Create event if it stays within a
				// watched dir. Retire the old asset now and schedule a
				// reconciliation pass for stragglers.
				if err := retireOne(db, rel); err == nil {
					logger.Debug("watcher: rename old removed", slog.String("path", rel))
					if cb != nil {
						cb("removed", rel)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// syncOne upserts the library asset for a single media file.
func syncOne(db *store.DB, files storage.Provider, rel string) error {
	metas, err := files.List(filepath.Dir(rel))
	if err != nil {
		return err
	}
	known, err := db.LibraryAssetIndex()
	if err != nil {
		return err
	}
	for _, f := range metas {
		if filepath.ToSlash(f.Path) != filepath.ToSlash(rel) {
			continue
		}
		url := FileURL(f.Path)
		ref, exists := known[url]
		if exists && ref.Checksum == f.Checksum {
			return nil
		}
		return upsertAsset(db, ref, exists, f)
	}
	return nil
}

// retireOne removes the library asset for a deleted media file, if any.
func retireOne(db *store.DB, rel string) error {
	known, err := db.LibraryAssetIndex()
	if err != nil {
		return err
	}
	ref, ok := known[FileURL(rel)]
	if !ok {
		return nil
	}
	return db.DeleteAsset(ref.ID)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
