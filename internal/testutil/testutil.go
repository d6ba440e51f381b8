// Package testutil provides shared test helpers for setting up media
// directories and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/tatamihq/tatami/internal/storage"
	"github.com/tatamihq/tatami/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tatami-test-*.db")
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
	return db
}

// TestMediaDir creates a temporary media directory with a storage.Provider.
func TestMediaDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	mediaDir := t.TempDir()
	files, err := storage.NewFS(mediaDir)
	if err != nil {
		t.Fatal(err)
	}
	return mediaDir, files
}
