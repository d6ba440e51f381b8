// Package storage defines the media-library file-system abstraction.
package storage

import "github.com/tatamihq/tatami/internal/models"

// Provider is the interface for media file operations.
type Provider interface {
	// List returns metadata for every media file under dir (relative to the
	// media root).
	List(dir string) ([]models.MediaFile, error)
	// Read returns the raw bytes of the file at path (relative to the media root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the media root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the media root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the media root).
	Move(oldPath, newPath string) error
}
