package services

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
)

// Ensure FileTracker implements the interface.
var _ driving.FileService = (*FileTracker)(nil)

// FileTracker exposes the ingestion records to the CLI and servers.
type FileTracker struct {
	store driven.FileStore
}

// NewFileTracker creates a file service.
func NewFileTracker(store driven.FileStore) *FileTracker {
	return &FileTracker{store: store}
}

// List returns tracked files newest first, optionally filtered by indexed status.
func (f *FileTracker) List(ctx context.Context, indexed *bool) ([]domain.FileRecord, error) {
	return f.store.ListFiles(ctx, indexed)
}
