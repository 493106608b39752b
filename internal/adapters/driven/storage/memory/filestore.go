package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu    sync.RWMutex
	files map[string]domain.FileRecord // keyed by path
	now   func() time.Time
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string]domain.FileRecord),
		now:   time.Now,
	}
}

// AddFile inserts or replaces the record for path with indexed = false.
func (s *FileStore) AddFile(_ context.Context, path, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = domain.FileRecord{
		Path:       path,
		Hash:       hash,
		IngestedAt: s.now(),
	}
	return nil
}

// FileExists reports whether any record has the given hash.
func (s *FileStore) FileExists(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.files {
		if f.Hash == hash {
			return true, nil
		}
	}
	return false, nil
}

// GetByHash returns the newest record with the given hash.
func (s *FileStore) GetByHash(_ context.Context, hash string) (*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *domain.FileRecord
	for _, f := range s.files {
		if f.Hash != hash {
			continue
		}
		if found == nil || f.IngestedAt.After(found.IngestedAt) {
			rec := f
			found = &rec
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

// ListFiles returns records newest first, optionally filtered by indexed.
func (s *FileStore) ListFiles(_ context.Context, indexed *bool) ([]domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FileRecord, 0, len(s.files))
	for _, f := range s.files {
		if indexed != nil && f.Indexed != *indexed {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IngestedAt.Equal(out[j].IngestedAt) {
			return out[i].Path < out[j].Path
		}
		return out[i].IngestedAt.After(out[j].IngestedAt)
	})
	return out, nil
}

// MarkIndexed sets indexed on every record with the given hash.
func (s *FileStore) MarkIndexed(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, f := range s.files {
		if f.Hash == hash {
			f.Indexed = true
			s.files[path] = f
		}
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
