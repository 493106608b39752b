package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure VectorIndexer implements the interface.
var _ driving.CollectionService = (*VectorIndexer)(nil)

// VectorIndexer owns one collection in the vector store. Recreating the
// collection excludes concurrent writes and searches on it.
type VectorIndexer struct {
	store      driven.VectorStore
	collection string
	mu         sync.RWMutex
}

// NewVectorIndexer creates an indexer for the named collection.
func NewVectorIndexer(store driven.VectorStore, collection string) *VectorIndexer {
	return &VectorIndexer{store: store, collection: collection}
}

// Collection returns the collection name.
func (x *VectorIndexer) Collection() string {
	return x.collection
}

// EnsureCollection creates the collection if it is missing. An existing
// collection with a different vector size yields ErrDimensionMismatch.
func (x *VectorIndexer) EnsureCollection(ctx context.Context, dim int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	stats, err := x.store.CollectionInfo(ctx, x.collection)
	switch {
	case err == nil:
		if stats.VectorSize != 0 && stats.VectorSize != dim {
			return fmt.Errorf("%w: collection %q has size %d, embeddings have %d; re-run with --force",
				domain.ErrDimensionMismatch, x.collection, stats.VectorSize, dim)
		}
		return nil
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("Creating collection %q (size %d, cosine)", x.collection, dim)
		if err := x.store.CreateCollection(ctx, x.collection, dim); err != nil && !errors.Is(err, domain.ErrCollectionExists) {
			return err
		}
		return nil
	default:
		return err
	}
}

// InitCollection drops and recreates the collection.
func (x *VectorIndexer) InitCollection(ctx context.Context, dim int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	logger.Info("Recreating collection %q (size %d, cosine)", x.collection, dim)
	if err := x.store.DeleteCollection(ctx, x.collection); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return x.store.CreateCollection(ctx, x.collection, dim)
}

// StoreEmbeddings writes one point per chunk in a single upsert. Every
// point gets a fresh random id.
func (x *VectorIndexer) StoreEmbeddings(ctx context.Context, batch domain.EmbeddingBatch) (*domain.StoreResult, error) {
	if len(batch.Vectors) != len(batch.Chunks) {
		return nil, fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrInvalidInput, len(batch.Vectors), len(batch.Chunks))
	}
	if batch.Len() == 0 {
		return &domain.StoreResult{}, nil
	}

	points := make([]domain.Point, batch.Len())
	for i, c := range batch.Chunks {
		points[i] = domain.Point{
			ID:     uuid.New().String(),
			Vector: batch.Vectors[i],
			Payload: domain.PointPayload{
				Path: c.Path,
				Hash: c.Hash,
				Text: c.Text,
			},
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := x.store.Upsert(ctx, x.collection, points); err != nil {
		return nil, err
	}
	result := &domain.StoreResult{Stored: len(points)}
	if stats, err := x.store.CollectionInfo(ctx, x.collection); err == nil {
		result.Stats = stats
		logger.Debug("Stored %d points; collection %q now has %d", len(points), x.collection, stats.PointsCount)
	}
	return result, nil
}

// Search returns up to topK points nearest to vector.
func (x *VectorIndexer) Search(ctx context.Context, vector []float32, topK int) ([]domain.ScoredPoint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.Query(ctx, x.collection, vector, topK)
}

// Stats returns statistics for a collection. An empty name means the
// indexer's own collection.
func (x *VectorIndexer) Stats(ctx context.Context, name string) (*domain.CollectionStats, error) {
	if name == "" {
		name = x.collection
	}
	return x.store.CollectionInfo(ctx, name)
}

// List returns the names of all collections.
func (x *VectorIndexer) List(ctx context.Context) ([]string, error) {
	return x.store.ListCollections(ctx)
}

// Remove deletes a collection. A missing collection yields a NotFoundError.
func (x *VectorIndexer) Remove(ctx context.Context, name string) error {
	if name == "" {
		name = x.collection
	}
	if name == x.collection {
		x.mu.Lock()
		defer x.mu.Unlock()
	}
	if _, err := x.store.CollectionInfo(ctx, name); err != nil {
		return err
	}
	return x.store.DeleteCollection(ctx, name)
}
