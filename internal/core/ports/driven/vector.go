package driven

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// VectorStore is a remote store of points grouped into named collections.
// Backed by Qdrant over its REST API.
type VectorStore interface {
	// CreateCollection creates a collection with the given vector size and
	// cosine distance. Returns domain.ErrCollectionExists if it already exists.
	CreateCollection(ctx context.Context, name string, vectorSize int) error

	// CollectionInfo returns statistics for a collection.
	// Returns a domain.NotFoundError if the collection does not exist.
	CollectionInfo(ctx context.Context, name string) (*domain.CollectionStats, error)

	// DeleteCollection removes a collection and all its points.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// Upsert writes points and waits until they are persisted.
	Upsert(ctx context.Context, collection string, points []domain.Point) error

	// Query returns up to limit points nearest to vector, best first.
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredPoint, error)

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VersionReporter is implemented by services that can report their version.
type VersionReporter interface {
	Version(ctx context.Context) (string, error)
}
