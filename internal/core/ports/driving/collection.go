package driving

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// CollectionService exposes vector collection administration.
type CollectionService interface {
	// Stats returns statistics for a collection.
	Stats(ctx context.Context, name string) (*domain.CollectionStats, error)

	// List returns the names of all collections.
	List(ctx context.Context) ([]string, error)

	// Remove deletes a collection.
	Remove(ctx context.Context, name string) error
}

// FileService exposes the ingestion tracker.
type FileService interface {
	// List returns tracked files, filtered by indexed status when non-nil.
	List(ctx context.Context, indexed *bool) ([]domain.FileRecord, error)
}

// HealthService reports on external dependencies.
type HealthService interface {
	// Check probes every dependency and returns a report.
	Check(ctx context.Context) domain.HealthReport

	// RequireHealthy returns an error naming the first unreachable dependency.
	RequireHealthy(ctx context.Context) error
}
