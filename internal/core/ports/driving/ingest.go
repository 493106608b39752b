package driving

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// IngestService drives the walk, extract, chunk, embed and store pipeline.
type IngestService interface {
	// Ingest processes every supported file under root.
	Ingest(ctx context.Context, root string, opts domain.IngestOptions) (*domain.IngestResult, error)

	// IngestFiles processes an explicit list of files, such as uploads.
	IngestFiles(ctx context.Context, paths []string, opts domain.IngestOptions) (*domain.IngestResult, error)
}

// WatchService re-ingests a directory tree as files change.
type WatchService interface {
	// Watch blocks until ctx is cancelled, ingesting changed files after
	// a debounce interval. Each run's result is passed to onResult.
	Watch(ctx context.Context, root string, opts domain.IngestOptions, onResult func(*domain.IngestResult, error)) error
}
