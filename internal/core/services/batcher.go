package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// DefaultBatchSize is the number of chunks sent per embedding call.
const DefaultBatchSize = 100

const probeText = "dimension probe"

// EmbeddingBatcher groups chunks so that each embedding call carries up to
// batchSize inputs. It is not safe for concurrent use.
type EmbeddingBatcher struct {
	embedder  driven.EmbeddingService
	batchSize int
	limiter   *rate.Limiter
	pending   []domain.Chunk
}

// BatcherOption configures an EmbeddingBatcher.
type BatcherOption func(*EmbeddingBatcher)

// WithRateLimit caps embedding calls per second. Zero or less disables the cap.
func WithRateLimit(perSecond float64) BatcherOption {
	return func(b *EmbeddingBatcher) {
		if perSecond > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewEmbeddingBatcher creates a batcher. A non-positive batchSize uses the default.
func NewEmbeddingBatcher(embedder driven.EmbeddingService, batchSize int, opts ...BatcherOption) *EmbeddingBatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	b := &EmbeddingBatcher{embedder: embedder, batchSize: batchSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BatchSize returns the configured batch size.
func (b *EmbeddingBatcher) BatchSize() int {
	return b.batchSize
}

// Pending returns the number of chunks waiting for a full batch.
func (b *EmbeddingBatcher) Pending() int {
	return len(b.pending)
}

// Add queues a chunk. When the queue reaches batchSize it is embedded and
// returned; otherwise the result is nil.
func (b *EmbeddingBatcher) Add(ctx context.Context, chunk domain.Chunk) (*domain.EmbeddingBatch, error) {
	b.pending = append(b.pending, chunk)
	if len(b.pending) < b.batchSize {
		return nil, nil
	}
	return b.Flush(ctx)
}

// Flush embeds whatever is queued. Returns nil when nothing is queued.
// The queue is emptied even when embedding fails; the returned batch then
// carries the chunks without vectors so callers can tell which files lost data.
func (b *EmbeddingBatcher) Flush(ctx context.Context) (*domain.EmbeddingBatch, error) {
	if len(b.pending) == 0 {
		return nil, nil
	}
	chunks := b.pending
	b.pending = nil
	return b.embed(ctx, chunks)
}

// Discard drops queued chunks belonging to the file with the given hash.
func (b *EmbeddingBatcher) Discard(hash string) int {
	kept := b.pending[:0]
	dropped := 0
	for _, c := range b.pending {
		if c.Hash == hash {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	b.pending = kept
	return dropped
}

// EmbedBatches turns a chunk stream into a batch stream. The error channel
// carries at most one error and is closed after the batch channel.
func (b *EmbeddingBatcher) EmbedBatches(
	ctx context.Context, chunks <-chan domain.Chunk,
) (<-chan domain.EmbeddingBatch, <-chan error) {
	out := make(chan domain.EmbeddingBatch)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		send := func(batch *domain.EmbeddingBatch) bool {
			if batch == nil {
				return true
			}
			select {
			case out <- *batch:
				return true
			case <-ctx.Done():
				errs <- ctx.Err()
				return false
			}
		}

		for chunk := range chunks {
			batch, err := b.Add(ctx, chunk)
			if err != nil {
				errs <- err
				return
			}
			if !send(batch) {
				return
			}
		}
		batch, err := b.Flush(ctx)
		if err != nil {
			errs <- err
			return
		}
		send(batch)
	}()

	return out, errs
}

// ProbeDimension embeds a single placeholder input and returns its length.
func (b *EmbeddingBatcher) ProbeDimension(ctx context.Context) (int, error) {
	if err := b.wait(ctx); err != nil {
		return 0, err
	}
	vectors, err := b.embedder.EmbedBatch(ctx, []string{probeText})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return 0, &domain.DecodeError{
			Service: "embedding",
			Op:      "probe",
			Err:     fmt.Errorf("expected one non-empty vector, got %d", len(vectors)),
		}
	}
	logger.Debug("Embedding dimension: %d (%s)", len(vectors[0]), b.embedder.ModelName())
	return len(vectors[0]), nil
}

func (b *EmbeddingBatcher) embed(ctx context.Context, chunks []domain.Chunk) (*domain.EmbeddingBatch, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	logger.Debug("Embedding batch of %d chunks", len(chunks))
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return &domain.EmbeddingBatch{Chunks: chunks}, err
	}
	if len(vectors) != len(chunks) {
		return &domain.EmbeddingBatch{Chunks: chunks}, &domain.DecodeError{
			Service: "embedding",
			Op:      "embed",
			Err:     fmt.Errorf("got %d vectors for %d inputs", len(vectors), len(chunks)),
		}
	}
	return &domain.EmbeddingBatch{Chunks: chunks, Vectors: vectors}, nil
}

func (b *EmbeddingBatcher) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}
