package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mnemolet/mnemolet/internal/chunker"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestService = (*IngestionOrchestrator)(nil)

// IngestionOrchestrator runs walk, extract, chunk, embed and store as one
// pipeline. Runs are serialised.
type IngestionOrchestrator struct {
	walker    *FileWalker
	registry  driven.ExtractorRegistry
	embedder  driven.EmbeddingService
	indexer   *VectorIndexer
	fileStore driven.FileStore

	defaults  domain.IngestOptions
	rateLimit float64

	mu sync.Mutex
}

// IngestOption configures an IngestionOrchestrator.
type IngestOption func(*IngestionOrchestrator)

// WithIngestDefaults fills zero BatchSize and SizeChars of each run.
func WithIngestDefaults(opts domain.IngestOptions) IngestOption {
	return func(o *IngestionOrchestrator) { o.defaults = opts }
}

// WithEmbedRateLimit caps embedding calls per second.
func WithEmbedRateLimit(perSecond float64) IngestOption {
	return func(o *IngestionOrchestrator) { o.rateLimit = perSecond }
}

// NewIngestionOrchestrator wires the pipeline stages.
func NewIngestionOrchestrator(
	walker *FileWalker,
	registry driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
	indexer *VectorIndexer,
	fileStore driven.FileStore,
	opts ...IngestOption,
) *IngestionOrchestrator {
	o := &IngestionOrchestrator{
		walker:    walker,
		registry:  registry,
		embedder:  embedder,
		indexer:   indexer,
		fileStore: fileStore,
		defaults: domain.IngestOptions{
			BatchSize: DefaultBatchSize,
			SizeChars: chunker.DefaultMaxLength,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest processes every supported file under root.
func (o *IngestionOrchestrator) Ingest(
	ctx context.Context, root string, opts domain.IngestOptions,
) (*domain.IngestResult, error) {
	logger.Section("Ingestion")
	logger.Info("Ingesting %s (force=%t)", root, opts.Force)
	return o.run(ctx, opts, func(ctx context.Context) (<-chan domain.SourceFile, <-chan error) {
		return o.walker.Walk(ctx, root, opts.Force)
	})
}

// IngestFiles processes an explicit list of files.
func (o *IngestionOrchestrator) IngestFiles(
	ctx context.Context, paths []string, opts domain.IngestOptions,
) (*domain.IngestResult, error) {
	logger.Section("Ingestion")
	logger.Info("Ingesting %d files (force=%t)", len(paths), opts.Force)
	return o.run(ctx, opts, func(ctx context.Context) (<-chan domain.SourceFile, <-chan error) {
		return o.walker.WalkPaths(ctx, paths, opts.Force)
	})
}

type walkFunc func(ctx context.Context) (<-chan domain.SourceFile, <-chan error)

func (o *IngestionOrchestrator) run(
	ctx context.Context, opts domain.IngestOptions, walk walkFunc,
) (*domain.IngestResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	opts = o.withDefaults(opts)
	logger.Debug("Batch size: %d, chunk size: %d chars, pipeline: %t", opts.BatchSize, opts.SizeChars, opts.Pipeline)

	batcher := NewEmbeddingBatcher(o.embedder, opts.BatchSize, WithRateLimit(o.rateLimit))
	dim, err := batcher.ProbeDimension(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe embedding dimension: %w", err)
	}
	if opts.Force {
		err = o.indexer.InitCollection(ctx, dim)
	} else {
		err = o.indexer.EnsureCollection(ctx, dim)
	}
	if err != nil {
		return nil, fmt.Errorf("prepare collection: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	files, walkErrs := walk(runCtx)
	prod := &ingestProducer{
		registry: o.registry,
		chunker:  chunker.New(chunker.WithMaxLength(opts.SizeChars)),
		batcher:  batcher,
	}
	cons := newIngestConsumer(o.indexer, o.fileStore)

	if opts.Pipeline {
		err = o.pipelined(runCtx, prod, cons, files, walkErrs)
	} else {
		prod.sink = cons.handle
		err = prod.run(runCtx, files, walkErrs)
	}

	stats := o.walker.Stats()
	result := &domain.IngestResult{
		Files:              cons.files,
		Chunks:             cons.chunks,
		SkippedKnown:       stats.SkippedKnown,
		SkippedDuplicates:  stats.SkippedDuplicates,
		ExtractionFailures: prod.extractionFailures,
		FailedBatches:      prod.failedBatches + cons.failedBatches,
		Duration:           time.Since(start),
	}
	if err != nil {
		logger.Warn("Ingestion aborted: %v", err)
		return result, err
	}
	logger.Info("Ingested %d files, %d chunks in %s", result.Files, result.Chunks, result.Duration)
	return result, nil
}

// pipelined overlaps embedding the next batch with storing the current one.
// The channel holds a single item so at most one batch waits for storage.
func (o *IngestionOrchestrator) pipelined(
	ctx context.Context, prod *ingestProducer, cons *ingestConsumer,
	files <-chan domain.SourceFile, walkErrs <-chan error,
) error {
	g, gctx := errgroup.WithContext(ctx)
	items := make(chan ingestItem, 1)

	prod.sink = func(ctx context.Context, it ingestItem) error {
		select {
		case items <- it:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	g.Go(func() error {
		defer close(items)
		return prod.run(gctx, files, walkErrs)
	})
	g.Go(func() error {
		for it := range items {
			if err := cons.handle(gctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}

func (o *IngestionOrchestrator) withDefaults(opts domain.IngestOptions) domain.IngestOptions {
	if opts.BatchSize <= 0 {
		opts.BatchSize = o.defaults.BatchSize
	}
	if opts.SizeChars <= 0 {
		opts.SizeChars = o.defaults.SizeChars
	}
	return opts
}

// ingestItem travels from producer to consumer. Exactly one field is set.
type ingestItem struct {
	// batch is an embedded batch ready to store.
	batch *domain.EmbeddingBatch

	// lost is a batch whose embedding timed out; its files must not be marked.
	lost *domain.EmbeddingBatch

	// done reports a file whose extraction finished, with its chunk count.
	done *fileDone
}

type fileDone struct {
	file   domain.SourceFile
	chunks int
}

// ingestProducer extracts, chunks and embeds.
type ingestProducer struct {
	registry driven.ExtractorRegistry
	chunker  *chunker.Chunker
	batcher  *EmbeddingBatcher
	sink     func(context.Context, ingestItem) error

	extractionFailures int
	failedBatches      int
}

func (p *ingestProducer) run(ctx context.Context, files <-chan domain.SourceFile, walkErrs <-chan error) error {
	for file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.file(ctx, file); err != nil {
			return err
		}
	}
	if err := <-walkErrs; err != nil {
		return err
	}

	batch, err := p.batcher.Flush(ctx)
	return p.emit(ctx, batch, err)
}

func (p *ingestProducer) file(ctx context.Context, file domain.SourceFile) error {
	ext, ok := p.registry.Lookup(file.Path)
	if !ok {
		return nil
	}
	logger.Info("Processing %s", file.Path)

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	blocks, errs := ext.Extract(fctx, file.Path)
	count := 0
	var stageErr error
	for text := range blocks {
		if stageErr != nil {
			continue
		}
		block := domain.ExtractedBlock{Path: file.Path, Hash: file.Hash, Text: text}
		for _, chunk := range p.chunker.Chunk(block, count) {
			count++
			batch, err := p.batcher.Add(ctx, chunk)
			if err := p.emit(ctx, batch, err); err != nil {
				stageErr = err
				cancel()
				break
			}
		}
	}
	extractErr := <-errs
	if stageErr != nil {
		return stageErr
	}

	if extractErr != nil {
		if errors.Is(extractErr, context.Canceled) || errors.Is(extractErr, context.DeadlineExceeded) {
			return extractErr
		}
		dropped := p.batcher.Discard(file.Hash)
		p.extractionFailures++
		logger.Warn("Extraction failed, skipping file: %v (%d pending chunks dropped)", extractErr, dropped)
		return nil
	}

	logger.Debug("Extracted %s: %d chunks", file.Path, count)
	return p.sink(ctx, ingestItem{done: &fileDone{file: file, chunks: count}})
}

// emit forwards the outcome of an embedding call. A timed out batch is
// reported as lost; any other failure aborts the run.
func (p *ingestProducer) emit(ctx context.Context, batch *domain.EmbeddingBatch, err error) error {
	if err != nil {
		if batch == nil || ctx.Err() != nil || !domain.IsTransient(err) {
			return err
		}
		p.failedBatches++
		logger.Warn("Skipping batch of %d chunks: %v", batch.Len(), err)
		return p.sink(ctx, ingestItem{lost: batch})
	}
	if batch == nil {
		return nil
	}
	return p.sink(ctx, ingestItem{batch: batch})
}

// ingestConsumer stores batches and marks files indexed once every chunk
// of the file is stored.
type ingestConsumer struct {
	indexer   *VectorIndexer
	fileStore driven.FileStore

	stored   map[string]int
	expected map[string]int
	failed   map[string]bool

	files         int
	chunks        int
	failedBatches int
}

func newIngestConsumer(indexer *VectorIndexer, fileStore driven.FileStore) *ingestConsumer {
	return &ingestConsumer{
		indexer:   indexer,
		fileStore: fileStore,
		stored:    make(map[string]int),
		expected:  make(map[string]int),
		failed:    make(map[string]bool),
	}
}

func (c *ingestConsumer) handle(ctx context.Context, it ingestItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case it.lost != nil:
		c.fail(*it.lost)
		return nil

	case it.batch != nil:
		res, err := c.indexer.StoreEmbeddings(ctx, *it.batch)
		if err != nil {
			if ctx.Err() != nil || !domain.IsTransient(err) {
				return fmt.Errorf("store batch: %w", err)
			}
			c.failedBatches++
			logger.Warn("Skipping batch of %d chunks: %v", it.batch.Len(), err)
			c.fail(*it.batch)
			return nil
		}
		c.chunks += res.Stored
		for _, ch := range it.batch.Chunks {
			c.stored[ch.Hash]++
		}
		for _, hash := range it.batch.Hashes() {
			if err := c.tryMark(ctx, hash); err != nil {
				return err
			}
		}
		return nil

	case it.done != nil:
		f := it.done.file
		if err := c.fileStore.AddFile(ctx, f.Path, f.Hash); err != nil {
			return fmt.Errorf("record %s: %w", f.Path, err)
		}
		c.files++
		if c.failed[f.Hash] {
			logger.Warn("Not marking %s as indexed: some chunks were not stored", f.Path)
			return nil
		}
		c.expected[f.Hash] = it.done.chunks
		return c.tryMark(ctx, f.Hash)
	}
	return nil
}

func (c *ingestConsumer) fail(batch domain.EmbeddingBatch) {
	for _, hash := range batch.Hashes() {
		c.failed[hash] = true
		delete(c.expected, hash)
	}
}

func (c *ingestConsumer) tryMark(ctx context.Context, hash string) error {
	want, ok := c.expected[hash]
	if !ok || c.stored[hash] < want {
		return nil
	}
	if err := c.fileStore.MarkIndexed(ctx, hash); err != nil {
		return fmt.Errorf("mark indexed: %w", err)
	}
	delete(c.expected, hash)
	return nil
}
