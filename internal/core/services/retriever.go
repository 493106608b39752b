package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// DefaultTopK is used when a request does not set one.
const DefaultTopK = 5

// Retriever embeds a query and returns the nearest stored passages.
type Retriever struct {
	embedder driven.EmbeddingService
	indexer  *VectorIndexer
	topK     int
}

// NewRetriever creates a retriever. A non-positive defaultTopK falls back to DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, indexer *VectorIndexer, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{embedder: embedder, indexer: indexer, topK: defaultTopK}
}

// Retrieve returns up to topK results scoring at least minScore, in the
// order the store ranked them.
func (r *Retriever) Retrieve(
	ctx context.Context, query string, topK int, minScore float64,
) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievalResult{}, nil
	}
	if topK <= 0 {
		topK = r.topK
	}
	logger.Debug("Query: %q, top_k: %d, min_score: %.2f", query, topK, minScore)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	points, err := r.indexer.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search collection %q: %w", r.indexer.Collection(), err)
	}

	results := make([]domain.RetrievalResult, len(points))
	for i, p := range points {
		results[i] = domain.RetrievalResult{
			Text:  p.Payload.Text,
			Score: p.Score,
			Path:  p.Payload.Path,
			Hash:  p.Payload.Hash,
		}
	}
	filtered := domain.FilterByMinScore(results, minScore)
	logger.Info("Retrieved %d results (%d above min score)", len(results), len(filtered))
	return filtered, nil
}
