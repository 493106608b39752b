// Package ollama provides an embedding service adapter using Ollama.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/httpx"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

const serviceName = "ollama"

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using the Ollama /api/embed endpoint,
// which accepts a whole batch in one request.
type EmbeddingService struct {
	client *httpx.Client
	model  string

	// dimensions is learned from the first response.
	dimensions atomic.Int64
}

// embedRequest is the Ollama API request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the Ollama API response format.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &EmbeddingService{
		client: httpx.New(serviceName, cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in a single request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embedResponse
	if err := s.client.Do(ctx, "embed", http.MethodPost, "/api/embed", embedRequest{
		Model: s.model,
		Input: texts,
	}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, &domain.DecodeError{
			Service: serviceName,
			Op:      "embed",
			Err:     fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts)),
		}
	}
	s.dimensions.CompareAndSwap(0, int64(len(resp.Embeddings[0])))
	return resp.Embeddings, nil
}

// Dimensions returns the embedding vector size, or 0 before the first call.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dimensions.Load())
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks /api/version, which answers without loading a model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Version(ctx)
	return err
}

// Version returns the Ollama server version.
func (s *EmbeddingService) Version(ctx context.Context) (string, error) {
	var resp versionResponse
	if err := s.client.Do(ctx, "version", http.MethodGet, "/api/version", nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
