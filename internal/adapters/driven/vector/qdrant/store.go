// Package qdrant implements the vector store port over the Qdrant REST API.
package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/httpx"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.VectorStore     = (*Store)(nil)
	_ driven.VersionReporter = (*Store)(nil)
)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 30 * time.Second
)

const serviceName = "qdrant"

// Config holds configuration for the Qdrant client.
type Config struct {
	// URL is the base REST URL (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
}

// Store talks to one Qdrant instance.
type Store struct {
	client *httpx.Client
}

// NewStore creates a Qdrant store client.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := httpx.New(serviceName, cfg.URL, cfg.Timeout)
	if cfg.APIKey != "" {
		client.Header.Set("api-key", cfg.APIKey)
	}
	return &Store{client: client}
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type collectionInfoResponse struct {
	Result struct {
		Status              string `json:"status"`
		PointsCount         int64  `json:"points_count"`
		IndexedVectorsCount int64  `json:"indexed_vectors_count"`
		SegmentsCount       int64  `json:"segments_count"`
		Config              struct {
			Params struct {
				Vectors       vectorParams `json:"vectors"`
				OnDiskPayload bool         `json:"on_disk_payload"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type listCollectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

type boolResponse struct {
	Result bool `json:"result"`
}

type point struct {
	ID      string              `json:"id"`
	Vector  []float32           `json:"vector"`
	Payload domain.PointPayload `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		// ID is a UUID string or an unsigned integer.
		ID      any                 `json:"id"`
		Score   float64             `json:"score"`
		Payload domain.PointPayload `json:"payload"`
	} `json:"result"`
}

type rootResponse struct {
	Version string `json:"version"`
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

// CreateCollection creates a cosine-distance collection.
func (s *Store) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	err := s.client.Do(ctx, "create collection", http.MethodPut, collectionPath(name), createCollectionRequest{
		Vectors: vectorParams{Size: vectorSize, Distance: domain.DistanceCosine},
	}, nil)
	if isAlreadyExists(err) {
		return fmt.Errorf("collection %q: %w", name, domain.ErrCollectionExists)
	}
	return err
}

// CollectionInfo returns statistics for a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*domain.CollectionStats, error) {
	var resp collectionInfoResponse
	err := s.client.Do(ctx, "collection info", http.MethodGet, collectionPath(name), nil, &resp)
	if httpx.StatusCode(err) == http.StatusNotFound {
		return nil, &domain.NotFoundError{Kind: "collection", Name: name}
	}
	if err != nil {
		return nil, err
	}
	r := resp.Result
	return &domain.CollectionStats{
		Name:                name,
		Status:              r.Status,
		PointsCount:         r.PointsCount,
		IndexedVectorsCount: r.IndexedVectorsCount,
		SegmentsCount:       r.SegmentsCount,
		VectorSize:          r.Config.Params.Vectors.Size,
		Distance:            r.Config.Params.Vectors.Distance,
		OnDiskPayload:       r.Config.Params.OnDiskPayload,
	}, nil
}

// DeleteCollection removes a collection. A missing collection is a NotFoundError.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	var resp boolResponse
	err := s.client.Do(ctx, "delete collection", http.MethodDelete, collectionPath(name), nil, &resp)
	if httpx.StatusCode(err) == http.StatusNotFound {
		return &domain.NotFoundError{Kind: "collection", Name: name}
	}
	if err != nil {
		return err
	}
	if !resp.Result {
		return &domain.NotFoundError{Kind: "collection", Name: name}
	}
	return nil
}

// ListCollections returns the names of all collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var resp listCollectionsResponse
	if err := s.client.Do(ctx, "list collections", http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Result.Collections))
	for _, c := range resp.Result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}

// Upsert writes points and waits for them to be persisted.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	req := upsertRequest{Points: make([]point, len(points))}
	for i, p := range points {
		req.Points[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	err := s.client.Do(ctx, "upsert", http.MethodPut, collectionPath(collection)+"/points?wait=true", req, nil)
	return s.mapPointErr(collection, err)
}

// Query returns up to limit points nearest to vector, best first.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	var resp searchResponse
	err := s.client.Do(ctx, "search", http.MethodPost, collectionPath(collection)+"/points/search", searchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	}, &resp)
	if err := s.mapPointErr(collection, err); err != nil {
		return nil, err
	}

	out := make([]domain.ScoredPoint, len(resp.Result))
	for i, r := range resp.Result {
		out[i] = domain.ScoredPoint{
			ID:      formatID(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		}
	}
	return out, nil
}

// Ping checks /healthz.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Do(ctx, "healthz", http.MethodGet, "/healthz", nil, nil)
}

// Version returns the server version reported at the root endpoint.
func (s *Store) Version(ctx context.Context) (string, error) {
	var resp rootResponse
	if err := s.client.Do(ctx, "version", http.MethodGet, "/", nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) mapPointErr(collection string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case httpx.StatusCode(err) == http.StatusNotFound:
		return &domain.NotFoundError{Kind: "collection", Name: collection}
	case httpx.StatusCode(err) == http.StatusBadRequest && strings.Contains(err.Error(), "dimension"):
		return fmt.Errorf("%w: %w", domain.ErrDimensionMismatch, err)
	}
	return err
}

func isAlreadyExists(err error) bool {
	code := httpx.StatusCode(err)
	return code == http.StatusConflict ||
		(code == http.StatusBadRequest && strings.Contains(err.Error(), "already exists"))
}

func formatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
