package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type collection struct {
	size   int
	points []domain.Point
}

// VectorStore is an in-memory implementation of driven.VectorStore using
// exhaustive cosine similarity.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*collection)}
}

// CreateCollection creates an empty collection.
func (s *VectorStore) CreateCollection(_ context.Context, name string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return domain.ErrCollectionExists
	}
	s.collections[name] = &collection{size: vectorSize}
	return nil
}

// CollectionInfo returns statistics for a collection.
func (s *VectorStore) CollectionInfo(_ context.Context, name string) (*domain.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "collection", Name: name}
	}
	n := int64(len(c.points))
	return &domain.CollectionStats{
		Name:                name,
		Status:              "green",
		PointsCount:         n,
		IndexedVectorsCount: n,
		SegmentsCount:       1,
		VectorSize:          c.size,
		Distance:            domain.DistanceCosine,
	}, nil
}

// DeleteCollection removes a collection.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return &domain.NotFoundError{Kind: "collection", Name: name}
	}
	delete(s.collections, name)
	return nil
}

// ListCollections returns collection names in lexical order.
func (s *VectorStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Upsert writes points, replacing any with the same id.
func (s *VectorStore) Upsert(_ context.Context, name string, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return &domain.NotFoundError{Kind: "collection", Name: name}
	}
	for _, p := range points {
		if len(p.Vector) != c.size {
			return domain.ErrDimensionMismatch
		}
	}
	for _, p := range points {
		replaced := false
		for i := range c.points {
			if c.points[i].ID == p.ID {
				c.points[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			c.points = append(c.points, p)
		}
	}
	return nil
}

// Query returns up to limit points by descending cosine similarity.
func (s *VectorStore) Query(_ context.Context, name string, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "collection", Name: name}
	}
	if len(vector) != c.size {
		return nil, domain.ErrDimensionMismatch
	}

	scored := make([]domain.ScoredPoint, 0, len(c.points))
	for _, p := range c.points {
		scored = append(scored, domain.ScoredPoint{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Ping always succeeds.
func (s *VectorStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *VectorStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
