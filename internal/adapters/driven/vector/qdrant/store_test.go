package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// fakeQdrant serves the subset of the REST API the store uses.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]int
	points      map[string][]point
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *Store) {
	t.Helper()
	f := &fakeQdrant{collections: map[string]int{}, points: map[string][]point{}}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, NewStore(Config{URL: server.URL, APIKey: "secret"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("api-key") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		writeJSON(w, http.StatusOK, map[string]string{"title": "qdrant", "version": "1.12.4"})
	case r.URL.Path == "/healthz":
		_, _ = w.Write([]byte("healthz check passed"))
	case r.URL.Path == "/collections":
		var list []map[string]string
		for name := range f.collections {
			list = append(list, map[string]string{"name": name})
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"collections": list}})
	case len(parts) == 2:
		f.collection(w, r, parts[1])
	case len(parts) == 3 && r.Method == http.MethodPut:
		f.upsert(w, r, parts[1])
	case len(parts) == 4 && parts[3] == "search":
		f.search(w, r, parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeQdrant) collection(w http.ResponseWriter, r *http.Request, name string) {
	size, exists := f.collections[name]
	switch r.Method {
	case http.MethodPut:
		if exists {
			writeJSON(w, http.StatusConflict, map[string]any{"status": map[string]string{"error": "already exists"}})
			return
		}
		var req createCollectionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.collections[name] = req.Vectors.Size
		writeJSON(w, http.StatusOK, map[string]bool{"result": true})
	case http.MethodGet:
		if !exists {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": map[string]string{"error": "Not found"}})
			return
		}
		n := len(f.points[name])
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{
			"status":                "green",
			"points_count":          n,
			"indexed_vectors_count": 0,
			"segments_count":        2,
			"config": map[string]any{"params": map[string]any{
				"vectors":         map[string]any{"size": size, "distance": "Cosine"},
				"on_disk_payload": true,
			}},
		}})
	case http.MethodDelete:
		delete(f.collections, name)
		delete(f.points, name)
		writeJSON(w, http.StatusOK, map[string]bool{"result": exists})
	}
}

func (f *fakeQdrant) upsert(w http.ResponseWriter, r *http.Request, name string) {
	size, ok := f.collections[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	if r.URL.Query().Get("wait") != "true" {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	var req upsertRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	for _, p := range req.Points {
		if len(p.Vector) != size {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": map[string]string{
				"error": "Wrong input: Vector dimension error: expected dim: 3, got 2",
			}})
			return
		}
	}
	f.points[name] = append(f.points[name], req.Points...)
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]string{"status": "completed"}})
}

func (f *fakeQdrant) search(w http.ResponseWriter, r *http.Request, name string) {
	if _, ok := f.collections[name]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	var req searchRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	var hits []map[string]any
	for i, p := range f.points[name] {
		if i >= req.Limit {
			break
		}
		hits = append(hits, map[string]any{"id": p.ID, "score": 1.0 - float64(i)/10, "payload": p.Payload})
	}
	// Integer ids are also valid in Qdrant.
	hits = append(hits, map[string]any{"id": 42, "score": 0.01, "payload": map[string]string{}})
	writeJSON(w, http.StatusOK, map[string]any{"result": hits})
}

func TestStore_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	_, store := newFakeQdrant(t)

	_, err := store.CollectionInfo(ctx, "docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.CreateCollection(ctx, "docs", 3))
	assert.ErrorIs(t, store.CreateCollection(ctx, "docs", 3), domain.ErrCollectionExists)

	stats, err := store.CollectionInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", stats.Name)
	assert.Equal(t, "green", stats.Status)
	assert.Equal(t, 3, stats.VectorSize)
	assert.Equal(t, domain.DistanceCosine, stats.Distance)
	assert.Equal(t, int64(2), stats.SegmentsCount)
	assert.True(t, stats.OnDiskPayload)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)

	require.NoError(t, store.DeleteCollection(ctx, "docs"))
	assert.ErrorIs(t, store.DeleteCollection(ctx, "docs"), domain.ErrNotFound)
}

func TestStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	_, store := newFakeQdrant(t)
	require.NoError(t, store.CreateCollection(ctx, "docs", 3))

	points := []domain.Point{
		{ID: "3f1c9a52-0000-4000-8000-000000000001", Vector: []float32{1, 0, 0}, Payload: domain.PointPayload{Path: "/a.txt", Hash: "ha", Text: "alpha"}},
		{ID: "3f1c9a52-0000-4000-8000-000000000002", Vector: []float32{0, 1, 0}, Payload: domain.PointPayload{Path: "/b.txt", Hash: "hb", Text: "bravo"}},
	}
	require.NoError(t, store.Upsert(ctx, "docs", points))
	require.NoError(t, store.Upsert(ctx, "docs", nil))

	stats, err := store.CollectionInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.PointsCount)

	hits, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, points[0].ID, hits[0].ID)
	assert.Equal(t, "alpha", hits[0].Payload.Text)
	assert.Equal(t, "/a.txt", hits[0].Payload.Path)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "42", hits[2].ID)
}

func TestStore_PointErrors(t *testing.T) {
	ctx := context.Background()
	_, store := newFakeQdrant(t)

	err := store.Upsert(ctx, "missing", []domain.Point{{ID: "x", Vector: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Query(ctx, "missing", []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.CreateCollection(ctx, "docs", 3))
	err = store.Upsert(ctx, "docs", []domain.Point{{ID: "x", Vector: []float32{1, 2}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_PingAndVersion(t *testing.T) {
	_, store := newFakeQdrant(t)

	require.NoError(t, store.Ping(context.Background()))
	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.12.4", version)
	assert.NoError(t, store.Close())
}

func TestStore_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store := NewStore(Config{URL: url})
	err := store.Ping(context.Background())
	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "qdrant", netErr.Service)
}

func TestStore_Unauthorized(t *testing.T) {
	f := &fakeQdrant{collections: map[string]int{}, points: map[string][]point{}}
	server := httptest.NewServer(f)
	defer server.Close()

	_, err := NewStore(Config{URL: server.URL}).ListCollections(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
