package httpapi

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

type mockIngest struct {
	root   string
	paths  []string
	opts   domain.IngestOptions
	result *domain.IngestResult
	err    error
}

func (m *mockIngest) Ingest(_ context.Context, root string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	m.root = root
	m.opts = opts
	return m.result, m.err
}

func (m *mockIngest) IngestFiles(_ context.Context, paths []string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	m.paths = paths
	m.opts = opts
	return m.result, m.err
}

type mockRetrieval struct {
	results  []domain.RetrievalResult
	err      error
	query    string
	topK     int
	minScore float64
}

func (m *mockRetrieval) Retrieve(_ context.Context, query string, topK int, minScore float64) ([]domain.RetrievalResult, error) {
	m.query, m.topK, m.minScore = query, topK, minScore
	return m.results, m.err
}

type mockAnswer struct {
	events []domain.AnswerEvent
	req    domain.AnswerRequest
}

func (m *mockAnswer) Answer(_ context.Context, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	m.req = req
	out := make(chan domain.AnswerEvent, len(m.events))
	for _, ev := range m.events {
		out <- ev
	}
	close(out)
	return out
}

type mockCollection struct {
	stats     *domain.CollectionStats
	names     []string
	err       error
	requested string
}

func (m *mockCollection) Stats(_ context.Context, name string) (*domain.CollectionStats, error) {
	m.requested = name
	return m.stats, m.err
}

func (m *mockCollection) List(context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockCollection) Remove(context.Context, string) error {
	return m.err
}

type mockHealth struct {
	report domain.HealthReport
	err    error
}

func (m *mockHealth) Check(context.Context) domain.HealthReport {
	return m.report
}

func (m *mockHealth) RequireHealthy(context.Context) error {
	return m.err
}
