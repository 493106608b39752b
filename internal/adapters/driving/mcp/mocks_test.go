package mcp

import (
	"context"
	"errors"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.RetrievalResult
	err      error
	topK     int
	minScore float64
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	topK int,
	minScore float64,
) ([]domain.RetrievalResult, error) {
	m.topK, m.minScore = topK, minScore
	return m.results, m.err
}

// mockAnswerService replays fixed events.
type mockAnswerService struct {
	events []domain.AnswerEvent
	req    domain.AnswerRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	m.req = req
	out := make(chan domain.AnswerEvent, len(m.events))
	for _, ev := range m.events {
		out <- ev
	}
	close(out)
	return out
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	root   string
	opts   domain.IngestOptions
	result *domain.IngestResult
	err    error
}

func (m *mockIngestService) Ingest(_ context.Context, root string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	m.root, m.opts = root, opts
	return m.result, m.err
}

func (m *mockIngestService) IngestFiles(context.Context, []string, domain.IngestOptions) (*domain.IngestResult, error) {
	return nil, errors.New("not used")
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	names []string
	err   error
}

func (m *mockCollectionService) Stats(context.Context, string) (*domain.CollectionStats, error) {
	return nil, m.err
}

func (m *mockCollectionService) List(context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockCollectionService) Remove(context.Context, string) error {
	return m.err
}

// mockFileService is a mock implementation of driving.FileService.
type mockFileService struct {
	files []domain.FileRecord
	err   error
}

func (m *mockFileService) List(context.Context, *bool) ([]domain.FileRecord, error) {
	return m.files, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	messages map[int64][]domain.ChatMessage
}

func (m *mockChatService) StartSession(context.Context) (*domain.ChatSession, error) {
	return nil, errors.New("not used")
}

func (m *mockChatService) Send(context.Context, int64, domain.AnswerRequest) <-chan domain.AnswerEvent {
	out := make(chan domain.AnswerEvent)
	close(out)
	return out
}

func (m *mockChatService) Sessions(context.Context, int) ([]domain.ChatSession, error) {
	return nil, nil
}

func (m *mockChatService) History(_ context.Context, id int64) ([]domain.ChatMessage, error) {
	msgs, ok := m.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return msgs, nil
}
