package tui

import (
	"context"
	"sync"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// mockChatService replays canned events for each Send.
type mockChatService struct {
	mu sync.Mutex

	session    *domain.ChatSession
	sessionErr error

	// events are sent then the stream closes. When block is set the stream
	// instead waits for cancellation.
	events []domain.AnswerEvent
	block  bool

	requests   []domain.AnswerRequest
	sessionIDs []int64
}

func newMockChatService() *mockChatService {
	return &mockChatService{session: &domain.ChatSession{ID: 3}}
}

func (m *mockChatService) StartSession(_ context.Context) (*domain.ChatSession, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return m.session, nil
}

func (m *mockChatService) Send(ctx context.Context, sessionID int64, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.sessionIDs = append(m.sessionIDs, sessionID)
	m.mu.Unlock()

	if m.block {
		ch := make(chan domain.AnswerEvent)
		go func() {
			defer close(ch)
			<-ctx.Done()
			ch <- domain.ErrorEvent(ctx.Err())
		}()
		return ch
	}

	ch := make(chan domain.AnswerEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (m *mockChatService) Sessions(_ context.Context, _ int) ([]domain.ChatSession, error) {
	return nil, nil
}

func (m *mockChatService) History(_ context.Context, _ int64) ([]domain.ChatMessage, error) {
	return nil, nil
}

func scorePtr(v float64) *float64 {
	return &v
}
