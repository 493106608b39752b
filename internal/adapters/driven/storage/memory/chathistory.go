package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure ChatHistoryStore implements the interface.
var _ driven.ChatHistoryStore = (*ChatHistoryStore)(nil)

// ChatHistoryStore is an in-memory implementation of driven.ChatHistoryStore.
type ChatHistoryStore struct {
	mu       sync.RWMutex
	sessions []domain.ChatSession
	messages map[int64][]domain.ChatMessage
	nextMsg  int64
}

// NewChatHistoryStore creates a new in-memory chat history store.
func NewChatHistoryStore() *ChatHistoryStore {
	return &ChatHistoryStore{
		messages: make(map[int64][]domain.ChatMessage),
	}
}

// CreateSession starts a new empty session.
func (s *ChatHistoryStore) CreateSession(_ context.Context) (*domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := domain.ChatSession{
		ID:        int64(len(s.sessions) + 1),
		CreatedAt: time.Now(),
	}
	s.sessions = append(s.sessions, sess)
	s.messages[sess.ID] = nil
	return &sess, nil
}

// AddMessage appends a message to a session.
func (s *ChatHistoryStore) AddMessage(
	_ context.Context, sessionID int64, role domain.Role, text string,
) (*domain.ChatMessage, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidInput, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.messages[sessionID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "session", Name: fmt.Sprint(sessionID)}
	}
	s.nextMsg++
	msg := domain.ChatMessage{
		ID:        s.nextMsg,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.messages[sessionID] = append(msgs, msg)
	return &msg, nil
}

// ListSessions returns sessions newest first.
func (s *ChatHistoryStore) ListSessions(_ context.Context, limit int) ([]domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChatSession, 0, len(s.sessions))
	for i := len(s.sessions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.sessions[i])
	}
	return out, nil
}

// GetMessages returns the messages of a session in insertion order.
func (s *ChatHistoryStore) GetMessages(_ context.Context, sessionID int64) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.messages[sessionID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "session", Name: fmt.Sprint(sessionID)}
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
