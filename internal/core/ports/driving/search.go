package driving

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// RetrievalService provides semantic search to external actors.
type RetrievalService interface {
	// Retrieve embeds query and returns up to topK results scoring at least
	// minScore, best first.
	Retrieve(ctx context.Context, query string, topK int, minScore float64) ([]domain.RetrievalResult, error)
}

// AnswerService answers a question from retrieved context.
type AnswerService interface {
	// Answer streams content events, then one sources event. A failure is
	// reported as a final error event. The channel is always closed.
	Answer(ctx context.Context, req domain.AnswerRequest) <-chan domain.AnswerEvent
}

// ChatService manages multi-turn chat sessions backed by history storage.
type ChatService interface {
	// StartSession creates a new session.
	StartSession(ctx context.Context) (*domain.ChatSession, error)

	// Send answers one user turn and persists both sides of it.
	Send(ctx context.Context, sessionID int64, req domain.AnswerRequest) <-chan domain.AnswerEvent

	// Sessions lists sessions newest first, at most limit (0 for all).
	Sessions(ctx context.Context, limit int) ([]domain.ChatSession, error)

	// History returns the messages of a session in order.
	History(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error)
}
