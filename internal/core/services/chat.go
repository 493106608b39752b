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

// Ensure ChatSessions implements the interface.
var _ driving.ChatService = (*ChatSessions)(nil)

// ChatSessions answers chat turns and keeps their transcript.
type ChatSessions struct {
	answers driving.AnswerService
	history driven.ChatHistoryStore
}

// NewChatSessions creates a chat service.
func NewChatSessions(answers driving.AnswerService, history driven.ChatHistoryStore) *ChatSessions {
	return &ChatSessions{answers: answers, history: history}
}

// StartSession creates a new session.
func (c *ChatSessions) StartSession(ctx context.Context) (*domain.ChatSession, error) {
	session, err := c.history.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("Started chat session %d", session.ID)
	return session, nil
}

// Send persists the user message, streams the answer, and persists whatever
// assistant text was produced once the stream ends, even after an error.
func (c *ChatSessions) Send(ctx context.Context, sessionID int64, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	out := make(chan domain.AnswerEvent)
	go func() {
		defer close(out)

		if _, err := c.history.AddMessage(ctx, sessionID, domain.RoleUser, req.Query); err != nil {
			send(ctx, out, domain.ErrorEvent(fmt.Errorf("save user message: %w", err)))
			return
		}

		req.Mode = domain.AnswerModeChat
		var reply strings.Builder
		for ev := range c.answers.Answer(ctx, req) {
			if ev.Kind == domain.EventContent {
				reply.WriteString(ev.Text)
			}
			// After cancellation send returns at once and the loop only drains.
			send(ctx, out, ev)
		}

		if reply.Len() == 0 {
			return
		}
		// Partial replies are kept even when ctx was cancelled.
		if _, err := c.history.AddMessage(context.WithoutCancel(ctx), sessionID, domain.RoleAssistant, reply.String()); err != nil {
			logger.Warn("Failed to save assistant message for session %d: %v", sessionID, err)
		}
	}()
	return out
}

// Sessions lists sessions newest first.
func (c *ChatSessions) Sessions(ctx context.Context, limit int) ([]domain.ChatSession, error) {
	return c.history.ListSessions(ctx, limit)
}

// History returns the transcript of a session.
func (c *ChatSessions) History(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error) {
	return c.history.GetMessages(ctx, sessionID)
}
