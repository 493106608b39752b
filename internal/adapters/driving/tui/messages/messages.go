// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// SessionStarted carries the session created when the TUI opens.
type SessionStarted struct {
	Session *domain.ChatSession
	Err     error
}

// AnswerEvent wraps one event of the answer stream for the current turn.
type AnswerEvent struct {
	Event domain.AnswerEvent
}

// AnswerFinished is sent when the answer stream closes.
type AnswerFinished struct{}

// ErrorOccurred is sent when an operation fails outside an answer stream.
type ErrorOccurred struct {
	Err error
}

// Quit is sent to exit the application.
type Quit struct{}
