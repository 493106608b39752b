package driven

import (
	"context"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// FileStore is the durable record of ingested files, keyed by path and
// looked up by content hash. Safe for concurrent use.
type FileStore interface {
	// AddFile inserts or replaces the record for path with indexed = false.
	AddFile(ctx context.Context, path, hash string) error

	// FileExists reports whether any record has the given hash.
	FileExists(ctx context.Context, hash string) (bool, error)

	// GetByHash returns the record with the given hash.
	// Returns domain.ErrNotFound if no record matches.
	GetByHash(ctx context.Context, hash string) (*domain.FileRecord, error)

	// ListFiles returns records ordered by ingestion time, newest first.
	// A nil indexed lists everything; otherwise only matching records.
	ListFiles(ctx context.Context, indexed *bool) ([]domain.FileRecord, error)

	// MarkIndexed sets indexed = true on every record with the given hash.
	MarkIndexed(ctx context.Context, hash string) error

	// Close releases resources.
	Close() error
}

// ChatHistoryStore persists chat sessions and their messages.
type ChatHistoryStore interface {
	// CreateSession starts a new empty session.
	CreateSession(ctx context.Context) (*domain.ChatSession, error)

	// AddMessage appends a message to a session.
	// Returns domain.ErrNotFound if the session does not exist.
	AddMessage(ctx context.Context, sessionID int64, role domain.Role, text string) (*domain.ChatMessage, error)

	// ListSessions returns sessions newest first, at most limit (0 for all).
	ListSessions(ctx context.Context, limit int) ([]domain.ChatSession, error)

	// GetMessages returns the messages of a session in insertion order.
	// Returns domain.ErrNotFound if the session does not exist.
	GetMessages(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error)
}
