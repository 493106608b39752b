package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is user or assistant.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatSession is a persisted conversation.
type ChatSession struct {
	ID        int64
	CreatedAt time.Time
}

// ChatMessage is one turn of a session. Messages are append-only.
type ChatMessage struct {
	ID        int64
	SessionID int64
	Role      Role
	Text      string
	CreatedAt time.Time
}
