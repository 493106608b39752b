// Package tui provides an interactive terminal chat for mnemolet.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Chat starts sessions and answers turns.
	Chat driving.ChatService

	// TopK and MinScore are sent with each turn. A zero TopK or nil
	// MinScore uses the service defaults.
	TopK     int
	MinScore *float64
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
