// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/keymap"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/styles"
)

// State represents the chat state shown in the bar.
type State string

const (
	StateStarting  State = "starting"
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateStreaming State = "streaming"
	StateError     State = "error"
)

// Bar displays the session, the chat state and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	sessionID int64
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateStarting,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var session string
	if s.sessionID > 0 {
		session = s.styles.Muted.Render(fmt.Sprintf("session %d · ", s.sessionID))
	}

	switch s.state {
	case StateStarting:
		return s.styles.Muted.Render("Starting session...")
	case StateThinking:
		return session + s.styles.Muted.Render("Thinking...")
	case StateStreaming:
		return session + s.styles.Normal.Render("Answering...")
	case StateError:
		if s.message != "" {
			return session + s.styles.Error.Render("Error: "+s.message)
		}
		return session + s.styles.Error.Render("Error")
	case StateReady:
	}
	return session + s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	bindings := s.bindingHints()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// Busy reports whether an answer is in progress.
func (s *Bar) Busy() bool {
	return s.state == StateThinking || s.state == StateStreaming
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSession sets the session shown in the bar.
func (s *Bar) SetSession(id int64) {
	s.sessionID = id
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// bindingHints returns the hints for the current state.
func (s *Bar) bindingHints() []key.Binding {
	if s.Busy() {
		return s.keymap.StreamingHelp()
	}
	return s.keymap.ShortHelp()
}
