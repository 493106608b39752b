// Package styles provides colour themes and styling for the chat TUI and
// the command line output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette.
type Theme struct {
	// Primary marks the assistant and titles.
	Primary lipgloss.Color

	// Secondary marks the user.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for hints, sources and timestamps.
	Muted lipgloss.Color

	Success lipgloss.Color
	Error   lipgloss.Color

	// Border outlines the input and draws rules.
	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
		Bar:        lipgloss.Color("#181825"), // Near black
	}
}

// Styles holds the lipgloss styles built from a theme.
type Styles struct {
	theme *Theme

	// Title renders headings.
	Title lipgloss.Style

	Normal lipgloss.Style
	Muted  lipgloss.Style

	// User and Assistant label the turns of a conversation.
	User      lipgloss.Style
	Assistant lipgloss.Style

	// Source renders a cited file path.
	Source lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style

	// Rule draws the separator between chat turns.
	Rule lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:  lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Normal: lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:  lipgloss.NewStyle().Foreground(theme.Muted),

		User:      lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Source:    lipgloss.NewStyle().Italic(true).Foreground(theme.Muted),

		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),

		Rule: lipgloss.NewStyle().Foreground(theme.Border),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
