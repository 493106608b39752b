package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui"
)

var (
	tuiTopK     int
	tuiMinScore float64
)

// chatTUICmd runs a chat session in the full-screen terminal UI.
var chatTUICmd = &cobra.Command{
	Use:   "tui",
	Short: "Chat in the interactive terminal UI",
	Long: `Starts a new chat session in a full-screen terminal interface. Answers
stream into the transcript with their sources listed underneath.

Controls:
  Enter     - Send the question
  Esc       - Stop the answer being generated
  PgUp/PgDn - Scroll the transcript
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runChatTUI,
}

func init() {
	addRetrievalFlags(chatTUICmd, &tuiTopK, &tuiMinScore)
	chatCmd.AddCommand(chatTUICmd)
}

func runChatTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := requireHealthy(cmd, healthService); err != nil {
		return err
	}

	topK, minScore := retrievalDefaults(cmd, tuiTopK, tuiMinScore)
	app, err := tui.NewApp(&tui.Ports{
		Chat:     chatService,
		TopK:     topK,
		MinScore: minScore,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
