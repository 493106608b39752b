package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

var (
	chatTopK     int
	chatMinScore float64
	historyLimit int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents",
	Long: `Multi-turn chat grounded in the ingested documents. Every turn is stored
and can be reviewed with chat-history.`,
}

var chatStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a chat session in the terminal",
	Long: `Starts a new session and reads questions line by line. Type "exit" or
press Ctrl+D to finish.`,
	Args: cobra.NoArgs,
	RunE: runChatStart,
}

var chatHistoryCmd = &cobra.Command{
	Use:   "chat-history",
	Short: "Inspect stored chat sessions",
}

var chatHistoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runChatHistoryList,
}

var chatHistoryShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show the messages of a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatHistoryShow,
}

func init() {
	addRetrievalFlags(chatStartCmd, &chatTopK, &chatMinScore)
	chatCmd.AddCommand(chatStartCmd)
	rootCmd.AddCommand(chatCmd)

	chatHistoryListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum sessions to list (0 for all)")
	chatHistoryCmd.AddCommand(chatHistoryListCmd)
	chatHistoryCmd.AddCommand(chatHistoryShowCmd)
	rootCmd.AddCommand(chatHistoryCmd)
}

func runChatStart(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return notConfigured("chat")
	}
	if err := requireHealthy(cmd, healthService); err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := chatService.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	interactive := isTerminal(cmd.InOrStdin())
	cmd.Printf("Session %d started. Type \"exit\" to quit.\n", session.ID)

	topK, minScore := retrievalDefaults(cmd, chatTopK, chatMinScore)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			cmd.Print(heading("> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		req := domain.AnswerRequest{Query: line, TopK: topK, MinScore: minScore}
		if err := chatTurn(ctx, cmd, session.ID, req); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
		cmd.Println(separator)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func chatTurn(ctx context.Context, cmd *cobra.Command, sessionID int64, req domain.AnswerRequest) error {
	return streamAnswer(cmd, chatService.Send(ctx, sessionID, req))
}

func runChatHistoryList(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return notConfigured("chat")
	}

	sessions, err := chatService.Sessions(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		cmd.Println("No chat sessions.")
		return nil
	}

	cmd.Println(heading("Sessions"))
	for _, s := range sessions {
		cmd.Printf("  %4d  %s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runChatHistoryShow(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return notConfigured("chat")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	messages, err := chatService.History(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if len(messages) == 0 {
		cmd.Printf("Session %d has no messages.\n", id)
		return nil
	}

	for _, m := range messages {
		cmd.Printf("%s %s\n", heading(string(m.Role)+":"), muted(m.CreatedAt.Local().Format("15:04:05")))
		cmd.Println(m.Text)
		cmd.Println()
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
