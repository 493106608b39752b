package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

var (
	answerTopK     int
	answerMinScore float64
)

var answerCmd = &cobra.Command{
	Use:   "answer [question]",
	Short: "Answer a question from ingested documents",
	Long: `Retrieves the passages closest to the question, asks the language model
to answer from them and streams the answer as it is generated. The files the
passages came from are listed afterwards.

If no passage scores above --min-score, the model is not called.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnswer,
}

func init() {
	addRetrievalFlags(answerCmd, &answerTopK, &answerMinScore)
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return notConfigured("answer")
	}
	if err := requireHealthy(cmd, healthService); err != nil {
		return err
	}

	topK, minScore := retrievalDefaults(cmd, answerTopK, answerMinScore)
	events := answerService.Answer(cmd.Context(), domain.AnswerRequest{
		Query:    args[0],
		TopK:     topK,
		MinScore: minScore,
		Mode:     domain.AnswerModeSingle,
	})
	if err := streamAnswer(cmd, events); err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}
	return nil
}
