package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// snippetChars bounds the passage preview in table output.
const snippetChars = 200

var (
	searchTopK     int
	searchMinScore float64
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested documents",
	Long: `Embeds the query and returns the closest passages from the collection,
best first. Passages scoring below --min-score are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	addRetrievalFlags(searchCmd, &searchTopK, &searchMinScore)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// addRetrievalFlags registers --top-k and --min-score. Unset flags defer to config.
func addRetrievalFlags(cmd *cobra.Command, topK *int, minScore *float64) {
	cmd.Flags().IntVarP(topK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	cmd.Flags().Float64Var(minScore, "min-score", 0, "minimum similarity score (default from config)")
}

// retrievalDefaults fills unset retrieval flags from the loaded settings.
// The returned min score is nil only when neither the flag nor settings
// provide one. An explicit --min-score 0 is kept.
func retrievalDefaults(cmd *cobra.Command, topK int, minScore float64) (int, *float64) {
	var score *float64
	if cmd.Flags().Changed("min-score") {
		score = &minScore
	}
	if settingsService == nil {
		return topK, score
	}
	s := settingsService.Get()
	if s == nil {
		return topK, score
	}
	if topK <= 0 {
		topK = s.Qdrant.TopK
	}
	if score == nil {
		configured := s.Qdrant.MinScore
		score = &configured
	}
	return topK, score
}

// scoreValue dereferences a threshold, treating nil as no filtering.
func scoreValue(score *float64) float64 {
	if score == nil {
		return 0
	}
	return *score
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return notConfigured("search")
	}
	if err := requireHealthy(cmd, vectorHealth); err != nil {
		return err
	}

	topK, minScore := retrievalDefaults(cmd, searchTopK, searchMinScore)
	results, err := retrievalService.Retrieve(cmd.Context(), query, topK, scoreValue(minScore))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if results == nil {
		results = []domain.RetrievalResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println(domain.NoSearchResultsMessage)
		return nil
	}

	cmd.Println(heading("Results"))
	cmd.Println()
	for i, r := range results {
		// Format: [N] path (score)
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Path, r.Score)
		cmd.Printf("      %s\n", snippet(r.Text))
		cmd.Println()
	}
	return nil
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetChars {
		return text
	}
	return string(runes[:snippetChars]) + "..."
}
