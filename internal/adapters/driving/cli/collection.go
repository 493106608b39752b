package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	statsCollection  string
	statsJSON        bool
	removeCollection string
	removeYes        bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var listCollectionsCmd = &cobra.Command{
	Use:   "list-collections",
	Short: "List Qdrant collections",
	Args:  cobra.NoArgs,
	RunE:  runListCollections,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete a collection",
	Long: `Deletes a Qdrant collection and every point in it. The ingestion
tracker is left untouched, so use "ingest --force" to rebuild.

Asks for confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runRemove,
}

func init() {
	statsCmd.Flags().StringVarP(&statsCollection, "collection", "c", "", "collection name (default from config)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)

	rootCmd.AddCommand(listCollectionsCmd)

	removeCmd.Flags().StringVarP(&removeCollection, "collection", "c", "", "collection name (default from config)")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(removeCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return notConfigured("collection")
	}
	if err := requireHealthy(cmd, vectorHealth); err != nil {
		return err
	}

	stats, err := collectionService.Stats(cmd.Context(), statsCollection)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(heading("Collection " + stats.Name))
	cmd.Printf("  Status:          %s\n", stats.Status)
	cmd.Printf("  Points:          %d\n", stats.PointsCount)
	cmd.Printf("  Indexed vectors: %d\n", stats.IndexedVectorsCount)
	cmd.Printf("  Segments:        %d\n", stats.SegmentsCount)
	cmd.Printf("  Vector size:     %d\n", stats.VectorSize)
	cmd.Printf("  Distance:        %s\n", stats.Distance)
	cmd.Printf("  Payload on disk: %t\n", stats.OnDiskPayload)
	return nil
}

func runListCollections(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return notConfigured("collection")
	}
	if err := requireHealthy(cmd, vectorHealth); err != nil {
		return err
	}

	names, err := collectionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		cmd.Println("No collections.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}

func runRemove(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return notConfigured("collection")
	}

	name := removeCollection
	if name == "" && settingsService != nil {
		if s := settingsService.Get(); s != nil {
			name = s.Qdrant.Collection
		}
	}
	if name == "" {
		return errors.New("no collection given")
	}

	if !removeYes {
		if !isTerminal(cmd.InOrStdin()) {
			return fmt.Errorf("refusing to delete %q without --yes on a non-interactive input", name)
		}
		cmd.Printf("Delete collection %q and all its points? [y/N]: ", name)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n') //nolint:errcheck // EOF means no
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := requireHealthy(cmd, vectorHealth); err != nil {
		return err
	}
	if err := collectionService.Remove(cmd.Context(), name); err != nil {
		return fmt.Errorf("failed to remove collection: %w", err)
	}
	cmd.Printf("Collection %q removed.\n", name)
	return nil
}
