package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

var (
	ingestForce      bool
	ingestBatchSize  int
	ingestSizeChars  int
	ingestNoPipeline bool
	ingestWatch      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest documents into the vector store",
	Long: `Walks a directory, extracts text from every supported file, splits it
into chunks, embeds the chunks and stores them in Qdrant.

Files whose content was already indexed are skipped unless --force is given.
--force also drops and recreates the collection.

With --watch, the directory is watched after the first pass and new or
modified files are ingested as they appear. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest every file and recreate the collection")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "chunks per embedding batch (default from config)")
	ingestCmd.Flags().IntVar(&ingestSizeChars, "size-chars", 0, "maximum chunk length in characters (default from config)")
	ingestCmd.Flags().BoolVar(&ingestNoPipeline, "no-pipeline", false, "embed and store sequentially")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep watching the directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	root := args[0]

	if ingestService == nil {
		return notConfigured("ingest")
	}
	if ingestWatch && watchService == nil {
		return notConfigured("watch")
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	if err := requireHealthy(cmd, vectorHealth); err != nil {
		return err
	}

	opts := ingestOptions()
	cmd.Printf("Ingesting %s...\n", root)

	result, err := ingestService.Ingest(cmd.Context(), root, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printIngestResult(cmd, result)

	if !ingestWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Files written during the first pass are picked up by content hash.
	opts.Force = false
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", root)
	err = watchService.Watch(ctx, root, opts, func(r *domain.IngestResult, err error) {
		if err != nil {
			cmd.PrintErrf("Ingestion failed: %v\n", err)
			return
		}
		printIngestResult(cmd, r)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped watching.")
	return nil
}

func ingestOptions() domain.IngestOptions {
	pipeline := true
	if settingsService != nil {
		if s := settingsService.Get(); s != nil {
			pipeline = s.Ingestion.Pipeline
		}
	}
	return domain.IngestOptions{
		Force:     ingestForce,
		BatchSize: ingestBatchSize,
		SizeChars: ingestSizeChars,
		Pipeline:  pipeline && !ingestNoPipeline,
	}
}

func printIngestResult(cmd *cobra.Command, r *domain.IngestResult) {
	cmd.Printf("Indexed %d files (%d chunks) in %s\n", r.Files, r.Chunks, r.Duration.Round(time.Millisecond))
	if r.SkippedKnown > 0 || r.SkippedDuplicates > 0 {
		cmd.Printf("  Skipped: %d already indexed, %d duplicates\n", r.SkippedKnown, r.SkippedDuplicates)
	}
	if r.ExtractionFailures > 0 {
		cmd.Printf("  Extraction failures: %d\n", r.ExtractionFailures)
	}
	if r.FailedBatches > 0 {
		cmd.Printf("  Failed batches: %d (affected files stay pending)\n", r.FailedBatches)
	}
}
