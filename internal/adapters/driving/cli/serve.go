package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the JSON API:

  POST /api/ingest             upload files (multipart "files") and ingest them
  GET  /api/search?query=      retrieve passages
  GET  /api/answer?query=      stream an answer as newline-delimited JSON
  GET  /api/stats              collection statistics
  GET  /api/list-collections   collection names
  GET  /api/health             dependency status`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || retrievalService == nil || answerService == nil || collectionService == nil || healthService == nil {
		return notConfigured("api")
	}

	addr := serveAddr
	cfg := httpapi.Config{Pipeline: true}
	if settingsService != nil {
		if s := settingsService.Get(); s != nil {
			if addr == "" {
				addr = s.Server.Addr
			}
			cfg.UploadDir = s.Storage.UploadDir
			cfg.TopK = s.Qdrant.TopK
			cfg.MinScore = s.Qdrant.MinScore
			cfg.Pipeline = s.Ingestion.Pipeline
		}
	}
	if addr == "" {
		addr = ":8000"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}

	handler := httpapi.NewHandler(httpapi.Ports{
		Ingest:       ingestService,
		Retrieval:    retrievalService,
		Answer:       answerService,
		Collection:   collectionService,
		Health:       healthService,
		VectorHealth: vectorHealth,
	}, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "API listening on %s\n", addr)
	return httpapi.NewServer(handler).Run(ctx, addr)
}
