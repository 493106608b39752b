// Package cli implements the mnemolet command line with cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// ConfigEnvVar overrides the config file location.
const ConfigEnvVar = "MNEMOLET_CONFIG"

// annotationStandalone marks commands that run without the service graph.
const annotationStandalone = "standalone"

// version is set at build time.
var version = "dev"

// Services is the set of driving ports the commands call.
type Services struct {
	Settings   driving.SettingsService
	Ingest     driving.IngestService
	Watch      driving.WatchService
	Retrieval  driving.RetrievalService
	Answer     driving.AnswerService
	Chat       driving.ChatService
	Collection driving.CollectionService
	Files      driving.FileService

	// Health probes Qdrant, the embedder and the LLM.
	Health driving.HealthService

	// VectorHealth probes only what ingestion and search need.
	VectorHealth driving.HealthService

	// Close releases storage handles. May be nil.
	Close func() error
}

// Bootstrapper builds the services from the config file at configPath.
// An empty path selects the default location.
type Bootstrapper func(configPath string) (*Services, error)

// SettingsOpener builds only the settings service, for commands that must
// work before a valid config exists.
type SettingsOpener func(configPath string) (driving.SettingsService, error)

var (
	verbose    bool
	configPath string

	bootstrap    Bootstrapper
	openSettings SettingsOpener
	services     *Services
)

// Service ports used by the commands. Nil until services are set.
var (
	settingsService   driving.SettingsService
	ingestService     driving.IngestService
	watchService      driving.WatchService
	retrievalService  driving.RetrievalService
	answerService     driving.AnswerService
	chatService       driving.ChatService
	collectionService driving.CollectionService
	fileService       driving.FileService
	healthService     driving.HealthService
	vectorHealth      driving.HealthService
)

var rootCmd = &cobra.Command{
	Use:   "mnemolet",
	Short: "Local retrieval-augmented question answering",
	Long: `mnemolet ingests local documents into a Qdrant collection using
embeddings from Ollama (or OpenAI), retrieves the passages closest to a
question and streams an answer from a language model.

Configuration is read from ~/.mnemolet/config.toml, the file named by
--config or $MNEMOLET_CONFIG, and environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareServices,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(ConfigEnvVar),
		"config file (default ~/.mnemolet/config.toml)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds services on first use.
func SetBootstrap(fn Bootstrapper) {
	bootstrap = fn
}

// SetSettingsOpener registers the settings-only factory used by init-config.
func SetSettingsOpener(fn SettingsOpener) {
	openSettings = fn
}

// SetServices installs the services directly. Passing nil clears them.
func SetServices(s *Services) {
	services = s
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	ingestService = s.Ingest
	watchService = s.Watch
	retrievalService = s.Retrieval
	answerService = s.Answer
	chatService = s.Chat
	collectionService = s.Collection
	fileService = s.Files
	healthService = s.Health
	vectorHealth = s.VectorHealth
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[annotationStandalone] == "true" || services != nil || bootstrap == nil {
		return nil
	}
	s, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func closeServices() error {
	if services == nil || services.Close == nil {
		return nil
	}
	closeFn := services.Close
	services.Close = nil
	return closeFn()
}

// requireHealthy runs the health guard when one is configured.
func requireHealthy(cmd *cobra.Command, h driving.HealthService) error {
	if h == nil {
		return nil
	}
	if err := h.RequireHealthy(cmd.Context()); err != nil {
		return fmt.Errorf("service check failed: %w", err)
	}
	return nil
}

func notConfigured(name string) error {
	return fmt.Errorf("%s %w", name, domain.ErrServiceNotConfigured)
}
