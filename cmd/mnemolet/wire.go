package main

import (
	"errors"
	"fmt"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/ai"
	"github.com/mnemolet/mnemolet/internal/adapters/driven/command"
	"github.com/mnemolet/mnemolet/internal/adapters/driven/config/file"
	"github.com/mnemolet/mnemolet/internal/adapters/driven/storage/sqlite"
	"github.com/mnemolet/mnemolet/internal/adapters/driven/vector/qdrant"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/cli"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/core/services"
	"github.com/mnemolet/mnemolet/internal/extractors"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// newSettings opens the config file at path and wraps it in a settings service.
func newSettings(path string) (*services.SettingsService, error) {
	dataDir, err := file.DefaultDataDir()
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	return services.NewSettingsService(store, dataDir), nil
}

func openSettings(path string) (driving.SettingsService, error) {
	return newSettings(path)
}

// build constructs every adapter and service from the resolved settings.
func build(configPath string) (*cli.Services, error) {
	settingsSvc, err := newSettings(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := settingsSvc.Load()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(settings.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker database: %w", err)
	}

	vectors := qdrant.NewStore(qdrant.Config{
		URL:     settings.Qdrant.URL(),
		Timeout: settings.Qdrant.Timeout,
	})

	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	llm, err := ai.CreateLLMService(settings.LLM)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(settings.Storage.PromptDir)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		_ = llm.Close()
		return nil, err
	}

	registry := extractors.NewRegistry(extractors.Config{
		ChunkSize:       settings.Ingestion.ChunkSize,
		AudioChunkChars: settings.Ingestion.AudioChunkChars,
		PDFCommand:      settings.Extractors.PDFCommand,
		AudioCommand:    settings.Extractors.AudioCommand,
		AudioModel:      settings.Extractors.AudioModel,
		Runner:          command.NewRunner(),
	})

	fileStore := store.FileStore()
	indexer := services.NewVectorIndexer(vectors, settings.Qdrant.Collection)
	retriever := services.NewRetriever(embedder, indexer, settings.Qdrant.TopK)
	answers := services.NewAnswerGenerator(retriever, llm,
		services.WithPromptStore(prompts),
		services.WithKeepAlive(settings.LLM.KeepAlive),
		services.WithRetrievalDefaults(settings.Qdrant.TopK, settings.Qdrant.MinScore),
	)

	walker := services.NewFileWalker(registry, fileStore, services.WalkerOptions{
		IgnorePatterns: settings.Ingestion.IgnorePatterns,
	})
	ingest := services.NewIngestionOrchestrator(walker, registry, embedder, indexer, fileStore,
		services.WithIngestDefaults(domain.IngestOptions{
			BatchSize: settings.Ingestion.BatchSize,
			SizeChars: settings.Ingestion.SizeChars,
			Pipeline:  settings.Ingestion.Pipeline,
		}),
		services.WithEmbedRateLimit(settings.Ingestion.EmbedRateLimit),
	)

	qdrantTarget := services.HealthTarget{Name: "qdrant", URL: settings.Qdrant.URL(), Pinger: vectors}
	embedTarget := services.HealthTarget{
		Name:   "embedding (" + string(settings.Embedding.Provider) + ")",
		URL:    settings.Embedding.BaseURL,
		Pinger: embedder,
	}
	llmTarget := services.HealthTarget{
		Name:   "llm (" + string(settings.LLM.Provider) + ")",
		URL:    settings.LLM.BaseURL,
		Pinger: llm,
	}

	logger.Debug("Services wired: collection=%s embedding=%s/%s llm=%s/%s",
		settings.Qdrant.Collection, settings.Embedding.Provider, settings.Embedding.Model,
		settings.LLM.Provider, settings.LLM.Model)

	return &cli.Services{
		Settings:     settingsSvc,
		Ingest:       ingest,
		Watch:        services.NewDirectoryWatcher(ingest, walker, registry, 0),
		Retrieval:    retriever,
		Answer:       answers,
		Chat:         services.NewChatSessions(answers, store.ChatHistoryStore()),
		Collection:   indexer,
		Files:        services.NewFileTracker(fileStore),
		Health:       services.NewHealthChecker(qdrantTarget, embedTarget, llmTarget),
		VectorHealth: services.NewHealthChecker(qdrantTarget, embedTarget),
		Close: func() error {
			return errors.Join(llm.Close(), embedder.Close(), vectors.Close(), store.Close())
		},
	}, nil
}
