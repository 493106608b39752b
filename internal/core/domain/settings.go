package domain

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// QdrantSettings locates the vector database and sets retrieval defaults.
type QdrantSettings struct {
	Host       string
	Port       int
	Collection string
	TopK       int
	MinScore   float64
	Timeout    time.Duration
}

// URL returns the base HTTP URL of the Qdrant instance.
func (q QdrantSettings) URL() string {
	return "http://" + net.JoinHostPort(q.Host, strconv.Itoa(q.Port))
}

// IngestionSettings controls walking, chunking and batching.
type IngestionSettings struct {
	BatchSize int

	// ChunkSize is the read buffer for plain text extraction, in bytes.
	ChunkSize int

	// SizeChars is the maximum chunk length in characters.
	SizeChars int

	// AudioChunkChars is the block size for transcribed audio.
	AudioChunkChars int

	Pipeline bool

	// EmbedRateLimit caps embedding calls per second. Zero means unlimited.
	EmbedRateLimit float64

	IgnorePatterns []string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// KeepAlive is passed to Ollama so the model stays loaded between turns.
	KeepAlive string

	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ExtractorSettings names the external tools used by extractors.
type ExtractorSettings struct {
	PDFCommand   string
	AudioCommand string
	AudioModel   string
}

// StorageSettings holds local paths.
type StorageSettings struct {
	DBPath    string
	UploadDir string
	PromptDir string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// Settings holds all application settings.
type Settings struct {
	Qdrant     QdrantSettings
	Ingestion  IngestionSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Extractors ExtractorSettings
	Storage    StorageSettings
	Server     ServerSettings
}

// DefaultSettings returns settings with defaults rooted at dataDir.
func DefaultSettings(dataDir string) Settings {
	return Settings{
		Qdrant: QdrantSettings{
			Host:       "localhost",
			Port:       6333,
			Collection: "documents",
			TopK:       5,
			MinScore:   0.35,
			Timeout:    30 * time.Second,
		},
		Ingestion: IngestionSettings{
			BatchSize:       100,
			ChunkSize:       1 << 20,
			SizeChars:       3000,
			AudioChunkChars: 15000,
			Pipeline:        true,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
			Timeout:  30 * time.Second,
		},
		LLM: LLMSettings{
			Provider:  AIProviderOllama,
			Model:     "llama3",
			BaseURL:   "http://localhost:11434",
			KeepAlive: "10m",
			Timeout:   120 * time.Second,
		},
		Extractors: ExtractorSettings{
			PDFCommand:   "pdftotext",
			AudioCommand: "whisper-cli",
		},
		Storage: StorageSettings{
			DBPath:    dataDir + "/data/tracker.sqlite",
			UploadDir: dataDir + "/uploads",
			PromptDir: dataDir + "/prompts",
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}

// Validate reports the first invalid field as a ConfigError.
func (s Settings) Validate() error {
	switch {
	case s.Qdrant.Host == "":
		return &ConfigError{Key: "qdrant.host", Message: "must not be empty"}
	case s.Qdrant.Port <= 0 || s.Qdrant.Port > 65535:
		return &ConfigError{Key: "qdrant.port", Message: fmt.Sprintf("invalid port %d", s.Qdrant.Port)}
	case s.Qdrant.Collection == "":
		return &ConfigError{Key: "qdrant.collection", Message: "must not be empty"}
	case s.Qdrant.TopK <= 0:
		return &ConfigError{Key: "qdrant.top_k", Message: "must be positive"}
	case s.Qdrant.MinScore < -1 || s.Qdrant.MinScore > 1:
		return &ConfigError{Key: "qdrant.min_score", Message: "must be within [-1, 1]"}
	case s.Ingestion.BatchSize <= 0:
		return &ConfigError{Key: "ingestion.batch_size", Message: "must be positive"}
	case s.Ingestion.ChunkSize <= 0:
		return &ConfigError{Key: "ingestion.chunk_size", Message: "must be positive"}
	case s.Ingestion.SizeChars <= 0:
		return &ConfigError{Key: "ingestion.size_chars", Message: "must be positive"}
	case s.Ingestion.AudioChunkChars <= 0:
		return &ConfigError{Key: "ingestion.audio_chunk_chars", Message: "must be positive"}
	case s.Ingestion.EmbedRateLimit < 0:
		return &ConfigError{Key: "ingestion.embed_rate_limit", Message: "must not be negative"}
	case !s.Embedding.Provider.IsValid() || s.Embedding.Provider == AIProviderAnthropic:
		return &ConfigError{Key: "embedding.provider", Message: fmt.Sprintf("unsupported provider %q", s.Embedding.Provider)}
	case !s.Embedding.IsConfigured():
		return &ConfigError{Key: "embedding.api_key", Message: "required for " + s.Embedding.Provider.String()}
	case !s.LLM.Provider.IsValid():
		return &ConfigError{Key: "llm.provider", Message: fmt.Sprintf("unsupported provider %q", s.LLM.Provider)}
	case !s.LLM.IsConfigured():
		return &ConfigError{Key: "llm.api_key", Message: "required for " + s.LLM.Provider.String()}
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
