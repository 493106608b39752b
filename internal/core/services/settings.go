package services

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyQdrantHost       = "qdrant.host"
	keyQdrantPort       = "qdrant.port"
	keyQdrantCollection = "qdrant.collection"
	keyQdrantTopK       = "qdrant.top_k"
	keyQdrantMinScore   = "qdrant.min_score"
	keyQdrantTimeout    = "qdrant.timeout_seconds"

	keyBatchSize       = "ingestion.batch_size"
	keyChunkSize       = "ingestion.chunk_size"
	keySizeChars       = "ingestion.size_chars"
	keyAudioChunkChars = "ingestion.audio_chunk_chars"
	keyPipeline        = "ingestion.pipeline"
	keyEmbedRateLimit  = "ingestion.embed_rate_limit"
	keyIgnorePatterns  = "ingestion.ignore_patterns"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedTimeout  = "embedding.timeout_seconds"

	keyLLMProvider  = "llm.provider"
	keyLLMModel     = "llm.model"
	keyLLMBaseURL   = "llm.base_url"
	keyLLMAPIKey    = "llm.api_key"
	keyLLMKeepAlive = "llm.keep_alive"
	keyLLMTimeout   = "llm.timeout_seconds"

	keyPDFCommand   = "extractors.pdf_command"
	keyAudioCommand = "extractors.audio_command"
	keyAudioModel   = "extractors.audio_model"

	keyDBPath    = "storage.db_path"
	keyUploadDir = "storage.upload_dir"
	keyPromptDir = "storage.prompt_dir"

	keyServerAddr = "server.addr"
)

// backupLayout names init-config backups, e.g. config.toml.bak-20240131-0915.
const backupLayout = "20060102-1504"

// SettingsService resolves settings from defaults, the config file and the
// environment, in that order.
type SettingsService struct {
	store   driven.ConfigStore
	dataDir string
	lookup  func(string) (string, bool)
	now     func() time.Time

	mu      sync.RWMutex
	current *domain.Settings
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(fn func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) { s.lookup = fn }
}

// WithClock replaces time.Now for backup names.
func WithClock(fn func() time.Time) SettingsOption {
	return func(s *SettingsService) { s.now = fn }
}

// NewSettingsService creates a settings service. dataDir roots the default
// storage paths.
func NewSettingsService(store driven.ConfigStore, dataDir string, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		store:   store,
		dataDir: dataDir,
		lookup:  os.LookupEnv,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load resolves and validates settings.
func (s *SettingsService) Load() (*domain.Settings, error) {
	if err := s.store.Load(); err != nil {
		return nil, &domain.ConfigError{Key: s.store.Path(), Message: err.Error()}
	}

	settings := s.GetDefaults()
	s.applyFile(&settings)
	if err := s.applyEnv(&settings); err != nil {
		return nil, err
	}
	settings.Storage.DBPath = expandHome(settings.Storage.DBPath)
	settings.Storage.UploadDir = expandHome(settings.Storage.UploadDir)
	settings.Storage.PromptDir = expandHome(settings.Storage.PromptDir)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Settings loaded from %s", s.store.Path())

	s.mu.Lock()
	s.current = &settings
	s.mu.Unlock()

	out := settings
	return &out, nil
}

// Get returns the settings of the last successful Load, or the defaults.
func (s *SettingsService) Get() *domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		d := s.GetDefaults()
		return &d
	}
	out := *s.current
	return &out
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings(s.dataDir)
}

// WriteDefaultConfig writes the defaults to the config file. An existing file
// is refused unless force is set; it is then backed up first.
func (s *SettingsService) WriteDefaultConfig(force bool) (string, error) {
	var backup string
	if s.store.Exists() {
		if !force {
			return "", fmt.Errorf("config file %s already exists (use --force to overwrite)", s.store.Path())
		}
		var err error
		backup, err = s.store.Backup(".bak-" + s.now().Format(backupLayout))
		if err != nil {
			return "", fmt.Errorf("back up config: %w", err)
		}
		logger.Info("Backed up %s to %s", s.store.Path(), backup)
	}

	s.store.Reset()
	for key, value := range defaultValues(s.GetDefaults()) {
		if err := s.store.Set(key, value); err != nil {
			return backup, fmt.Errorf("set %s: %w", key, err)
		}
	}
	if err := s.store.Save(); err != nil {
		return backup, fmt.Errorf("write config: %w", err)
	}
	return backup, nil
}

// defaultValues flattens settings into config keys.
func defaultValues(d domain.Settings) map[string]any {
	return map[string]any{
		keyQdrantHost:       d.Qdrant.Host,
		keyQdrantPort:       int64(d.Qdrant.Port),
		keyQdrantCollection: d.Qdrant.Collection,
		keyQdrantTopK:       int64(d.Qdrant.TopK),
		keyQdrantMinScore:   d.Qdrant.MinScore,
		keyQdrantTimeout:    int64(d.Qdrant.Timeout / time.Second),

		keyBatchSize:       int64(d.Ingestion.BatchSize),
		keyChunkSize:       int64(d.Ingestion.ChunkSize),
		keySizeChars:       int64(d.Ingestion.SizeChars),
		keyAudioChunkChars: int64(d.Ingestion.AudioChunkChars),
		keyPipeline:        d.Ingestion.Pipeline,
		keyEmbedRateLimit:  d.Ingestion.EmbedRateLimit,
		keyIgnorePatterns:  []string{},

		keyEmbedProvider: d.Embedding.Provider.String(),
		keyEmbedModel:    d.Embedding.Model,
		keyEmbedBaseURL:  d.Embedding.BaseURL,
		keyEmbedTimeout:  int64(d.Embedding.Timeout / time.Second),

		keyLLMProvider:  d.LLM.Provider.String(),
		keyLLMModel:     d.LLM.Model,
		keyLLMBaseURL:   d.LLM.BaseURL,
		keyLLMKeepAlive: d.LLM.KeepAlive,
		keyLLMTimeout:   int64(d.LLM.Timeout / time.Second),

		keyPDFCommand:   d.Extractors.PDFCommand,
		keyAudioCommand: d.Extractors.AudioCommand,
		keyAudioModel:   d.Extractors.AudioModel,

		keyDBPath:    d.Storage.DBPath,
		keyUploadDir: d.Storage.UploadDir,
		keyPromptDir: d.Storage.PromptDir,

		keyServerAddr: d.Server.Addr,
	}
}

func (s *SettingsService) applyFile(d *domain.Settings) {
	s.str(keyQdrantHost, &d.Qdrant.Host)
	s.integer(keyQdrantPort, &d.Qdrant.Port)
	s.str(keyQdrantCollection, &d.Qdrant.Collection)
	s.integer(keyQdrantTopK, &d.Qdrant.TopK)
	s.float(keyQdrantMinScore, &d.Qdrant.MinScore)
	s.seconds(keyQdrantTimeout, &d.Qdrant.Timeout)

	s.integer(keyBatchSize, &d.Ingestion.BatchSize)
	s.integer(keyChunkSize, &d.Ingestion.ChunkSize)
	s.integer(keySizeChars, &d.Ingestion.SizeChars)
	s.integer(keyAudioChunkChars, &d.Ingestion.AudioChunkChars)
	s.boolean(keyPipeline, &d.Ingestion.Pipeline)
	s.float(keyEmbedRateLimit, &d.Ingestion.EmbedRateLimit)
	if _, ok := s.store.Get(keyIgnorePatterns); ok {
		d.Ingestion.IgnorePatterns = s.store.GetStringSlice(keyIgnorePatterns)
	}

	s.provider(keyEmbedProvider, &d.Embedding.Provider)
	if d.Embedding.Provider != domain.AIProviderOllama {
		// Cloud providers fall back to their own endpoint and model.
		d.Embedding.BaseURL = ""
		d.Embedding.Model = domain.DefaultEmbeddingModels()[d.Embedding.Provider]
	}
	s.str(keyEmbedModel, &d.Embedding.Model)
	s.str(keyEmbedBaseURL, &d.Embedding.BaseURL)
	s.str(keyEmbedAPIKey, &d.Embedding.APIKey)
	s.seconds(keyEmbedTimeout, &d.Embedding.Timeout)

	s.provider(keyLLMProvider, &d.LLM.Provider)
	if d.LLM.Provider != domain.AIProviderOllama {
		d.LLM.BaseURL = ""
		d.LLM.Model = domain.DefaultLLMModels()[d.LLM.Provider]
	}
	s.str(keyLLMModel, &d.LLM.Model)
	s.str(keyLLMBaseURL, &d.LLM.BaseURL)
	s.str(keyLLMAPIKey, &d.LLM.APIKey)
	s.str(keyLLMKeepAlive, &d.LLM.KeepAlive)
	s.seconds(keyLLMTimeout, &d.LLM.Timeout)

	s.str(keyPDFCommand, &d.Extractors.PDFCommand)
	s.str(keyAudioCommand, &d.Extractors.AudioCommand)
	s.str(keyAudioModel, &d.Extractors.AudioModel)

	s.str(keyDBPath, &d.Storage.DBPath)
	s.str(keyUploadDir, &d.Storage.UploadDir)
	s.str(keyPromptDir, &d.Storage.PromptDir)

	s.str(keyServerAddr, &d.Server.Addr)
}

func (s *SettingsService) str(key string, dst *string) {
	if _, ok := s.store.Get(key); ok {
		*dst = s.store.GetString(key)
	}
}

func (s *SettingsService) integer(key string, dst *int) {
	if _, ok := s.store.Get(key); ok {
		*dst = s.store.GetInt(key)
	}
}

func (s *SettingsService) float(key string, dst *float64) {
	if _, ok := s.store.Get(key); ok {
		*dst = s.store.GetFloat(key)
	}
}

func (s *SettingsService) boolean(key string, dst *bool) {
	if _, ok := s.store.Get(key); ok {
		*dst = s.store.GetBool(key)
	}
}

func (s *SettingsService) seconds(key string, dst *time.Duration) {
	if _, ok := s.store.Get(key); ok {
		*dst = time.Duration(s.store.GetInt(key)) * time.Second
	}
}

func (s *SettingsService) provider(key string, dst *domain.AIProvider) {
	if _, ok := s.store.Get(key); ok {
		*dst = domain.AIProvider(strings.ToLower(s.store.GetString(key)))
	}
}

// applyEnv applies the environment overrides.
func (s *SettingsService) applyEnv(d *domain.Settings) error {
	if v, ok := s.env("QDRANT_HOST"); ok {
		d.Qdrant.Host = v
	}
	if err := s.envInt("QDRANT_PORT", &d.Qdrant.Port); err != nil {
		return err
	}
	if v, ok := s.env("QDRANT_COLLECTION"); ok {
		d.Qdrant.Collection = v
	}
	if err := s.envInt("TOP_K", &d.Qdrant.TopK); err != nil {
		return err
	}
	if v, ok := s.env("MIN_SCORE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &domain.ConfigError{Key: "MIN_SCORE", Message: fmt.Sprintf("not a number: %q", v)}
		}
		d.Qdrant.MinScore = f
	}
	for env, dst := range map[string]*int{
		"BATCH_SIZE": &d.Ingestion.BatchSize,
		"CHUNK_SIZE": &d.Ingestion.ChunkSize,
		"SIZE_CHARS": &d.Ingestion.SizeChars,
	} {
		if err := s.envInt(env, dst); err != nil {
			return err
		}
	}
	if v, ok := s.env("EMBED_MODEL"); ok {
		d.Embedding.Model = v
	}
	if v, ok := s.env("OLLAMA_MODEL"); ok && d.LLM.Provider == domain.AIProviderOllama {
		d.LLM.Model = v
	}
	if v, ok := s.env("WHISPER_MODEL"); ok {
		d.Extractors.AudioModel = v
	}

	host, hasHost := s.env("OLLAMA_HOST")
	port, hasPort := s.env("OLLAMA_PORT")
	if hasHost || hasPort {
		if d.Embedding.Provider == domain.AIProviderOllama {
			d.Embedding.BaseURL = withHostPort(d.Embedding.BaseURL, host, port)
		}
		if d.LLM.Provider == domain.AIProviderOllama {
			d.LLM.BaseURL = withHostPort(d.LLM.BaseURL, host, port)
		}
	}

	if v, ok := s.env("OPENAI_API_KEY"); ok {
		if d.Embedding.Provider == domain.AIProviderOpenAI && d.Embedding.APIKey == "" {
			d.Embedding.APIKey = v
		}
		if d.LLM.Provider == domain.AIProviderOpenAI && d.LLM.APIKey == "" {
			d.LLM.APIKey = v
		}
	}
	if v, ok := s.env("ANTHROPIC_API_KEY"); ok && d.LLM.Provider == domain.AIProviderAnthropic && d.LLM.APIKey == "" {
		d.LLM.APIKey = v
	}
	return nil
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookup(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (s *SettingsService) envInt(name string, dst *int) error {
	v, ok := s.env(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &domain.ConfigError{Key: name, Message: fmt.Sprintf("not an integer: %q", v)}
	}
	*dst = n
	return nil
}

// withHostPort replaces the host and/or port of base. OLLAMA_HOST may carry
// its own scheme and port.
func withHostPort(base, host, port string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		u = &url.URL{Scheme: "http", Host: "localhost:11434"}
	}
	if strings.Contains(host, "://") {
		if hu, err := url.Parse(host); err == nil && hu.Host != "" {
			u.Scheme = hu.Scheme
			host = hu.Host
		}
	}

	curHost, curPort, err := net.SplitHostPort(u.Host)
	if err != nil {
		curHost, curPort = u.Host, "11434"
	}
	if host != "" {
		if h, p, err := net.SplitHostPort(host); err == nil {
			curHost, curPort = h, p
		} else {
			curHost = host
		}
	}
	if port != "" {
		curPort = port
	}
	u.Host = net.JoinHostPort(curHost, curPort)
	return strings.TrimRight(u.String(), "/")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
