// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/httpx"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3"
	DefaultLLMTimeout = 120 * time.Second
)

const (
	serviceName = "ollama"

	// maxLineSize bounds a single NDJSON line of the stream.
	maxLineSize = 1 << 20
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3).
	Model string

	// Timeout bounds a whole generation, including the streamed body (default: 120s).
	Timeout time.Duration
}

// LLMService streams completions from /api/generate.
type LLMService struct {
	client *httpx.Client
	model  string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	System    string   `json:"system,omitempty"`
	Stream    bool     `json:"stream"`
	KeepAlive string   `json:"keep_alive,omitempty"`
	Options   *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is one line of the /api/generate stream.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: httpx.New(serviceName, cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}
}

// GenerateStream posts the prompt with streaming enabled and yields each
// non-empty response fragment as it arrives.
func (s *LLMService) GenerateStream(
	ctx context.Context, prompt string, opts driven.GenerateOptions,
) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)
		if err := s.stream(ctx, prompt, opts, out); err != nil {
			errs <- err
		}
	}()
	return out, errs
}

func (s *LLMService) stream(ctx context.Context, prompt string, opts driven.GenerateOptions, out chan<- string) error {
	req := generateRequest{
		Model:     s.model,
		Prompt:    prompt,
		System:    opts.System,
		Stream:    true,
		KeepAlive: opts.KeepAlive,
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		req.Options = &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	}

	resp, err := s.client.Send(ctx, "generate", http.MethodPost, "/api/generate", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return &domain.DecodeError{Service: serviceName, Op: "generate", Err: err}
		}
		if chunk.Error != "" {
			return fmt.Errorf("%s generate: %s", serviceName, chunk.Error)
		}
		if chunk.Response != "" {
			select {
			case out <- chunk.Response:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return httpx.Classify(serviceName, "generate", err)
	}
	return &domain.DecodeError{Service: serviceName, Op: "generate", Err: errors.New("stream ended before done")}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks /api/version, which answers without loading a model.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.Version(ctx)
	return err
}

// Version returns the Ollama server version.
func (s *LLMService) Version(ctx context.Context) (string, error) {
	var resp versionResponse
	if err := s.client.Do(ctx, "version", http.MethodGet, "/api/version", nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
