// Package anthropic provides an LLM service adapter using the Anthropic
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/httpx"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
	serviceName      = "anthropic"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout bounds a whole generation (default: 120s).
	Timeout time.Duration
}

// LLMService streams answers through the messages API.
type LLMService struct {
	client *anthropic.Client
	// rest serves the model listing used by Ping.
	rest  *httpx.Client
	model string
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigError{Key: "llm.api_key", Message: "required for anthropic"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	rest := httpx.New(serviceName, base, cfg.Timeout)
	rest.Header.Set("x-api-key", cfg.APIKey)
	rest.Header.Set("anthropic-version", anthropicVersion)

	return &LLMService{
		client: anthropic.NewClient(cfg.APIKey,
			anthropic.WithBaseURL(base+"/v1"),
			anthropic.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		),
		rest:  rest,
		model: cfg.Model,
	}, nil
}

// GenerateStream sends the prompt as one user message and yields text deltas.
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
	req := anthropic.MessagesStreamRequest{MessagesRequest: s.request(prompt, opts)}

	// Callbacks run synchronously inside CreateMessagesStream.
	var streamErr error
	req.OnError = func(resp anthropic.ErrorResponse) {
		if streamErr == nil {
			streamErr = fmt.Errorf("%s: %v", resp.Type, resp.Error)
		}
	}
	req.OnContentBlockDelta = func(delta anthropic.MessagesEventContentBlockDeltaData) {
		if delta.Delta.Type != "text_delta" || delta.Delta.Text == nil || *delta.Delta.Text == "" {
			return
		}
		select {
		case out <- *delta.Delta.Text:
		case <-ctx.Done():
		}
	}

	if _, err := s.client.CreateMessagesStream(ctx, req); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return httpx.Wrap(serviceName, "stream", err)
	}
	if streamErr != nil {
		return httpx.Wrap(serviceName, "stream", streamErr)
	}
	return ctx.Err()
}

func (s *LLMService) request(prompt string, opts driven.GenerateOptions) anthropic.MessagesRequest {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	req := anthropic.MessagesRequest{
		Model: anthropic.Model(s.model),
		Messages: []anthropic.Message{{
			Role:    anthropic.RoleUser,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(prompt)},
		}},
		MaxTokens: maxTokens,
	}
	if opts.System != "" {
		req.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: opts.System}}
	}
	if opts.Temperature > 0 {
		temperature := float32(opts.Temperature)
		req.Temperature = &temperature
	}
	return req
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key against the /v1/models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.rest.Do(ctx, "ping", http.MethodGet, "/v1/models", nil, nil)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
