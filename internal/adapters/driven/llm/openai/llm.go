// Package openai provides an LLM service adapter using the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/httpx"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

const serviceName = "openai"

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout bounds a whole generation (default: 120s).
	Timeout time.Duration
}

// LLMService streams chat completions.
type LLMService struct {
	client *openai.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigError{Key: "llm.api_key", Message: "required for openai"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

// GenerateStream sends the prompt as a single user message, preceded by the
// system prompt when one is given, and yields content deltas.
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
	stream, err := s.client.CreateChatCompletionStream(ctx, s.request(prompt, opts))
	if err != nil {
		return httpx.Wrap(serviceName, "stream", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return httpx.Wrap(serviceName, "stream", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		if text := response.Choices[0].Delta.Content; text != "" {
			select {
			case out <- text:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *LLMService) request(prompt string, opts driven.GenerateOptions) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:  s.model,
		Stream: true,
	}
	if opts.System != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
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

// Ping validates the API key by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return httpx.Wrap(serviceName, "ping", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
