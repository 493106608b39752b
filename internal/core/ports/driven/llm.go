// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService generates answer text from a prompt.
// This is an optional service - when nil, answer and chat are unavailable.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
type LLMService interface {
	// GenerateStream produces a completion incrementally. The text channel
	// yields increments in order and is closed when generation ends. The
	// error channel carries at most one error and is closed after the text
	// channel.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan string, <-chan error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is an optional system prompt.
	System string

	// KeepAlive asks the provider to keep the model loaded (Ollama only).
	KeepAlive string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
