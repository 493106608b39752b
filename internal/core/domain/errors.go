package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension with no registered extractor.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrServiceNotConfigured indicates a command ran without its service wired.
	ErrServiceNotConfigured = errors.New("service not configured")

	// Provider Errors.

	// ErrLLMUnavailable indicates the LLM provider is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is unreachable.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// Collection Errors.

	// ErrDimensionMismatch indicates an embedding size differs from the collection's
	// vector size. The collection must be recreated.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCollectionExists indicates a create call hit an existing collection.
	ErrCollectionExists = errors.New("collection already exists")
)

// ExtractionError is a per-file failure while turning a file into text.
// The ingestion run logs it and moves on to the next file.
type ExtractionError struct {
	Path      string
	Extractor string
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Extractor != "" {
		return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Extractor, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NetworkError means an embedding, vector store, or LLM call did not complete.
type NetworkError struct {
	Service string
	Op      string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	kind := "unreachable"
	if e.Timeout {
		kind = "timed out"
	}
	return fmt.Sprintf("%s %s %s: %v", e.Service, e.Op, kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a malformed response from a provider. It is never retried.
type DecodeError struct {
	Service string
	Op      string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: malformed response: %v", e.Service, e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsTransient reports whether err is a provider timeout that the caller did
// not cause by cancelling its own context.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Timeout
}
