// Package chunker splits extracted text into fixed-size chunks.
package chunker

import (
	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// DefaultMaxLength is the default number of characters per chunk.
const DefaultMaxLength = 3000

// Chunker splits blocks into chunks of at most maxLength characters.
// Chunks never overlap and ignore word boundaries.
type Chunker struct {
	maxLength int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxLength sets the chunk length in characters.
func WithMaxLength(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxLength returns the configured chunk length.
func (c *Chunker) MaxLength() int {
	return c.maxLength
}

// Chunk splits a block into chunks tagged with the block's path and hash.
// Indexes are numbered from start so that a file's blocks share one sequence.
func (c *Chunker) Chunk(block domain.ExtractedBlock, start int) []domain.Chunk {
	parts := Split(block.Text, c.maxLength)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = domain.Chunk{
			Path:  block.Path,
			Hash:  block.Hash,
			Text:  text,
			Index: start + i,
		}
	}
	return chunks
}

// Split cuts text at fixed character (rune) offsets. Concatenating the
// result yields text again and only the last part may be shorter than
// maxLength. A non-positive maxLength returns text as a single part.
func Split(text string, maxLength int) []string {
	if text == "" {
		return nil
	}
	if maxLength <= 0 {
		return []string{text}
	}

	parts := make([]string, 0, len(text)/maxLength+1)
	count := 0
	start := 0
	for i := range text {
		if count == maxLength {
			parts = append(parts, text[start:i])
			start = i
			count = 0
		}
		count++
	}
	return append(parts, text[start:])
}
