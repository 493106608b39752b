// Package textbuf accumulates extracted text into bounded blocks and
// streams them to consumers.
package textbuf

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// Buffer accumulates text and releases it in blocks of size characters.
type Buffer struct {
	size  int
	whole bool
	sb    strings.Builder
	runes int
}

// Option configures a Buffer.
type Option func(*Buffer)

// Whole releases the entire accumulated text once it reaches size, instead
// of cutting it into pieces of exactly size characters.
func Whole() Option {
	return func(b *Buffer) { b.whole = true }
}

// New creates a buffer releasing blocks of size characters.
func New(size int, opts ...Option) *Buffer {
	b := &Buffer{size: size}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends s and returns any blocks that are now complete.
func (b *Buffer) Add(s string) []string {
	b.sb.WriteString(s)
	b.runes += utf8.RuneCountInString(s)
	if b.size <= 0 || b.runes < b.size {
		return nil
	}

	text := b.sb.String()
	b.sb.Reset()
	b.runes = 0

	if b.whole {
		return []string{text}
	}

	var out []string
	count, start := 0, 0
	for i := range text {
		if count == b.size {
			out = append(out, text[start:i])
			start, count = i, 0
		}
		count++
	}
	rest := text[start:]
	if count == b.size {
		out = append(out, rest)
		return out
	}
	b.sb.WriteString(rest)
	b.runes = count
	return out
}

// Flush returns whatever remains and empties the buffer.
func (b *Buffer) Flush() string {
	text := b.sb.String()
	b.sb.Reset()
	b.runes = 0
	return text
}

// Len returns the number of buffered characters.
func (b *Buffer) Len() int {
	return b.runes
}

// EmitFunc hands one block to the consumer. It fails only when the
// consumer's context is done.
type EmitFunc func(block string) error

// SkipBlank wraps emit so that whitespace-only blocks are dropped. Document
// extractors use it; plain text keeps every window so the blocks join back
// into the file.
func SkipBlank(emit EmitFunc) EmitFunc {
	return func(block string) error {
		if strings.TrimSpace(block) == "" {
			return nil
		}
		return emit(block)
	}
}

// Stream runs produce in a goroutine and exposes its blocks as a channel.
// Empty blocks are dropped. Errors other than cancellation are
// wrapped in a *domain.ExtractionError naming extractor and path.
func Stream(
	ctx context.Context, extractor, path string, produce func(emit EmitFunc) error,
) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		emit := func(block string) error {
			if block == "" {
				return nil
			}
			select {
			case out <- block:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := produce(emit)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			errs <- err
			return
		}
		var extErr *domain.ExtractionError
		if !errors.As(err, &extErr) {
			err = &domain.ExtractionError{Path: path, Extractor: extractor, Err: err}
		}
		errs <- err
	}()

	return out, errs
}

// Collect drains a block stream into a slice. Intended for tests and small inputs.
func Collect(blocks <-chan string, errs <-chan error) ([]string, error) {
	var out []string
	for b := range blocks {
		out = append(out, b)
	}
	return out, <-errs
}
