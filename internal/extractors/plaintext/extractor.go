// Package plaintext extracts UTF-8 text and source files.
package plaintext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultChunkSize is the default read window in bytes.
const DefaultChunkSize = 1 << 20

// ErrInvalidUTF8 indicates the file is not valid UTF-8 text.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

var extensions = []string{
	".txt", ".log", ".conf", ".ini", ".json", ".yml", ".yaml", ".toml",
	".py", ".js", ".ts", ".java", ".cpp", ".c", ".h", ".hpp", ".rs", ".go",
	".sh", ".bash", ".ps1", ".rb", ".php", ".pl",
	".md", ".html", ".xml", ".csv", ".tsv", ".css",
	".rst", ".tex", ".jinja", ".jinja2", ".tpl",
}

// Extractor reads text files in windows of chunkSize bytes.
type Extractor struct {
	chunkSize int
}

// New creates a plain text extractor. A non-positive chunkSize uses the default.
func New(chunkSize int) *Extractor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Extractor{chunkSize: chunkSize}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return extensions
}

// Extract streams the file in windows that never split a character.
func (e *Extractor) Extract(ctx context.Context, path string) (<-chan string, <-chan error) {
	return textbuf.Stream(ctx, e.Name(), path, func(emit textbuf.EmitFunc) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return e.read(f, emit)
	})
}

func (e *Extractor) read(r io.Reader, emit textbuf.EmitFunc) error {
	buf := make([]byte, e.chunkSize+utf8.UTFMax)
	carry := 0
	var offset int64

	for {
		n, err := io.ReadFull(r, buf[carry:carry+e.chunkSize])
		total := carry + n
		final := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !final {
			return err
		}
		if total == 0 {
			return nil
		}

		cut := total
		if !final {
			cut = runeBoundary(buf[:total])
		}
		window := buf[:cut]
		if !utf8.Valid(window) {
			return fmt.Errorf("%w near byte %d", ErrInvalidUTF8, offset)
		}
		if err := emit(string(window)); err != nil {
			return err
		}

		offset += int64(cut)
		carry = copy(buf, buf[cut:total])
		if final {
			if carry > 0 {
				return fmt.Errorf("%w near byte %d", ErrInvalidUTF8, offset)
			}
			return nil
		}
	}
}

// runeBoundary returns the length of the longest prefix of b that does not
// end inside a multi-byte character.
func runeBoundary(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
