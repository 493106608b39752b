// Package pdf extracts text from PDF files using the poppler pdftotext tool.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultCommand is the pdftotext binary looked up on PATH.
const DefaultCommand = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found")

// Extractor converts PDFs page by page and accumulates pages into blocks.
type Extractor struct {
	runner    driven.CommandRunner
	command   string
	chunkSize int
}

// New creates a PDF extractor. An empty command uses DefaultCommand.
func New(runner driven.CommandRunner, command string, chunkSize int) *Extractor {
	if command == "" {
		command = DefaultCommand
	}
	return &Extractor{runner: runner, command: command, chunkSize: chunkSize}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// CheckAvailable returns ErrPDFToolNotFound if the command is not on PATH.
func (e *Extractor) CheckAvailable() error {
	if _, err := e.runner.LookPath(e.command); err != nil {
		return fmt.Errorf("%w: %s", ErrPDFToolNotFound, e.command)
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler-utils:
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils
  macOS:         brew install poppler`
}

// Extract runs pdftotext and streams pages accumulated to chunkSize characters.
func (e *Extractor) Extract(ctx context.Context, path string) (<-chan string, <-chan error) {
	return textbuf.Stream(ctx, e.Name(), path, func(emit textbuf.EmitFunc) error {
		emit = textbuf.SkipBlank(emit)
		if err := e.CheckAvailable(); err != nil {
			return err
		}

		out, err := e.runner.Run(ctx, e.command, "-layout", "-enc", "UTF-8", path, "-")
		if err != nil {
			return err
		}

		buf := textbuf.New(e.chunkSize)
		for _, page := range strings.Split(string(out), "\f") {
			if strings.TrimSpace(page) == "" {
				continue
			}
			for _, block := range buf.Add(page + "\n") {
				if err := emit(block); err != nil {
					return err
				}
			}
		}
		return emit(buf.Flush())
	})
}
