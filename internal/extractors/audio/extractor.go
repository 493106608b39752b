// Package audio transcribes speech with a whisper.cpp command line tool.
package audio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	// DefaultCommand is the whisper.cpp binary looked up on PATH.
	DefaultCommand = "whisper-cli"

	// DefaultBufferChars is how much transcript is accumulated per block.
	DefaultBufferChars = 15000
)

// ErrWhisperNotFound indicates the transcription tool is not installed.
var ErrWhisperNotFound = errors.New("whisper command not found")

// Extractor transcribes audio and groups segments into large blocks.
type Extractor struct {
	runner      driven.CommandRunner
	command     string
	model       string
	bufferChars int
}

// New creates an audio extractor. Empty or zero values take defaults; an
// empty model leaves the choice to the tool.
func New(runner driven.CommandRunner, command, model string, bufferChars int) *Extractor {
	if command == "" {
		command = DefaultCommand
	}
	if bufferChars <= 0 {
		bufferChars = DefaultBufferChars
	}
	return &Extractor{runner: runner, command: command, model: model, bufferChars: bufferChars}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "audio"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".wav", ".mp3"}
}

// Extract transcribes the file and streams segment text. A block is
// released once it reaches the buffer size; the remainder is flushed at the end.
func (e *Extractor) Extract(ctx context.Context, path string) (<-chan string, <-chan error) {
	return textbuf.Stream(ctx, e.Name(), path, func(emit textbuf.EmitFunc) error {
		emit = textbuf.SkipBlank(emit)
		if _, err := e.runner.LookPath(e.command); err != nil {
			return fmt.Errorf("%w: %s", ErrWhisperNotFound, e.command)
		}

		args := []string{"-nt", "-np"}
		if e.model != "" {
			args = append(args, "-m", e.model)
		}
		args = append(args, "-f", path)

		logger.Info("Transcribing %s", path)
		out, err := e.runner.Run(ctx, e.command, args...)
		if err != nil {
			return err
		}

		buf := textbuf.New(e.bufferChars, textbuf.Whole())
		scanner := bufio.NewScanner(bytes.NewReader(out))
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			segment := strings.TrimSpace(scanner.Text())
			if segment == "" {
				continue
			}
			for _, block := range buf.Add(segment + " ") {
				logger.Debug("Audio block: %d chars", len([]rune(block)))
				if err := emit(block); err != nil {
					return err
				}
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		logger.Info("Finished transcription: %s", path)
		return emit(buf.Flush())
	})
}
