package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
)

type stubRunner struct {
	output  string
	missing bool
	args    []string
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.args = append([]string{name}, args...)
	return []byte(r.output), nil
}

func (r *stubRunner) LookPath(name string) (string, error) {
	if r.missing {
		return "", errors.New("not found")
	}
	return "/usr/local/bin/" + name, nil
}

func TestExtractor_Defaults(t *testing.T) {
	e := New(&stubRunner{}, "", "", 0)
	assert.Equal(t, "audio", e.Name())
	assert.Equal(t, []string{".wav", ".mp3"}, e.Extensions())
	assert.Equal(t, DefaultCommand, e.command)
	assert.Equal(t, DefaultBufferChars, e.bufferChars)
}

func TestExtractor_SmallTranscriptIsOneBlock(t *testing.T) {
	runner := &stubRunner{output: " Hello there.\n\n General Kenobi.\n"}
	e := New(runner, "", "/models/ggml-base.bin", 0)

	blocks, err := textbuf.Collect(e.Extract(context.Background(), "/audio/clip.wav"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello there. General Kenobi. "}, blocks)
	assert.Equal(t,
		[]string{"whisper-cli", "-nt", "-np", "-m", "/models/ggml-base.bin", "-f", "/audio/clip.wav"},
		runner.args)
}

func TestExtractor_ReleasesWholeBuffer(t *testing.T) {
	runner := &stubRunner{output: "aaaa\nbbbb\ncc\n"}
	e := New(runner, "", "", 8)

	blocks, err := textbuf.Collect(e.Extract(context.Background(), "/a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa bbbb ", "cc "}, blocks)
}

func TestExtractor_MissingTool(t *testing.T) {
	e := New(&stubRunner{missing: true}, "", "", 0)

	_, err := textbuf.Collect(e.Extract(context.Background(), "/a.wav"))
	assert.ErrorIs(t, err, ErrWhisperNotFound)
}
