package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestExtractor_Metadata(t *testing.T) {
	e := New(0)
	assert.Equal(t, "plaintext", e.Name())
	assert.Equal(t, DefaultChunkSize, e.chunkSize)
	assert.Contains(t, e.Extensions(), ".md")
	assert.Contains(t, e.Extensions(), ".pl")
	assert.Contains(t, e.Extensions(), ".yaml")
}

func TestExtractor_SmallFileIsOneBlock(t *testing.T) {
	path := writeFile(t, "a.txt", []byte("hello world"))

	blocks, err := textbuf.Collect(New(0).Extract(context.Background(), path))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, blocks)
}

func TestExtractor_WhitespaceWindowsAreKept(t *testing.T) {
	content := "abcd    efgh"
	path := writeFile(t, "gap.txt", []byte(content))

	blocks, err := textbuf.Collect(New(4).Extract(context.Background(), path))
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "    ", "efgh"}, blocks)
	assert.Equal(t, content, strings.Join(blocks, ""))
}

func TestExtractor_WindowsNeverSplitCharacters(t *testing.T) {
	content := strings.Repeat("añb€c", 50)
	path := writeFile(t, "u.md", []byte(content))

	blocks, err := textbuf.Collect(New(7).Extract(context.Background(), path))
	require.NoError(t, err)
	require.Greater(t, len(blocks), 1)

	assert.Equal(t, content, strings.Join(blocks, ""))
	for _, b := range blocks {
		assert.LessOrEqual(t, len(b), 7+3)
	}
}

func TestExtractor_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", nil)

	blocks, err := textbuf.Collect(New(0).Extract(context.Background(), path))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestExtractor_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "bin.txt", []byte{'o', 'k', 0xff, 0xfe, 'x'})

	_, err := textbuf.Collect(New(0).Extract(context.Background(), path))

	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, path, extErr.Path)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestExtractor_TruncatedCharacterAtEOF(t *testing.T) {
	path := writeFile(t, "cut.txt", []byte("abc\xe2\x82"))

	_, err := textbuf.Collect(New(2).Extract(context.Background(), path))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := textbuf.Collect(New(0).Extract(context.Background(), "/no/such/file.txt"))

	var extErr *domain.ExtractionError
	assert.ErrorAs(t, err, &extErr)
}

func TestRuneBoundary(t *testing.T) {
	assert.Equal(t, 3, runeBoundary([]byte("abc")))
	assert.Equal(t, 2, runeBoundary([]byte("ab\xe2\x82")))
	assert.Equal(t, 5, runeBoundary([]byte("ab€")))
}
