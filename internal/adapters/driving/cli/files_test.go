package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

func TestFilesCmd_ListsRecords(t *testing.T) {
	ts := setupTestServices(t)
	ts.files.files = []domain.FileRecord{
		{Path: "/docs/a.txt", Hash: "0123456789abcdef0123", IngestedAt: time.Now(), Indexed: true},
		{Path: "/docs/b.pdf", Hash: "fedcba", IngestedAt: time.Now()},
	}

	out, err := executeCommand(t, "", "files")

	require.NoError(t, err)
	require.Len(t, ts.files.filters, 1)
	assert.Nil(t, ts.files.filters[0])
	assert.Contains(t, out, "indexed")
	assert.Contains(t, out, "0123456789ab  /docs/a.txt")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "fedcba  /docs/b.pdf")
}

func TestFilesCmd_Filters(t *testing.T) {
	tests := []struct {
		flag string
		want bool
	}{
		{flag: "--indexed", want: true},
		{flag: "--pending", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			ts := setupTestServices(t)

			_, err := executeCommand(t, "", "files", tt.flag)

			require.NoError(t, err)
			require.Len(t, ts.files.filters, 1)
			require.NotNil(t, ts.files.filters[0])
			assert.Equal(t, tt.want, *ts.files.filters[0])
		})
	}
}

func TestFilesCmd_FiltersAreExclusive(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "", "files", "--indexed", "--pending")

	assert.Error(t, err)
}

func TestFilesCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "files")

	require.NoError(t, err)
	assert.Contains(t, out, "No files.")
}
