package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/storage/memory"
)

func TestFileTracker_List(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFileStore()
	require.NoError(t, store.AddFile(ctx, "/docs/a.txt", "hash-a"))
	require.NoError(t, store.AddFile(ctx, "/docs/b.txt", "hash-b"))
	require.NoError(t, store.MarkIndexed(ctx, "hash-a"))

	tracker := NewFileTracker(store)
	indexed, pending := true, false

	all, err := tracker.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, err := tracker.List(ctx, &indexed)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "/docs/a.txt", done[0].Path)
	assert.True(t, done[0].Indexed)

	waiting, err := tracker.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "/docs/b.txt", waiting[0].Path)
}
