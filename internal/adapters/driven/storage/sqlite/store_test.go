package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory with a
// deterministic clock that advances one second per call.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "nested", DefaultFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return store
}

func boolPtr(b bool) *bool { return &b }

func TestNewStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "files.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.FileStore().AddFile(ctx, "/docs/a.txt", "h1"))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	exists, err := reopened.FileStore().FileExists(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, exists)

	var version int
	require.NoError(t, reopened.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestFileStore_AddAndLookup(t *testing.T) {
	store := setupTestStore(t)
	files := store.FileStore()
	ctx := context.Background()

	exists, err := files.FileExists(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, files.AddFile(ctx, "/docs/a.txt", "h1"))

	exists, err = files.FileExists(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, exists)

	rec, err := files.GetByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "/docs/a.txt", rec.Path)
	assert.Equal(t, "h1", rec.Hash)
	assert.False(t, rec.Indexed)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), rec.IngestedAt.UTC())
}

func TestFileStore_GetByHashMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.FileStore().GetByHash(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileStore_AddFileReplacesAndResetsIndexed(t *testing.T) {
	store := setupTestStore(t)
	files := store.FileStore()
	ctx := context.Background()

	require.NoError(t, files.AddFile(ctx, "/docs/a.txt", "h1"))
	require.NoError(t, files.MarkIndexed(ctx, "h1"))
	require.NoError(t, files.AddFile(ctx, "/docs/a.txt", "h2"))

	all, err := files.ListFiles(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "h2", all[0].Hash)
	assert.False(t, all[0].Indexed)

	exists, err := files.FileExists(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_MarkIndexedAllMatchingRecords(t *testing.T) {
	store := setupTestStore(t)
	files := store.FileStore()
	ctx := context.Background()

	require.NoError(t, files.AddFile(ctx, "/docs/a.txt", "same"))
	require.NoError(t, files.AddFile(ctx, "/copy/a.txt", "same"))
	require.NoError(t, files.AddFile(ctx, "/docs/b.txt", "other"))
	require.NoError(t, files.MarkIndexed(ctx, "same"))

	indexed, err := files.ListFiles(ctx, boolPtr(true))
	require.NoError(t, err)
	assert.Len(t, indexed, 2)

	pending, err := files.ListFiles(ctx, boolPtr(false))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "/docs/b.txt", pending[0].Path)
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	files := store.FileStore()
	ctx := context.Background()

	for _, p := range []string{"/1", "/2", "/3"} {
		require.NoError(t, files.AddFile(ctx, p, "h"+p))
	}

	all, err := files.ListFiles(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"/3", "/2", "/1"}, []string{all[0].Path, all[1].Path, all[2].Path})
}

func TestFileStore_ListEmpty(t *testing.T) {
	store := setupTestStore(t)

	all, err := store.FileStore().ListFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestChatHistoryStore_SessionsAndMessages(t *testing.T) {
	store := setupTestStore(t)
	chat := store.ChatHistoryStore()
	ctx := context.Background()

	first, err := chat.CreateSession(ctx)
	require.NoError(t, err)
	second, err := chat.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = chat.AddMessage(ctx, first.ID, domain.RoleUser, "hello")
	require.NoError(t, err)
	reply, err := chat.AddMessage(ctx, first.ID, domain.RoleAssistant, "hi there")
	require.NoError(t, err)
	assert.Equal(t, first.ID, reply.SessionID)

	msgs, err := chat.GetMessages(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Text)

	empty, err := chat.GetMessages(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	sessions, err := chat.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)

	limited, err := chat.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)
}

func TestChatHistoryStore_UnknownSession(t *testing.T) {
	store := setupTestStore(t)
	chat := store.ChatHistoryStore()
	ctx := context.Background()

	_, err := chat.AddMessage(ctx, 42, domain.RoleUser, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = chat.GetMessages(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatHistoryStore_RejectsUnknownRole(t *testing.T) {
	store := setupTestStore(t)
	chat := store.ChatHistoryStore()
	ctx := context.Background()

	session, err := chat.CreateSession(ctx)
	require.NoError(t, err)

	_, err = chat.AddMessage(ctx, session.ID, domain.Role("system"), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
