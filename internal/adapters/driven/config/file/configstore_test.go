package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(filepath.Join(t.TempDir(), ConfigFileName))
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_MissingFileIsEmpty(t *testing.T) {
	store := newTestConfigStore(t)

	assert.False(t, store.Exists())
	_, ok := store.Get("qdrant.host")
	assert.False(t, ok)
}

func TestNewConfigStore_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mnemolet", "config.toml"), store.Path())
}

func TestConfigStore_LoadFlattensTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
[qdrant]
host = "qdrant.local"
port = 6334
min_score = 0.5

[ingestion]
pipeline = false
ignore_patterns = ["*.bak", "tmp/"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.True(t, store.Exists())
	assert.Equal(t, "qdrant.local", store.GetString("qdrant.host"))
	assert.Equal(t, 6334, store.GetInt("qdrant.port"))
	assert.InDelta(t, 0.5, store.GetFloat("qdrant.min_score"), 1e-9)
	assert.InDelta(t, 6334.0, store.GetFloat("qdrant.port"), 1e-9)
	assert.False(t, store.GetBool("ingestion.pipeline"))
	assert.Equal(t, []string{"*.bak", "tmp/"}, store.GetStringSlice("ingestion.ignore_patterns"))
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("qdrant.port", "6333"))

	assert.Zero(t, store.GetInt("qdrant.port"))
	assert.Zero(t, store.GetFloat("qdrant.port"))
	assert.False(t, store.GetBool("qdrant.port"))
	assert.Nil(t, store.GetStringSlice("qdrant.port"))
	assert.Equal(t, "6333", store.GetString("qdrant.port"))
}

func TestConfigStore_SetDoesNotPersistUntilSave(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("qdrant.host", "example"))
	assert.False(t, store.Exists())

	require.NoError(t, store.Save())
	assert.True(t, store.Exists())
}

func TestConfigStore_SaveWritesNestedTables(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("qdrant.host", "localhost"))
	require.NoError(t, store.Set("qdrant.port", int64(6333)))
	require.NoError(t, store.Set("server.addr", ":8000"))
	require.NoError(t, store.Save())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[qdrant]")
	assert.Contains(t, string(data), "[server]")

	reloaded, err := NewConfigStore(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "localhost", reloaded.GetString("qdrant.host"))
	assert.Equal(t, 6333, reloaded.GetInt("qdrant.port"))
	assert.Equal(t, ":8000", reloaded.GetString("server.addr"))
}

func TestConfigStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", ConfigFileName)
	store, err := NewConfigStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Set("qdrant.host", "x"))
	require.NoError(t, store.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(path)
	assert.Error(t, err)
}

func TestConfigStore_ResetAndBackup(t *testing.T) {
	store := newTestConfigStore(t)

	backup, err := store.Backup(".bak-1")
	require.NoError(t, err)
	assert.Empty(t, backup)

	require.NoError(t, store.Set("qdrant.host", "old"))
	require.NoError(t, store.Save())

	backup, err = store.Backup(".bak-1")
	require.NoError(t, err)
	assert.Equal(t, store.Path()+".bak-1", backup)

	copied, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Contains(t, string(copied), "old")

	store.Reset()
	_, ok := store.Get("qdrant.host")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestConfigStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("ingestion.batch_size", n)
			_ = store.GetInt("ingestion.batch_size")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("ingestion.batch_size")
	assert.True(t, ok)
}

func TestUnflattenMap(t *testing.T) {
	out := unflattenMap(map[string]any{
		"a.b":   1,
		"a.c":   2,
		"d":     3,
		"e.f.g": 4,
	})

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": 2},
		"d": 3,
		"e": map[string]any{"f": map[string]any{"g": 4}},
	}, out)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c": 2, "d": 3, "e.f.g": 4}, flattenMap(out, ""))
}
