package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PersistsIndexesAndRoots(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.Indexes())

	require.NoError(t, store.AddIndex("/idx/a"))
	require.NoError(t, store.AddRoot("/idx/a", "/home/u/photos"))
	require.NoError(t, store.AddRoot("/idx/a", "/home/u/docs"))
	require.NoError(t, store.AddRoot("/idx/a", "/home/u/docs"))
	require.NoError(t, store.AddRoot("/idx/b", "/srv"))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []IndexEntry{
		{Path: "/idx/a", Roots: []string{"/home/u/docs", "/home/u/photos"}},
		{Path: "/idx/b", Roots: []string{"/srv"}},
	}, reopened.Indexes())
	assert.True(t, reopened.HasIndex("/idx/b"))
}

func TestStore_RemoveRootAndIndex(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.AddRoot("/idx", "/one"))
	require.NoError(t, store.AddRoot("/idx", "/two"))

	require.NoError(t, store.RemoveRoot("/idx", "/one"))
	require.NoError(t, store.RemoveRoot("/idx", "/missing"))
	require.NoError(t, store.RemoveRoot("/unknown", "/one"))
	assert.Equal(t, []string{"/two"}, store.Roots("/idx"))

	require.NoError(t, store.ResetIndex("/idx"))
	assert.Empty(t, store.Roots("/idx"))
	assert.True(t, store.HasIndex("/idx"))

	require.NoError(t, store.RemoveIndex("/idx"))
	assert.False(t, store.HasIndex("/idx"))
	assert.Nil(t, store.Roots("/idx"))
}

func TestStore_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("index = [[["), 0o600))
	_, err := NewStore(dir)
	assert.Error(t, err)
}

func TestStore_IndexesReturnsCopies(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.AddRoot("/idx", "/one"))

	entries := store.Indexes()
	entries[0].Roots[0] = "/mutated"
	assert.Equal(t, []string{"/one"}, store.Roots("/idx"))
}
