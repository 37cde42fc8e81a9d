package diskcache

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
)

func TestWriteThenRead_RoundTrip(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	key := coretypes.NewImageKey("example::key")
	bytes := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	_, err = cache.Write(key, bytes)
	require.NoError(t, err)

	readBack, ok, err := cache.Read(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bytes, readBack)
}

func TestRead_MissingEntryReturnsFalse(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok, err := cache.Read(coretypes.NewImageKey("does::not::exist"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemove_IsIdempotent(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	key := coretypes.NewImageKey("to::remove")
	_, err = cache.Write(key, []byte{1, 2, 3, 4})
	require.NoError(t, err)

	require.NoError(t, cache.Remove(key))
	require.NoError(t, cache.Remove(key)) // second deletion is a no-op

	_, ok, err := cache.Read(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_UsesShardedDirectories(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	key := coretypes.NewImageKey("shard::me")
	path, err := cache.Write(key, []byte{9, 9, 9, 9})
	require.NoError(t, err)

	relative, err := filepath.Rel(cache.Root(), path)
	require.NoError(t, err)

	parts := strings.Split(filepath.ToSlash(relative), "/")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], shardLen)
	assert.Len(t, parts[1], shardLen)
	assert.True(t, strings.HasSuffix(parts[2], ".bin"))
}
