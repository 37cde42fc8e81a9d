package memcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
)

func page(index uint32) coretypes.PageId {
	return coretypes.PageId{SourceId: coretypes.SourceId("src"), Index: index}
}

func TestInsertAndGet(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 1024})
	key := coretypes.NewImageKey("k1")
	c.Insert(key, Entry{Page: page(0), Bytes: []byte{1, 2, 3}})

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, entry.Bytes)
	assert.Equal(t, int64(3), c.BytesUsed())
}

func TestInsert_OversizedEntrySkipped(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 2})
	key := coretypes.NewImageKey("k1")
	c.Insert(key, Entry{Page: page(0), Bytes: []byte{1, 2, 3, 4}})

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.BytesUsed())
}

func TestEvictsLeastRecentlyUsedWhenOverBudget(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 10})
	c.Insert(coretypes.NewImageKey("a"), Entry{Page: page(0), Bytes: make([]byte, 5)})
	c.Insert(coretypes.NewImageKey("b"), Entry{Page: page(1), Bytes: make([]byte, 5)})

	// touch "a" so "b" becomes the least recently used entry.
	_, _ = c.Get(coretypes.NewImageKey("a"))

	c.Insert(coretypes.NewImageKey("c"), Entry{Page: page(2), Bytes: make([]byte, 5)})

	_, aOk := c.Get(coretypes.NewImageKey("a"))
	_, bOk := c.Get(coretypes.NewImageKey("b"))
	_, cOk := c.Get(coretypes.NewImageKey("c"))
	assert.True(t, aOk)
	assert.False(t, bOk)
	assert.True(t, cOk)
}

func TestRemove(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 1024})
	key := coretypes.NewImageKey("k1")
	c.Insert(key, Entry{Page: page(0), Bytes: []byte{1, 2, 3}})

	entry, ok := c.Remove(key)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, entry.Bytes)
	assert.Equal(t, int64(0), c.BytesUsed())

	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestRetain_MissReturnsFalse(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 1024})
	ok, err := c.Retain(coretypes.NewImageKey("missing"), page(0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRetain_HitMatchesPage(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 1024})
	key := coretypes.NewImageKey("k1")
	c.Insert(key, Entry{Page: page(0), Bytes: []byte{1}})

	ok, err := c.Retain(key, page(0))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRetain_MismatchReturnsCacheAliasingError(t *testing.T) {
	c := New(coretypes.CacheBudget{BytesMax: 1024})
	key := coretypes.NewImageKey("k1")
	c.Insert(key, Entry{Page: page(0), Bytes: []byte{1}})

	_, err := c.Retain(key, page(1))
	require.Error(t, err)
}
