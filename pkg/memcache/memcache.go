// Package memcache is an in-memory LRU cache for decoded or resized
// pages, evicting by total byte budget rather than entry count.
package memcache

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/readererr"
)

// Entry is the cached payload associated with a single page.
type Entry struct {
	Page  coretypes.PageId
	Bytes []byte
}

func (e Entry) cost() int { return len(e.Bytes) }

// Cache is an LRU keyed by ImageKey that evicts based on byte budget
// rather than item count. simplelru.LRU gives the recency list and
// O(1) get/remove/remove-oldest; the byte-budget accounting and
// unbounded capacity (simplelru requires a positive size) are layered
// on top here.
type Cache struct {
	lru       *simplelru.LRU[coretypes.ImageKey, Entry]
	budget    coretypes.CacheBudget
	bytesUsed int64
}

// New constructs a cache with the given memory budget.
func New(budget coretypes.CacheBudget) *Cache {
	c := &Cache{budget: budget}
	// simplelru.NewLRU requires size > 0 even though eviction here is
	// driven entirely by byte budget, not entry count; a very large
	// capacity effectively disables its own count-based eviction.
	lru, _ := simplelru.NewLRU[coretypes.ImageKey, Entry](1<<31-1, nil)
	c.lru = lru
	return c
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.lru.Len() }

// BytesUsed returns total tracked memory consumption.
func (c *Cache) BytesUsed() int64 { return c.bytesUsed }

// Get retrieves an entry, refreshing its recency ordering if present.
func (c *Cache) Get(key coretypes.ImageKey) (Entry, bool) {
	return c.lru.Get(key)
}

// Insert adds or replaces an entry. An entry larger than the cache
// budget is silently skipped rather than wiping out the rest of the
// cache to make room for it.
func (c *Cache) Insert(key coretypes.ImageKey, entry Entry) {
	cost := int64(entry.cost())
	if cost > c.budget.BytesMax {
		return
	}

	if existing, ok := c.lru.Peek(key); ok {
		c.bytesUsed -= int64(existing.cost())
	}

	c.bytesUsed += cost
	c.lru.Add(key, entry)
	c.evictIfNeeded()
}

// Remove deletes an entry if present.
func (c *Cache) Remove(key coretypes.ImageKey) (Entry, bool) {
	entry, ok := c.lru.Peek(key)
	if ok {
		c.bytesUsed -= int64(entry.cost())
		c.lru.Remove(key)
	}
	return entry, ok
}

// Retain marks an entry as recently used and verifies it still belongs
// to the expected page. Returns (false, nil) on a cache miss. A
// CacheAliasing error means the same cache key now resolves to a
// different page than the caller expected, which must never happen and
// indicates a key-derivation bug upstream.
func (c *Cache) Retain(key coretypes.ImageKey, page coretypes.PageId) (bool, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}
	if entry.Page != page {
		return false, readererr.New(readererr.CacheAliasing,
			"cache key %q mapped to page %+v but was retained for %+v", key.CacheKey, entry.Page, page)
	}
	return true, nil
}

func (c *Cache) evictIfNeeded() {
	for c.bytesUsed > c.budget.BytesMax {
		_, oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		c.bytesUsed -= int64(oldest.cost())
	}
}
