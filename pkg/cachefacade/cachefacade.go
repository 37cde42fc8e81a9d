// Package cachefacade coordinates the byte-budgeted memory cache and the
// durable disk store, publishing usage to the stats collector and
// deduplicating concurrent producers for the same key.
package cachefacade

import (
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/diskcache"
	"github.com/localcomicreader/readerd/pkg/memcache"
	"github.com/localcomicreader/readerd/pkg/stats"
)

// CachedImage is the bytes plus content-type returned by FetchRaw.
type CachedImage struct {
	Bytes []byte
	Mime  string
}

type indexEntry struct {
	mime string
	size int64
}

// Cache coordinates a memory-cache fast path (C8) over a durable
// content-addressed disk store (C7), reporting usage to a
// stats.Collector (C10) and deduplicating concurrent production of the
// same key via singleflight.
type Cache struct {
	disk *diskcache.Cache
	mem  *memcache.Cache

	stats       *stats.Collector
	diskBudget  int64

	mu    sync.Mutex
	index map[string]indexEntry

	totalBytes int64

	group singleflight.Group
}

// New constructs a cache façade rooted at dir, bounding in-memory usage
// by memBudget and reporting to collector.
func New(dir string, memBudget coretypes.CacheBudget, collector *stats.Collector) (*Cache, error) {
	disk, err := diskcache.New(dir)
	if err != nil {
		return nil, err
	}
	return &Cache{
		disk:       disk,
		mem:        memcache.New(memBudget),
		stats:      collector,
		diskBudget: memBudget.BytesMax,
		index:      make(map[string]indexEntry),
	}, nil
}

// Root returns the backing disk directory.
func (c *Cache) Root() string { return c.disk.Root() }

// PathForKey returns the deterministic on-disk path for key.
func (c *Cache) PathForKey(key string) string {
	return c.disk.PathFor(coretypes.NewImageKey(key))
}

// EnsureBytes guarantees key is present on disk for page, invoking
// produce at most once across all concurrent callers for the same key.
// Freshly produced bytes are also inserted into the memory cache for
// page. If the on-disk file already exists, produce is never called and
// the memory cache is left unchanged.
func (c *Cache) EnsureBytes(key, mime string, page coretypes.PageId, produce func() ([]byte, error)) error {
	imageKey := coretypes.NewImageKey(key)

	if c.diskPathExists(key) {
		c.recordExistingEntry(key, mime)
		c.stats.RecordCacheLookup(true)
		return nil
	}

	_, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the single-flight group: a sibling call may
		// have produced the bytes while this goroutine was queued.
		if c.diskPathExists(key) {
			c.recordExistingEntry(key, mime)
			c.stats.RecordCacheLookup(true)
			return nil, nil
		}

		bytes, err := produce()
		if err != nil {
			return nil, err
		}

		if _, err := c.disk.Write(imageKey, bytes); err != nil {
			return nil, err
		}
		c.stats.RecordCacheLookup(false)
		c.mem.Insert(imageKey, memcache.Entry{Page: page, Bytes: bytes})

		size := int64(len(bytes))
		c.mu.Lock()
		previous, hadPrevious := c.index[key]
		c.index[key] = indexEntry{mime: mime, size: size}
		c.mu.Unlock()

		prevSize := int64(0)
		if hadPrevious {
			prevSize = previous.size
		}
		c.adjustTotalBytes(prevSize, size)
		c.publishUsage()

		return nil, nil
	})
	return err
}

// FetchRaw returns the cached bytes and mime for key without verifying
// page ownership. Intended for the img:// protocol route, which only
// ever has the opaque key to go on (the PageId that produced it is not
// recoverable from the URL alone).
func (c *Cache) FetchRaw(key string) (CachedImage, bool, error) {
	imageKey := coretypes.NewImageKey(key)

	if entry, ok := c.mem.Get(imageKey); ok {
		c.stats.RecordCacheLookup(true)
		return CachedImage{Bytes: entry.Bytes, Mime: c.mimeFor(key, len(entry.Bytes))}, true, nil
	}

	bytes, ok, err := c.disk.Read(imageKey)
	if err != nil {
		return CachedImage{}, false, err
	}
	if !ok {
		c.stats.RecordCacheLookup(false)
		return CachedImage{}, false, nil
	}

	c.stats.RecordCacheLookup(true)
	mime := c.mimeFor(key, len(bytes))
	return CachedImage{Bytes: bytes, Mime: mime}, true, nil
}

func (c *Cache) mimeFor(key string, sizeHint int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.index[key]; ok {
		return entry.mime
	}

	// No prior ensure_bytes/fetch call observed this key's mime type
	// (e.g. a pre-warmed cache directory): record it as a fallback
	// type rather than guessing from content, since disk files carry
	// no mime metadata of their own.
	mime := "application/octet-stream"
	c.index[key] = indexEntry{mime: mime, size: int64(sizeHint)}
	c.adjustTotalBytesLocked(0, int64(sizeHint))
	return mime
}

func (c *Cache) diskPathExists(key string) bool {
	_, err := os.Stat(c.disk.PathFor(coretypes.NewImageKey(key)))
	return err == nil
}

func (c *Cache) recordExistingEntry(key, mime string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.index[key]; ok {
		entry.mime = mime
		c.index[key] = entry
		return
	}

	path := c.disk.PathFor(coretypes.NewImageKey(key))
	size := int64(0)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	c.index[key] = indexEntry{mime: mime, size: size}
	c.adjustTotalBytesLocked(0, size)
	c.publishUsageLocked()
}

func (c *Cache) adjustTotalBytes(previous, current int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adjustTotalBytesLocked(previous, current)
}

func (c *Cache) adjustTotalBytesLocked(previous, current int64) {
	c.totalBytes += current - previous
}

func (c *Cache) publishUsage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishUsageLocked()
}

func (c *Cache) publishUsageLocked() {
	c.stats.UpdateCacheUsage(uint64(c.totalBytes), uint64(c.diskBudget))
}
