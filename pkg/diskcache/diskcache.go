// Package diskcache persists cached image bytes on disk using a
// content-addressed, sharded directory layout with atomic writes.
package diskcache

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/readererr"
)

const shardLen = 2

// Cache persists cached image bytes on disk, rooted at a directory.
type Cache struct {
	root string
}

// New creates or reuses a disk cache rooted at the given path.
func New(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, readererr.New(readererr.DiskError, "creating cache root %q: %v", root, err)
	}
	return &Cache{root: root}, nil
}

// Root returns the directory backing the cache.
func (c *Cache) Root() string { return c.root }

// PathFor resolves the on-disk path for an image key: the blake3 hash of
// the cache key, hex-encoded and split into a 2-char/2-char/remainder
// shard tree.
func (c *Cache) PathFor(key coretypes.ImageKey) string {
	sum := blake3.Sum256([]byte(key.CacheKey))
	hexStr := hex.EncodeToString(sum[:])

	shardOne, rest := hexStr[:shardLen], hexStr[shardLen:]
	shardTwo, remainder := rest[:shardLen], rest[shardLen:]

	return filepath.Join(c.root, shardOne, shardTwo, remainder+".bin")
}

// Read returns cached bytes for key, or (nil, false) if absent.
func (c *Cache) Read(key coretypes.ImageKey) ([]byte, bool, error) {
	path := c.PathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, readererr.New(readererr.DiskError, "reading %q: %v", path, err)
	}
	return data, true, nil
}

// Write persists bytes for key, writing to a temp file in the shard
// directory first and renaming into place so readers never observe a
// partial file.
func (c *Cache) Write(key coretypes.ImageKey, bytes []byte) (string, error) {
	path := c.PathFor(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", readererr.New(readererr.DiskError, "creating shard directory %q: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", readererr.New(readererr.DiskError, "allocating temp file in %q: %v", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(bytes); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", readererr.New(readererr.DiskError, "writing %q: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", readererr.New(readererr.DiskError, "flushing %q: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", readererr.New(readererr.DiskError, "closing %q: %v", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", readererr.New(readererr.DiskError, "persisting %q: %v", path, err)
	}

	return path, nil
}

// Remove deletes a cached entry if present; removing an absent entry is
// a no-op, not an error.
func (c *Cache) Remove(key coretypes.ImageKey) error {
	path := c.PathFor(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return readererr.New(readererr.DiskError, "removing %q: %v", path, err)
	}
	return nil
}
