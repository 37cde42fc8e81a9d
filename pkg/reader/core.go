// Package reader wires the enumerator, decoder, cache, and scheduler
// into the operation set the shell (HTTP daemon, CLI, tests) drives.
package reader

import (
	"bytes"
	"image"
	"image/png"
	"os"

	"sync"

	"github.com/robinjoseph08/golib/logger"

	"github.com/localcomicreader/readerd/pkg/cachefacade"
	"github.com/localcomicreader/readerd/pkg/comicinfo"
	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/enumsrc"
	"github.com/localcomicreader/readerd/pkg/imagedecode"
	"github.com/localcomicreader/readerd/pkg/natural"
	"github.com/localcomicreader/readerd/pkg/prefetch"
	"github.com/localcomicreader/readerd/pkg/progress"
	"github.com/localcomicreader/readerd/pkg/readererr"
	"github.com/localcomicreader/readerd/pkg/stats"
)

// PerfStats is the external snapshot returned by Stats, composing the
// raw collector snapshot with a census of open sources.
type PerfStats struct {
	Snapshot      stats.Snapshot `json:"snapshot"`
	ActiveSources int            `json:"active_sources"`
	CachedPages   int            `json:"cached_pages"`
}

type sourceEntry struct {
	source enumsrc.Source
	pages  []coretypes.PageMeta
	meta   coretypes.SeriesMeta
}

// Core owns every opened source and coordinates the enumerator, decode
// pipeline, cache façade, prefetch scheduler, and progress store behind
// a single mutex protecting its source table.
type Core struct {
	cache    *cachefacade.Cache
	stats    *stats.Collector
	queue    *prefetch.Queue
	progress *progress.Store
	log      logger.Logger

	mu      sync.Mutex
	sources map[coretypes.SourceId]*sourceEntry
}

// New constructs a Core rooted at cacheDir, bounding in-memory usage by
// memBudget and persisting progress through store.
func New(cacheDir string, memBudget coretypes.CacheBudget, store *progress.Store) (*Core, error) {
	collector := stats.New()
	cache, err := cachefacade.New(cacheDir, memBudget, collector)
	if err != nil {
		return nil, err
	}
	return &Core{
		cache:    cache,
		stats:    collector,
		queue:    prefetch.New(),
		progress: store,
		log:      logger.New(),
		sources:  make(map[coretypes.SourceId]*sourceEntry),
	}, nil
}

// Cache exposes the underlying façade, for the img:// protocol route.
func (c *Core) Cache() *cachefacade.Cache { return c.cache }

// OpenPath enumerates path as a new source: "demo-bundle" reserves the
// synthetic 5-page Mock source; a directory becomes a FolderSource; a
// .zip/.cbz file becomes an ArchiveSource; any other supported image
// file becomes a one-page SingleFileSource.
func (c *Core) OpenPath(path string) (coretypes.SourceId, error) {
	id := coretypes.NewSourceId()

	if path == "demo-bundle" {
		pages := enumsrc.MockPages(id, path)
		c.register(id, &sourceEntry{source: &enumsrc.MockSource{}, pages: pages})
		return id, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", readererr.New(readererr.SourceUnreadable, "%q: %v", path, err)
	}

	switch {
	case info.IsDir():
		src, pages, err := enumsrc.OpenFolder(path, id)
		if err != nil {
			return "", err
		}
		c.register(id, &sourceEntry{source: src, pages: pages})
		return id, nil

	case isSupportedArchive(path):
		src, pages, err := enumsrc.OpenArchive(path, id)
		if err != nil {
			return "", err
		}
		entry := &sourceEntry{source: src, pages: pages}
		if data, ok, err := enumsrc.ReadComicInfo(src); err == nil && ok {
			if meta, err := comicinfo.Parse(bytes.NewReader(data)); err == nil {
				entry.meta = meta
			}
		}
		c.register(id, entry)
		return id, nil

	case natural.IsSupportedImage(path):
		src, pages, err := enumsrc.OpenSingleFile(path, id)
		if err != nil {
			return "", err
		}
		c.register(id, &sourceEntry{source: src, pages: pages})
		return id, nil

	default:
		return "", readererr.New(readererr.Unsupported,
			"unsupported path %q: select a folder, an image file, or a CBZ/ZIP archive", path)
	}
}

func (c *Core) register(id coretypes.SourceId, entry *sourceEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[id] = entry
}

// ListPages returns the enumerated pages for source, in natural order.
func (c *Core) ListPages(source coretypes.SourceId) ([]coretypes.PageMeta, error) {
	entry, ok := c.lookup(source)
	if !ok {
		return nil, readererr.New(readererr.NotFound, "unknown source %q", source)
	}
	pages := make([]coretypes.PageMeta, len(entry.pages))
	copy(pages, entry.pages)
	return pages, nil
}

// SeriesMeta returns the best-effort ComicInfo.xml metadata for source,
// if any archive sidecar was present at OpenPath time.
func (c *Core) SeriesMeta(source coretypes.SourceId) (coretypes.SeriesMeta, error) {
	entry, ok := c.lookup(source)
	if !ok {
		return coretypes.SeriesMeta{}, readererr.New(readererr.NotFound, "unknown source %q", source)
	}
	return entry.meta, nil
}

// GetPageURL ensures the decoded, orientation- and color-corrected bytes
// for page are cached, and returns the asset URL naming them. RenderParams
// does not influence the produced bytes or the cache key: the same page
// always decodes to the same artifact regardless of viewport.
func (c *Core) GetPageURL(page coretypes.PageId, _ coretypes.RenderParams) (string, error) {
	entry, pageMeta, err := c.lookupPage(page)
	if err != nil {
		return "", err
	}

	key := coretypes.FormatPageKey(page.SourceId, page.Index)
	err = c.cache.EnsureBytes(key.String(), "image/png", page, func() ([]byte, error) {
		if _, isMock := entry.source.(*enumsrc.MockSource); isMock {
			return encodePNG(&imagedecode.DecodedImage{
				Dimensions: coretypes.ImageDimensions{Width: 1, Height: 1},
				Pixels:     []byte{0, 0, 0, 0},
			})
		}
		raw, err := enumsrc.ReadEntry(entry.source, pageMeta.RelPath)
		if err != nil {
			return nil, err
		}
		decoded, err := imagedecode.Decode(c.log, &pageMeta, raw)
		if err != nil {
			return nil, err
		}
		c.updatePageDimensions(page, decoded.Dimensions)
		return encodePNG(decoded)
	})
	if err != nil {
		return "", err
	}
	return "asset://localhost/img/" + key.String(), nil
}

// GetThumbURL returns the asset URL for a thumbnail of page. Thumbnails
// currently alias the full-page bytes under a second key rather than
// truly resizing to longest: the full-page bytes are copied under the
// thumb key on first request. If the page itself cannot be produced,
// GetPageURL's error is returned.
func (c *Core) GetThumbURL(page coretypes.PageId, longest uint32) (string, error) {
	pageURL, err := c.GetPageURL(page, coretypes.DefaultRenderParams())
	if err != nil {
		return "", err
	}

	thumbKey := coretypes.FormatThumbKey(page.SourceId, page.Index, longest)
	pageKey := coretypes.FormatPageKey(page.SourceId, page.Index)

	if _, ok, err := c.cache.FetchRaw(thumbKey.String()); err != nil {
		return "", err
	} else if !ok {
		full, ok, err := c.cache.FetchRaw(pageKey.String())
		if err != nil {
			return "", err
		}
		if !ok {
			return pageURL, nil
		}
		if err := c.cache.EnsureBytes(thumbKey.String(), full.Mime, page, func() ([]byte, error) {
			return full.Bytes, nil
		}); err != nil {
			return "", err
		}
	}

	return "asset://localhost/img/" + thumbKey.String(), nil
}

// Prefetch plans a scheduling window around center and reports the
// updated pending count to the stats collector.
func (c *Core) Prefetch(center coretypes.PageId, policy coretypes.PrefetchPolicy, velocity float32) error {
	entry, ok := c.lookup(center.SourceId)
	if !ok {
		return readererr.New(readererr.NotFound, "unknown source for prefetch %q", center.SourceId)
	}
	c.queue.PlanWindow(center, uint32(len(entry.pages)), policy, velocity)
	c.stats.UpdatePrefetchPending(c.queue.Len())
	return nil
}

// DrainPrefetch pumps every currently queued prefetch task through the
// same decode pipeline GetPageURL uses, completing each token as it
// finishes. Returns the number of pages produced.
func (c *Core) DrainPrefetch() (int, error) {
	produced := 0
	for {
		token, task, ok := c.queue.NextTask()
		if !ok {
			break
		}
		if _, err := c.GetPageURL(task.Page, coretypes.DefaultRenderParams()); err != nil {
			c.queue.Cancel(token)
			return produced, err
		}
		c.queue.Complete(token)
		produced++
	}
	c.stats.UpdatePrefetchPending(c.queue.Len())
	return produced, nil
}

// Cancel releases the dispatched prefetch task named by token, if it is
// still in flight, and republishes the pending count. Pages still queued
// and not yet dispatched are not removed.
func (c *Core) Cancel(token coretypes.RequestToken) error {
	c.queue.Cancel(token)
	c.stats.UpdatePrefetchPending(c.queue.Len())
	return nil
}

// SaveProgress records page as the latest read position for its source.
func (c *Core) SaveProgress(source coretypes.SourceId, pageIndex uint32) error {
	if _, ok := c.lookup(source); !ok {
		return readererr.New(readererr.NotFound, "unknown source for progress %q", source)
	}
	return c.progress.Save(coretypes.PageId{SourceId: source, Index: pageIndex})
}

// QueryProgress returns the last saved page index for source, or 0 if
// none has been recorded.
func (c *Core) QueryProgress(source coretypes.SourceId) (uint32, error) {
	if _, ok := c.lookup(source); !ok {
		return 0, readererr.New(readererr.NotFound, "unknown source for progress %q", source)
	}
	page, ok, err := c.progress.Load(source)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return page.Index, nil
}

// Stats composes a point-in-time performance snapshot.
func (c *Core) Stats() PerfStats {
	c.mu.Lock()
	cachedPages := 0
	activeSources := len(c.sources)
	for _, entry := range c.sources {
		cachedPages += len(entry.pages)
	}
	c.mu.Unlock()

	return PerfStats{
		Snapshot:      c.stats.Snapshot(),
		ActiveSources: activeSources,
		CachedPages:   cachedPages,
	}
}

func (c *Core) lookup(source coretypes.SourceId) (*sourceEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.sources[source]
	return entry, ok
}

func (c *Core) lookupPage(page coretypes.PageId) (*sourceEntry, coretypes.PageMeta, error) {
	entry, ok := c.lookup(page.SourceId)
	if !ok {
		return nil, coretypes.PageMeta{}, readererr.New(readererr.NotFound, "unknown source %q", page.SourceId)
	}
	if int(page.Index) >= len(entry.pages) {
		return nil, coretypes.PageMeta{}, readererr.New(readererr.NotFound, "page index %d out of range for %q", page.Index, page.SourceId)
	}
	return entry, entry.pages[page.Index], nil
}

func (c *Core) updatePageDimensions(page coretypes.PageId, dims coretypes.ImageDimensions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.sources[page.SourceId]
	if !ok || int(page.Index) >= len(entry.pages) {
		return
	}
	entry.pages[page.Index].Width = dims.Width
	entry.pages[page.Index].Height = dims.Height
}

func encodePNG(decoded *imagedecode.DecodedImage) ([]byte, error) {
	img := &image.NRGBA{
		Pix:    decoded.Pixels,
		Stride: 4 * int(decoded.Dimensions.Width),
		Rect:   image.Rect(0, 0, int(decoded.Dimensions.Width), int(decoded.Dimensions.Height)),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, readererr.New(readererr.DecodeFailed, "re-encoding decoded image: %v", err)
	}
	return buf.Bytes(), nil
}

func isSupportedArchive(path string) bool {
	return enumsrc.DetectArchiveKind(path) == coretypes.ArchiveZip
}
