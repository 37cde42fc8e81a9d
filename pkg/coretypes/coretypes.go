// Package coretypes holds the data model shared across the image-serving
// core: identifiers, page metadata, cache keys, and render parameters.
package coretypes

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SourceId opaquely identifies an opened source. It carries identity, not
// contents.
type SourceId string

// NewSourceId mints a fresh, process-unique SourceId.
func NewSourceId() SourceId {
	return SourceId("src-" + uuid.NewString())
}

func (s SourceId) String() string { return string(s) }

// PageId names a page by its source and zero-based position in that
// source's enumerated order.
type PageId struct {
	SourceId SourceId
	Index    uint32
}

// ArchiveKind enumerates the archive container formats a Source can
// report. Only Zip has a working decoder; the rest are forward-compatible
// tags.
type ArchiveKind string

const (
	ArchiveZip      ArchiveKind = "zip"
	ArchiveRar      ArchiveKind = "rar"
	ArchiveSevenZip ArchiveKind = "7z"
	ArchiveTar      ArchiveKind = "tar"
	ArchiveUnknown  ArchiveKind = "unknown"
)

// ArchiveEntry describes one sanitized entry inside an archive source.
type ArchiveEntry struct {
	Path        string
	SizeBytes   uint64
	Compressed  bool
}

// PageMeta describes one page independent of any render parameters.
type PageMeta struct {
	Id             PageId
	RelPath        string
	Width          uint32
	Height         uint32
	IsDoubleSpread bool
}

// FitMode is how a consumer intends to fit a page within its viewport.
// RenderParams does not influence cache keys (see SPEC_FULL §9); it is
// carried purely for the external interface's benefit.
type FitMode string

const (
	FitWidth   FitMode = "fit_width"
	FitHeight  FitMode = "fit_height"
	FitContain FitMode = "fit_contain"
	Original   FitMode = "original"
	Fill       FitMode = "fill"
)

// RenderParams is the display-side fit/zoom/rotation request accompanying
// a page fetch.
type RenderParams struct {
	Fit        FitMode
	ViewportW  uint32
	ViewportH  uint32
	Scale      float32
	Rotation   int16
	DPI        float32
}

// DefaultRenderParams mirrors the reference implementation's Default impl.
func DefaultRenderParams() RenderParams {
	return RenderParams{
		Fit:       FitContain,
		ViewportW: 1920,
		ViewportH: 1080,
		Scale:     1.0,
		Rotation:  0,
		DPI:       96.0,
	}
}

// ImageKey is the cache coordinate of a produced artifact. Equality of
// ImageKey implies equality of the bytes it resolves to.
type ImageKey struct {
	CacheKey string
}

// NewImageKey wraps a raw cache-key string.
func NewImageKey(cacheKey string) ImageKey {
	return ImageKey{CacheKey: cacheKey}
}

// Derive builds a child key by appending "::suffix" to the parent.
func (k ImageKey) Derive(suffix string) ImageKey {
	return ImageKey{CacheKey: k.CacheKey + "::" + suffix}
}

func (k ImageKey) String() string { return k.CacheKey }

// FormatPageKey mints the base key for a full-page fetch:
// "<source>-page-<index>".
func FormatPageKey(source SourceId, index uint32) ImageKey {
	return NewImageKey(source.String() + "-page-" + strconv.FormatUint(uint64(index), 10))
}

// FormatThumbKey mints the base key for a thumbnail fetch:
// "<source>-thumb-<index>-<longest>".
func FormatThumbKey(source SourceId, index uint32, longest uint32) ImageKey {
	return NewImageKey(strings.Join([]string{
		source.String(), "thumb",
		strconv.FormatUint(uint64(index), 10),
		strconv.FormatUint(uint64(longest), 10),
	}, "-"))
}

// CacheBudget bounds the in-memory cache's total byte usage.
type CacheBudget struct {
	BytesMax int64
}

// DefaultCacheBudget is 512 MiB, matching the reference implementation.
func DefaultCacheBudget() CacheBudget {
	return CacheBudget{BytesMax: 512 * 1024 * 1024}
}

// ImageDimensions is a plain width/height pair.
type ImageDimensions struct {
	Width  uint32
	Height uint32
}

// PrefetchPolicy bounds how many pages ahead/behind of a center page the
// scheduler should plan.
type PrefetchPolicy struct {
	Ahead  uint32
	Behind uint32
}

// DefaultPrefetchPolicy is {ahead:3, behind:1}.
func DefaultPrefetchPolicy() PrefetchPolicy {
	return PrefetchPolicy{Ahead: 3, Behind: 1}
}

// RequestToken identifies an in-flight dispatched prefetch task.
type RequestToken uint64

// SeriesMeta is best-effort metadata pulled from an archive's
// ComicInfo.xml, when present.
type SeriesMeta struct {
	Title     string
	Series    string
	Number    string
	Creators  []string
	Publisher string
}
