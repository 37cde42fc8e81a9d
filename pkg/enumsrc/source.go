// Package enumsrc discovers pages inside folders, ZIP archives, and
// single image files, and produces the Mock demo source.
package enumsrc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/natural"
	"github.com/localcomicreader/readerd/pkg/readererr"
)

// Source is the small closed set of page-backing origins: a directory, a
// ZIP/CBZ archive, a single image file, or the synthetic Mock demo.
type Source interface {
	isSource()
}

// FolderSource is a directory of loose image files.
type FolderSource struct {
	Root    string
	Entries []string // relative paths, natural-sorted
}

func (*FolderSource) isSource() {}

// ArchiveSource is a ZIP/CBZ container.
type ArchiveSource struct {
	Path    string
	Kind    coretypes.ArchiveKind
	Entries []coretypes.ArchiveEntry
}

func (*ArchiveSource) isSource() {}

// SingleFileSource is a lone image file treated as a one-page source.
type SingleFileSource struct {
	Path string
}

func (*SingleFileSource) isSource() {}

// MockSource is the "demo-bundle" synthetic five-page source.
type MockSource struct{}

func (*MockSource) isSource() {}

// OpenFolder validates root and enumerates its supported-image children.
func OpenFolder(root string, id coretypes.SourceId) (*FolderSource, []coretypes.PageMeta, error) {
	entries, err := collectFolderEntries(root)
	if err != nil {
		return nil, nil, err
	}

	pages := make([]coretypes.PageMeta, len(entries))
	for i, rel := range entries {
		pages[i] = coretypes.PageMeta{
			Id:      coretypes.PageId{SourceId: id, Index: uint32(i)},
			RelPath: rel,
		}
	}

	return &FolderSource{Root: root, Entries: entries}, pages, nil
}

func collectFolderEntries(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, readererr.New(readererr.SourceUnreadable, "folder %q does not exist", root)
		}
		return nil, readererr.New(readererr.SourceUnreadable, "folder %q: %v", root, err)
	}
	if !info.IsDir() {
		return nil, readererr.New(readererr.SourceUnreadable, "folder %q is not a directory", root)
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, readererr.New(readererr.SourceUnreadable, "reading folder %q: %v", root, err)
	}

	var entries []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if de.Type()&os.ModeSymlink != 0 {
			// Only plain files count; symlinks are not resolved here.
			continue
		}
		name := de.Name()
		if natural.IsHidden(name) || !natural.IsSupportedImage(name) {
			continue
		}
		entries = append(entries, name)
	}

	sort.Slice(entries, func(i, j int) bool {
		return natural.ComparePaths(entries[i], entries[j]) < 0
	})

	return entries, nil
}

// OpenSingleFile produces a synthetic one-page source for a lone image.
func OpenSingleFile(path string, id coretypes.SourceId) (*SingleFileSource, []coretypes.PageMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, readererr.New(readererr.SourceUnreadable, "file %q: %v", path, err)
	}
	if info.IsDir() {
		return nil, nil, readererr.New(readererr.Unsupported, "%q is a directory, not a file", path)
	}

	page := coretypes.PageMeta{
		Id:      coretypes.PageId{SourceId: id, Index: 0},
		RelPath: filepath.Base(path),
	}
	return &SingleFileSource{Path: path}, []coretypes.PageMeta{page}, nil
}

// MockPages builds the 5 synthetic pages for the "demo-bundle" source.
// Page rel_paths are "<basename>/page_000.png" .. "page_004.png", each
// reporting a fixed 1600x2400 size, with index 2 marked a double spread
// (index % 3 == 2 over a 0..4 run, i.e. only index 2).
func MockPages(id coretypes.SourceId, path string) []coretypes.PageMeta {
	base := filepath.Base(path)
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "demo"
	}

	pages := make([]coretypes.PageMeta, 5)
	for idx := uint32(0); idx < 5; idx++ {
		pages[idx] = coretypes.PageMeta{
			Id:             coretypes.PageId{SourceId: id, Index: idx},
			RelPath:        fmt.Sprintf("%s/page_%03d.png", base, idx),
			Width:          1600,
			Height:         2400,
			IsDoubleSpread: idx%3 == 2,
		}
	}
	return pages
}

// DetectArchiveKind maps a file extension to the ArchiveKind it names.
// CBZ and ZIP are treated as equivalent; other kinds are recognized but
// have no working decoder.
func DetectArchiveKind(path string) coretypes.ArchiveKind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "cbz", "zip":
		return coretypes.ArchiveZip
	case "cbr", "rar":
		return coretypes.ArchiveRar
	case "cb7", "7z":
		return coretypes.ArchiveSevenZip
	case "tar":
		return coretypes.ArchiveTar
	default:
		return coretypes.ArchiveUnknown
	}
}
