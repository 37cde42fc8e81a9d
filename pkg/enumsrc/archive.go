package enumsrc

import (
	"archive/zip"
	"path"
	"sort"
	"strings"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/natural"
	"github.com/localcomicreader/readerd/pkg/readererr"
)

// OpenArchive opens a ZIP/CBZ file and enumerates its supported-image
// entries. Only ArchiveKind Zip is backed by a decoder; other detected
// kinds fail with Unsupported.
func OpenArchive(archivePath string, id coretypes.SourceId) (*ArchiveSource, []coretypes.PageMeta, error) {
	kind := DetectArchiveKind(archivePath)
	if kind != coretypes.ArchiveZip {
		return nil, nil, readererr.New(readererr.Unsupported, "archive kind %q is not implemented", kind)
	}

	entries, err := collectArchiveEntries(archivePath)
	if err != nil {
		return nil, nil, err
	}

	pages := make([]coretypes.PageMeta, len(entries))
	for i, e := range entries {
		pages[i] = coretypes.PageMeta{
			Id:      coretypes.PageId{SourceId: id, Index: uint32(i)},
			RelPath: e.Path,
		}
	}

	return &ArchiveSource{Path: archivePath, Kind: kind, Entries: entries}, pages, nil
}

func collectArchiveEntries(archivePath string) ([]coretypes.ArchiveEntry, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, readererr.New(readererr.SourceUnreadable, "opening archive %q: %v", archivePath, err)
	}
	defer zr.Close()

	var entries []coretypes.ArchiveEntry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		sanitized, ok := SanitizeZipPath(f.Name)
		if !ok {
			continue
		}
		if natural.IsHidden(sanitized) || !natural.IsSupportedImage(sanitized) {
			continue
		}

		entries = append(entries, coretypes.ArchiveEntry{
			Path:       sanitized,
			SizeBytes:  f.UncompressedSize64,
			Compressed: f.Method != zip.Store,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return natural.ComparePaths(entries[i].Path, entries[j].Path) < 0
	})

	return entries, nil
}

// SanitizeZipPath normalizes a ZIP entry name to a clean, POSIX-separated
// relative path, rejecting anything that escapes the archive root:
// parent-dir components, absolute paths, drive letters, or an empty
// result.
func SanitizeZipPath(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") {
		return "", false
	}
	if idx := strings.Index(name, ":"); idx >= 0 {
		// Rejects Windows drive letters (e.g. "C:/foo").
		return "", false
	}

	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == "" {
		return "", false
	}

	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", false
		}
	}

	return cleaned, true
}
