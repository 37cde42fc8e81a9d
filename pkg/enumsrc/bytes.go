package enumsrc

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/localcomicreader/readerd/pkg/readererr"
)

// ReadEntry returns the raw bytes of relPath within source. relPath is
// the same value reported on the PageMeta this source produced.
func ReadEntry(source Source, relPath string) ([]byte, error) {
	switch s := source.(type) {
	case *FolderSource:
		return os.ReadFile(filepath.Join(s.Root, relPath))
	case *SingleFileSource:
		return os.ReadFile(s.Path)
	case *ArchiveSource:
		return readZipEntry(s.Path, relPath)
	case *MockSource:
		return nil, readererr.New(readererr.Unsupported, "mock source has no backing bytes")
	default:
		return nil, readererr.New(readererr.StateInvariant, "unrecognized source type %T", source)
	}
}

func readZipEntry(archivePath, inner string) ([]byte, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, readererr.New(readererr.SourceUnreadable, "opening archive %q: %v", archivePath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		sanitized, ok := SanitizeZipPath(f.Name)
		if !ok || sanitized != inner {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, readererr.New(readererr.SourceUnreadable, "opening %q in %q: %v", inner, archivePath, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, readererr.New(readererr.SourceUnreadable, "reading %q in %q: %v", inner, archivePath, err)
		}
		return data, nil
	}
	return nil, readererr.New(readererr.NotFound, "entry %q not found in archive %q", inner, archivePath)
}

// ReadComicInfo locates and returns the raw bytes of a ComicInfo.xml
// sidecar inside an archive source, if one is present at any depth.
// Only ArchiveSource carries sidecar metadata; other source kinds
// report ok=false.
func ReadComicInfo(source Source) (data []byte, ok bool, err error) {
	archive, isArchive := source.(*ArchiveSource)
	if !isArchive {
		return nil, false, nil
	}

	zr, err := zip.OpenReader(archive.Path)
	if err != nil {
		return nil, false, readererr.New(readererr.SourceUnreadable, "opening archive %q: %v", archive.Path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if strings.ToLower(filepath.Base(f.Name)) != "comicinfo.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, readererr.New(readererr.SourceUnreadable, "opening ComicInfo.xml in %q: %v", archive.Path, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, readererr.New(readererr.SourceUnreadable, "reading ComicInfo.xml in %q: %v", archive.Path, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}
