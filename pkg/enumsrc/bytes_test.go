package enumsrc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
)

func TestReadEntry_Folder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "001.jpeg")

	src, _, err := OpenFolder(dir, coretypes.SourceId("x"))
	require.NoError(t, err)

	data, err := ReadEntry(src, "001.jpeg")
	require.NoError(t, err)
	assert.Equal(t, []byte("test"), data)
}

func TestReadEntry_Archive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "demo.cbz")
	createZip(t, p, []string{"pages/cover.png"}, []string{"pages"})

	src, _, err := OpenArchive(p, coretypes.SourceId("x"))
	require.NoError(t, err)

	data, err := ReadEntry(src, "pages/cover.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("demo"), data)
}

func TestReadEntry_ArchiveMissingEntry(t *testing.T) {
	p := filepath.Join(t.TempDir(), "demo.cbz")
	createZip(t, p, []string{"pages/cover.png"}, []string{"pages"})

	src, _, err := OpenArchive(p, coretypes.SourceId("x"))
	require.NoError(t, err)

	_, err = ReadEntry(src, "pages/missing.png")
	require.Error(t, err)
}

func TestReadComicInfo_FoundAtRoot(t *testing.T) {
	p := filepath.Join(t.TempDir(), "demo.cbz")
	createZip(t, p, []string{"ComicInfo.xml", "pages/cover.png"}, []string{"pages"})

	src, _, err := OpenArchive(p, coretypes.SourceId("x"))
	require.NoError(t, err)

	data, ok, err := ReadComicInfo(src)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("demo"), data)
}

func TestReadComicInfo_AbsentReturnsNotFound(t *testing.T) {
	p := filepath.Join(t.TempDir(), "demo.cbz")
	createZip(t, p, []string{"pages/cover.png"}, []string{"pages"})

	src, _, err := OpenArchive(p, coretypes.SourceId("x"))
	require.NoError(t, err)

	_, ok, err := ReadComicInfo(src)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadComicInfo_FolderSourceReportsNotOk(t *testing.T) {
	dir := t.TempDir()
	src, _, err := OpenFolder(dir, coretypes.SourceId("x"))
	require.NoError(t, err)

	_, ok, err := ReadComicInfo(src)
	require.NoError(t, err)
	assert.False(t, ok)
}
