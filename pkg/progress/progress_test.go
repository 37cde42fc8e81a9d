package progress

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewAt(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, err)
	return s
}

func TestLoad_MissingSourceReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Load(coretypes.SourceId("src-demo"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	source := coretypes.SourceId("src-demo")

	require.NoError(t, s.Save(coretypes.PageId{SourceId: source, Index: 42}))

	page, ok, err := s.Load(source)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(42), page.Index)
	assert.Equal(t, source, page.SourceId)
}

func TestSave_OverwritesPreviousEntryForSameSource(t *testing.T) {
	s := newTestStore(t)
	source := coretypes.SourceId("src-demo")

	require.NoError(t, s.Save(coretypes.PageId{SourceId: source, Index: 1}))
	require.NoError(t, s.Save(coretypes.PageId{SourceId: source, Index: 7}))

	page, ok, err := s.Load(source)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(7), page.Index)
}

func TestSave_KeepsEntriesForMultipleSourcesIndependent(t *testing.T) {
	s := newTestStore(t)
	a := coretypes.SourceId("src-a")
	b := coretypes.SourceId("src-b")

	require.NoError(t, s.Save(coretypes.PageId{SourceId: a, Index: 3}))
	require.NoError(t, s.Save(coretypes.PageId{SourceId: b, Index: 9}))

	pageA, ok, err := s.Load(a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(3), pageA.Index)

	pageB, ok, err := s.Load(b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(9), pageB.Index)
}
