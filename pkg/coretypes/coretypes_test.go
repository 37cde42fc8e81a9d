package coretypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageKey_Derive(t *testing.T) {
	base := NewImageKey("src-1-page-3")
	assert.Equal(t, "src-1-page-3::mip1", base.Derive("mip1").CacheKey)
}

func TestFormatPageKey(t *testing.T) {
	assert.Equal(t, "src-1-page-3", FormatPageKey(SourceId("src-1"), 3).CacheKey)
}

func TestFormatThumbKey(t *testing.T) {
	assert.Equal(t, "src-1-thumb-3-256", FormatThumbKey(SourceId("src-1"), 3, 256).CacheKey)
}

func TestNewSourceId_Unique(t *testing.T) {
	a := NewSourceId()
	b := NewSourceId()
	assert.NotEqual(t, a, b)
}

func TestDefaultRenderParams(t *testing.T) {
	p := DefaultRenderParams()
	assert.Equal(t, FitContain, p.Fit)
	assert.Equal(t, float32(1.0), p.Scale)
}
