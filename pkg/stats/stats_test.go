package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_PercentileAndMeanAreComputed(t *testing.T) {
	c := New()
	c.RecordFrame(10 * time.Millisecond)
	c.RecordFrame(20 * time.Millisecond)
	c.RecordFrame(30 * time.Millisecond)

	snap := c.Snapshot()
	assert.Greater(t, snap.FPS, float32(40.0))
	assert.Less(t, snap.FPS, float32(120.0))
	assert.GreaterOrEqual(t, snap.FrameTimeMsP50, float32(10.0))
}

func TestSnapshot_CacheMetricsAreTracked(t *testing.T) {
	c := New()
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.UpdateCacheUsage(128*1024*1024, 512*1024*1024)
	c.UpdatePrefetchPending(3)

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.CacheRequests)
	assert.Greater(t, snap.CacheHitRatio, float32(0.0))
	assert.Less(t, snap.CacheHitRatio, float32(1.0))
	assert.Equal(t, uint64(128*1024*1024), snap.CacheBytesUsed)
	assert.Equal(t, 3, snap.PrefetchPending)
}

func TestSampleWindow_RingBufferEvictsOldest(t *testing.T) {
	c := New()
	for i := 0; i < defaultSampleCapacity+10; i++ {
		c.RecordFrame(time.Duration(i) * time.Millisecond)
	}
	assert.Len(t, c.frameTimesMs.samples, defaultSampleCapacity)
}
