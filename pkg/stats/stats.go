// Package stats collects lightweight runtime performance counters: frame
// cadence, decode latency, and cache effectiveness, exposed to the
// outside world as a point-in-time Snapshot.
package stats

import (
	"sort"
	"sync"
	"time"
)

const defaultSampleCapacity = 240

// sampleWindow is a fixed-capacity ring buffer of recent measurements.
type sampleWindow struct {
	samples  []float32
	capacity int
	next     int
	filled   bool
}

func newSampleWindow(capacity int) *sampleWindow {
	return &sampleWindow{samples: make([]float32, 0, capacity), capacity: capacity}
}

func (w *sampleWindow) push(value float32) {
	if len(w.samples) < w.capacity {
		w.samples = append(w.samples, value)
		return
	}
	w.samples[w.next] = value
	w.next = (w.next + 1) % w.capacity
	w.filled = true
}

func (w *sampleWindow) percentile(p float32) float32 {
	if len(w.samples) == 0 {
		return 0
	}
	sorted := append([]float32(nil), w.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	rank := p * float32(len(sorted)-1)
	index := int(rank + 0.5)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func (w *sampleWindow) mean() float32 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float32
	for _, s := range w.samples {
		sum += s
	}
	return sum / float32(len(w.samples))
}

// Collector is a thread-safe counter set feeding the stats operation.
type Collector struct {
	mu sync.Mutex

	startedAt         time.Time
	frameTimesMs      *sampleWindow
	decodeTimesMs     *sampleWindow
	cacheRequests     uint64
	cacheHits         uint64
	cacheBytesUsed    uint64
	cacheBytesCap     uint64
	prefetchPending   int
}

// New returns a collector with default sampling capacity (240 samples).
func New() *Collector {
	return &Collector{
		startedAt:     time.Now(),
		frameTimesMs:  newSampleWindow(defaultSampleCapacity),
		decodeTimesMs: newSampleWindow(defaultSampleCapacity),
	}
}

// RecordFrame records the time taken to present a frame.
func (c *Collector) RecordFrame(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameTimesMs.push(float32(d.Seconds() * 1000.0))
}

// RecordDecode records the time spent decoding or preparing an image.
func (c *Collector) RecordDecode(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decodeTimesMs.push(float32(d.Seconds() * 1000.0))
}

// RecordCacheLookup tallies a cache lookup and whether it hit.
func (c *Collector) RecordCacheLookup(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheRequests++
	if hit {
		c.cacheHits++
	}
}

// UpdateCacheUsage overwrites the aggregate cache usage counters.
func (c *Collector) UpdateCacheUsage(usedBytes, capacityBytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheBytesUsed = usedBytes
	c.cacheBytesCap = capacityBytes
}

// UpdatePrefetchPending overwrites the pending-prefetch gauge.
func (c *Collector) UpdatePrefetchPending(pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefetchPending = pending
}

// Snapshot is an immutable point-in-time view of the collected metrics.
type Snapshot struct {
	TimestampMs     int64   `json:"timestamp_ms"`
	UptimeMs        int64   `json:"uptime_ms"`
	FPS             float32 `json:"fps"`
	FrameTimeMsP50  float32 `json:"frame_time_ms_p50"`
	FrameTimeMsP95  float32 `json:"frame_time_ms_p95"`
	DecodeTimeMsP50 float32 `json:"decode_time_ms_p50"`
	DecodeTimeMsP95 float32 `json:"decode_time_ms_p95"`
	CacheHitRatio   float32 `json:"cache_hit_ratio"`
	CacheRequests   uint64  `json:"cache_requests"`
	CacheBytesUsed  uint64  `json:"cache_bytes_used"`
	CacheBytesCap   uint64  `json:"cache_bytes_capacity"`
	PrefetchPending int     `json:"prefetch_pending"`
}

// Snapshot renders the current state of the collector for presentation.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	uptime := time.Since(c.startedAt)
	frameMean := c.frameTimesMs.mean()
	var fps float32
	if frameMean > 1e-6 {
		fps = 1000.0 / frameMean
	}

	cacheRequests := c.cacheRequests
	if cacheRequests == 0 {
		cacheRequests = 1
	}
	cacheHitRatio := float32(c.cacheHits) / float32(cacheRequests)

	return Snapshot{
		TimestampMs:     time.Now().UnixMilli(),
		UptimeMs:        uptime.Milliseconds(),
		FPS:             fps,
		FrameTimeMsP50:  c.frameTimesMs.percentile(0.50),
		FrameTimeMsP95:  c.frameTimesMs.percentile(0.95),
		DecodeTimeMsP50: c.decodeTimesMs.percentile(0.50),
		DecodeTimeMsP95: c.decodeTimesMs.percentile(0.95),
		CacheHitRatio:   cacheHitRatio,
		CacheRequests:   c.cacheRequests,
		CacheBytesUsed:  c.cacheBytesUsed,
		CacheBytesCap:   c.cacheBytesCap,
		PrefetchPending: c.prefetchPending,
	}
}
