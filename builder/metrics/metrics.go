// Package metrics tracks counters and timings of one build.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// BuildMetrics is safe for concurrent use by the document workers.
type BuildMetrics struct {
	StartTime time.Time
	EndTime   time.Time

	PostsProcessed   atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	ImagesCopied     atomic.Int64
	ArtifactsWritten atomic.Int64
}

// NewBuildMetrics creates a new metrics instance.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{
		StartTime: time.Now(),
	}
}

// RecordEnd marks the end of the build.
func (m *BuildMetrics) RecordEnd() {
	m.EndTime = time.Now()
}

// TotalDuration returns the total build duration.
func (m *BuildMetrics) TotalDuration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// CacheHitRate returns the memo hit percentage.
func (m *BuildMetrics) CacheHitRate() float64 {
	hits, misses := m.CacheHits.Load(), m.CacheMisses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}

func (m *BuildMetrics) IncrementPostsProcessed() {
	if m != nil {
		m.PostsProcessed.Add(1)
	}
}

func (m *BuildMetrics) IncrementCacheHit() {
	if m != nil {
		m.CacheHits.Add(1)
	}
}

func (m *BuildMetrics) IncrementCacheMiss() {
	if m != nil {
		m.CacheMisses.Add(1)
	}
}

func (m *BuildMetrics) IncrementArtifacts() {
	if m != nil {
		m.ArtifactsWritten.Add(1)
	}
}

// String returns a formatted summary of the build metrics (minimal single-line format).
func (m *BuildMetrics) String() string {
	hits, misses := m.CacheHits.Load(), m.CacheMisses.Load()
	return fmt.Sprintf("📊 Built %d posts in %v (cache: %d/%d hits, %.0f%%, %d images copied, %d artifacts)\n",
		m.PostsProcessed.Load(),
		m.TotalDuration().Round(time.Millisecond),
		hits,
		hits+misses,
		m.CacheHitRate(),
		m.ImagesCopied.Load(),
		m.ArtifactsWritten.Load(),
	)
}

// Print outputs the metrics to stdout.
func (m *BuildMetrics) Print() {
	fmt.Print(m.String())
}
