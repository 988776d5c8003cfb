package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheCounters(t *testing.T) {
	before := testutil.ToFloat64(cacheHitsTotal.WithLabelValues("frames"))
	IncrementCacheHit("frames")
	IncrementCacheHit("frames")
	assert.Equal(t, before+2, testutil.ToFloat64(cacheHitsTotal.WithLabelValues("frames")))

	missBefore := testutil.ToFloat64(cacheMissesTotal.WithLabelValues("thumbnails"))
	IncrementCacheMiss("thumbnails")
	assert.Equal(t, missBefore+1, testutil.ToFloat64(cacheMissesTotal.WithLabelValues("thumbnails")))

	evictBefore := testutil.ToFloat64(cacheEvictionsTotal.WithLabelValues("frames"))
	IncrementCacheEviction("frames")
	assert.Equal(t, evictBefore+1, testutil.ToFloat64(cacheEvictionsTotal.WithLabelValues("frames")))
}

func TestCacheEntriesGauge(t *testing.T) {
	SetCacheEntries("frames", 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(cacheEntries.WithLabelValues("frames")))

	SetCacheEntries("frames", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(cacheEntries.WithLabelValues("frames")))
}

func TestPrefetchMetrics(t *testing.T) {
	SetPrefetchQueueDepth(17)
	assert.Equal(t, 17.0, testutil.ToFloat64(prefetchQueueDepth))

	droppedBefore := testutil.ToFloat64(prefetchDroppedTotal)
	IncrementPrefetchDropped()
	assert.Equal(t, droppedBefore+1, testutil.ToFloat64(prefetchDroppedTotal))

	batchesBefore := testutil.ToFloat64(prefetchBatchesTotal)
	IncrementPrefetchBatch()
	assert.Equal(t, batchesBefore+1, testutil.ToFloat64(prefetchBatchesTotal))
}

func TestDecodeMetrics(t *testing.T) {
	errBefore := testutil.ToFloat64(decodeErrorsTotal.WithLabelValues("clip-1"))
	IncrementDecodeError("clip-1")
	assert.Equal(t, errBefore+1, testutil.ToFloat64(decodeErrorsTotal.WithLabelValues("clip-1")))

	// Histogram observation should not panic
	ObserveDecodeDuration("clip-1", 0.05)
}

func TestPlaybackMetrics(t *testing.T) {
	SetPlaybackActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(playbackActive))

	SetPlaybackActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(playbackActive))

	renderedBefore := testutil.ToFloat64(framesRenderedTotal)
	IncrementFramesRendered()
	assert.Equal(t, renderedBefore+1, testutil.ToFloat64(framesRenderedTotal))

	missedBefore := testutil.ToFloat64(framesMissedTotal)
	IncrementFramesMissed()
	assert.Equal(t, missedBefore+1, testutil.ToFloat64(framesMissedTotal))

	seeksBefore := testutil.ToFloat64(seeksTotal)
	IncrementSeeks()
	assert.Equal(t, seeksBefore+1, testutil.ToFloat64(seeksTotal))
}
