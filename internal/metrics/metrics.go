package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Frame cache metrics
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_cache_hits_total",
		Help: "Total cache hits per cache kind",
	}, []string{"cache"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_cache_misses_total",
		Help: "Total cache misses per cache kind",
	}, []string{"cache"})

	cacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_cache_evictions_total",
		Help: "Total LRU evictions per cache kind",
	}, []string{"cache"})

	cacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playback_cache_entries",
		Help: "Current number of cached entries per cache kind",
	}, []string{"cache"})

	// Prefetch metrics
	prefetchQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playback_prefetch_queue_depth",
		Help: "Number of pending prefetch requests",
	})

	prefetchDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_prefetch_dropped_total",
		Help: "Total prefetch requests dropped due to queue bounds",
	})

	prefetchBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_prefetch_batches_total",
		Help: "Total prefetch batches processed",
	})

	// Decode metrics
	decodeDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playback_decode_duration_seconds",
		Help:    "Frame decode latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"source_id"})

	decodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_decode_errors_total",
		Help: "Total decode failures per source",
	}, []string{"source_id"})

	// Playback metrics
	framesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_frames_rendered_total",
		Help: "Total frames drawn to the renderer",
	})

	framesMissedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_frames_missed_total",
		Help: "Total render ticks where the current frame was absent",
	})

	playbackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playback_active",
		Help: "1 while playback is running, 0 otherwise",
	})

	seeksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_seeks_total",
		Help: "Total explicit seek operations",
	})
)

// IncrementCacheHit increments the hit counter for a cache kind.
func IncrementCacheHit(cache string) {
	cacheHitsTotal.WithLabelValues(cache).Inc()
}

// IncrementCacheMiss increments the miss counter for a cache kind.
func IncrementCacheMiss(cache string) {
	cacheMissesTotal.WithLabelValues(cache).Inc()
}

// IncrementCacheEviction increments the eviction counter for a cache kind.
func IncrementCacheEviction(cache string) {
	cacheEvictionsTotal.WithLabelValues(cache).Inc()
}

// SetCacheEntries sets the current entry count for a cache kind.
func SetCacheEntries(cache string, count int) {
	cacheEntries.WithLabelValues(cache).Set(float64(count))
}

// SetPrefetchQueueDepth sets the pending prefetch request count.
func SetPrefetchQueueDepth(depth int) {
	prefetchQueueDepth.Set(float64(depth))
}

// IncrementPrefetchDropped increments the dropped-request counter.
func IncrementPrefetchDropped() {
	prefetchDroppedTotal.Inc()
}

// IncrementPrefetchBatch increments the processed-batch counter.
func IncrementPrefetchBatch() {
	prefetchBatchesTotal.Inc()
}

// ObserveDecodeDuration records the latency of a frame decode.
func ObserveDecodeDuration(sourceID string, seconds float64) {
	decodeDurationSeconds.WithLabelValues(sourceID).Observe(seconds)
}

// IncrementDecodeError increments the decode failure counter for a source.
func IncrementDecodeError(sourceID string) {
	decodeErrorsTotal.WithLabelValues(sourceID).Inc()
}

// IncrementFramesRendered increments the rendered frame counter.
func IncrementFramesRendered() {
	framesRenderedTotal.Inc()
}

// IncrementFramesMissed increments the missed frame counter.
func IncrementFramesMissed() {
	framesMissedTotal.Inc()
}

// SetPlaybackActive sets the playback state gauge.
func SetPlaybackActive(active bool) {
	if active {
		playbackActive.Set(1)
	} else {
		playbackActive.Set(0)
	}
}

// IncrementSeeks increments the seek counter.
func IncrementSeeks() {
	seeksTotal.Inc()
}
