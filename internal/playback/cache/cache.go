package cache

import (
	"context"
	"image"
	"image/draw"
	"math"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/errors"
	"github.com/zsiec/reel/internal/logger"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/metrics"
)

const bytesPerPixel = 4

// FrameKey identifies a decoded frame.
type FrameKey struct {
	SourceID string
	Frame    int64
}

type thumbKey struct {
	SourceID string
	Second   int64
}

// Frame is a decoded frame owned by the cache. The image is borrowed;
// it remains valid only until the entry is evicted.
type Frame struct {
	SourceID string
	Index    int64
	Image    *image.RGBA
	LoadedAt time.Time
}

// Stats is a point-in-time cache summary. Memory is an estimate from
// entry counts times a fixed per-entry byte assumption, not exact
// accounting.
type Stats struct {
	FramesCached      int   `json:"frames_cached"`
	ThumbnailsCached  int   `json:"thumbnails_cached"`
	QueueLength       int   `json:"queue_length"`
	ApproxMemoryBytes int64 `json:"approx_memory_bytes"`
}

// Requester is the prefetch side of the cache: misses and bulk
// prioritization turn into queued requests. Wired after construction
// so the cache and scheduler can reference each other.
type Requester interface {
	Request(sourceID string, frame int64, priority int)
	Reset()
	Len() int
}

// Cache is the bounded LRU store of decoded frames and thumbnails.
// Lookups never block on decode; misses enqueue prefetch requests and
// the scheduler fills entries through LoadImmediate.
type Cache struct {
	mu     sync.Mutex
	frames *lru[FrameKey, *Frame]
	thumbs *lru[thumbKey, image.Image]

	store *media.Store
	pool  *SurfacePool

	requester Requester

	// Per-source seek serialization: a source's seek position is not
	// reentrant-safe, so at most one seek+capture runs per source.
	seekMu    sync.Mutex
	seekLocks map[string]*sync.Mutex

	thumbInflight map[thumbKey]struct{}

	cfg       config.CacheConfig
	logger    logger.Logger
	decodeLog *logger.SampledLogger
}

func New(cfg config.CacheConfig, store *media.Store, log logger.Logger) *Cache {
	c := &Cache{
		store:         store,
		pool:          NewSurfacePool(cfg.SurfacePoolSize, cfg.NominalWidth, cfg.NominalHeight),
		seekLocks:     make(map[string]*sync.Mutex),
		thumbInflight: make(map[thumbKey]struct{}),
		cfg:           cfg,
		logger:        log,
		decodeLog:     logger.NewSampledLogger(log, 1, 5),
	}

	c.frames = newLRU[FrameKey, *Frame](cfg.FrameCapacity, func(key FrameKey, _ *Frame) {
		metrics.IncrementCacheEviction("frames")
	})
	c.thumbs = newLRU[thumbKey, image.Image](cfg.ThumbnailCapacity, func(key thumbKey, _ image.Image) {
		metrics.IncrementCacheEviction("thumbnails")
	})

	return c
}

// SetRequester wires the prefetch scheduler in after construction.
func (c *Cache) SetRequester(r Requester) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requester = r
}

// Get returns the cached frame, promoting its recency. A miss enqueues
// a low-priority prefetch request for the key and returns absent; it
// never blocks to decode. An unknown source is a plain miss.
func (c *Cache) Get(sourceID string, frame int64) (*Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := FrameKey{SourceID: sourceID, Frame: frame}
	if f, ok := c.frames.Get(key); ok {
		metrics.IncrementCacheHit("frames")
		return f, true
	}

	metrics.IncrementCacheMiss("frames")

	if _, ok := c.store.Get(sourceID); !ok {
		return nil, false
	}
	if c.requester != nil {
		c.requester.Request(sourceID, frame, 1)
	}
	return nil, false
}

// Cached reports whether a frame is resident without touching recency.
func (c *Cache) Cached(sourceID string, frame int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames.Contains(FrameKey{SourceID: sourceID, Frame: frame})
}

// GetThumbnail returns the cached thumbnail for the floored second. A
// miss triggers a one-off background capture, bypassing the prefetch
// queue, and returns absent immediately.
func (c *Cache) GetThumbnail(sourceID string, second float64) (image.Image, bool) {
	key := thumbKey{SourceID: sourceID, Second: int64(math.Floor(second))}

	c.mu.Lock()
	if img, ok := c.thumbs.Get(key); ok {
		c.mu.Unlock()
		metrics.IncrementCacheHit("thumbnails")
		return img, true
	}
	metrics.IncrementCacheMiss("thumbnails")

	if _, inflight := c.thumbInflight[key]; inflight {
		c.mu.Unlock()
		return nil, false
	}
	if _, ok := c.store.Get(sourceID); !ok {
		c.mu.Unlock()
		return nil, false
	}
	c.thumbInflight[key] = struct{}{}
	c.mu.Unlock()

	go c.captureThumbnail(key)
	return nil, false
}

func (c *Cache) captureThumbnail(key thumbKey) {
	defer func() {
		c.mu.Lock()
		delete(c.thumbInflight, key)
		c.mu.Unlock()
	}()

	src, ok := c.store.Get(key.SourceID)
	if !ok {
		return
	}

	lock := c.sourceLock(key.SourceID)
	lock.Lock()
	defer lock.Unlock()

	ctx := context.Background()
	if err := src.Seek(ctx, float64(key.Second)); err != nil {
		c.decodeLog.WithError(err).Warn("Thumbnail seek failed")
		return
	}
	img, err := src.Capture(ctx)
	if err != nil {
		c.decodeLog.WithError(err).Warn("Thumbnail capture failed")
		return
	}

	thumb := image.NewRGBA(image.Rect(0, 0, c.cfg.ThumbnailWidth, c.cfg.ThumbnailHeight))
	xdraw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	c.mu.Lock()
	c.thumbs.Put(key, thumb)
	metrics.SetCacheEntries("thumbnails", c.thumbs.Len())
	c.mu.Unlock()
}

// LoadImmediate is the blocking decode path used by the scheduler:
// seek the source to frame/fps, capture a decoded image, store it and
// return it. Failures come back as DecodeError; callers log and move
// on.
func (c *Cache) LoadImmediate(ctx context.Context, sourceID string, frame int64) (*Frame, error) {
	src, ok := c.store.Get(sourceID)
	if !ok {
		return nil, errors.NewDecodeError(sourceID, int(frame), errors.NewSourceUnavailableError(sourceID))
	}

	lock := c.sourceLock(sourceID)
	lock.Lock()
	defer lock.Unlock()

	// Another load for the same key may have completed while waiting on
	// the source lock.
	c.mu.Lock()
	key := FrameKey{SourceID: sourceID, Frame: frame}
	if f, ok := c.frames.Get(key); ok {
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	meta := src.Metadata()
	start := time.Now()

	if err := src.Seek(ctx, float64(frame)/meta.FPS); err != nil {
		metrics.IncrementDecodeError(sourceID)
		c.decodeLog.WithError(err).Error("Frame seek failed")
		return nil, errors.NewDecodeError(sourceID, int(frame), err)
	}

	img, err := src.Capture(ctx)
	if err != nil {
		metrics.IncrementDecodeError(sourceID)
		c.decodeLog.WithError(err).Error("Frame capture failed")
		return nil, errors.NewDecodeError(sourceID, int(frame), err)
	}

	metrics.ObserveDecodeDuration(sourceID, time.Since(start).Seconds())

	f := &Frame{
		SourceID: sourceID,
		Index:    frame,
		Image:    c.normalize(img),
		LoadedAt: time.Now(),
	}

	c.mu.Lock()
	c.frames.Put(key, f)
	metrics.SetCacheEntries("frames", c.frames.Len())
	c.mu.Unlock()

	return f, nil
}

// LoadFrame is LoadImmediate without the result, for callers that only
// care about populating the cache.
func (c *Cache) LoadFrame(ctx context.Context, sourceID string, frame int64) error {
	_, err := c.LoadImmediate(ctx, sourceID, frame)
	return err
}

// normalize draws a decoded image into an owned RGBA buffer through a
// pooled scratch surface.
func (c *Cache) normalize(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}

	b := img.Bounds()
	surf := c.pool.Get(b.Dx(), b.Dy())
	defer c.pool.Put(surf)

	draw.Draw(surf, surf.Bounds(), img, b.Min, draw.Src)

	owned := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	copy(owned.Pix, surf.Pix)
	return owned
}

// Prioritize bulk-enqueues every frame in the inclusive range with
// priority inversely proportional to distance from the range midpoint,
// floored at 1. Already-cached frames are skipped.
func (c *Cache) Prioritize(sourceID string, startFrame, endFrame int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requester == nil || endFrame < startFrame {
		return
	}
	if _, ok := c.store.Get(sourceID); !ok {
		return
	}

	mid := float64(startFrame+endFrame) / 2
	half := float64(endFrame-startFrame) / 2

	for f := startFrame; f <= endFrame; f++ {
		if c.frames.Contains(FrameKey{SourceID: sourceID, Frame: f}) {
			continue
		}
		priority := int(half-math.Abs(float64(f)-mid)) + 1
		if priority < 1 {
			priority = 1
		}
		c.requester.Request(sourceID, f, priority)
	}
}

// Reset clears both caches, the pending queue and all source bindings.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.frames.Clear()
	c.thumbs.Clear()
	if c.requester != nil {
		c.requester.Reset()
	}
	metrics.SetCacheEntries("frames", 0)
	metrics.SetCacheEntries("thumbnails", 0)
	c.mu.Unlock()

	c.store.Clear()
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	frameBytes := int64(c.cfg.NominalWidth * c.cfg.NominalHeight * bytesPerPixel)
	thumbBytes := int64(c.cfg.ThumbnailWidth * c.cfg.ThumbnailHeight * bytesPerPixel)

	queueLen := 0
	if c.requester != nil {
		queueLen = c.requester.Len()
	}

	return Stats{
		FramesCached:      c.frames.Len(),
		ThumbnailsCached:  c.thumbs.Len(),
		QueueLength:       queueLen,
		ApproxMemoryBytes: int64(c.frames.Len())*frameBytes + int64(c.thumbs.Len())*thumbBytes,
	}
}

func (c *Cache) sourceLock(sourceID string) *sync.Mutex {
	c.seekMu.Lock()
	defer c.seekMu.Unlock()
	lock, ok := c.seekLocks[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		c.seekLocks[sourceID] = lock
	}
	return lock
}

// DecodeSuppressed reports how many decode-failure log lines were
// dropped by sampling.
func (c *Cache) DecodeSuppressed() int64 {
	return c.decodeLog.Suppressed()
}
