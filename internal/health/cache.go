package health

import (
	"context"
	"fmt"

	"github.com/zsiec/reel/internal/playback/cache"
)

// CacheChecker watches the frame cache and prefetch queue. A queue
// pinned at its bound means decode cannot keep up and requests are
// being dropped.
type CacheChecker struct {
	frames     *cache.Cache
	maxPending int
}

func NewCacheChecker(frames *cache.Cache, maxPending int) *CacheChecker {
	return &CacheChecker{frames: frames, maxPending: maxPending}
}

func (c *CacheChecker) Name() string {
	return "frame_cache"
}

func (c *CacheChecker) Check(ctx context.Context) error {
	stats := c.frames.Stats()

	if c.maxPending > 0 && stats.QueueLength >= c.maxPending {
		return fmt.Errorf("prefetch queue saturated: %d pending", stats.QueueLength)
	}

	return nil
}
