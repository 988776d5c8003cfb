package prefetch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/logger"
)

type fakeLoader struct {
	mu       sync.Mutex
	cached   map[key]bool
	loaded   []key
	failFor  map[key]bool
	loadTime time.Duration

	// When set, LoadFrame signals started and then blocks on gate.
	started chan struct{}
	gate    chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		cached:  make(map[key]bool),
		failFor: make(map[key]bool),
	}
}

func (f *fakeLoader) Cached(sourceID string, frame int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached[key{sourceID: sourceID, frame: frame}]
}

func (f *fakeLoader) LoadFrame(ctx context.Context, sourceID string, frame int64) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if f.loadTime > 0 {
		select {
		case <-time.After(f.loadTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	k := key{sourceID: sourceID, frame: frame}
	if f.failFor[k] {
		return fmt.Errorf("decode failed for frame %d", frame)
	}
	f.loaded = append(f.loaded, k)
	f.cached[k] = true
	return nil
}

func (f *fakeLoader) loadedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loaded)
}

func testPrefetchConfig() config.PrefetchConfig {
	return config.PrefetchConfig{
		BatchSize:     5,
		RequeueDelay:  10 * time.Millisecond,
		MaxPending:    1000,
		RatePerSecond: 10000,
		RateBurst:     100,
	}
}

func TestScheduler_DrainsQueue(t *testing.T) {
	loader := newFakeLoader()
	s := NewScheduler(testPrefetchConfig(), loader, logger.NewNullLogger())
	defer s.Stop()

	for i := int64(0); i < 12; i++ {
		s.Request("src-1", i, 1)
	}

	require.Eventually(t, func() bool {
		return loader.loadedCount() == 12 && s.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_BatchSizePerPass(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.RequeueDelay = time.Hour // keep the remainder queued
	loader := newFakeLoader()
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	for i := int64(0); i < 12; i++ {
		s.queue.Push("src-1", i, 1)
	}

	s.ProcessQueue()

	assert.Equal(t, 5, loader.loadedCount())
	assert.Equal(t, 7, s.Len())
}

func TestScheduler_SkipsCachedKeys(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.RequeueDelay = time.Hour
	loader := newFakeLoader()
	loader.cached[key{sourceID: "src-1", frame: 2}] = true
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	for i := int64(0); i < 5; i++ {
		s.queue.Push("src-1", i, 1)
	}

	s.ProcessQueue()

	assert.Equal(t, 4, loader.loadedCount())
	for _, k := range loader.loaded {
		assert.NotEqual(t, int64(2), k.frame)
	}
}

func TestScheduler_FailureDoesNotAbortBatch(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.RequeueDelay = time.Hour
	loader := newFakeLoader()
	loader.failFor[key{sourceID: "src-1", frame: 1}] = true
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	for i := int64(0); i < 5; i++ {
		s.queue.Push("src-1", i, 1)
	}

	s.ProcessQueue()

	assert.Equal(t, 4, loader.loadedCount())
}

func TestScheduler_NonReentrant(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.RequeueDelay = time.Hour
	loader := newFakeLoader()
	loader.loadTime = 50 * time.Millisecond
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	for i := int64(0); i < 10; i++ {
		s.queue.Push("src-1", i, 1)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ProcessQueue()
		}()
	}
	wg.Wait()

	// Only one pass ran; the overlapping calls bailed out.
	assert.Equal(t, 5, loader.loadedCount())
	assert.Equal(t, 5, s.Len())
}

func TestScheduler_HigherPriorityLoadsFirst(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.BatchSize = 1
	cfg.RequeueDelay = time.Hour
	loader := newFakeLoader()
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	s.queue.Push("src-1", 1, 1)
	s.queue.Push("src-1", 2, 10)

	s.ProcessQueue()

	require.Equal(t, 1, loader.loadedCount())
	assert.Equal(t, int64(2), loader.loaded[0].frame)
}

func TestScheduler_RequestDuringPassIsServed(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.RequeueDelay = time.Millisecond
	loader := newFakeLoader()
	loader.started = make(chan struct{}, 16)
	loader.gate = make(chan struct{})
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	s.Request("src-1", 1, 1)
	<-loader.started

	// The first pass is still in flight, so this request kicks no pass
	// of its own. The pass must arm a follow-up for it after releasing
	// the running flag.
	s.Request("src-1", 2, 1)
	close(loader.gate)

	require.Eventually(t, func() bool {
		return loader.loadedCount() == 2 && s.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_ResetDropsPending(t *testing.T) {
	cfg := testPrefetchConfig()
	cfg.RequeueDelay = time.Hour
	loader := newFakeLoader()
	s := NewScheduler(cfg, loader, logger.NewNullLogger())
	defer s.Stop()

	for i := int64(0); i < 8; i++ {
		s.queue.Push("src-1", i, 1)
	}

	s.Reset()
	assert.Equal(t, 0, s.Len())

	s.ProcessQueue()
	assert.Equal(t, 0, loader.loadedCount())
}

func TestScheduler_StopRejectsRequests(t *testing.T) {
	loader := newFakeLoader()
	s := NewScheduler(testPrefetchConfig(), loader, logger.NewNullLogger())

	s.Stop()
	s.Request("src-1", 1, 1)
	assert.Equal(t, 0, s.Len())
}
