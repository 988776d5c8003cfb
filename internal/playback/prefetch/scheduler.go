package prefetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/logger"
	"github.com/zsiec/reel/internal/metrics"
)

// FrameLoader is the cache side of the scheduler: skip checks and the
// blocking decode path.
type FrameLoader interface {
	Cached(sourceID string, frame int64) bool
	LoadFrame(ctx context.Context, sourceID string, frame int64) error
}

// Scheduler drains the pending-request queue in priority order. Each
// pass takes a small batch, skips already-cached keys, decodes the rest
// concurrently and reschedules itself after a short delay while work
// remains. Decode failures are logged and dropped.
type Scheduler struct {
	queue  *queue
	loader FrameLoader

	batchSize    int
	requeueDelay time.Duration
	limiter      *rate.Limiter

	running atomic.Bool
	wg      sync.WaitGroup

	timerMu sync.Mutex
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	logger logger.Logger
}

func NewScheduler(cfg config.PrefetchConfig, loader FrameLoader, log logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		queue:        newQueue(cfg.MaxPending),
		loader:       loader,
		batchSize:    cfg.BatchSize,
		requeueDelay: cfg.RequeueDelay,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		ctx:          ctx,
		cancel:       cancel,
		logger:       log.WithField("component", "prefetch"),
	}
}

// Request enqueues a frame for speculative decode and kicks a queue
// pass. Duplicate keys collapse into one pending request, keeping the
// higher priority. Safe to call from cache lookups; it never blocks on
// decode.
func (s *Scheduler) Request(sourceID string, frame int64, priority int) {
	if s.ctx.Err() != nil {
		return
	}

	s.queue.Push(sourceID, frame, priority)

	if !s.running.Load() {
		go s.ProcessQueue()
	}
}

// ProcessQueue runs one batch pass. Non-reentrant: concurrent calls
// return immediately while a pass is in flight.
func (s *Scheduler) ProcessQueue() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	// Registered before the flag release so it runs after it: a request
	// pushed during the tail of this pass sees running as true and kicks
	// no pass of its own, so the recheck here must arm the next one.
	defer func() {
		if s.queue.Len() > 0 {
			s.reschedule()
		}
	}()
	defer s.running.Store(false)

	if s.ctx.Err() != nil {
		return
	}

	batch := s.queue.PopBatch(s.batchSize)
	if len(batch) == 0 {
		return
	}

	metrics.IncrementPrefetchBatch()

	var loads sync.WaitGroup
	for _, r := range batch {
		if s.loader.Cached(r.key.sourceID, r.key.frame) {
			continue
		}

		if err := s.limiter.Wait(s.ctx); err != nil {
			return
		}

		loads.Add(1)
		s.wg.Add(1)
		go func(sourceID string, frame int64) {
			defer loads.Done()
			defer s.wg.Done()

			if err := s.loader.LoadFrame(s.ctx, sourceID, frame); err != nil {
				s.logger.WithError(err).WithFields(logger.Fields{
					"source_id": sourceID,
					"frame":     frame,
				}).Debug("Prefetch load failed")
			}
		}(r.key.sourceID, r.key.frame)
	}
	loads.Wait()
}

func (s *Scheduler) reschedule() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.requeueDelay, s.ProcessQueue)
}

// Reset drops all pending requests.
func (s *Scheduler) Reset() {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerMu.Unlock()

	s.queue.Reset()
}

// Len returns the number of pending requests.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Stop cancels in-flight loads and waits for them to finish. The
// scheduler accepts no further requests.
func (s *Scheduler) Stop() {
	s.cancel()
	s.Reset()
	s.wg.Wait()
}
