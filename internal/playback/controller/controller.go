package controller

import (
	"sync"
	"time"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/errors"
	"github.com/zsiec/reel/internal/logger"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/metrics"
	"github.com/zsiec/reel/internal/playback/cache"
	"github.com/zsiec/reel/internal/playback/clock"
)

// State is the controller's playback state.
type State string

const (
	// StateEmpty means no asset is bound.
	StateEmpty State = "empty"
	// StateReady means an asset is bound and the clock is stopped.
	StateReady State = "ready"
	// StatePlaying means the clock is advancing.
	StatePlaying State = "playing"
)

// StateChange is the snapshot delivered to state-change observers.
type StateChange struct {
	State        State   `json:"state"`
	IsPlaying    bool    `json:"is_playing"`
	SourceID     string  `json:"source_id,omitempty"`
	CurrentFrame int64   `json:"current_frame"`
	CurrentTime  float64 `json:"current_time"`
	Duration     float64 `json:"duration"`
	FPS          float64 `json:"fps"`
}

// StateChangeFunc observes state transitions and seeks.
type StateChangeFunc func(StateChange)

// TimeUpdateFunc observes playback time while playing.
type TimeUpdateFunc func(seconds float64)

// Controller is the playback state machine. It owns one clock scoped to
// the bound asset and is driven by an external per-refresh Render call;
// it never schedules its own ticks.
type Controller struct {
	mu sync.Mutex

	state  State
	source media.Source
	clk    *clock.Clock

	frames *cache.Cache

	// now is the wall clock; injected for tests.
	now      func() time.Time
	lastTick time.Time

	// current is the most recently drawn frame. On a cache miss it is
	// either held or blanked, depending on policy.
	current *cache.Frame
	// dirty marks that the frame under the playhead changed while
	// stopped, so the next Render fetches even in Ready.
	dirty bool

	stateObservers []StateChangeFunc
	timeObservers  []TimeUpdateFunc

	cfg    config.PlaybackConfig
	logger logger.Logger
}

func New(cfg config.PlaybackConfig, frames *cache.Cache, log logger.Logger) *Controller {
	return &Controller{
		state:  StateEmpty,
		frames: frames,
		now:    time.Now,
		cfg:    cfg,
		logger: log.WithField("component", "controller"),
	}
}

// OnStateChange registers a state observer. Observers run synchronously
// in transition order and must not call back into the controller.
func (c *Controller) OnStateChange(fn StateChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateObservers = append(c.stateObservers, fn)
}

// OnTimeUpdate registers a time observer, invoked once per Render while
// playing and after every seek.
func (c *Controller) OnTimeUpdate(fn TimeUpdateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeObservers = append(c.timeObservers, fn)
}

// SetAsset binds a source, replacing any prior binding. A nil source
// unbinds and transitions to Empty. Invalid metadata fails with
// InvalidAssetError and the prior binding is retained.
func (c *Controller) SetAsset(src media.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if src == nil {
		c.unbindLocked()
		c.emitStateLocked()
		return nil
	}

	meta := src.Metadata()
	if err := meta.Validate(); err != nil {
		return err
	}

	clk, err := clock.New(meta.FPS, meta.TotalFrames(), c.cfg.DefaultRate)
	if err != nil {
		return errors.NewInvalidAssetError(err.Error())
	}

	if c.clk != nil {
		c.clk.Dispose()
	}

	c.source = src
	c.clk = clk
	c.state = StateReady
	c.current = nil
	c.dirty = true
	c.lastTick = time.Time{}
	metrics.SetPlaybackActive(false)

	c.logger.WithFields(logger.Fields{
		"source_id": src.ID(),
		"fps":       meta.FPS,
		"duration":  meta.DurationSeconds,
	}).Info("Asset bound")

	c.emitStateLocked()
	return nil
}

func (c *Controller) unbindLocked() {
	if c.clk != nil {
		c.clk.Dispose()
		c.clk = nil
	}
	c.source = nil
	c.current = nil
	c.dirty = false
	c.state = StateEmpty
	metrics.SetPlaybackActive(false)
}

// Play starts forward playback at the default rate.
func (c *Controller) Play() error {
	return c.PlayRange(nil, nil)
}

// PlayRange starts playback bounded by a transient selection; nil edges
// fall back to the clip bounds.
func (c *Controller) PlayRange(from, to *float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEmpty {
		return errors.NewValidationError("no asset bound")
	}

	c.clk.Start(from, to)
	c.state = StatePlaying
	c.lastTick = time.Time{}
	metrics.SetPlaybackActive(true)

	c.emitStateLocked()
	return nil
}

// Pause stops the clock and returns to Ready.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEmpty {
		return errors.NewValidationError("no asset bound")
	}

	c.clk.Stop()
	c.state = StateReady
	metrics.SetPlaybackActive(false)

	c.emitStateLocked()
	return nil
}

// SeekToFrame moves the playhead to an exact frame. The play/pause
// state is unchanged.
func (c *Controller) SeekToFrame(frame int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(float64(frame))
}

// SeekToTime moves the playhead to a time in seconds.
func (c *Controller) SeekToTime(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEmpty {
		return errors.NewValidationError("no asset bound")
	}
	return c.seekLocked(seconds * c.clk.FPS())
}

func (c *Controller) seekLocked(frame float64) error {
	if c.state == StateEmpty {
		return errors.NewValidationError("no asset bound")
	}

	c.clk.SetCurrentFrame(frame)
	c.dirty = true
	metrics.IncrementSeeks()

	c.emitStateLocked()
	c.emitTimeLocked(c.clk.CurrentTime())
	return nil
}

// Render is the per-refresh tick, driven by the host's frame pacer.
// While playing it advances the clock by measured elapsed wall time,
// fetches the current frame without blocking and always emits a time
// update, even on a cache miss. A boundary-triggered stop transitions
// to Ready. Returns the frame drawn, or nil when blank.
func (c *Controller) Render() *cache.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEmpty {
		return nil
	}

	now := c.now()
	var elapsed float64
	if !c.lastTick.IsZero() {
		elapsed = now.Sub(c.lastTick).Seconds()
	}
	c.lastTick = now

	wasPlaying := c.state == StatePlaying

	var tick clock.Tick
	if wasPlaying {
		tick = c.clk.Advance(elapsed)
		if tick.Rate == 0 {
			// Boundary stop.
			c.state = StateReady
			metrics.SetPlaybackActive(false)
			c.emitStateLocked()
		}
	} else {
		if !c.dirty {
			return c.current
		}
		tick = c.clk.Snapshot()
	}

	if f, ok := c.frames.Get(c.source.ID(), tick.Frame); ok {
		c.current = f
		c.dirty = false
		metrics.IncrementFramesRendered()
	} else {
		metrics.IncrementFramesMissed()
		if !c.cfg.HoldLastFrame {
			c.current = nil
		}
	}

	if wasPlaying {
		c.emitTimeLocked(tick.Time)
	}

	return c.current
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position returns the clock snapshot, or a zero tick when Empty.
func (c *Controller) Position() clock.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clk == nil {
		return clock.Tick{}
	}
	return c.clk.Snapshot()
}

// Snapshot returns the observer-shaped view of the current state.
func (c *Controller) Snapshot() StateChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Dispose unbinds the asset and stops the clock.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbindLocked()
	c.emitStateLocked()
}

func (c *Controller) snapshotLocked() StateChange {
	sc := StateChange{State: c.state, IsPlaying: c.state == StatePlaying}
	if c.source != nil && c.clk != nil {
		meta := c.source.Metadata()
		tick := c.clk.Snapshot()
		sc.SourceID = c.source.ID()
		sc.CurrentFrame = tick.Frame
		sc.CurrentTime = tick.Time
		sc.Duration = meta.DurationSeconds
		sc.FPS = meta.FPS
	}
	return sc
}

func (c *Controller) emitStateLocked() {
	sc := c.snapshotLocked()
	for _, fn := range c.stateObservers {
		fn(sc)
	}
}

func (c *Controller) emitTimeLocked(seconds float64) {
	for _, fn := range c.timeObservers {
		fn(seconds)
	}
}
