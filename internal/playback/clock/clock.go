package clock

import (
	"math"
	"sync"

	"github.com/zsiec/reel/internal/errors"
)

// Tick is an instantaneous snapshot of playback position.
type Tick struct {
	Frame int64   `json:"frame"`
	Time  float64 `json:"time"`
	Rate  float64 `json:"rate"`
	FPS   float64 `json:"fps"`
}

// Boundary is a frame range with an inclusive start and exclusive end.
// A nil End means unbounded.
type Boundary struct {
	Start float64
	End   *float64
}

// Clock converts elapsed wall-clock time into a continuously advancing
// frame position at a fixed frame rate. It enforces a permanent boundary
// (the clip bounds) and an optional transient selection boundary; motion
// that would cross a boundary edge is clamped and stops the clock.
type Clock struct {
	mu sync.Mutex

	fps         float64
	defaultRate float64

	frame float64
	time  float64
	rate  float64

	permanent Boundary
	selection *Boundary

	disposed bool
}

// New creates a clock for a clip with the given frame rate and total
// frame count. The permanent boundary is [0, totalFrames). defaultRate
// is the rate applied by Start; zero or negative falls back to 1.
func New(fps, totalFrames, defaultRate float64) (*Clock, error) {
	if fps <= 0 {
		return nil, errors.NewValidationError("clock fps must be positive")
	}
	if defaultRate <= 0 {
		defaultRate = 1
	}

	c := &Clock{
		fps:         fps,
		defaultRate: defaultRate,
		permanent:   Boundary{Start: 0},
	}
	if totalFrames > 0 {
		end := totalFrames
		c.permanent.End = &end
	}
	return c, nil
}

// Start begins forward playback at the default rate. A non-nil from/to
// establishes a transient selection boundary; absent edges fall back to
// the permanent boundary's edges.
func (c *Clock) Start(from, to *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}

	c.rate = c.defaultRate

	if from != nil || to != nil {
		sel := Boundary{Start: c.permanent.Start, End: c.permanent.End}
		if from != nil {
			sel.Start = *from
		}
		if to != nil {
			end := *to
			sel.End = &end
		}
		c.selection = &sel
	}

	c.clampLocked(c.permanent, 0)
	if c.selection != nil {
		c.clampLocked(*c.selection, 0)
	}
}

// Stop sets the rate to zero and clears the transient selection.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	c.rate = 0
	c.selection = nil
}

// Advance moves the clock forward by elapsed wall-clock seconds scaled
// by the current rate, then evaluates the permanent boundary followed by
// the selection boundary. Crossing an edge in the direction of motion
// clamps the frame and stops the clock. Returns the post-advance tick.
func (c *Clock) Advance(elapsed float64) Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return c.tickLocked()
	}

	dir := c.rate
	c.time += elapsed * c.rate
	c.frame += elapsed * c.fps * c.rate

	// Capture the selection up front: a stop triggered by the permanent
	// boundary clears it, but both boundaries are evaluated for this
	// step so an oversized advance cannot skip past the selection end.
	sel := c.selection
	c.clampLocked(c.permanent, dir)
	if sel != nil {
		c.clampLocked(*sel, dir)
	}

	return c.tickLocked()
}

// clampLocked enforces one boundary. dir is the rate at the start of the
// advance; a clamp only stops the clock when the motion direction would
// cross the edge. dir==0 clamps without stopping.
func (c *Clock) clampLocked(b Boundary, dir float64) {
	if c.frame < b.Start {
		c.frame = b.Start
		c.time = c.frame / c.fps
		if dir < 0 {
			c.stopLocked()
		}
	}
	if b.End != nil && c.frame >= *b.End {
		c.frame = *b.End - 1
		if c.frame < b.Start {
			c.frame = b.Start
		}
		c.time = c.frame / c.fps
		if dir > 0 {
			c.stopLocked()
		}
	}
}

// CurrentFrame returns the playback frame floored to an integer.
func (c *Clock) CurrentFrame() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(math.Floor(c.frame))
}

// SetCurrentFrame seeks to an exact frame position. The transient
// selection is cleared and the permanent boundary re-applied; the
// play/stop state is unchanged.
func (c *Clock) SetCurrentFrame(frame float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}

	c.selection = nil
	c.frame = frame
	c.time = frame / c.fps
	c.clampLocked(c.permanent, 0)
}

// CurrentTime returns the playback time in seconds.
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

// Rate returns the current playback rate.
func (c *Clock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// SetRate assigns the playback rate directly. Setting zero carries
// Stop's side effects; frame and time are untouched either way.
func (c *Clock) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if rate == 0 {
		c.stopLocked()
		return
	}
	c.rate = rate
}

// FPS returns the clock's frame rate.
func (c *Clock) FPS() float64 {
	return c.fps
}

// Selection returns a copy of the active selection boundary, or nil.
func (c *Clock) Selection() *Boundary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection == nil {
		return nil
	}
	sel := Boundary{Start: c.selection.Start}
	if c.selection.End != nil {
		end := *c.selection.End
		sel.End = &end
	}
	return &sel
}

// Snapshot returns the current tick without advancing.
func (c *Clock) Snapshot() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickLocked()
}

func (c *Clock) tickLocked() Tick {
	return Tick{
		Frame: int64(math.Floor(c.frame)),
		Time:  c.time,
		Rate:  c.rate,
		FPS:   c.fps,
	}
}

// Dispose stops the clock and rejects further mutation.
func (c *Clock) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.disposed = true
}
