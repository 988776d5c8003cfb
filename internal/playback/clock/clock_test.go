package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func newTestClock(t *testing.T, fps, totalFrames float64) *Clock {
	t.Helper()
	c, err := New(fps, totalFrames, 1)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsInvalidFPS(t *testing.T) {
	_, err := New(0, 300, 1)
	assert.Error(t, err)

	_, err = New(-24, 300, 1)
	assert.Error(t, err)
}

func TestAdvance_ExactAmounts(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)

	tick := c.Advance(1.0)
	assert.Equal(t, int64(30), tick.Frame)
	assert.InDelta(t, 1.0, tick.Time, 1e-9)

	tick = c.Advance(0.5)
	assert.Equal(t, int64(45), tick.Frame)
	assert.InDelta(t, 1.5, tick.Time, 1e-9)
}

func TestAdvance_RateScalesMotion(t *testing.T) {
	c := newTestClock(t, 30, 3000)
	c.Start(nil, nil)
	c.SetRate(2)

	tick := c.Advance(1.0)
	assert.Equal(t, int64(60), tick.Frame)
	assert.InDelta(t, 2.0, tick.Time, 1e-9)
}

func TestAdvance_ZeroElapsedIsNoOp(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)
	c.Advance(1.0)

	tick := c.Advance(0)
	assert.Equal(t, int64(30), tick.Frame)
	assert.InDelta(t, 1.0, tick.Time, 1e-9)
	assert.Equal(t, 1.0, tick.Rate)
}

func TestAdvance_CrossingEndClampsAndStops(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)
	c.SetCurrentFrame(297)
	c.Start(nil, nil)

	tick := c.Advance(1.0)
	assert.Equal(t, int64(299), tick.Frame)
	assert.Equal(t, 0.0, tick.Rate)
	assert.InDelta(t, 299.0/30.0, tick.Time, 1e-9)
}

func TestAdvance_CrossingStartBackwardClampsAndStops(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)
	c.SetCurrentFrame(5)
	c.SetRate(-1)

	tick := c.Advance(1.0)
	assert.Equal(t, int64(0), tick.Frame)
	assert.Equal(t, 0.0, tick.Rate)
	assert.InDelta(t, 0.0, tick.Time, 1e-9)
}

func TestAdvance_OversizedStepCannotSkipBothBoundaries(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(ptr(5), ptr(10))

	// One huge step past both the selection end and the permanent end.
	tick := c.Advance(100)
	assert.Equal(t, int64(9), tick.Frame)
	assert.Equal(t, 0.0, tick.Rate)
}

func TestBoundaryInvariant(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)

	for i := 0; i < 50; i++ {
		tick := c.Advance(0.3)
		assert.GreaterOrEqual(t, tick.Frame, int64(0))
		assert.Less(t, tick.Frame, int64(300))
	}

	c.SetCurrentFrame(-10)
	assert.Equal(t, int64(0), c.CurrentFrame())

	c.SetCurrentFrame(5000)
	assert.Equal(t, int64(299), c.CurrentFrame())
}

func TestStart_SelectionDefaultsToPermanentEdges(t *testing.T) {
	c := newTestClock(t, 30, 300)

	c.Start(ptr(5), nil)
	sel := c.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, 5.0, sel.Start)
	require.NotNil(t, sel.End)
	assert.Equal(t, 300.0, *sel.End)
}

func TestStart_ClampsIntoSelection(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.SetCurrentFrame(200)

	c.Start(ptr(5), ptr(10))
	assert.Equal(t, int64(9), c.CurrentFrame())
	assert.Equal(t, 1.0, c.Rate())
}

func TestSelectionEndStopsPlayback(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(ptr(30), ptr(60))

	tick := c.Advance(10)
	assert.Equal(t, int64(59), tick.Frame)
	assert.Equal(t, 0.0, tick.Rate)
	assert.Nil(t, c.Selection())
}

func TestSeekClearsSelection(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(ptr(5), ptr(10))

	c.SetCurrentFrame(20)
	assert.Nil(t, c.Selection())
	assert.Equal(t, int64(20), c.CurrentFrame())

	// Only the permanent boundary applies now.
	c.SetRate(1)
	tick := c.Advance(1.0)
	assert.Equal(t, int64(50), tick.Frame)
	assert.Equal(t, 1.0, tick.Rate)
}

func TestSeekPreservesRate(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)

	c.SetCurrentFrame(100)
	assert.Equal(t, 1.0, c.Rate())
}

func TestStop_ClearsRateAndSelection(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(ptr(5), ptr(10))

	c.Stop()
	assert.Equal(t, 0.0, c.Rate())
	assert.Nil(t, c.Selection())
}

func TestSetRate_ZeroTriggersStopSideEffects(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(ptr(5), ptr(10))
	c.Advance(0.05)
	before := c.Snapshot()

	c.SetRate(0)
	assert.Nil(t, c.Selection())
	after := c.Snapshot()
	assert.Equal(t, before.Frame, after.Frame)
	assert.InDelta(t, before.Time, after.Time, 1e-9)
}

func TestDefaultRate(t *testing.T) {
	c, err := New(30, 300, 2)
	require.NoError(t, err)

	c.Start(nil, nil)
	assert.Equal(t, 2.0, c.Rate())

	tick := c.Advance(1.0)
	assert.Equal(t, int64(60), tick.Frame)
}

func TestDispose_RejectsFurtherMutation(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)
	c.Advance(1.0)

	c.Dispose()
	assert.Equal(t, 0.0, c.Rate())

	c.Start(nil, nil)
	assert.Equal(t, 0.0, c.Rate())

	tick := c.Advance(1.0)
	assert.Equal(t, int64(30), tick.Frame)

	c.SetCurrentFrame(10)
	assert.Equal(t, int64(30), c.CurrentFrame())
}

func TestUnboundedClock(t *testing.T) {
	c, err := New(30, 0, 1)
	require.NoError(t, err)

	c.Start(nil, nil)
	tick := c.Advance(1000)
	assert.Equal(t, int64(30000), tick.Frame)
	assert.Equal(t, 1.0, tick.Rate)
}

func TestFractionalFrameFloors(t *testing.T) {
	c := newTestClock(t, 30, 300)
	c.Start(nil, nil)

	tick := c.Advance(0.0166)
	assert.Equal(t, int64(0), tick.Frame)

	tick = c.Advance(0.02)
	assert.Equal(t, int64(1), tick.Frame)
}
