package prefetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PopsInPriorityOrder(t *testing.T) {
	q := newQueue(100)
	q.Push("s", 1, 3)
	q.Push("s", 2, 9)
	q.Push("s", 3, 5)

	batch := q.PopBatch(3)
	require.Len(t, batch, 3)
	assert.Equal(t, int64(2), batch[0].key.frame)
	assert.Equal(t, int64(3), batch[1].key.frame)
	assert.Equal(t, int64(1), batch[2].key.frame)
}

func TestQueue_EqualPriorityKeepsInsertionOrder(t *testing.T) {
	q := newQueue(100)
	q.Push("s", 10, 1)
	q.Push("s", 20, 1)
	q.Push("s", 30, 1)

	batch := q.PopBatch(3)
	require.Len(t, batch, 3)
	assert.Equal(t, int64(10), batch[0].key.frame)
	assert.Equal(t, int64(20), batch[1].key.frame)
	assert.Equal(t, int64(30), batch[2].key.frame)
}

func TestQueue_DuplicateKeyCollapses(t *testing.T) {
	q := newQueue(100)
	q.Push("s", 1, 1)
	q.Push("s", 1, 1)
	assert.Equal(t, 1, q.Len())

	// A higher priority re-push moves the entry up.
	q.Push("s", 2, 5)
	q.Push("s", 1, 9)

	batch := q.PopBatch(2)
	assert.Equal(t, int64(1), batch[0].key.frame)
	assert.Equal(t, 9, batch[0].priority)
}

func TestQueue_DuplicateLowerPriorityIgnored(t *testing.T) {
	q := newQueue(100)
	q.Push("s", 1, 7)
	q.Push("s", 1, 2)

	batch := q.PopBatch(1)
	assert.Equal(t, 7, batch[0].priority)
}

func TestQueue_SameFrameDifferentSourcesAreDistinct(t *testing.T) {
	q := newQueue(100)
	q.Push("a", 1, 1)
	q.Push("b", 1, 1)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_OverflowDropsUnlessStrictlyHigher(t *testing.T) {
	q := newQueue(3)
	q.Push("s", 1, 5)
	q.Push("s", 2, 5)
	q.Push("s", 3, 5)

	// Equal priority does not displace anything.
	q.Push("s", 4, 5)
	assert.Equal(t, 3, q.Len())

	// Strictly higher replaces the lowest-priority entry.
	q.Push("s", 5, 9)
	assert.Equal(t, 3, q.Len())

	batch := q.PopBatch(3)
	frames := map[int64]bool{}
	for _, r := range batch {
		frames[r.key.frame] = true
	}
	assert.True(t, frames[5])
	assert.False(t, frames[4])
}

func TestQueue_PopBatchBounded(t *testing.T) {
	q := newQueue(100)
	for i := int64(0); i < 10; i++ {
		q.Push("s", i, 1)
	}

	batch := q.PopBatch(3)
	assert.Len(t, batch, 3)
	assert.Equal(t, 7, q.Len())
}

func TestQueue_Reset(t *testing.T) {
	q := newQueue(100)
	q.Push("s", 1, 1)
	q.Push("s", 2, 1)

	q.Reset()
	assert.Equal(t, 0, q.Len())

	// Keys are reusable after a reset.
	q.Push("s", 1, 1)
	assert.Equal(t, 1, q.Len())
}
