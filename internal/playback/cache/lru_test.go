package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_EvictsExactlyLeastRecentlyUsed(t *testing.T) {
	var evicted []int
	l := newLRU[int, string](3, func(key int, _ string) {
		evicted = append(evicted, key)
	})

	l.Put(1, "a")
	l.Put(2, "b")
	l.Put(3, "c")

	// Touch 1 so 2 becomes the oldest.
	_, ok := l.Get(1)
	assert.True(t, ok)

	l.Put(4, "d")

	assert.Equal(t, []int{2}, evicted)
	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Contains(1))
	assert.False(t, l.Contains(2))
	assert.True(t, l.Contains(3))
	assert.True(t, l.Contains(4))
}

func TestLRU_PutExistingPromotes(t *testing.T) {
	l := newLRU[int, string](2, nil)
	l.Put(1, "a")
	l.Put(2, "b")
	l.Put(1, "a2")

	l.Put(3, "c")

	assert.True(t, l.Contains(1))
	assert.False(t, l.Contains(2))

	v, ok := l.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "a2", v)
}

func TestLRU_ContainsDoesNotPromote(t *testing.T) {
	l := newLRU[int, string](2, nil)
	l.Put(1, "a")
	l.Put(2, "b")

	assert.True(t, l.Contains(1))
	l.Put(3, "c")

	// 1 was oldest despite the Contains check.
	assert.False(t, l.Contains(1))
	assert.True(t, l.Contains(2))
}

func TestLRU_RemoveSkipsEvictionCallback(t *testing.T) {
	evictions := 0
	l := newLRU[int, string](2, func(int, string) { evictions++ })
	l.Put(1, "a")
	l.Remove(1)

	assert.Equal(t, 0, evictions)
	assert.Equal(t, 0, l.Len())
}

func TestLRU_Clear(t *testing.T) {
	l := newLRU[int, string](4, nil)
	l.Put(1, "a")
	l.Put(2, "b")

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains(1))

	l.Put(3, "c")
	assert.Equal(t, 1, l.Len())
}
