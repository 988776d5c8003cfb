package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/reel/internal/errors"
	"github.com/zsiec/reel/internal/logger"
)

func testMeta() Metadata {
	return Metadata{
		DurationSeconds: 10,
		Width:           64,
		Height:          36,
		FPS:             30,
		Codec:           "h264",
	}
}

func TestStore_AddGetRemove(t *testing.T) {
	store := NewStore(logger.NewNullLogger())

	src := NewStaticSource("clip-1", testMeta())
	require.NoError(t, store.Add(src))

	got, ok := store.Get("clip-1")
	require.True(t, ok)
	assert.Equal(t, src, got)
	assert.Equal(t, 1, store.Len())

	store.Remove("clip-1")
	_, ok = store.Get("clip-1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	// Removed sources are closed
	err := src.Seek(context.Background(), 1)
	assert.Error(t, err)
}

func TestStore_AddDuplicate(t *testing.T) {
	store := NewStore(logger.NewNullLogger())

	require.NoError(t, store.Add(NewStaticSource("clip-1", testMeta())))
	err := store.Add(NewStaticSource("clip-1", testMeta()))

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(logger.NewNullLogger())

	a := NewStaticSource("a", testMeta())
	b := NewStaticSource("b", testMeta())
	require.NoError(t, store.Add(a))
	require.NoError(t, store.Add(b))
	assert.ElementsMatch(t, []string{"a", "b"}, store.IDs())

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.Error(t, a.Seek(context.Background(), 0))
	assert.Error(t, b.Seek(context.Background(), 0))
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	store := NewStore(logger.NewNullLogger())
	store.Remove("nothing")
}
