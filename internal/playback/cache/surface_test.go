package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSurfacePool_ReusesNominalSurfaces(t *testing.T) {
	p := NewSurfacePool(4, 64, 36)
	assert.Equal(t, 2, p.Available())

	surf := p.Get(64, 36)
	surf.Pix[0] = 0xff
	p.Put(surf)

	again := p.Get(64, 36)
	assert.Equal(t, uint8(0), again.Pix[0], "returned surfaces are cleared")
}

func TestSurfacePool_OffSizeNotPooled(t *testing.T) {
	p := NewSurfacePool(2, 64, 36)
	before := p.Available()

	surf := p.Get(10, 10)
	assert.Equal(t, 10, surf.Bounds().Dx())

	p.Put(surf)
	assert.Equal(t, before, p.Available())
}

func TestSurfacePool_NeverExceedsCapacity(t *testing.T) {
	p := NewSurfacePool(2, 8, 8)

	for i := 0; i < 5; i++ {
		p.Put(p.Get(8, 8))
	}
	assert.LessOrEqual(t, p.Available(), 2)
}
