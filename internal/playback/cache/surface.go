package cache

import "image"

// SurfacePool is a fixed-capacity free list of reusable RGBA drawing
// surfaces at the nominal frame size. Surfaces are checked out during
// capture, cleared and returned after use. Off-size requests and
// surfaces returned while the pool is full are simply not pooled.
type SurfacePool struct {
	width  int
	height int
	free   chan *image.RGBA
}

func NewSurfacePool(size, width, height int) *SurfacePool {
	p := &SurfacePool{
		width:  width,
		height: height,
		free:   make(chan *image.RGBA, size),
	}

	for i := 0; i < size/2; i++ {
		p.free <- image.NewRGBA(image.Rect(0, 0, width, height))
	}

	return p
}

// Get returns a surface of exactly w by h pixels. Pooled surfaces are
// reused only for the nominal size; anything else is a fresh allocation.
func (p *SurfacePool) Get(w, h int) *image.RGBA {
	if w == p.width && h == p.height {
		select {
		case surf := <-p.free:
			return surf
		default:
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Put clears a surface and returns it to the free list. Surfaces that
// do not fit the pool are left for the collector.
func (p *SurfacePool) Put(surf *image.RGBA) {
	if surf == nil {
		return
	}
	b := surf.Bounds()
	if b.Dx() != p.width || b.Dy() != p.height {
		return
	}

	clear(surf.Pix)

	select {
	case p.free <- surf:
	default:
	}
}

// Available returns the number of surfaces currently pooled.
func (p *SurfacePool) Available() int {
	return len(p.free)
}
