package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"
)

// StaticSource is a synthetic in-process source. It renders solid-color
// frames whose shade encodes the seek position, which makes cache and
// playback behavior observable without media files. Used in tests and for
// local development.
type StaticSource struct {
	id   string
	meta Metadata

	// SeekDelay simulates decode latency on each Seek call.
	SeekDelay time.Duration
	// FailSeeks makes every Seek return an error.
	FailSeeks bool
	// FailCaptures makes every Capture return an error.
	FailCaptures bool

	mu       sync.Mutex
	position float64
	seeks    int
	captures int
	closed   bool
}

// NewStaticSource creates a synthetic source with the given metadata.
func NewStaticSource(id string, meta Metadata) *StaticSource {
	return &StaticSource{id: id, meta: meta}
}

func (s *StaticSource) ID() string         { return s.id }
func (s *StaticSource) Metadata() Metadata { return s.meta }

func (s *StaticSource) Seek(ctx context.Context, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("source %s is closed", s.id)
	}
	if s.FailSeeks {
		return fmt.Errorf("seek failed")
	}

	if s.SeekDelay > 0 {
		select {
		case <-time.After(s.SeekDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.position = seconds
	s.seeks++
	return nil
}

func (s *StaticSource) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("source %s is closed", s.id)
	}
	if s.FailCaptures {
		return nil, fmt.Errorf("capture failed")
	}

	s.captures++

	w, h := s.meta.Width, s.meta.Height
	if w <= 0 {
		w = 16
	}
	if h <= 0 {
		h = 9
	}

	shade := uint8(0)
	if s.meta.DurationSeconds > 0 {
		shade = uint8(255 * s.position / s.meta.DurationSeconds)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: shade, G: shade, B: shade, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	return img, nil
}

func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Position returns the last seek position.
func (s *StaticSource) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Seeks returns the number of successful Seek calls.
func (s *StaticSource) Seeks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeks
}

// Captures returns the number of successful Capture calls.
func (s *StaticSource) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}
