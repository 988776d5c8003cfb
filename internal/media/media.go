package media

import (
	"context"
	"image"

	"github.com/zsiec/reel/internal/errors"
)

// Metadata describes a playable source, as produced by the upstream
// segmenter for each video.
type Metadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	Bitrate         int64   `json:"bitrate"`
	Codec           string  `json:"codec"`
	SizeBytes       int64   `json:"size_bytes"`
}

// TotalFrames returns the frame count implied by duration and fps.
func (m Metadata) TotalFrames() float64 {
	return m.DurationSeconds * m.FPS
}

// Validate checks that the metadata describes a playable source.
func (m Metadata) Validate() error {
	if m.FPS <= 0 {
		return errors.NewInvalidAssetError("fps must be positive")
	}
	if m.DurationSeconds <= 0 {
		return errors.NewInvalidAssetError("duration must be positive")
	}
	return nil
}

// Source is a playable media handle. Seek and Capture are suspend points;
// seeking is not reentrant-safe, so callers must not interleave
// Seek/Capture pairs for the same source (the cache serializes them).
type Source interface {
	ID() string
	Metadata() Metadata
	// Seek positions the source at the given time in seconds.
	Seek(ctx context.Context, seconds float64) error
	// Capture decodes the frame at the current position.
	Capture(ctx context.Context) (image.Image, error)
	Close() error
}
