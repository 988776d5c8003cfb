package registry

import (
	"context"
	"errors"
	"time"

	"github.com/zsiec/reel/internal/media"
)

// ErrAssetNotFound is returned when an asset is not in the registry.
var ErrAssetNotFound = errors.New("asset not found")

// Asset is the registry record for a playable source: where the media
// lives and the probed metadata the playback core sizes itself from.
type Asset struct {
	ID           string         `json:"id"`
	Path         string         `json:"path"`
	Metadata     media.Metadata `json:"metadata"`
	RegisteredAt time.Time      `json:"registered_at"`
	LastAccess   time.Time      `json:"last_access"`
}

// Registry tracks registered assets. The Redis implementation shares
// them across instances with a TTL; the in-memory one is per-process.
type Registry interface {
	// Register adds a new asset. Registering an existing ID fails.
	Register(ctx context.Context, asset *Asset) error

	// Unregister removes an asset.
	Unregister(ctx context.Context, assetID string) error

	// Get retrieves an asset by ID.
	Get(ctx context.Context, assetID string) (*Asset, error)

	// List returns all registered assets.
	List(ctx context.Context) ([]*Asset, error)

	// Touch refreshes an asset's last-access time and TTL.
	Touch(ctx context.Context, assetID string) error

	// Close releases any resources held by the registry.
	Close() error
}
