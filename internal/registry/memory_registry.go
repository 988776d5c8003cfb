package registry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRegistry is the in-process Registry used when Redis is
// disabled. Records live as long as the process.
type MemoryRegistry struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{assets: make(map[string]*Asset)}
}

func (m *MemoryRegistry) Register(ctx context.Context, asset *Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[asset.ID]; ok {
		return fmt.Errorf("asset %s already registered", asset.ID)
	}

	now := time.Now()
	asset.RegisteredAt = now
	asset.LastAccess = now

	stored := *asset
	m.assets[asset.ID] = &stored
	return nil
}

func (m *MemoryRegistry) Unregister(ctx context.Context, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[assetID]; !ok {
		return ErrAssetNotFound
	}
	delete(m.assets, assetID)
	return nil
}

func (m *MemoryRegistry) Get(ctx context.Context, assetID string) (*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	asset, ok := m.assets[assetID]
	if !ok {
		return nil, ErrAssetNotFound
	}

	copied := *asset
	return &copied, nil
}

func (m *MemoryRegistry) List(ctx context.Context) ([]*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assets := make([]*Asset, 0, len(m.assets))
	for _, asset := range m.assets {
		copied := *asset
		assets = append(assets, &copied)
	}
	return assets, nil
}

func (m *MemoryRegistry) Touch(ctx context.Context, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[assetID]
	if !ok {
		return ErrAssetNotFound
	}
	asset.LastAccess = time.Now()
	return nil
}

func (m *MemoryRegistry) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = make(map[string]*Asset)
	return nil
}
