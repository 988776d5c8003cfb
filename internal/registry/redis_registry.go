package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRegistry implements Registry backed by Redis. Asset records are
// JSON values under a key prefix plus a set of active IDs, both with a
// TTL so abandoned assets age out.
type RedisRegistry struct {
	client *redis.Client
	logger *logrus.Logger
	prefix string
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, logger *logrus.Logger, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRegistry{
		client: client,
		logger: logger,
		prefix: "reel:assets:",
		ttl:    ttl,
	}
}

// registerScript atomically creates the record and adds the ID to the
// active set; returns 0 when the ID is already taken.
var registerScript = redis.NewScript(`
	local key = KEYS[1]
	local active_key = KEYS[2]
	local data = ARGV[1]
	local ttl = tonumber(ARGV[2])
	local asset_id = ARGV[3]
	local ok = redis.call('SET', key, data, 'PX', ttl, 'NX')
	if not ok then
		return 0
	end
	redis.call('SADD', active_key, asset_id)
	return 1
`)

func (r *RedisRegistry) Register(ctx context.Context, asset *Asset) error {
	now := time.Now()
	asset.RegisteredAt = now
	asset.LastAccess = now

	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	result, err := registerScript.Run(ctx, r.client,
		[]string{r.prefix + asset.ID, r.activeKey()},
		data, r.ttl.Milliseconds(), asset.ID).Int()
	if err != nil {
		return fmt.Errorf("failed to register asset: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("asset %s already registered", asset.ID)
	}

	r.logger.WithFields(logrus.Fields{
		"asset_id": asset.ID,
		"path":     asset.Path,
		"duration": asset.Metadata.DurationSeconds,
	}).Info("Asset registered")

	return nil
}

func (r *RedisRegistry) Unregister(ctx context.Context, assetID string) error {
	deleted, err := r.client.Del(ctx, r.prefix+assetID).Result()
	if err != nil {
		return fmt.Errorf("failed to unregister asset: %w", err)
	}
	if deleted == 0 {
		return ErrAssetNotFound
	}

	if err := r.client.SRem(ctx, r.activeKey(), assetID).Err(); err != nil {
		r.logger.Warnf("Failed to remove asset %s from active set: %v", assetID, err)
	}

	r.logger.WithField("asset_id", assetID).Info("Asset unregistered")
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, assetID string) (*Asset, error) {
	data, err := r.client.Get(ctx, r.prefix+assetID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	var asset Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset: %w", err)
	}
	return &asset, nil
}

// listScript walks the active set, collecting live records and pruning
// IDs whose values have expired.
var listScript = redis.NewScript(`
	local active_key = KEYS[1]
	local prefix = ARGV[1]
	local active = redis.call('SMEMBERS', active_key)
	local result = {}
	local to_remove = {}

	for i, id in ipairs(active) do
		local asset = redis.call('GET', prefix .. id)
		if asset then
			table.insert(result, asset)
		else
			table.insert(to_remove, id)
		end
	end

	for i, id in ipairs(to_remove) do
		redis.call('SREM', active_key, id)
	end

	return result
`)

func (r *RedisRegistry) List(ctx context.Context) ([]*Asset, error) {
	res, err := listScript.Run(ctx, r.client, []string{r.activeKey()}, r.prefix).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type from script")
	}

	assets := make([]*Asset, 0, len(values))
	for _, val := range values {
		data, ok := val.(string)
		if !ok {
			r.logger.Warn("Invalid data type in list result")
			continue
		}

		var asset Asset
		if err := json.Unmarshal([]byte(data), &asset); err != nil {
			r.logger.WithError(err).Warn("Failed to unmarshal asset")
			continue
		}
		assets = append(assets, &asset)
	}

	return assets, nil
}

func (r *RedisRegistry) Touch(ctx context.Context, assetID string) error {
	asset, err := r.Get(ctx, assetID)
	if err != nil {
		return err
	}

	asset.LastAccess = time.Now()
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	if err := r.client.Set(ctx, r.prefix+assetID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to touch asset: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Close() error {
	return nil
}

func (r *RedisRegistry) activeKey() string {
	return r.prefix + "active"
}
