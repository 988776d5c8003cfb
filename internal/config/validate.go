package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Prefetch.Validate(); err != nil {
		return fmt.Errorf("prefetch config: %w", err)
	}

	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("media config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.HTTPPort < 1 || s.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", s.HTTPPort)
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	return nil
}

func (r *RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	if len(r.Addresses) == 0 {
		return fmt.Errorf("at least one Redis address is required")
	}

	if r.DB < 0 {
		return fmt.Errorf("invalid Redis database number: %d", r.DB)
	}

	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if r.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive")
	}

	if r.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns cannot be negative")
	}

	if r.MinIdleConns > r.PoolSize {
		return fmt.Errorf("min_idle_conns cannot be greater than pool_size")
	}

	if r.AssetTTL <= 0 {
		return fmt.Errorf("asset_ttl must be positive")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("invalid log format: %s", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("log output is required")
	}

	if l.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", m.Port)
	}

	if m.Path == "" {
		return fmt.Errorf("metrics path is required")
	}

	return nil
}

func (p *PlaybackConfig) Validate() error {
	if p.DefaultRate == 0 {
		return fmt.Errorf("default_rate cannot be zero")
	}

	if p.RefreshRate <= 0 {
		return fmt.Errorf("refresh_rate must be positive")
	}

	return nil
}

func (c *CacheConfig) Validate() error {
	if c.FrameCapacity <= 0 {
		return fmt.Errorf("frame_capacity must be positive")
	}

	if c.ThumbnailCapacity <= 0 {
		return fmt.Errorf("thumbnail_capacity must be positive")
	}

	if c.SurfacePoolSize <= 0 {
		return fmt.Errorf("surface_pool_size must be positive")
	}

	if c.NominalWidth <= 0 || c.NominalHeight <= 0 {
		return fmt.Errorf("nominal frame dimensions must be positive")
	}

	if c.ThumbnailWidth <= 0 || c.ThumbnailHeight <= 0 {
		return fmt.Errorf("thumbnail dimensions must be positive")
	}

	return nil
}

func (p *PrefetchConfig) Validate() error {
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}

	if p.RequeueDelay <= 0 {
		return fmt.Errorf("requeue_delay must be positive")
	}

	if p.MaxPending <= 0 {
		return fmt.Errorf("max_pending must be positive")
	}

	if p.MaxPending < p.BatchSize {
		return fmt.Errorf("max_pending cannot be smaller than batch_size")
	}

	if p.RatePerSecond <= 0 {
		return fmt.Errorf("rate_per_second must be positive")
	}

	if p.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive")
	}

	return nil
}

func (m *MediaConfig) Validate() error {
	if m.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path is required")
	}

	if m.FFprobePath == "" {
		return fmt.Errorf("ffprobe_path is required")
	}

	if m.SeekTimeout <= 0 {
		return fmt.Errorf("seek_timeout must be positive")
	}

	if m.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive")
	}

	return nil
}
