package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Prefetch PrefetchConfig `mapstructure:"prefetch"`
	Media    MediaConfig    `mapstructure:"media"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addresses    []string      `mapstructure:"addresses"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	AssetTTL     time.Duration `mapstructure:"asset_ttl"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or text
	Output     string `mapstructure:"output"` // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type PlaybackConfig struct {
	DefaultRate   float64 `mapstructure:"default_rate"`    // rate applied by play()
	RefreshRate   float64 `mapstructure:"refresh_rate"`    // host render ticks per second
	HoldLastFrame bool    `mapstructure:"hold_last_frame"` // keep prior frame on cache miss
}

type CacheConfig struct {
	FrameCapacity     int `mapstructure:"frame_capacity"`
	ThumbnailCapacity int `mapstructure:"thumbnail_capacity"`
	SurfacePoolSize   int `mapstructure:"surface_pool_size"`
	NominalWidth      int `mapstructure:"nominal_width"` // memory estimate basis
	NominalHeight     int `mapstructure:"nominal_height"`
	ThumbnailWidth    int `mapstructure:"thumbnail_width"`
	ThumbnailHeight   int `mapstructure:"thumbnail_height"`
}

type PrefetchConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	RequeueDelay  time.Duration `mapstructure:"requeue_delay"`
	MaxPending    int           `mapstructure:"max_pending"`
	RatePerSecond float64       `mapstructure:"rate_per_second"` // decode dispatch limit
	RateBurst     int           `mapstructure:"rate_burst"`
}

type MediaConfig struct {
	FFmpegPath   string        `mapstructure:"ffmpeg_path"`
	FFprobePath  string        `mapstructure:"ffprobe_path"`
	SeekTimeout  time.Duration `mapstructure:"seek_timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("REEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.http_port", 8090)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addresses", []string{"localhost:6379"})
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("redis.asset_ttl", "24h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age", 30)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	// Playback defaults
	viper.SetDefault("playback.default_rate", 1.0)
	viper.SetDefault("playback.refresh_rate", 60.0)
	viper.SetDefault("playback.hold_last_frame", true)

	// Cache defaults
	viper.SetDefault("cache.frame_capacity", 1000)
	viper.SetDefault("cache.thumbnail_capacity", 2000)
	viper.SetDefault("cache.surface_pool_size", 8)
	viper.SetDefault("cache.nominal_width", 1920)
	viper.SetDefault("cache.nominal_height", 1080)
	viper.SetDefault("cache.thumbnail_width", 320)
	viper.SetDefault("cache.thumbnail_height", 180)

	// Prefetch defaults
	viper.SetDefault("prefetch.batch_size", 5)
	viper.SetDefault("prefetch.requeue_delay", "10ms")
	viper.SetDefault("prefetch.max_pending", 1000)
	viper.SetDefault("prefetch.rate_per_second", 200.0)
	viper.SetDefault("prefetch.rate_burst", 10)

	// Media defaults
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.seek_timeout", "5s")
	viper.SetDefault("media.probe_timeout", "10s")
}
