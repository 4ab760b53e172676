package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Refresh   RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
	Archive   ArchiveConfig   `yaml:"archive" mapstructure:"archive"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// CacheConfig contains snapshot cache configuration.
// HistoryTTL 0 significa que los históricos no expiran.
type CacheConfig struct {
	Backend    string        `yaml:"backend" mapstructure:"backend"`
	LatestTTL  time.Duration `yaml:"latest_ttl" mapstructure:"latest_ttl"`
	HistoryTTL time.Duration `yaml:"history_ttl" mapstructure:"history_ttl"`
	Prefix     string        `yaml:"prefix" mapstructure:"prefix"`
	Redis      RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig contains Redis-specific configuration
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// SourceConfig contains the rate mirror configuration.
// Las URLs históricas llevan el placeholder {date}.
type SourceConfig struct {
	LatestMirrors  []string        `yaml:"latest_mirrors" mapstructure:"latest_mirrors"`
	HistoryMirrors []string        `yaml:"history_mirrors" mapstructure:"history_mirrors"`
	Timeout        time.Duration   `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries     int             `yaml:"max_retries" mapstructure:"max_retries"`
	Probe          bool            `yaml:"probe" mapstructure:"probe"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig contains the per-host outbound limiter for mirrors
type RateLimitConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Capacity     int64         `yaml:"capacity" mapstructure:"capacity"`
	RefillRate   int64         `yaml:"refill_rate" mapstructure:"refill_rate"`
	RefillPeriod time.Duration `yaml:"refill_period" mapstructure:"refill_period"`
}

// HistoryConfig contains the range aggregator configuration
type HistoryConfig struct {
	MaxDays        int    `yaml:"max_days" mapstructure:"max_days"`
	MaxConcurrency int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	Location       string `yaml:"location" mapstructure:"location"`
}

// SchedulerConfig contains the batch recalculation configuration
type SchedulerConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval" mapstructure:"frame_interval"`
	Budget        time.Duration `yaml:"budget" mapstructure:"budget"`
	Tracked       []string      `yaml:"tracked" mapstructure:"tracked"`
	RateType      string        `yaml:"rate_type" mapstructure:"rate_type"`
}

// RefreshConfig contains the periodic latest refresh configuration
type RefreshConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Spec    string `yaml:"spec" mapstructure:"spec"`
}

// ArchiveConfig contains the optional Postgres snapshot archive
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LoggingConfig contains logging system configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

const (
	defaultMirrorBase = "https://raw.githubusercontent.com/haotool/app/data/public/rates"
	defaultCDNBase    = "https://cdn.jsdelivr.net/gh/haotool/app@data/public/rates"
)

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			LatestTTL:  5 * time.Minute,
			HistoryTTL: 0,
			Prefix:     "ratewise:",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Source: SourceConfig{
			LatestMirrors: []string{
				defaultMirrorBase + "/latest.json",
				defaultCDNBase + "/latest.json",
			},
			HistoryMirrors: []string{
				defaultMirrorBase + "/history/{date}.json",
				defaultCDNBase + "/history/{date}.json",
			},
			Timeout:    10 * time.Second,
			MaxRetries: 2,
			Probe:      false,
			RateLimit: RateLimitConfig{
				Enabled:      true,
				Capacity:     60,
				RefillRate:   5,
				RefillPeriod: time.Second,
			},
		},
		History: HistoryConfig{
			MaxDays:        30,
			MaxConcurrency: 0,
			Location:       "Asia/Taipei",
		},
		Scheduler: SchedulerConfig{
			FrameInterval: 16 * time.Millisecond,
			Budget:        50 * time.Millisecond,
			Tracked:       []string{"TWD", "USD", "JPY", "KRW", "CNY", "EUR", "GBP", "HKD", "AUD", "SGD"},
			RateType:      "spot",
		},
		Refresh: RefreshConfig{
			Enabled: true,
			Spec:    "@every 5m",
		},
		Archive: ArchiveConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
