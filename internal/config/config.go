package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the gridmock service
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"GRIDMOCK_HTTP_PORT" envDefault:"3000"`
	GRPCPort    int    `env:"GRIDMOCK_GRPC_PORT" envDefault:"9090"`
	GRPCEnabled bool   `env:"GRIDMOCK_GRPC_ENABLED" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage backend: memory or redis
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`

	// Redis configuration
	Redis RedisConfig

	// Seed data configuration
	Seed SeedConfig

	// API behaviour
	DefaultPageLimit int `env:"DEFAULT_PAGE_LIMIT" envDefault:"50"`

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASS"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"gridmock"`

	// Streams are trimmed to roughly this many entries
	EventStreamMaxLen int64 `env:"REDIS_EVENT_STREAM_MAXLEN" envDefault:"1000"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// SeedConfig controls the startup dataset and its generated history
type SeedConfig struct {
	File          string    `env:"SEED_FILE"`
	HistoryPoints int       `env:"HISTORY_POINTS" envDefault:"50"`
	HistoryStart  time.Time `env:"HISTORY_START" envDefault:"2018-01-01T00:00:00Z"`
	HistoryEnd    time.Time `env:"HISTORY_END" envDefault:"2025-01-01T00:00:00Z"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ReadHeaderTimeout time.Duration `env:"TIMEOUT_READ_HEADER" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	HealthInterval    time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"15s"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCEnabled && (c.GRPCPort < 1 || c.GRPCPort > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate storage
	switch c.StorageBackend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
		if c.Redis.KeyPrefix == "" {
			return fmt.Errorf("redis key prefix must not be empty")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s (must be memory or redis)", c.StorageBackend)
	}

	// Validate seed config
	if c.Seed.HistoryPoints < 1 {
		return fmt.Errorf("history points must be at least 1")
	}
	if !c.Seed.HistoryEnd.After(c.Seed.HistoryStart) {
		return fmt.Errorf("history end %s must be after history start %s",
			c.Seed.HistoryEnd.Format(time.RFC3339), c.Seed.HistoryStart.Format(time.RFC3339))
	}

	if c.GRPCEnabled && c.Timeouts.HealthInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}

	if c.DefaultPageLimit < 0 {
		return fmt.Errorf("default page limit must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
