// Package config holds the engine configuration.  All fields have safe
// defaults so callers can start with Default() and override only what
// they need; FromEnv layers process-environment overrides on top.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names read by FromEnv.
const (
	EnvDisableCache  = "PIXELCACHE_DISABLE_CACHE"
	EnvCacheCapacity = "PIXELCACHE_CACHE_CAPACITY"
	EnvHTTPTimeout   = "PIXELCACHE_HTTP_TIMEOUT"
	EnvMaxImageBytes = "PIXELCACHE_MAX_IMAGE_BYTES"
)

// Config is the top-level configuration struct.
type Config struct {
	// Cache controls.
	CacheCapacity int  // max memoized entries; default 128
	DisableCache  bool // bypass the cache entirely

	// Source loading.
	HTTPTimeout   time.Duration // per-request timeout for URL sources
	MaxImageBytes int64         // reject larger source payloads; 0 = no limit
	ChunkSize     int           // streaming read chunk size in bytes

	// Logging.
	LogLevel string // "debug", "info", "warn", "error"
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		CacheCapacity: 128,
		HTTPTimeout:   30 * time.Second,
		MaxImageBytes: 64 * 1024 * 1024,
		ChunkSize:     32 * 1024,
		LogLevel:      "info",
	}
}

// FromEnv returns Default() overridden by PIXELCACHE_* environment
// variables.  A .env file in the working directory is loaded first when
// present.  Read once at process start; runtime toggling goes through
// Engine.SetCacheEnabled.
func FromEnv() Config {
	_ = godotenv.Load() // absent .env is fine

	cfg := Default()
	if v := os.Getenv(EnvDisableCache); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DisableCache = b
		}
	}
	if v := os.Getenv(EnvCacheCapacity); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheCapacity = n
		}
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv(EnvMaxImageBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.MaxImageBytes = n
		}
	}
	return cfg
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.CacheCapacity < 0 {
		return errors.New("config: CacheCapacity must not be negative")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("config: HTTPTimeout must not be negative")
	}
	return nil
}
