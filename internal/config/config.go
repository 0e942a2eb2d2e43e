// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML file,
// then WC_ prefixed environment variables.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver is "memory" or "sqlite".
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// BlobDir holds uploaded avatars; BlobCompress stores them zstd-compressed.
	BlobDir      string `koanf:"blob_dir"`
	BlobCompress bool   `koanf:"blob_compress"`

	// IndexQueueSize bounds the indexing queue; IndexWorkerCount sizes its pool.
	IndexQueueSize   int `koanf:"index_queue_size"`
	IndexWorkerCount int `koanf:"index_worker_count"`

	// IdempotencyCacheSize bounds remembered Idempotency-Key headers.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// SessionTTLMinutes is the lifetime of a sign-in token.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// MinPasswordLength rejects shorter passwords at sign-up.
	MinPasswordLength int `koanf:"min_password_length"`

	// AvatarMaxBytes caps uploads; AvatarSize is the longest edge after scaling.
	AvatarMaxBytes int64 `koanf:"avatar_max_bytes"`
	AvatarSize     int   `koanf:"avatar_size"`

	// SeedDir is imported at startup and, when WatchSeedDir is set, watched.
	SeedDir      string `koanf:"seed_dir"`
	WatchSeedDir bool   `koanf:"watch_seed_dir"`

	// MaxSearchResults caps /search responses; zero means unlimited.
	MaxSearchResults int `koanf:"max_search_results"`
}

// New returns a Config holding the defaults. Context is accepted first to
// follow the project convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8080",
		StoreDriver:          StoreMemory,
		SQLitePath:           "womenconnect.db",
		BlobDir:              "blobs",
		BlobCompress:         true,
		IndexQueueSize:       10_000,
		IndexWorkerCount:     runtime.NumCPU(),
		IdempotencyCacheSize: 50_000,
		SessionTTLMinutes:    7 * 24 * 60,
		MinPasswordLength:    6,
		AvatarMaxBytes:       5 << 20,
		AvatarSize:           256,
		SeedDir:              "",
		WatchSeedDir:         false,
		MaxSearchResults:     0,
	}
}

// SessionTTL returns SessionTTLMinutes as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: store_driver must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "":
		return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
	case strings.TrimSpace(c.BlobDir) == "":
		return fmt.Errorf("%w: blob_dir must not be empty", ErrInvalidConfig)
	case c.IndexQueueSize <= 0:
		return fmt.Errorf("%w: index_queue_size must be positive", ErrInvalidConfig)
	case c.IndexWorkerCount <= 0:
		return fmt.Errorf("%w: index_worker_count must be positive", ErrInvalidConfig)
	case c.SessionTTLMinutes <= 0:
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	case c.MinPasswordLength < 1:
		return fmt.Errorf("%w: min_password_length must be at least 1", ErrInvalidConfig)
	case c.AvatarMaxBytes <= 0 || c.AvatarSize <= 0:
		return fmt.Errorf("%w: avatar limits must be positive", ErrInvalidConfig)
	case c.MaxSearchResults < 0:
		return fmt.Errorf("%w: max_search_results must not be negative", ErrInvalidConfig)
	case c.WatchSeedDir && strings.TrimSpace(c.SeedDir) == "":
		return fmt.Errorf("%w: watch_seed_dir needs seed_dir", ErrInvalidConfig)
	}
	return nil
}
