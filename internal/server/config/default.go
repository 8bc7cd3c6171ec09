package config

import (
	"path/filepath"
	"time"

	"github.com/yndnr/seqlink-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5380"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultRateLimitRPS   = 200
	DefaultRateLimitBurst = 400

	DefaultSessionTTL   = 30 * time.Minute
	DefaultHandshakeTTL = time.Minute
	DefaultMaxFrameSize = 1 << 20
	DefaultCipher       = "auto"

	DefaultDataDir     = "/var/lib/seqlink-server/data"
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5
	DefaultCacheSizeMB = 64

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
				RateLimit: RateLimitConfig{
					Enabled: true,
					RPS:     DefaultRateLimitRPS,
					Burst:   DefaultRateLimitBurst,
				},
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Session: SessionSection{
			TTL:          DefaultSessionTTL,
			HandshakeTTL: DefaultHandshakeTTL,
			MaxFrameSize: DefaultMaxFrameSize,
			Cipher:       DefaultCipher,
		},
		Storage: StorageSection{
			Backend:     storage.BackendMemory,
			DataDir:     DefaultDataDir,
			GCInterval:  DefaultGCInterval,
			GCThreshold: DefaultGCThreshold,
			CacheSizeMB: DefaultCacheSizeMB,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// BadgerConfig converts the storage section into Badger options.
func (s StorageSection) BadgerConfig() storage.BadgerConfig {
	cfg := storage.DefaultBadgerConfig(s.DataDir)
	cfg.GCInterval = s.GCInterval
	cfg.GCThreshold = s.GCThreshold
	if s.CacheSizeMB > 0 {
		cfg.CacheSize = s.CacheSizeMB << 20
	}
	cfg.SyncWrites = s.SyncWrites
	return cfg
}

// SaltPath returns the seal salt location, defaulting to a file in the
// data directory.
func (c *ServerConfig) SaltPath() string {
	if c.Security.SaltFile != "" {
		return c.Security.SaltFile
	}
	return filepath.Join(c.Storage.DataDir, "seal.salt")
}
