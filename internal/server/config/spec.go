package config

import "time"

// ServerConfig is the root configuration for seqlink-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" yaml:"server"`
	Session  SessionSection  `koanf:"session" yaml:"session"`
	Storage  StorageSection  `koanf:"storage" yaml:"storage"`
	Security SecuritySection `koanf:"security" yaml:"security"`
	Log      LogSection      `koanf:"log" yaml:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http" yaml:"http"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr         string          `koanf:"addr" yaml:"addr"`
	TLSCertFile  string          `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile   string          `koanf:"tls_key_file" yaml:"tls_key_file"`
	ReadTimeout  time.Duration   `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration   `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration   `koanf:"idle_timeout" yaml:"idle_timeout"`
	RateLimit    RateLimitConfig `koanf:"rate_limit" yaml:"rate_limit"`
	CORS         CORSConfig      `koanf:"cors" yaml:"cors"`

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `koanf:"trust_proxy" yaml:"trust_proxy"`
}

// RateLimitConfig configures the per client IP token bucket.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled" yaml:"enabled"`
	RPS     float64 `koanf:"rps" yaml:"rps"`
	Burst   int     `koanf:"burst" yaml:"burst"`
}

// CORSConfig configures cross-origin access. An empty list disables CORS.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins" yaml:"allowed_origins"`
}

// SessionSection configures conversations.
type SessionSection struct {
	// TTL is how long a conversation half lives without use.
	TTL time.Duration `koanf:"ttl" yaml:"ttl"`

	// HandshakeTTL bounds how long an initiated handshake may stay open.
	HandshakeTTL time.Duration `koanf:"handshake_ttl" yaml:"handshake_ttl"`

	// Window is the default sequence window: 0 strict, >0 forward
	// tolerant, <0 asynchronous.
	Window int `koanf:"window" yaml:"window"`

	// AllowWindowOverride lets a peer choose the window at handshake.
	AllowWindowOverride bool `koanf:"allow_window_override" yaml:"allow_window_override"`

	// MaxFrameSize is the largest plaintext accepted, in bytes.
	MaxFrameSize int `koanf:"max_frame_size" yaml:"max_frame_size"`

	// Cipher is the frame AEAD: auto, aes-gcm or chacha20-poly1305.
	Cipher string `koanf:"cipher" yaml:"cipher"`

	// Compress enables LZ4 compression of frame payloads.
	Compress bool `koanf:"compress" yaml:"compress"`
}

// StorageSection configures where conversation state lives.
type StorageSection struct {
	// Backend is "memory" or "badger".
	Backend     string        `koanf:"backend" yaml:"backend"`
	DataDir     string        `koanf:"data_dir" yaml:"data_dir"`
	GCInterval  time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold" yaml:"gc_threshold"`
	CacheSizeMB int64         `koanf:"cache_size_mb" yaml:"cache_size_mb"`
	SyncWrites  bool          `koanf:"sync_writes" yaml:"sync_writes"`
}

// SecuritySection configures encryption of state at rest.
type SecuritySection struct {
	// StatePassphrase enables sealing of stored records when set.
	StatePassphrase string `koanf:"state_passphrase" yaml:"state_passphrase"`

	// SaltFile holds the Argon2id salt. Defaults to <data_dir>/seal.salt.
	SaltFile string `koanf:"salt_file" yaml:"salt_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
