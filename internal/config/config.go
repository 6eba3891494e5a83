package config

import "time"

// Config is the root configuration document for the message-center
// host, loaded from YAML (SPEC_FULL.md §4.9's ambient config section).
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Pool      PoolConfig      `yaml:"pool"`
	Transport TransportConfig `yaml:"transport"`
	Center    CenterConfig    `yaml:"center"`
	SeedCache SeedCacheConfig `yaml:"seed_cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InstanceConfig identifies this client instance.
type InstanceConfig struct {
	ID   string `yaml:"id"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DiscoveryConfig configures the gateway discovery API client.
type DiscoveryConfig struct {
	BaseURL        string        `yaml:"base_url"`
	KeyID          string        `yaml:"key_id"`
	PrivateKeyPath string        `yaml:"private_key_path"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
}

// GatewayConfig configures the GatewayManager's reconciliation loop.
type GatewayConfig struct {
	ReconcileInterval     time.Duration `yaml:"reconcile_interval"`
	Concurrency           int           `yaml:"concurrency"`
	QuarantineGracePeriod time.Duration `yaml:"quarantine_grace_period"`
}

// PoolConfig configures the ConnectionManager.
type PoolConfig struct {
	MaxConnectionsPerEndpoint int           `yaml:"max_connections_per_endpoint"`
	ConnectRetryDelay         time.Duration `yaml:"connect_retry_delay"`
	AttemptGuardTimeout       time.Duration `yaml:"attempt_guard_timeout"`
	ClosePollInterval         time.Duration `yaml:"close_poll_interval"`
	CloseWarnInterval         time.Duration `yaml:"close_warn_interval"`
}

// TransportConfig configures the default dialer.
type TransportConfig struct {
	TLS              bool          `yaml:"tls"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
	RetryCount       int           `yaml:"retry_count"`
	RetryInterval    time.Duration `yaml:"retry_interval"`
}

// CenterConfig configures the ClientMessageCenter.
type CenterConfig struct {
	Buckets             int           `yaml:"buckets"`
	SendRetryDelay      time.Duration `yaml:"send_retry_delay"`
	SelectionRetryLimit int           `yaml:"selection_retry_limit"`
}

// SeedCacheConfig configures the optional Postgres-backed gateway-seed
// membership cache. Enabled is false by default, in which case a
// store.NoopStore is used.
type SeedCacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LoggingConfig holds the level and format settings for the root
// slog.Logger. cmd/client does not read it: its logger is always a text
// handler at info level.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
