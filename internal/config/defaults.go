package config

import "time"

// Default values for optional configuration fields, mirroring the
// tunables named in SPEC_FULL.md §6.
const (
	DefaultDiscoveryTimeout      = 10 * time.Second
	DefaultDiscoveryMaxRetries   = 3
	DefaultDiscoveryRetryBackoff = 1 * time.Second

	DefaultReconcileInterval     = 30 * time.Second
	DefaultGatewayConcurrency    = 4
	DefaultQuarantineGracePeriod = 30 * time.Second

	DefaultMaxConnectionsPerEndpoint = 1
	DefaultConnectRetryDelay         = 1 * time.Second
	DefaultAttemptGuardTimeout       = 100 * time.Millisecond
	DefaultClosePollInterval         = 10 * time.Millisecond
	DefaultCloseWarnInterval         = 5 * time.Second

	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultBufferSize       = 1000
	DefaultRetryCount       = 2
	DefaultRetryInterval    = 100 * time.Millisecond

	DefaultBuckets             = 8192
	DefaultSendRetryDelay      = 2 * time.Second
	DefaultSelectionRetryLimit = 3

	DefaultSeedCacheDBPort  = 5432
	DefaultSeedCacheSSLMode = "prefer"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

func (c *Config) applyDefaults() {
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = DefaultDiscoveryTimeout
	}
	if c.Discovery.MaxRetries == 0 {
		c.Discovery.MaxRetries = DefaultDiscoveryMaxRetries
	}
	if c.Discovery.RetryBackoff == 0 {
		c.Discovery.RetryBackoff = DefaultDiscoveryRetryBackoff
	}

	if c.Gateway.ReconcileInterval == 0 {
		c.Gateway.ReconcileInterval = DefaultReconcileInterval
	}
	if c.Gateway.Concurrency == 0 {
		c.Gateway.Concurrency = DefaultGatewayConcurrency
	}
	if c.Gateway.QuarantineGracePeriod == 0 {
		c.Gateway.QuarantineGracePeriod = DefaultQuarantineGracePeriod
	}

	if c.Pool.MaxConnectionsPerEndpoint == 0 {
		c.Pool.MaxConnectionsPerEndpoint = DefaultMaxConnectionsPerEndpoint
	}
	if c.Pool.ConnectRetryDelay == 0 {
		c.Pool.ConnectRetryDelay = DefaultConnectRetryDelay
	}
	if c.Pool.AttemptGuardTimeout == 0 {
		c.Pool.AttemptGuardTimeout = DefaultAttemptGuardTimeout
	}
	if c.Pool.ClosePollInterval == 0 {
		c.Pool.ClosePollInterval = DefaultClosePollInterval
	}
	if c.Pool.CloseWarnInterval == 0 {
		c.Pool.CloseWarnInterval = DefaultCloseWarnInterval
	}

	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.PingInterval == 0 {
		c.Transport.PingInterval = DefaultPingInterval
	}
	if c.Transport.PingTimeout == 0 {
		c.Transport.PingTimeout = DefaultPingTimeout
	}
	if c.Transport.BufferSize == 0 {
		c.Transport.BufferSize = DefaultBufferSize
	}
	if c.Transport.RetryCount == 0 {
		c.Transport.RetryCount = DefaultRetryCount
	}
	if c.Transport.RetryInterval == 0 {
		c.Transport.RetryInterval = DefaultRetryInterval
	}

	if c.Center.Buckets == 0 {
		c.Center.Buckets = DefaultBuckets
	}
	if c.Center.SendRetryDelay == 0 {
		c.Center.SendRetryDelay = DefaultSendRetryDelay
	}
	if c.Center.SelectionRetryLimit == 0 {
		c.Center.SelectionRetryLimit = DefaultSelectionRetryLimit
	}

	if c.SeedCache.Enabled {
		if c.SeedCache.Port == 0 {
			c.SeedCache.Port = DefaultSeedCacheDBPort
		}
		if c.SeedCache.SSLMode == "" {
			c.SeedCache.SSLMode = DefaultSeedCacheSSLMode
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
