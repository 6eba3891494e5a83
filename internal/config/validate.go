package config

import (
	"errors"
	"fmt"
)

// Validate checks that required fields are set and values are sane.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Discovery.BaseURL == "" {
		return errors.New("discovery.base_url is required")
	}
	if (c.Discovery.KeyID == "") != (c.Discovery.PrivateKeyPath == "") {
		return errors.New("discovery.key_id and discovery.private_key_path must be set together")
	}

	if c.Gateway.Concurrency < 1 {
		return errors.New("gateway.concurrency must be >= 1")
	}

	if c.Pool.MaxConnectionsPerEndpoint < 1 {
		return errors.New("pool.max_connections_per_endpoint must be >= 1")
	}

	if c.Center.Buckets < 1 {
		return errors.New("center.buckets must be >= 1")
	}
	if c.Center.SelectionRetryLimit < 1 {
		return errors.New("center.selection_retry_limit must be >= 1")
	}

	if c.SeedCache.Enabled {
		if err := c.SeedCache.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (s *SeedCacheConfig) validate() error {
	if s.Host == "" {
		return errors.New("seed_cache.host is required when seed_cache.enabled is true")
	}
	if s.Name == "" {
		return errors.New("seed_cache.name is required when seed_cache.enabled is true")
	}
	if s.User == "" {
		return errors.New("seed_cache.user is required when seed_cache.enabled is true")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("seed_cache.port must be between 1 and 65535, got %d", s.Port)
	}
	return nil
}
