package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yamlDoc := `
instance:
  id: test-client
discovery:
  base_url: https://discovery.example.com
gateway:
  reconcile_interval: 45s
`
	path := writeTempFile(t, yamlDoc)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-client" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-client")
	}
	if cfg.Discovery.BaseURL != "https://discovery.example.com" {
		t.Errorf("Discovery.BaseURL = %q, want %q", cfg.Discovery.BaseURL, "https://discovery.example.com")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_SEED_PASSWORD", "secret123")

	yamlDoc := `
instance:
  id: test-client
seed_cache:
  enabled: true
  host: localhost
  name: seeddb
  user: seeduser
  password: ${TEST_SEED_PASSWORD}
`
	path := writeTempFile(t, yamlDoc)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SeedCache.Password != "secret123" {
		t.Errorf("SeedCache.Password = %q, want %q", cfg.SeedCache.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yamlDoc := `
instance:
  id: test-client
discovery:
  base_url: https://discovery.example.com
`
	path := writeTempFile(t, yamlDoc)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Center.Buckets != DefaultBuckets {
		t.Errorf("Center.Buckets = %d, want default %d", cfg.Center.Buckets, DefaultBuckets)
	}
	if cfg.Pool.AttemptGuardTimeout != DefaultAttemptGuardTimeout {
		t.Errorf("Pool.AttemptGuardTimeout = %v, want default %v", cfg.Pool.AttemptGuardTimeout, DefaultAttemptGuardTimeout)
	}
	if cfg.Gateway.ReconcileInterval != DefaultReconcileInterval {
		t.Errorf("Gateway.ReconcileInterval = %v, want default %v", cfg.Gateway.ReconcileInterval, DefaultReconcileInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing instance id",
			cfg:     Config{},
			wantErr: "instance.id is required",
		},
		{
			name: "missing discovery base url",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
			},
			wantErr: "discovery.base_url is required",
		},
		{
			name: "key id without private key path",
			cfg: Config{
				Instance:  InstanceConfig{ID: "test"},
				Discovery: DiscoveryConfig{BaseURL: "https://x", KeyID: "abc"},
				Gateway:   GatewayConfig{Concurrency: 4},
				Pool:      PoolConfig{MaxConnectionsPerEndpoint: 1},
				Center:    CenterConfig{Buckets: 8192, SelectionRetryLimit: 3},
			},
			wantErr: "discovery.key_id and discovery.private_key_path must be set together",
		},
		{
			name: "valid config",
			cfg: Config{
				Instance:  InstanceConfig{ID: "test"},
				Discovery: DiscoveryConfig{BaseURL: "https://x"},
				Gateway:   GatewayConfig{Concurrency: 4},
				Pool:      PoolConfig{MaxConnectionsPerEndpoint: 1},
				Center:    CenterConfig{Buckets: 8192, SelectionRetryLimit: 3},
			},
			wantErr: "",
		},
		{
			name: "seed cache enabled without host",
			cfg: Config{
				Instance:  InstanceConfig{ID: "test"},
				Discovery: DiscoveryConfig{BaseURL: "https://x"},
				Gateway:   GatewayConfig{Concurrency: 4},
				Pool:      PoolConfig{MaxConnectionsPerEndpoint: 1},
				Center:    CenterConfig{Buckets: 8192, SelectionRetryLimit: 3},
				SeedCache: SeedCacheConfig{Enabled: true, Port: 5432, Name: "db", User: "u"},
			},
			wantErr: "seed_cache.host is required when seed_cache.enabled is true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
			} else if err.Error() != tt.wantErr {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}
