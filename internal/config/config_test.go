package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/apreboot/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func mapEnv(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_CredentialsSection(t *testing.T) {
	path := writeFile(t, "config.yaml", `
credentials:
  client_id: id-1
  client_secret: secret-1
  tenant_id: tenant-1
  region: eu
batch:
  delay_seconds: 5
  batch_size: 20
`)

	cfg, err := config.LoadWithEnv(path, "", noEnv)
	require.NoError(t, err)

	assert.Equal(t, "id-1", cfg.Credentials.ClientID)
	assert.Equal(t, "secret-1", cfg.Credentials.ClientSecret)
	assert.Equal(t, "tenant-1", cfg.Credentials.TenantID)
	assert.Equal(t, "eu", cfg.Credentials.Region)
	assert.Equal(t, 5, cfg.Batch.DelaySeconds)
	assert.Equal(t, 20, cfg.Batch.BatchSize)
	assert.Equal(t, config.DefaultMaxAttempts, cfg.Batch.MaxAttempts)
	assert.Equal(t, path, cfg.Path)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.eu.ruckus.cloud", cfg.BaseURL())
}

func TestLoad_AuthAlias(t *testing.T) {
	path := writeFile(t, "config.yaml", `
auth:
  client_id: alias-id
  client_secret: alias-secret
  tenant_id: 12345
`)

	cfg, err := config.LoadWithEnv(path, "", noEnv)
	require.NoError(t, err)

	assert.Equal(t, "alias-id", cfg.Credentials.ClientID)
	assert.Equal(t, "12345", cfg.Credentials.TenantID, "numeric tenant IDs are accepted")
	assert.Equal(t, config.DefaultRegion, cfg.Credentials.Region)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := config.LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), "", noEnv)
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "credentials: [unclosed")
	_, err := config.LoadWithEnv(path, "", noEnv)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
credentials:
  client_id: file-id
  client_secret: file-secret
  tenant_id: file-tenant
`)
	envFile := writeFile(t, ".env", "APREBOOT_CLIENT_SECRET=dotenv-secret\nAPREBOOT_REGION=asia\n")

	cfg, err := config.LoadWithEnv(path, envFile, mapEnv(map[string]string{
		config.EnvClientID: "env-id",
		config.EnvRegion:   "na",
		config.EnvLogLevel: "debug",
		config.EnvDelay:    "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Credentials.ClientID)
	assert.Equal(t, "dotenv-secret", cfg.Credentials.ClientSecret)
	assert.Equal(t, "file-tenant", cfg.Credentials.TenantID)
	assert.Equal(t, "na", cfg.Credentials.Region, "process environment wins over .env")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0, cfg.Batch.DelaySeconds)
}

func TestLoad_ExplicitEnvFileMissing(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging:\n  level: warn\n")
	_, err := config.LoadWithEnv(path, filepath.Join(t.TempDir(), "missing.env"), noEnv)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.New()
		cfg.Credentials = config.Credentials{
			ClientID: "id", ClientSecret: "secret", TenantID: "tenant", Region: "na",
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{
			name:    "missing secret",
			mutate:  func(c *config.Config) { c.Credentials.ClientSecret = "" },
			wantErr: config.ErrMissingCredentials,
		},
		{
			name:    "unknown region",
			mutate:  func(c *config.Config) { c.Credentials.Region = "mars" },
			wantErr: config.ErrUnknownRegion,
		},
		{
			name:   "region is case-insensitive",
			mutate: func(c *config.Config) { c.Credentials.Region = "EU" },
		},
		{
			name:    "zero batch size",
			mutate:  func(c *config.Config) { c.Batch.BatchSize = 0 },
			wantErr: config.ErrInvalidBatchConfig,
		},
		{
			name:    "max attempts above limit",
			mutate:  func(c *config.Config) { c.Batch.MaxAttempts = config.MaxAttemptsLimit + 1 },
			wantErr: config.ErrInvalidBatchConfig,
		},
		{
			name:   "max attempts at limit",
			mutate: func(c *config.Config) { c.Batch.MaxAttempts = config.MaxAttemptsLimit },
		},
		{
			name:    "negative delay",
			mutate:  func(c *config.Config) { c.Batch.DelaySeconds = -1 },
			wantErr: config.ErrInvalidBatchConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ListsAllMissingCredentials(t *testing.T) {
	err := config.New().Validate()
	require.ErrorIs(t, err, config.ErrMissingCredentials)
	assert.Contains(t, err.Error(), "client_id, client_secret, tenant_id")
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "debug", Format: "json"}
	out := lc.ToLoggingConfig()
	assert.Equal(t, "stderr", out.Output)
	assert.Equal(t, "debug", out.Level)

	lc.File = "/tmp/apreboot.log"
	out = lc.ToLoggingConfig()
	assert.Equal(t, "file", out.Output)
	assert.Equal(t, "/tmp/apreboot.log", out.File)
}

func TestGlobalConfig(t *testing.T) {
	prev := config.GetGlobalConfig()
	t.Cleanup(func() { config.SetGlobalConfig(prev) })

	cfg := config.New()
	cfg.Logging.Level = "error"
	config.SetGlobalConfig(cfg)

	assert.Equal(t, "error", config.GetLoggingConfig().Level)
}
