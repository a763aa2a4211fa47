package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
server:
  address: ":9090"
database:
  host: localhost
  port: 5432
  user: regsync
  database: regsync
  sslMode: disable
cache:
  dir: /tmp/regsync-cache
  listingTTL: 2m
  nameserverTTL: 30m
upstream:
  nameserverCandidates:
    - action: DomainGetNameservers
      param: domainid
    - action: DomainGetNameservers
      param: domain
sync:
  defaultBatchSize: 10
  enrichmentConcurrency: 2
`

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, validConfig)

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.GetAddress())
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "/tmp/regsync-cache", cfg.Cache.GetDir())
	assert.Equal(t, 2*time.Minute, cfg.Cache.GetListingTTL())
	assert.Equal(t, 30*time.Minute, cfg.Cache.GetNameserverTTL())
	assert.Len(t, cfg.Upstream.NameserverCandidates, 2)
	assert.Equal(t, 10, cfg.Sync.GetDefaultBatchSize())
	assert.Equal(t, 2, cfg.Sync.GetEnrichmentConcurrency())
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing database",
			content: "server:\n  address: \":8080\"\n",
			wantErr: "database configuration is required",
		},
		{
			name: "missing database host",
			content: `
database:
  port: 5432
  user: regsync
  database: regsync
`,
			wantErr: "database.host is required",
		},
		{
			name: "invalid listing TTL",
			content: `
database:
  host: localhost
  port: 5432
  user: regsync
  database: regsync
cache:
  listingTTL: banana
`,
			wantErr: "cache.listingTTL",
		},
		{
			name: "invalid nameserver candidate param",
			content: `
database:
  host: localhost
  port: 5432
  user: regsync
  database: regsync
upstream:
  nameserverCandidates:
    - action: DomainGetNameservers
      param: hostname
`,
			wantErr: "param must be 'domainid' or 'domain'",
		},
		{
			name: "nameserver candidate missing action",
			content: `
database:
  host: localhost
  port: 5432
  user: regsync
  database: regsync
upstream:
  nameserverCandidates:
    - param: domainid
`,
			wantErr: "action is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfigFile(t, tt.content)
			_, err := LoadConfig(WithConfigPath(path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestWithConfigPathEmpty(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestDatabaseConfigGetPassword(t *testing.T) {
	dbCfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "regsync",
		Database: "regsync",
	}

	t.Run("no password configured", func(t *testing.T) {
		_, err := dbCfg.GetPassword()
		require.Error(t, err)
	})

	t.Run("password from file trims whitespace", func(t *testing.T) {
		pwPath := filepath.Join(t.TempDir(), "pw")
		require.NoError(t, os.WriteFile(pwPath, []byte("s3cret\n"), 0o600))

		withFile := *dbCfg
		withFile.PasswordFile = pwPath

		pw, err := withFile.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", pw)
	})

	t.Run("password from environment", func(t *testing.T) {
		t.Setenv(EnvPrefix+"_DATABASE_PASSWORD", "env-pass")

		pw, err := dbCfg.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "env-pass", pw)
	})

	t.Run("connection string escapes password", func(t *testing.T) {
		t.Setenv(EnvPrefix+"_DATABASE_PASSWORD", "p@ss/word")

		connStr, err := dbCfg.GetConnectionString()
		require.NoError(t, err)
		assert.Contains(t, connStr, "p%40ss%2Fword")
		assert.Contains(t, connStr, "sslmode=require")
	})
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	var (
		server *ServerConfig
		cache  *CacheConfig
		sync   *SyncConfig
	)

	assert.Equal(t, ":8080", server.GetAddress())
	assert.Equal(t, defaultCacheDir, cache.GetDir())
	assert.Equal(t, defaultListingTTL, cache.GetListingTTL())
	assert.Equal(t, defaultNameserverTTL, cache.GetNameserverTTL())
	assert.Equal(t, defaultBatchSize, sync.GetDefaultBatchSize())
	assert.Equal(t, defaultEnrichmentConcurrency, sync.GetEnrichmentConcurrency())
}
