// Package config provides configuration loading and management for the registrar sync server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "REGSYNC"

// Default values applied when optional settings are omitted
const (
	defaultAddress               = ":8080"
	defaultCacheDir              = "/var/cache/registrar-sync"
	defaultListingTTL            = 5 * time.Minute
	defaultNameserverTTL         = time.Hour
	defaultBatchSize             = 25
	defaultEnrichmentConcurrency = 4
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server   *ServerConfig   `yaml:"server,omitempty"`
	Database *DatabaseConfig `yaml:"database"`
	Cache    *CacheConfig    `yaml:"cache,omitempty"`
	Upstream *UpstreamConfig `yaml:"upstream,omitempty"`
	Sync     *SyncConfig     `yaml:"sync,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address for the HTTP server
	Address string `yaml:"address,omitempty"`
}

// GetAddress returns the listen address, using the default if not specified
func (s *ServerConfig) GetAddress() string {
	if s == nil || s.Address == "" {
		return defaultAddress
	}
	return s.Address
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// This is the recommended approach for production deployments.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MinIdleConns is the minimum number of idle connections kept in the pool
	MinIdleConns int32 `yaml:"minIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from REGSYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// CacheConfig defines response cache settings
type CacheConfig struct {
	// Dir is the directory holding cached upstream responses
	Dir string `yaml:"dir,omitempty"`

	// ListingTTL is how long domain listing responses stay fresh (e.g., "5m").
	// Short by design: portfolio membership changes.
	ListingTTL string `yaml:"listingTTL,omitempty"`

	// NameserverTTL is how long nameserver responses stay fresh (e.g., "1h").
	// Nameservers change rarely, so this may be much longer than ListingTTL.
	NameserverTTL string `yaml:"nameserverTTL,omitempty"`
}

// GetDir returns the cache directory, using the default if not specified
func (c *CacheConfig) GetDir() string {
	if c == nil || c.Dir == "" {
		return defaultCacheDir
	}
	return c.Dir
}

// GetListingTTL returns the parsed listing TTL, using the default if not specified
func (c *CacheConfig) GetListingTTL() time.Duration {
	if c == nil || c.ListingTTL == "" {
		return defaultListingTTL
	}
	d, err := time.ParseDuration(c.ListingTTL)
	if err != nil {
		return defaultListingTTL
	}
	return d
}

// GetNameserverTTL returns the parsed nameserver TTL, using the default if not specified
func (c *CacheConfig) GetNameserverTTL() time.Duration {
	if c == nil || c.NameserverTTL == "" {
		return defaultNameserverTTL
	}
	d, err := time.ParseDuration(c.NameserverTTL)
	if err != nil {
		return defaultNameserverTTL
	}
	return d
}

// NameserverCandidateConfig defines one entry of the nameserver lookup
// fallback chain: the upstream action name to call and which identifying
// parameter it expects ("domainid" or "domain").
type NameserverCandidateConfig struct {
	Action string `yaml:"action"`
	Param  string `yaml:"param"`
}

// UpstreamConfig defines settings for the upstream registrar API adapter
type UpstreamConfig struct {
	// NameserverCandidates is the ordered fallback chain for nameserver
	// lookups. The upstream API has exposed this capability under more than
	// one action name and identifying parameter across versions, so the
	// chain is configurable; the first candidate that answers with
	// result=success wins. When empty, a built-in default chain is used.
	NameserverCandidates []NameserverCandidateConfig `yaml:"nameserverCandidates,omitempty"`
}

// SyncConfig defines batch synchronization settings
type SyncConfig struct {
	// DefaultBatchSize is used when a sync request omits batch_size
	DefaultBatchSize int `yaml:"defaultBatchSize,omitempty"`

	// EnrichmentConcurrency bounds the per-batch worker pool used for
	// nameserver enrichment
	EnrichmentConcurrency int `yaml:"enrichmentConcurrency,omitempty"`
}

// GetDefaultBatchSize returns the default batch size
func (s *SyncConfig) GetDefaultBatchSize() int {
	if s == nil || s.DefaultBatchSize <= 0 {
		return defaultBatchSize
	}
	return s.DefaultBatchSize
}

// GetEnrichmentConcurrency returns the enrichment worker pool size
func (s *SyncConfig) GetEnrichmentConcurrency() int {
	if s == nil || s.EnrichmentConcurrency <= 0 {
		return defaultEnrichmentConcurrency
	}
	return s.EnrichmentConcurrency
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}

	if c.Cache != nil {
		if c.Cache.ListingTTL != "" {
			if _, err := time.ParseDuration(c.Cache.ListingTTL); err != nil {
				return fmt.Errorf("cache.listingTTL must be a valid duration (e.g., '5m'): %w", err)
			}
		}
		if c.Cache.NameserverTTL != "" {
			if _, err := time.ParseDuration(c.Cache.NameserverTTL); err != nil {
				return fmt.Errorf("cache.nameserverTTL must be a valid duration (e.g., '1h'): %w", err)
			}
		}
	}

	if c.Upstream != nil {
		for i, cand := range c.Upstream.NameserverCandidates {
			if cand.Action == "" {
				return fmt.Errorf("upstream.nameserverCandidates[%d]: action is required", i)
			}
			if cand.Param != "domainid" && cand.Param != "domain" {
				return fmt.Errorf(
					"upstream.nameserverCandidates[%d]: param must be 'domainid' or 'domain', got %q", i, cand.Param)
			}
		}
	}

	return nil
}
