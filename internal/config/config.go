package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Default values applied by New before the config file is read.
const (
	DefaultRegion        = "na"
	DefaultDelaySeconds  = 2
	DefaultBatchSize     = 50
	DefaultMaxAttempts   = 3
	MaxAttemptsLimit     = 10
	DefaultPageSize      = 100
	DefaultCacheTTL      = 3600
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	configDirName        = ".apreboot"
	defaultConfigFile    = "config.yaml"
	credentialsSection   = "credentials"
	credentialsAliasName = "auth"
)

// Regions maps a region name to the API host serving it.
//
//nolint:gochecknoglobals // Fixed lookup table.
var Regions = map[string]string{
	"na":   "api.ruckus.cloud",
	"eu":   "api.eu.ruckus.cloud",
	"asia": "api.asia.ruckus.cloud",
}

// Configuration errors. All of them are fatal for a run.
var (
	ErrConfigNotFound     = errors.New("configuration file not found")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownRegion      = errors.New("unknown region")
	ErrInvalidBatchConfig = errors.New("invalid batch configuration")
)

// Credentials holds the OAuth2 client credentials for the remote service.
type Credentials struct {
	ClientID     string `mapstructure:"client_id"     yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	TenantID     string `mapstructure:"tenant_id"     yaml:"tenant_id"`
	Region       string `mapstructure:"region"        yaml:"region"`
}

// LoggingConfig controls log level, format and optional log file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// BatchConfig holds defaults for the reboot command flags.
type BatchConfig struct {
	DelaySeconds  int    `yaml:"delay_seconds"`
	BatchSize     int    `yaml:"batch_size"`
	MaxAttempts   int    `yaml:"max_attempts"`
	PageSize      int    `yaml:"page_size"`
	CheckpointDir string `yaml:"checkpoint_dir"`
}

// CacheConfig controls the venue-name cache used during export.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Directory  string `yaml:"directory"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// MetricsConfig controls the Prometheus textfile written after a batch run.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// Config is the full apreboot configuration.
type Config struct {
	Credentials Credentials   `yaml:"-"`
	Logging     LoggingConfig `yaml:"logging"`
	Batch       BatchConfig   `yaml:"batch"`
	Cache       CacheConfig   `yaml:"cache"`
	Metrics     MetricsConfig `yaml:"metrics"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Credentials: Credentials{Region: DefaultRegion},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Batch: BatchConfig{
			DelaySeconds: DefaultDelaySeconds,
			BatchSize:    DefaultBatchSize,
			MaxAttempts:  DefaultMaxAttempts,
			PageSize:     DefaultPageSize,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Directory:  filepath.Join(defaultBaseDir(), "cache"),
			TTLSeconds: DefaultCacheTTL,
		},
	}
}

// DefaultPath returns ~/.apreboot/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultBaseDir(), defaultConfigFile)
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// Load reads the configuration at path on top of the defaults and then
// applies .env and environment overrides. An empty path means the default
// location, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, "", os.LookupEnv)
}

// LoadWithEnv is Load with an explicit .env file and environment lookup, for
// tests and embedding.
func LoadWithEnv(path, envFile string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := New()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if parseErr := cfg.parse(data); parseErr != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, parseErr)
		}
		cfg.Path = path
	case os.IsNotExist(err) && !explicit:
		// No default config file; environment may still supply credentials.
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dotenv, err := readDotEnv(envFile)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(overlayLookup(lookupEnv, dotenv))

	return cfg, nil
}

// parse unmarshals YAML data. Credentials are read from the "credentials"
// section, or from "auth" when that is absent.
func (c *Config) parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	section, ok := raw[credentialsSection]
	if !ok {
		section, ok = raw[credentialsAliasName]
	}
	if !ok || section == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c.Credentials,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err = decoder.Decode(section); err != nil {
		return fmt.Errorf("decoding credentials: %w", err)
	}
	return nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.Credentials.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.Credentials.TenantID == "" {
		missing = append(missing, "tenant_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if _, ok := Regions[strings.ToLower(c.Credentials.Region)]; !ok {
		return fmt.Errorf("%w: %q (valid: na, eu, asia)", ErrUnknownRegion, c.Credentials.Region)
	}

	if c.Batch.DelaySeconds < 0 {
		return fmt.Errorf("%w: delay_seconds must be >= 0", ErrInvalidBatchConfig)
	}
	if c.Batch.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be >= 1", ErrInvalidBatchConfig)
	}
	if c.Batch.MaxAttempts < 1 || c.Batch.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("%w: max_attempts must be between 1 and %d", ErrInvalidBatchConfig, MaxAttemptsLimit)
	}
	if c.Batch.PageSize < 1 {
		return fmt.Errorf("%w: page_size must be >= 1", ErrInvalidBatchConfig)
	}
	return nil
}

// BaseURL returns the API base URL for the configured region.
func (c *Config) BaseURL() string {
	host, ok := Regions[strings.ToLower(c.Credentials.Region)]
	if !ok {
		host = Regions[DefaultRegion]
	}
	return "https://" + host
}

//nolint:gochecknoglobals // Set once per CLI invocation, read by command handlers.
var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// SetGlobalConfig stores the configuration loaded for this invocation.
func SetGlobalConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig returns the configuration loaded for this invocation, or
// defaults when none was loaded.
func GetGlobalConfig() *Config {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	if globalConfig == nil {
		return New()
	}
	return globalConfig
}
