package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvClientID     = "APREBOOT_CLIENT_ID"
	EnvClientSecret = "APREBOOT_CLIENT_SECRET"
	EnvTenantID     = "APREBOOT_TENANT_ID"
	EnvRegion       = "APREBOOT_REGION"
	EnvLogLevel     = "APREBOOT_LOG_LEVEL"
	EnvLogFormat    = "APREBOOT_LOG_FORMAT"
	EnvDelay        = "APREBOOT_DELAY_SECONDS"
	EnvEnvFile      = "APREBOOT_ENV_FILE"
	defaultEnvFile  = ".env"
)

// readDotEnv reads KEY=VALUE pairs from envFile. An empty envFile means
// $APREBOOT_ENV_FILE or ./.env; a missing default file is not an error.
func readDotEnv(envFile string) (map[string]string, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = os.Getenv(EnvEnvFile)
		explicit = envFile != ""
	}
	if envFile == "" {
		envFile = defaultEnvFile
	}

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
	}

	values, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("parsing env file %s: %w", envFile, err)
	}
	return values, nil
}

// overlayLookup prefers the real environment and falls back to .env values.
func overlayLookup(lookupEnv func(string) (string, bool), dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if lookupEnv != nil {
			if v, ok := lookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// applyEnv overrides config values with any set environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvClientID, &c.Credentials.ClientID)
	set(EnvClientSecret, &c.Credentials.ClientSecret)
	set(EnvTenantID, &c.Credentials.TenantID)
	set(EnvRegion, &c.Credentials.Region)
	set(EnvLogLevel, &c.Logging.Level)
	set(EnvLogFormat, &c.Logging.Format)

	if v, ok := lookup(EnvDelay); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batch.DelaySeconds = n
		}
	}
}
