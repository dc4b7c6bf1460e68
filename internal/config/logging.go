package config

import (
	"os"
	"path/filepath"

	"github.com/rshade/apreboot/internal/logging"
)

// outputTypeFile is the logging output name used when a log file is configured.
const outputTypeFile = "file"

// ToLoggingConfig converts config.LoggingConfig to logging.Config for use with
// the internal/logging package.
//
// The conversion applies these rules:
//   - Level, Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := "stderr"
	if lc.File != "" {
		output = outputTypeFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
		Caller: false,
	}
}

// GetLoggingConfig returns a copy of the Logging section of the global
// configuration. Flag overrides (for example --debug) are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	cfg := GetGlobalConfig()
	return cfg.Logging
}

// EnsureLogDir creates the directory of the configured log file.
func EnsureLogDir() error {
	cfg := GetGlobalConfig()
	if cfg.Logging.File == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o750)
}
