// Package logging provides the zerolog setup shared by every apreboot command.
//
// A single logger is built per CLI invocation from the merged logging
// configuration (config file, environment, flags), attached to the command
// context and retrieved downstream with FromContext. Each invocation carries a
// ULID trace ID that is stamped onto every event logged with .Ctx(ctx).
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output and format names accepted in Config.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	OutputStderr  = "stderr"
	OutputStdout  = "stdout"
	OutputFile    = "file"
)

// Config describes how the logger should be built.
type Config struct {
	Level  string
	Format string
	Output string
	File   string
	Caller bool
}

// LogPathResult is the logger built by NewLoggerWithPath together with details
// about where it writes.
type LogPathResult struct {
	Logger         zerolog.Logger
	FilePath       string
	UsingFile      bool
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any.
func (r *LogPathResult) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

//nolint:gochecknoglobals // Process-wide fallback logger used when no context logger is set.
var (
	globalMu     sync.RWMutex
	globalLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
)

// NewLoggerWithPath builds a logger from cfg. When the configured log file
// cannot be opened the logger falls back to stderr and reports why.
func NewLoggerWithPath(cfg Config) LogPathResult {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var result LogPathResult
	var out io.Writer = os.Stderr
	if cfg.Output == OutputStdout {
		out = os.Stdout
	}

	console := strings.ToLower(cfg.Format) != FormatJSON
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if cfg.Output == OutputFile || cfg.File != "" {
		f, openErr := openLogFile(cfg.File)
		if openErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = openErr.Error()
		} else {
			result.file = f
			result.FilePath = cfg.File
			result.UsingFile = true
			// The file receives raw JSON events; only the terminal copy is pretty-printed.
			out = zerolog.MultiLevelWriter(out, f)
		}
	}

	ctxBuilder := zerolog.New(out).Level(lvl).Hook(traceHook{}).With().Timestamp()
	if cfg.Caller {
		ctxBuilder = ctxBuilder.Caller()
	}
	result.Logger = ctxBuilder.Logger()

	SetGlobal(result.Logger)
	return result
}

// openLogFile creates the parent directory and opens path for appending.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log output is %q but no file path is configured", OutputFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// SetGlobal replaces the fallback logger returned by FromContext when the
// context carries none.
func SetGlobal(l zerolog.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Global returns the process-wide fallback logger.
func Global() zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// FromContext returns the logger attached to ctx, or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	l := Global()
	return &l
}

// ComponentLogger returns a child logger tagged with the given component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// PrintLogPathMessage tells the operator where the log file is.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the operator that file logging was not possible.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), logging to stderr\n", reason)
}
