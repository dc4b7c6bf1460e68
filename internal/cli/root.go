package cli

import (
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/apreboot/internal/config"
	"github.com/rshade/apreboot/internal/engine/batch"
	"github.com/rshade/apreboot/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

type rootOptions struct {
	lookupEnv  func(string) (string, bool)
	cancel     *batch.Cancellation
	httpClient *http.Client
	baseURL    string
	stdin      io.Reader
	stdinTTY   func() bool
	sleeper    batch.Sleeper
}

// RootOption customizes the root command.
type RootOption func(*rootOptions)

// WithLookupEnv replaces os.LookupEnv for configuration overrides.
func WithLookupEnv(fn func(string) (string, bool)) RootOption {
	return func(o *rootOptions) { o.lookupEnv = fn }
}

// WithCancellation shares the signal-driven cancellation with the commands.
func WithCancellation(c *batch.Cancellation) RootOption {
	return func(o *rootOptions) { o.cancel = c }
}

// WithHTTPClient sets the HTTP client used for the remote API.
func WithHTTPClient(c *http.Client) RootOption {
	return func(o *rootOptions) { o.httpClient = c }
}

// WithBaseURL overrides the region-derived API base URL.
func WithBaseURL(url string) RootOption {
	return func(o *rootOptions) { o.baseURL = url }
}

// WithStdin sets the confirmation prompt input and whether it is a terminal.
func WithStdin(r io.Reader, isTTY bool) RootOption {
	return func(o *rootOptions) {
		o.stdin = r
		o.stdinTTY = func() bool { return isTTY }
	}
}

// WithSleeper replaces the sleeper used for pacing and retry backoff.
func WithSleeper(s batch.Sleeper) RootOption {
	return func(o *rootOptions) { o.sleeper = s }
}

// app is the state shared by the commands of one invocation.
type app struct {
	opts      rootOptions
	cfg       *config.Config
	logResult *logging.LogPathResult
}

// NewRootCmd creates the root Cobra command for the apreboot CLI.
// It loads configuration, wires logging and tracing, and adds the export,
// reboot and checkpoint subcommands.
func NewRootCmd(ver string, opts ...RootOption) *cobra.Command {
	a := &app{opts: rootOptions{
		lookupEnv: os.LookupEnv,
		stdin:     os.Stdin,
		stdinTTY:  func() bool { return isTerminal(os.Stdin) },
		sleeper:   batch.RealSleeper{},
	}}
	for _, opt := range opts {
		opt(&a.opts)
	}
	if a.opts.cancel == nil {
		a.opts.cancel = batch.NewCancellation()
	}

	cmd := &cobra.Command{
		Use:           "apreboot",
		Short:         "RUCKUS One access point export and reboot manager",
		Long:          "apreboot exports access points to CSV and reboots the access points listed in a CSV, with pacing, retries and resumable checkpoints.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return exitError(ExitConfigError, err)
			}
			a.cfg = cfg
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd)
			a.logResult = &result
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "path to config.yaml (default ~/.apreboot/config.yaml)")
	cmd.PersistentFlags().String("env-file", "", "path to a .env file with APREBOOT_* variables (default ./.env)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "", "log format: console or json")
	cmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")

	cmd.AddCommand(newExportCmd(a), newRebootCmd(a), newCheckpointCmd(a))
	a.closeLogsAfterRun(cmd)
	return cmd
}

// closeLogsAfterRun wraps every RunE so the log file is closed whether the
// command succeeds or fails. Cobra skips post-run hooks after an error.
func (a *app) closeLogsAfterRun(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.closeLogsAfterRun(sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) (err error) {
		defer func() {
			closeErr := cleanupLogging(c, a.logResult, err)
			a.logResult = nil
			if err == nil {
				err = closeErr
			}
		}()
		return run(c, args)
	}
}

const rootCmdExample = `  # Export all access points to ap_export_<timestamp>.csv
  apreboot export

  # Preview a reboot without calling the API
  apreboot reboot aps.csv --simulate

  # Reboot with a 10 second delay, checkpointing every 25 APs
  apreboot reboot aps.csv --delay 10 --batch-size 25 --force

  # Continue an interrupted run
  apreboot reboot aps.csv --resume --force

  # Inspect or discard a saved checkpoint
  apreboot checkpoint show aps.csv
  apreboot checkpoint clear aps.csv`

// loadConfig reads the config file and environment, then applies flag
// overrides.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.LoadWithEnv(path, envFile, a.opts.lookupEnv)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.Logging.File = v
	}
	return cfg, nil
}
