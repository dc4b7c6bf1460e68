package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/apreboot/internal/config"
	"github.com/rshade/apreboot/internal/csvio"
	"github.com/rshade/apreboot/internal/engine/batch"
	"github.com/rshade/apreboot/internal/inventory"
	"github.com/rshade/apreboot/internal/ruckus"
)

type rebootFlags struct {
	delay           int
	simulate        bool
	force           bool
	resume          bool
	batchSize       int
	maxAttempts     int
	skipStatusCheck bool
	yes             bool
	checkpointDir   string
	metricsFile     string
}

func newRebootCmd(a *app) *cobra.Command {
	var flags rebootFlags

	cmd := &cobra.Command{
		Use:   "reboot <tasks.csv>",
		Short: "Reboot the access points listed in a CSV",
		Long: `Reboot every access point listed in the CSV, one at a time, waiting --delay seconds
between access points. Only operational access points are rebooted; the live status is
checked before the run unless --skip-status-check is given.

Progress is checkpointed every --batch-size access points and on CTRL+C. Run the same
command with --resume to continue where an interrupted run stopped. A second CTRL+C
exits immediately.`,
		Example: `  apreboot reboot aps.csv --simulate
  apreboot reboot aps.csv --delay 5 --force
  apreboot reboot aps.csv --resume --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReboot(cmd, a, args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.delay, "delay", -1, "seconds to wait between access points (default from config, 2)")
	cmd.Flags().BoolVar(&flags.simulate, "simulate", false, "log what would be done without rebooting anything")
	cmd.Flags().BoolVar(&flags.force, "force", false,
		fmt.Sprintf("required to reboot more than %d access points", batch.ForceThreshold))
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "continue from the saved checkpoint")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "access points per checkpoint (default from config, 50)")
	cmd.Flags().IntVar(&flags.maxAttempts, "max-attempts", 0, "reboot attempts per access point (default from config, 3)")
	cmd.Flags().BoolVar(&flags.skipStatusCheck, "skip-status-check", false,
		"trust the CSV status instead of fetching live status (faster, less safe)")
	cmd.Flags().BoolVar(&flags.yes, "yes", false,
		fmt.Sprintf("confirm runs of more than %d access points without prompting", batch.ConfirmThreshold))
	cmd.Flags().StringVar(&flags.checkpointDir, "checkpoint-dir", "", "directory for checkpoint files (default from config, .)")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the run")
	return cmd
}

// applyDefaults fills unset flags from the configuration.
func (f *rebootFlags) applyDefaults(a *app) {
	cfg := a.cfg.Batch
	if f.delay < 0 {
		f.delay = cfg.DelaySeconds
	}
	if f.batchSize <= 0 {
		f.batchSize = cfg.BatchSize
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = cfg.MaxAttempts
	}
	if f.checkpointDir == "" {
		f.checkpointDir = cfg.CheckpointDir
	}
	if f.metricsFile == "" {
		f.metricsFile = a.cfg.Metrics.File
	}
}

func runReboot(cmd *cobra.Command, a *app, path string, flags rebootFlags) error {
	ctx := cmd.Context()
	flags.applyDefaults(a)
	if flags.maxAttempts > config.MaxAttemptsLimit {
		return exitError(ExitConfigError, fmt.Errorf("%w: --max-attempts must be at most %d",
			config.ErrInvalidBatchConfig, config.MaxAttemptsLimit))
	}

	src, err := csvio.ReadTaskFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(ExitFailure, fmt.Errorf("task file not found: %s", path))
		}
		return exitError(ExitFailure, err)
	}

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}

	if flags.checkpointDir != "" {
		if _, err = config.EnsureGitignore(flags.checkpointDir); err != nil {
			logger.Warn().Ctx(ctx).Err(err).Str("dir", flags.checkpointDir).Msg("could not write .gitignore")
		}
	}

	var recorder batch.Recorder = batch.NopRecorder{}
	var prom *batch.PrometheusRecorder
	if flags.metricsFile != "" {
		prom = batch.NewPrometheusRecorder()
		recorder = prom
	}

	invoker := batch.NewRetryingInvoker(client, flags.maxAttempts, a.opts.sleeper, recorder)
	runner := batch.NewRunner(invoker, batch.NewFileCheckpointStore(flags.checkpointDir), a.opts.cancel,
		batch.WithStatusLoader(liveStatuses(client)),
		batch.WithConfirmer(&promptConfirmer{
			out:   cmd.ErrOrStderr(),
			in:    a.opts.stdin,
			isTTY: a.opts.stdinTTY,
			yes:   flags.yes,
		}),
		batch.WithSleeper(a.opts.sleeper),
		batch.WithWaitObserver(newCountdown(cmd.ErrOrStderr())),
		batch.WithMetrics(recorder),
	)

	report, runErr := runner.Run(ctx, src, batch.Options{
		Delay:           time.Duration(flags.delay) * time.Second,
		Simulate:        flags.simulate,
		Force:           flags.force,
		Resume:          flags.resume,
		BatchSize:       flags.batchSize,
		SkipStatusCheck: flags.skipStatusCheck,
	})
	if runErr != nil {
		return exitError(ExitFailure, runErr)
	}

	if prom != nil {
		if err = prom.WriteTextfile(flags.metricsFile); err != nil {
			logger.Warn().Ctx(ctx).Err(err).Str("path", flags.metricsFile).Msg("could not write metrics file")
		}
	}

	out := cmd.OutOrStdout()
	if err = RenderReport(out, report); err != nil {
		return err
	}

	if report.State == batch.StateCancelled {
		_, _ = fmt.Fprintln(out, "\nOperation interrupted. Use --resume to continue")
		return &ExitError{ExitCode: ExitInterrupted, Reason: "operation interrupted"}
	}
	_, _ = fmt.Fprintln(out, "\nOperation completed successfully")
	return nil
}

// liveStatuses snapshots the live access point statuses once per run.
func liveStatuses(client *ruckus.Client) batch.StatusLoader {
	return func(ctx context.Context) batch.StatusLookup {
		return inventory.BuildStatusCache(ctx, ruckus.AccessPoints{Client: client},
			inventory.StatusPageSize, inventory.StatusPageCap)
	}
}
