package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/apreboot/internal/csvio"
	"github.com/rshade/apreboot/internal/engine/batch"
	"github.com/rshade/apreboot/internal/inventory"
	"github.com/rshade/apreboot/internal/ruckus"
)

type exportFlags struct {
	output   string
	pageSize int
	noCache  bool
}

func newExportCmd(a *app) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all access points to CSV",
		Long: `Fetch every access point page by page, resolve venue names and write them to a CSV
that can be edited and fed back to "apreboot reboot".`,
		Example: `  apreboot export
  apreboot export --output aps.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, a, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "",
		"output CSV path (default ap_export_YYYYMMDD_HHMMSS.csv)")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "records per API page (default from config, 100)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "do not read or write the venue name cache")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, flags exportFlags) error {
	client, err := a.newClient(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := cancellableContext(cmd.Context(), a.opts.cancel)
	defer stop()

	output := flags.output
	if output == "" {
		output = csvio.DefaultExportFilename(time.Now())
	}
	pageSize := flags.pageSize
	if pageSize <= 0 {
		pageSize = a.cfg.Batch.PageSize
	}

	opts := []inventory.SyncOption{inventory.WithPageSize(pageSize)}
	if !flags.noCache {
		if c := a.groupNameCache(ctx); c != nil {
			opts = append(opts, inventory.WithGroupCache(c))
		}
	}
	sync := inventory.NewSync(ruckus.AccessPoints{Client: client}, ruckus.Venues{Client: client}, opts...)

	logger.Info().Ctx(ctx).Str("output", output).Msg("exporting access points")
	result, err := inventory.NewExporter(sync, csvio.FileSink{Path: output}).RunExport(ctx)

	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()
	switch {
	case result.Interrupted:
		if err == nil {
			_, _ = p.Fprintf(out, "\nExport interrupted: wrote %d access points to %s\n", len(result.Records), output)
		}
		return &ExitError{ExitCode: ExitInterrupted, Reason: "export interrupted"}
	case errors.Is(err, inventory.ErrNoRecords):
		logger.Warn().Ctx(ctx).Msg("no access points found to export")
		return exitError(ExitFailure, err)
	case err != nil:
		return exitError(ExitFailure, fmt.Errorf("export failed: %w", err))
	}

	if failed := result.FailedPages(); failed > 0 {
		_, _ = p.Fprintf(out, "Warning: %d of %d pages could not be fetched and are missing from the export\n",
			failed, result.Pages)
	}
	if result.GroupNames != inventory.GroupNamesLive {
		_, _ = fmt.Fprintf(out, "Warning: venue names taken from %s source\n", result.GroupNames)
	}
	_, _ = p.Fprintf(out, "\nExport completed: %s (%d access points)\n", output, len(result.Records))
	return nil
}

// cancellableContext returns a context cancelled on the first cancellation
// request.
func cancellableContext(parent context.Context, c *batch.Cancellation) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
