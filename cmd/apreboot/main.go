// Command apreboot exports RUCKUS One access points to CSV and reboots the
// access points listed in a CSV with pacing, retries and resumable
// checkpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/apreboot/internal/cli"
	"github.com/rshade/apreboot/internal/engine/batch"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker.

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code. The first interrupt
// asks the running command to stop after the current access point; the second
// exits immediately with cli.ExitForced.
func run() int {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cancel := batch.NewCancellation()
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	cancel.Watch(ctx, signals, func() { os.Exit(cli.ExitForced) })

	root := cli.NewRootCmd(version, cli.WithCancellation(cancel))
	err := root.ExecuteContext(ctx)
	if err != nil && !isInterrupted(err) {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return extractExitCode(err)
}

func extractExitCode(err error) int {
	return cli.ExitCodeFor(err)
}

func isInterrupted(err error) bool {
	var exitErr *cli.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode == cli.ExitInterrupted
}
