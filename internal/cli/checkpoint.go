package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/apreboot/internal/csvio"
	"github.com/rshade/apreboot/internal/engine/batch"
)

func newCheckpointCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or remove the checkpoint of a task CSV",
	}
	cmd.PersistentFlags().StringVar(&dir, "checkpoint-dir", "", "directory for checkpoint files (default from config, .)")

	store := func() *batch.FileCheckpointStore {
		if dir == "" {
			dir = a.cfg.Batch.CheckpointDir
		}
		return batch.NewFileCheckpointStore(dir)
	}

	showCmd := &cobra.Command{
		Use:   "show <tasks.csv>",
		Short: "Show the saved progress for a task CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpointShow(cmd, store(), args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <tasks.csv>",
		Short: "Delete the saved progress so the next run starts from the beginning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := store()
			key := batch.CheckpointKey(args[0])
			path := s.Path(key)
			out := cmd.OutOrStdout()

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				_, _ = fmt.Fprintf(out, "No checkpoint for %s\n", args[0])
				return nil
			}
			s.Delete(cmd.Context(), key)
			if _, err := os.Stat(path); err == nil {
				return exitError(ExitFailure, fmt.Errorf("could not remove %s", path))
			}
			_, _ = fmt.Fprintf(out, "Removed %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(showCmd, clearCmd)
	return cmd
}

func runCheckpointShow(cmd *cobra.Command, store *batch.FileCheckpointStore, csvPath string) error {
	out := cmd.OutOrStdout()
	key := batch.CheckpointKey(csvPath)

	cp, err := store.Read(key)
	switch {
	case errors.Is(err, os.ErrNotExist):
		_, _ = fmt.Fprintf(out, "No checkpoint for %s\n", csvPath)
		return nil
	case err != nil:
		return exitError(ExitFailure, fmt.Errorf("checkpoint %s: %w", store.Path(key), err))
	}

	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(out, "Checkpoint:     %s\n", store.Path(key))
	_, _ = fmt.Fprintf(out, "Format version: %s\n", cp.FormatVersion)
	if !cp.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(out, "Updated:        %s\n", cp.UpdatedAt.Local().Format(time.DateTime))
	}
	_, _ = p.Fprintf(out, "Processed:      %d\n", cp.LastProcessedIndex)
	_, _ = p.Fprintf(out, "Successful:     %d\n", cp.Success)
	_, _ = p.Fprintf(out, "Failed:         %d\n", cp.Failed)
	_, _ = p.Fprintf(out, "Skipped:        %d\n", cp.Skipped)

	if src, readErr := csvio.ReadTaskFile(csvPath); readErr == nil {
		total := len(src.Tasks)
		switch {
		case cp.LastProcessedIndex < total:
			_, _ = p.Fprintf(out, "Resume starts at AP %d of %d\n", cp.LastProcessedIndex+1, total)
		case cp.LastProcessedIndex == total:
			_, _ = p.Fprintf(out, "All %d APs were processed\n", total)
		default:
			_, _ = p.Fprintf(out, "Checkpoint is past the end of the %d-AP task list; --resume starts over\n", total)
		}
	}
	return nil
}
