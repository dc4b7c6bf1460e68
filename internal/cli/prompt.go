package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// promptConfirmer asks the operator to type "yes" before a very large live
// run. With --yes it confirms without asking; without a terminal it declines.
type promptConfirmer struct {
	out   io.Writer
	in    io.Reader
	isTTY func() bool
	yes   bool
}

// Confirm implements batch.Confirmer.
func (p *promptConfirmer) Confirm(ctx context.Context, total int) bool {
	if p.yes {
		logger.Info().Ctx(ctx).Int("tasks", total).Msg("large batch confirmed with --yes")
		return true
	}
	if p.isTTY == nil || !p.isTTY() {
		_, _ = fmt.Fprintf(p.out, "About to reboot %d APs. Not a terminal, pass --yes to confirm.\n", total)
		return false
	}
	return ConfirmLargeBatch(p.out, p.in, total)
}

// ConfirmLargeBatch prompts on writer and reads one line from reader. Only
// "yes" (any case) confirms; anything else, including EOF, declines.
func ConfirmLargeBatch(writer io.Writer, reader io.Reader, total int) bool {
	_, _ = fmt.Fprintf(writer, "About to reboot %d APs. Are you sure? (yes/no): ", total)

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		_, _ = fmt.Fprintln(writer)
		return false
	}

	if strings.EqualFold(strings.TrimSpace(scanner.Text()), "yes") {
		return true
	}
	_, _ = fmt.Fprintln(writer, "Operation cancelled by user")
	return false
}
