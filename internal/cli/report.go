package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/apreboot/internal/engine/batch"
)

// maxErrorWidth is the error column width in the failed table.
const maxErrorWidth = 35

type reportStyles struct {
	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	mode    lipgloss.Style
}

func styledReport() reportStyles {
	return reportStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		mode:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	}
}

func plainReport() reportStyles {
	plain := lipgloss.NewStyle()
	return reportStyles{title: plain, success: plain, warning: plain, failure: plain, mode: plain}
}

// isWriterTerminal reports whether w is a terminal file.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

// RenderReport writes the run summary followed by the successful, skipped
// and failed tables. Colour is used only when w is a terminal.
func RenderReport(w io.Writer, report *batch.Report) error {
	if report == nil {
		return nil
	}
	styles := plainReport()
	if isWriterTerminal(w) {
		styles = styledReport()
	}
	return renderReport(w, report, styles)
}

func renderReport(w io.Writer, report *batch.Report, s reportStyles) error {
	p := message.NewPrinter(language.English)
	stats := report.Stats

	mode := "LIVE MODE"
	if report.Simulate {
		mode = "SIMULATE MODE"
	}
	title := "OPERATION SUMMARY"
	if report.State == batch.StateCancelled {
		title += " (INTERRUPTED)"
	}

	failedStyle := s.success
	if stats.Failed > 0 {
		failedStyle = s.failure
	}

	lines := []string{
		"",
		strings.Repeat("=", 80),
		s.title.Render(title),
		strings.Repeat("=", 80),
		"Mode: " + s.mode.Render(mode),
		p.Sprintf("Total APs in CSV: %d", stats.Total),
		p.Sprintf("APs processed: %d", stats.Processed),
		"Successful reboots: " + s.success.Render(p.Sprintf("%d", stats.Success)),
		"Failed reboots: " + failedStyle.Render(p.Sprintf("%d", stats.Failed)),
		"Skipped (not operational): " + s.warning.Render(p.Sprintf("%d", stats.Skipped)),
		fmt.Sprintf("Time taken: %.2f seconds", report.Elapsed.Seconds()),
		fmt.Sprintf("Average time per AP: %.2f seconds", report.AveragePerTask.Seconds()),
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return err
	}

	if len(stats.SuccessTasks) > 0 {
		rows := make([][]string, 0, len(stats.SuccessTasks))
		for _, t := range stats.SuccessTasks {
			rows = append(rows, []string{t.Name, t.Identity, t.GroupKey})
		}
		if err := writeTable(w, s.success.Render("SUCCESSFULLY REBOOTED APs"),
			[]string{"AP Name", "Serial Number", "Venue ID"}, rows); err != nil {
			return err
		}
	}

	if len(stats.SkippedTasks) > 0 {
		rows := make([][]string, 0, len(stats.SkippedTasks))
		for _, t := range stats.SkippedTasks {
			rows = append(rows, []string{t.Name, t.Identity, t.Status})
		}
		if err := writeTable(w, s.warning.Render("SKIPPED APs (NOT OPERATIONAL)"),
			[]string{"AP Name", "Serial Number", "Status"}, rows); err != nil {
			return err
		}
	}

	if len(stats.FailedTasks) > 0 {
		rows := make([][]string, 0, len(stats.FailedTasks))
		for _, t := range stats.FailedTasks {
			rows = append(rows, []string{t.Name, t.Identity, truncate(t.Error, maxErrorWidth)})
		}
		if err := writeTable(w, s.failure.Render("FAILED APs"),
			[]string{"AP Name", "Serial Number", "Error"}, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", 80)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
