package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// terminalWidth returns the width of w, or fallback when w is not a terminal
func terminalWidth(w io.Writer, fallback int) int {
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return fallback
}

// writeSummary renders the outcome table and the closing totals line
func writeSummary(w io.Writer, report *models.MergeReport) {
	stats := report.Stats

	fmt.Fprintf(w, "\n")
	if report.DryRun {
		fmt.Fprintf(w, "Dry run completed in %s\n\n", report.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Merge completed in %s\n\n", report.Duration.Round(time.Millisecond))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Outcome", "Files"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	rows := []struct {
		outcome models.Outcome
		count   int
	}{
		{models.OutcomeMerged, stats.Merged},
		{models.OutcomeSkipped, stats.Skipped},
		{models.OutcomeFailed, stats.Failed},
		{models.OutcomeUnresolvable, stats.Unresolvable},
		{models.OutcomeNotBinary, stats.NotBinary},
		{models.OutcomeInspectionFailed, stats.InspectionFailed},
		{models.OutcomeExcluded, stats.Excluded},
	}
	if report.DryRun {
		rows = append(rows, struct {
			outcome models.Outcome
			count   int
		}{models.OutcomeWouldMerge, stats.WouldMerge})
	}
	for _, row := range rows {
		table.Append([]string{string(row.outcome), strconv.Itoa(row.count)})
	}
	table.SetFooter([]string{"files visited", strconv.Itoa(stats.FilesVisited)})
	table.Render()

	fmt.Fprintf(w, "\nStatus: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  %s: %s\n", err.FilePath, err.Error)
		}
	}

	fmt.Fprintf(w, "\nTotal binaries: %d, Skipped: %d, Failed: %d\n",
		stats.Considered(), stats.Skipped, stats.Failed)
}
