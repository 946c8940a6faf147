package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// HumanFormatter prints one line per decided binary and a summary table
type HumanFormatter struct {
	writer     io.Writer
	verbose    bool
	arch       models.Arch
	totalFiles int
}

// NewHumanFormatter creates a new human-readable formatter.
// Verbose output also lists files that never reached a merge decision
func NewHumanFormatter(verbose bool) *HumanFormatter {
	return &HumanFormatter{verbose: verbose}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, run *models.MergeRun, totalFiles int) error {
	f.writer = writer
	f.totalFiles = totalFiles
	if run != nil {
		f.arch = run.SecondaryArch
	}

	if writer != nil {
		fmt.Fprintf(writer, "Creating universal binaries: %d files to inspect\n", totalFiles)
	}

	return nil
}

// Progress reports per-file outcomes
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil || update.Type != "file_complete" {
		return nil
	}

	switch update.Outcome {
	case models.OutcomeMerged:
		fmt.Fprintf(f.writer, "success adding %s arch to binary: %s\n", f.arch, update.FilePath)
	case models.OutcomeFailed:
		fmt.Fprintf(f.writer, "failed adding %s arch to binary: %s (%s)\n", f.arch, update.FilePath, update.Detail)
	case models.OutcomeSkipped:
		fmt.Fprintf(f.writer, "skipped adding %s arch to binary: %s\n", f.arch, update.FilePath)
	case models.OutcomeWouldMerge:
		fmt.Fprintf(f.writer, "would add %s arch to binary: %s\n", f.arch, update.FilePath)
	default:
		if f.verbose {
			if update.Detail != "" {
				fmt.Fprintf(f.writer, "%s: %s (%s)\n", update.Outcome, update.FilePath, update.Detail)
			} else {
				fmt.Fprintf(f.writer, "%s: %s\n", update.Outcome, update.FilePath)
			}
		}
	}

	return nil
}

// Complete displays the summary
func (f *HumanFormatter) Complete(report *models.MergeReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
