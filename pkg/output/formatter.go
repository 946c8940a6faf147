package output

import (
	"io"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// ProgressUpdate represents a progress notification during the merge phase
type ProgressUpdate struct {
	Type        string // "file_start", "file_complete"
	FilePath    string
	Outcome     models.Outcome
	Detail      string
	CurrentFile int
	TotalFiles  int
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a merge run over totalFiles candidates
	Start(writer io.Writer, run *models.MergeRun, totalFiles int) error

	// Progress reports progress during the merge
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the summary
	Complete(report *models.MergeReport) error

	// Error reports a fatal error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for a format name.
// A human format gets a progress bar when progress is requested and w is a terminal
func New(format string, w io.Writer, verbose, progress bool) Formatter {
	switch format {
	case "json":
		return NewJSONFormatter()
	default:
		if progress && !verbose && IsTerminal(w) {
			return NewProgressFormatter()
		}
		return NewHumanFormatter(verbose)
	}
}
