package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

const progressTemplate pb.ProgressBarTemplate = `{{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "file"}}`

// ProgressFormatter shows a file counter bar while binaries are merged
// Failures are held back and printed under the bar once it finishes
type ProgressFormatter struct {
	writer io.Writer

	mu       sync.Mutex
	bar      *pb.ProgressBar
	failures []ProgressUpdate
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// Start initializes the bar
func (f *ProgressFormatter) Start(writer io.Writer, run *models.MergeRun, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stderr
	}
	f.writer = writer

	f.bar = progressTemplate.New(totalFiles)
	f.bar.SetWriter(writer)
	f.bar.SetWidth(terminalWidth(writer, 100))
	f.bar.SetRefreshRate(100 * time.Millisecond)
	f.bar.Set("file", "")
	f.bar.Start()

	return nil
}

// Progress advances the bar once per finished file
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case "file_start":
		f.bar.Set("file", update.FilePath)
	case "file_complete":
		if update.Outcome == models.OutcomeFailed {
			f.failures = append(f.failures, update)
		}
		f.bar.Increment()
	}

	return nil
}

// Complete stops the bar and displays the summary
func (f *ProgressFormatter) Complete(report *models.MergeReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Set("file", "")
		f.bar.Finish()
	}
	if f.writer == nil {
		f.writer = io.Discard
	}

	for _, failure := range f.failures {
		fmt.Fprintf(f.writer, "failed: %s (%s)\n", failure.FilePath, failure.Detail)
	}

	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil && f.bar.IsStarted() {
		f.bar.Finish()
	}
	if f.writer != nil {
		fmt.Fprintf(f.writer, "\nError: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
