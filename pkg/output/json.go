package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// JSONFormatter formats the final report as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
	errors []string
}

// JSONReportData represents the final report document
type JSONReportData struct {
	RunID         string          `json:"run_id"`
	Status        string          `json:"status"`
	DryRun        bool            `json:"dry_run"`
	UniversalRoot string          `json:"universal_root"`
	PrimaryRoot   string          `json:"primary_root"`
	SecondaryRoot string          `json:"secondary_root"`
	PrimaryArch   string          `json:"primary_arch"`
	SecondaryArch string          `json:"secondary_arch"`
	StartTime     string          `json:"start_time"`
	Duration      string          `json:"duration"`
	DurationMs    int64           `json:"duration_ms"`
	Stats         JSONStatsData   `json:"stats"`
	Files         []JSONFileData  `json:"files,omitempty"`
	Errors        []JSONErrorData `json:"errors,omitempty"`
	FatalErrors   []string        `json:"fatal_errors,omitempty"`
}

// JSONStatsData represents per-outcome counters
type JSONStatsData struct {
	FilesVisited     int `json:"files_visited"`
	TotalBinaries    int `json:"total_binaries"`
	Merged           int `json:"merged"`
	Skipped          int `json:"skipped"`
	Failed           int `json:"failed"`
	Unresolvable     int `json:"unresolvable"`
	NotBinary        int `json:"not_binary"`
	InspectionFailed int `json:"inspection_failed"`
	Excluded         int `json:"excluded"`
	WouldMerge       int `json:"would_merge,omitempty"`
}

// JSONFileData represents one file outcome
type JSONFileData struct {
	Path       string `json:"path"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, run *models.MergeRun, totalFiles int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress is a no-op; JSON output is a single document written on completion
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report
func (f *JSONFormatter) Complete(report *models.MergeReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	data := NewJSONReportData(report)
	data.FatalErrors = f.errors
	return encodeJSON(f.writer, data)
}

// Error records a fatal error for inclusion in the report
func (f *JSONFormatter) Error(err error) error {
	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// NewJSONReportData converts a merge report into its JSON document form
func NewJSONReportData(report *models.MergeReport) JSONReportData {
	stats := report.Stats

	data := JSONReportData{
		RunID:         report.RunID,
		Status:        string(report.Status),
		DryRun:        report.DryRun,
		UniversalRoot: report.UniversalRoot,
		PrimaryRoot:   report.PrimaryRoot,
		SecondaryRoot: report.SecondaryRoot,
		PrimaryArch:   report.PrimaryArch.String(),
		SecondaryArch: report.SecondaryArch.String(),
		StartTime:     report.StartTime.Format(time.RFC3339),
		Duration:      report.Duration.Round(time.Millisecond).String(),
		DurationMs:    report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			FilesVisited:     stats.FilesVisited,
			TotalBinaries:    stats.Considered(),
			Merged:           stats.Merged,
			Skipped:          stats.Skipped,
			Failed:           stats.Failed,
			Unresolvable:     stats.Unresolvable,
			NotBinary:        stats.NotBinary,
			InspectionFailed: stats.InspectionFailed,
			Excluded:         stats.Excluded,
			WouldMerge:       stats.WouldMerge,
		},
	}

	for _, result := range report.Results {
		data.Files = append(data.Files, JSONFileData{
			Path:       result.RelativePath,
			Outcome:    string(result.Outcome),
			Detail:     result.Detail,
			DurationMs: result.Duration.Milliseconds(),
		})
	}

	for _, err := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{
			Path:  err.FilePath,
			Error: err.Error,
		})
	}

	return data
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
