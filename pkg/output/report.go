package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// WriteReportFile writes the JSON report to path, creating parent directories
func WriteReportFile(report *models.MergeReport, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := encodeJSON(file, NewJSONReportData(report)); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}

	return file.Close()
}
