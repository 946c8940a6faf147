// Package inspect classifies files by the architectures their binary payload contains.
package inspect

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sdejongh/makeuniversal/pkg/command"
	"github.com/sdejongh/makeuniversal/pkg/models"
)

// notBinaryMessage is the diagnostic lipo prints for files it cannot parse
const notBinaryMessage = "can't figure out the architecture type of"

// Classifier reports whether a file contains a given architecture
type Classifier interface {
	// Classify inspects path for arch. The error is non-nil only
	// together with models.InspectionFailed
	Classify(ctx context.Context, path string, arch models.Arch) (models.Classification, error)
}

// LipoClassifier classifies files with `lipo -verify_arch`
type LipoClassifier struct {
	runner command.Runner
	lipo   string
}

// NewLipoClassifier creates a classifier running the given lipo binary
func NewLipoClassifier(runner command.Runner, lipoPath string) *LipoClassifier {
	if lipoPath == "" {
		lipoPath = "lipo"
	}
	return &LipoClassifier{
		runner: runner,
		lipo:   lipoPath,
	}
}

// Classify runs lipo against path and maps its exit status and diagnostics
func (c *LipoClassifier) Classify(ctx context.Context, path string, arch models.Arch) (models.Classification, error) {
	if _, err := os.Stat(path); err != nil {
		return models.InspectionFailed, fmt.Errorf("failed to access %s: %w", path, err)
	}

	result, err := c.runner.Run(ctx, c.lipo, path, "-verify_arch", arch.String())
	if err != nil {
		return models.InspectionFailed, fmt.Errorf("failed to inspect %s: %w", path, err)
	}

	return classifyResult(result), nil
}

func classifyResult(result *command.Result) models.Classification {
	if result.Success() {
		return models.HasArchitecture
	}
	if strings.Contains(result.Stderr, notBinaryMessage) {
		return models.NotBinary
	}
	return models.MissingArchitecture
}
