// Package combine fuses per-architecture binaries into universal ones.
package combine

import (
	"context"
	"fmt"

	"github.com/sdejongh/makeuniversal/pkg/command"
)

// Combiner merges the payload of source into destination, in place
// Callers guarantee both files exist and are builds of the same artifact
type Combiner interface {
	Combine(ctx context.Context, destination, source string) error
}

// LipoCombiner combines binaries with `lipo -create`
type LipoCombiner struct {
	runner command.Runner
	lipo   string
}

// NewLipoCombiner creates a combiner running the given lipo binary
func NewLipoCombiner(runner command.Runner, lipoPath string) *LipoCombiner {
	if lipoPath == "" {
		lipoPath = "lipo"
	}
	return &LipoCombiner{
		runner: runner,
		lipo:   lipoPath,
	}
}

// Combine runs lipo with destination as both output and first input.
// A failed run leaves destination in whatever state lipo left it
func (c *LipoCombiner) Combine(ctx context.Context, destination, source string) error {
	result, err := c.runner.Run(ctx, c.lipo, "-create", "-output", destination, destination, source)
	if err != nil {
		return fmt.Errorf("failed to combine %s: %w", destination, err)
	}

	if !result.Success() {
		return &command.ExitError{
			Name:     c.lipo,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return nil
}
