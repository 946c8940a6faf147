// Package replicate copies the primary tree into the universal destination
// before any binary is merged.
package replicate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sdejongh/makeuniversal/pkg/command"
)

// Replicator copies the contents of sourceRoot into destinationRoot.
// Symlinks are recreated as links and never followed
type Replicator interface {
	Replicate(ctx context.Context, sourceRoot, destinationRoot string) error
	Name() string
}

// Rsync replicates trees with the rsync tool
type Rsync struct {
	runner command.Runner
	rsync  string
}

// NewRsync creates a replicator running the given rsync binary
func NewRsync(runner command.Runner, rsyncPath string) *Rsync {
	if rsyncPath == "" {
		rsyncPath = "rsync"
	}
	return &Rsync{
		runner: runner,
		rsync:  rsyncPath,
	}
}

// Name returns the replicator name
func (r *Rsync) Name() string {
	return "rsync"
}

// Replicate runs `rsync -a -l -r <source>/ <destination>`
func (r *Rsync) Replicate(ctx context.Context, sourceRoot, destinationRoot string) error {
	result, err := r.runner.Run(ctx, r.rsync, "-a", "-l", "-r", contentsOf(sourceRoot), destinationRoot)
	if err != nil {
		return fmt.Errorf("failed to replicate %s: %w", sourceRoot, err)
	}

	if !result.Success() {
		return &command.ExitError{
			Name:     r.rsync,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return nil
}

// contentsOf adds the trailing separator that makes rsync copy the
// directory's contents rather than the directory itself
func contentsOf(root string) string {
	return strings.TrimRight(root, string(filepath.Separator)) + string(filepath.Separator)
}
