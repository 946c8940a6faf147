package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/makeuniversal/internal/platform"
	"github.com/sdejongh/makeuniversal/pkg/config"
	"github.com/sdejongh/makeuniversal/pkg/models"
)

// mergePaths holds the resolved positional arguments
type mergePaths struct {
	Destination string
	Primary     string
	Secondary   string
}

// exactArgs wraps cobra.ExactArgs so a wrong count is a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &UsageError{Err: fmt.Errorf("%w\nusage: %s", err, cmd.UseLine())}
		}
		return nil
	}
}

// validatePaths resolves the three roots and checks they can be merged
func validatePaths(destination, primary, secondary string) (*mergePaths, error) {
	var paths mergePaths
	var err error

	if paths.Primary, err = resolveTree("primary", primary); err != nil {
		return nil, err
	}
	if paths.Secondary, err = resolveTree("secondary", secondary); err != nil {
		return nil, err
	}

	if paths.Destination, err = platform.ResolvePath(destination); err != nil {
		return nil, &UsageError{Err: err}
	}
	if info, err := os.Stat(paths.Destination); err == nil && !info.IsDir() {
		return nil, usageErrorf("destination path exists but is not a directory: %s", destination)
	}

	if paths.Primary == paths.Secondary {
		return nil, usageErrorf("primary and secondary trees cannot be the same: %s", paths.Primary)
	}
	if platform.Overlaps(paths.Destination, paths.Primary) {
		return nil, usageErrorf("destination and primary tree cannot be the same or nested")
	}
	if platform.Overlaps(paths.Destination, paths.Secondary) {
		return nil, usageErrorf("destination and secondary tree cannot be the same or nested")
	}

	return &paths, nil
}

func resolveTree(role, path string) (string, error) {
	resolved, err := platform.ResolvePath(path)
	if err != nil {
		return "", &UsageError{Err: err}
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return "", usageErrorf("%s tree does not exist: %s", role, path)
	} else if err != nil {
		return "", usageErrorf("failed to access %s tree: %v", role, err)
	} else if !info.IsDir() {
		return "", usageErrorf("%s tree is not a directory: %s", role, path)
	}

	return resolved, nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with flags set on the command line
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("primary-arch") {
		arch, err := models.ParseArch(mergeFlags.PrimaryArch)
		if err != nil {
			return &UsageError{Err: err}
		}
		cfg.Architectures.Primary = arch
	}
	if changed("secondary-arch") {
		arch, err := models.ParseArch(mergeFlags.SecondaryArch)
		if err != nil {
			return &UsageError{Err: err}
		}
		cfg.Architectures.Secondary = arch
	}

	if changed("exclude") {
		cfg.Merge.Exclude = mergeFlags.Exclude
	}
	if changed("parallel") {
		cfg.Merge.Parallel = mergeFlags.Parallel
	}
	if changed("continue-on-replicate-error") {
		cfg.Merge.ContinueOnReplicateError = mergeFlags.ContinueOnReplicateError
	}

	if changed("replicator") {
		cfg.Tools.Replicator = mergeFlags.Replicator
	}
	if changed("lipo") {
		cfg.Tools.Lipo = mergeFlags.Lipo
	}
	if changed("rsync") {
		cfg.Tools.Rsync = mergeFlags.Rsync
	}
	if changed("inspect-timeout") {
		cfg.Tools.InspectTimeout = mergeFlags.InspectTimeout
	}
	if changed("combine-timeout") {
		cfg.Tools.CombineTimeout = mergeFlags.CombineTimeout
	}
	if changed("replicate-timeout") {
		cfg.Tools.ReplicateTimeout = mergeFlags.ReplicateTimeout
	}

	if changed("output") {
		cfg.Output.Format = mergeFlags.Output
	}
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if changed("log-file") {
		cfg.Logging.File = mergeFlags.LogFile
	}
	if changed("log-format") {
		cfg.Logging.Format = mergeFlags.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = mergeFlags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// createMergeRun creates a merge run from configuration
func createMergeRun(cfg *config.Config, paths *mergePaths) (*models.MergeRun, error) {
	run := &models.MergeRun{
		ID:              uuid.New().String(),
		PrimaryRoot:     paths.Primary,
		SecondaryRoot:   paths.Secondary,
		UniversalRoot:   paths.Destination,
		PrimaryArch:     cfg.Architectures.Primary,
		SecondaryArch:   cfg.Architectures.Secondary,
		ExcludePatterns: cfg.Merge.Exclude,
		DryRun:          mergeFlags.DryRun,
		MaxWorkers:      cfg.Merge.Parallel,
		CreatedAt:       time.Now(),
	}

	if err := run.Validate(); err != nil {
		return nil, err
	}

	return run, nil
}
