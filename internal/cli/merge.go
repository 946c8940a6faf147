package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/makeuniversal/pkg/combine"
	"github.com/sdejongh/makeuniversal/pkg/command"
	"github.com/sdejongh/makeuniversal/pkg/config"
	"github.com/sdejongh/makeuniversal/pkg/inspect"
	"github.com/sdejongh/makeuniversal/pkg/logging"
	"github.com/sdejongh/makeuniversal/pkg/merge"
	"github.com/sdejongh/makeuniversal/pkg/models"
	"github.com/sdejongh/makeuniversal/pkg/output"
	"github.com/sdejongh/makeuniversal/pkg/replicate"
	"github.com/sdejongh/makeuniversal/pkg/storage"
)

const mergeUse = "<destination> <primary-root> <secondary-root>"

const mergeLong = `Copy the primary tree to the destination, then add the secondary
architecture to every binary in the destination that lacks it, taking the
missing slice from the file at the same relative path in the secondary tree.

Files that are not binaries, binaries that already hold both architectures,
and binaries without a usable counterpart are left as replicated.`

// NewMergeCommand creates the merge command
func NewMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [flags] " + mergeUse,
		Short: "Merge two single-architecture trees into a universal tree",
		Long:  mergeLong,
		Args:  exactArgs(3),
		RunE:  runMerge,
	}

	addMergeFlags(cmd)

	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	paths, err := validatePaths(args[0], args[1], args[2])
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}

	run, err := createMergeRun(cfg, paths)
	if err != nil {
		return &UsageError{Err: err}
	}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger = logger.WithFields(logging.Fields{"run_id": run.ID})

	// Human output goes to stderr, JSON documents to stdout
	var out io.Writer = cmd.ErrOrStderr()
	if cfg.Output.Format == "json" {
		out = cmd.OutOrStdout()
	}
	status := func(format string, a ...any) {
		if cfg.Output.Format != "json" && !cfg.Output.Quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", a...)
		}
	}

	var formatter output.Formatter
	if cfg.Output.Format == "json" || !cfg.Output.Quiet {
		formatter = output.New(cfg.Output.Format, out, globalFlags.Verbose, cfg.Output.Progress)
	}

	// The merge walks the destination; a dry run leaves it untouched and
	// walks the tree that would have been replicated into it instead
	walkRoot := paths.Destination
	switch {
	case run.DryRun:
		if !mergeFlags.SkipReplicate {
			walkRoot = paths.Primary
		}
		status("dry run: nothing will be copied or combined")

	case mergeFlags.SkipReplicate:
		logger.Info(ctx, "Replication skipped", nil)

	default:
		if err := os.MkdirAll(paths.Destination, 0755); err != nil {
			return fmt.Errorf("failed to create destination: %w", err)
		}

		replicator := newReplicator(cfg, logger)
		status("copying %s distribution from %s to destination (this may take a while)...", run.PrimaryArch, paths.Primary)
		logger.Info(ctx, "Replicating primary tree", logging.Fields{
			"replicator":  replicator.Name(),
			"source":      paths.Primary,
			"destination": paths.Destination,
		})

		if err := replicator.Replicate(ctx, paths.Primary, paths.Destination); err != nil {
			logger.Error(ctx, "Replication failed", err, nil)
			if !cfg.Merge.ContinueOnReplicateError {
				if formatter != nil {
					formatter.Error(err)
				}
				return fmt.Errorf("replication failed: %w", err)
			}
			status("warning: replication failed, merging into the partial destination: %v", err)
		}
	}

	dest, err := storage.NewLocal(walkRoot)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer dest.Close()

	classifier := inspect.NewLipoClassifier(command.NewExecRunner(cfg.Tools.InspectTimeout), cfg.Tools.Lipo)
	combiner := combine.NewLipoCombiner(command.NewExecRunner(cfg.Tools.CombineTimeout), cfg.Tools.Lipo)

	status("creating universal binaries...")
	orchestrator := merge.NewOrchestrator(dest, classifier, combiner, formatter, out, logger, run)

	report, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	if mergeFlags.Report != "" {
		if err := output.WriteReportFile(report, mergeFlags.Report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if mergeFlags.FailOnError && report.Status != models.StatusSuccess {
		return &StatusError{Status: report.Status}
	}
	return nil
}

// newReplicator returns the configured tree replicator
func newReplicator(cfg *config.Config, logger logging.Logger) replicate.Replicator {
	if cfg.Tools.Replicator == config.ReplicatorNative {
		return replicate.NewNative(logger)
	}
	return replicate.NewRsync(command.NewExecRunner(cfg.Tools.ReplicateTimeout), cfg.Tools.Rsync)
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	// If no log file specified, return null logger
	if cfg.File == "" {
		return logging.NewNullLogger(), nil
	}

	var format logging.Format
	switch cfg.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Level),
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}
