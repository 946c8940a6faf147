package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/makeuniversal/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"list every file, not only merge decisions",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// MergeFlags holds merge command flags
type MergeFlags struct {
	PrimaryArch              string
	SecondaryArch            string
	Exclude                  []string
	DryRun                   bool
	Parallel                 int
	SkipReplicate            bool
	ContinueOnReplicateError bool
	FailOnError              bool
	Replicator               string
	Lipo                     string
	Rsync                    string
	InspectTimeout           time.Duration
	CombineTimeout           time.Duration
	ReplicateTimeout         time.Duration
	Output                   string
	Report                   string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var mergeFlags MergeFlags

// addMergeFlags registers the merge flags on cmd. Config file values are
// only overridden by flags given explicitly on the command line
func addMergeFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringVar(&mergeFlags.PrimaryArch, "primary-arch", "x86_64", "architecture of the primary tree: x86_64, arm64")
	f.StringVar(&mergeFlags.SecondaryArch, "secondary-arch", "arm64", "architecture merged in from the secondary tree: x86_64, arm64")
	f.StringSliceVar(&mergeFlags.Exclude, "exclude", []string{}, "glob patterns of destination files to leave untouched")
	f.BoolVar(&mergeFlags.DryRun, "dry-run", false, "classify only; no replication and no combination")
	f.IntVarP(&mergeFlags.Parallel, "parallel", "p", 1, "number of files inspected and combined concurrently")

	f.BoolVar(&mergeFlags.SkipReplicate, "skip-replicate", false, "merge into an already populated destination")
	f.BoolVar(&mergeFlags.ContinueOnReplicateError, "continue-on-replicate-error", false, "merge even if replication reported an error")
	f.BoolVar(&mergeFlags.FailOnError, "fail-on-error", false, "exit non-zero when any combination failed")

	f.StringVar(&mergeFlags.Replicator, "replicator", "rsync", "tree replicator: rsync, native")
	f.StringVar(&mergeFlags.Lipo, "lipo", "lipo", "path to the lipo tool")
	f.StringVar(&mergeFlags.Rsync, "rsync", "rsync", "path to the rsync tool")
	f.DurationVar(&mergeFlags.InspectTimeout, "inspect-timeout", time.Minute, "time limit per inspection (0 = none)")
	f.DurationVar(&mergeFlags.CombineTimeout, "combine-timeout", 5*time.Minute, "time limit per combination (0 = none)")
	f.DurationVar(&mergeFlags.ReplicateTimeout, "replicate-timeout", 0, "time limit for the replication (0 = none)")

	f.StringVarP(&mergeFlags.Output, "output", "o", "human", "output format: human, json")
	f.StringVar(&mergeFlags.Report, "report", "", "write the JSON report to file")

	f.StringVar(&mergeFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	f.StringVar(&mergeFlags.LogFormat, "log-format", "text", "log format: text, json")
	f.StringVar(&mergeFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
}
