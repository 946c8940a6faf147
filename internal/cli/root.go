package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the makeuniversal command tree.
// Invoked with three paths and no subcommand it runs a merge
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "makeuniversal [flags] " + mergeUse,
		Short: "Merge x86_64 and arm64 builds into universal binaries",
		Long: `makeuniversal turns two builds of the same software, one per CPU
architecture, into a single tree whose binaries run on both.

` + mergeLong,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Args:          exactArgs(3),
		RunE:          runMerge,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	// Add global flags
	AddGlobalFlags(rootCmd)
	addMergeFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewMergeCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
