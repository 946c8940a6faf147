package config

import (
	"time"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// Replicator names
const (
	ReplicatorRsync  = "rsync"
	ReplicatorNative = "native"
)

// Config represents the application configuration
type Config struct {
	Architectures ArchConfig    `yaml:"architectures"`
	Tools         ToolsConfig   `yaml:"tools"`
	Merge         MergeConfig   `yaml:"merge"`
	Output        OutputConfig  `yaml:"output"`
	Logging       LoggingConfig `yaml:"logging"`
}

// ArchConfig names the architecture pair
type ArchConfig struct {
	Primary   models.Arch `yaml:"primary"`
	Secondary models.Arch `yaml:"secondary"`
}

// ToolsConfig locates the external collaborators and bounds their runtime.
// A zero timeout waits indefinitely
type ToolsConfig struct {
	Lipo             string        `yaml:"lipo"`
	Rsync            string        `yaml:"rsync"`
	Replicator       string        `yaml:"replicator"` // "rsync" or "native"
	InspectTimeout   time.Duration `yaml:"inspect_timeout"`
	CombineTimeout   time.Duration `yaml:"combine_timeout"`
	ReplicateTimeout time.Duration `yaml:"replicate_timeout"`
}

// MergeConfig holds merge-phase settings
type MergeConfig struct {
	Parallel int      `yaml:"parallel"`
	Exclude  []string `yaml:"exclude"`
	// ContinueOnReplicateError merges into whatever the replication left behind
	ContinueOnReplicateError bool `yaml:"continue_on_replicate_error"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // progress bar on a terminal
	Quiet    bool   `yaml:"quiet"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	File       string `yaml:"file"` // empty disables logging
	Format     string `yaml:"format"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Architectures: ArchConfig{
			Primary:   models.ArchX86_64,
			Secondary: models.ArchARM64,
		},
		Tools: ToolsConfig{
			Lipo:             "lipo",
			Rsync:            "rsync",
			Replicator:       ReplicatorRsync,
			InspectTimeout:   time.Minute,
			CombineTimeout:   5 * time.Minute,
			ReplicateTimeout: 0,
		},
		Merge: MergeConfig{
			Parallel: 1,
			Exclude:  []string{},
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Architectures.Primary.Valid() {
		return &models.ValidationError{
			Field:   "architectures.primary",
			Message: "must be 'x86_64' or 'arm64'",
		}
	}
	if !c.Architectures.Secondary.Valid() {
		return &models.ValidationError{
			Field:   "architectures.secondary",
			Message: "must be 'x86_64' or 'arm64'",
		}
	}
	if c.Architectures.Primary == c.Architectures.Secondary {
		return &models.ValidationError{
			Field:   "architectures.secondary",
			Message: "must differ from architectures.primary",
		}
	}

	if c.Tools.Lipo == "" {
		return &models.ValidationError{Field: "tools.lipo", Message: "must not be empty"}
	}
	validReplicators := map[string]bool{ReplicatorRsync: true, ReplicatorNative: true}
	if !validReplicators[c.Tools.Replicator] {
		return &models.ValidationError{
			Field:   "tools.replicator",
			Message: "must be 'rsync' or 'native'",
		}
	}
	if c.Tools.Replicator == ReplicatorRsync && c.Tools.Rsync == "" {
		return &models.ValidationError{Field: "tools.rsync", Message: "must not be empty"}
	}
	if c.Tools.InspectTimeout < 0 || c.Tools.CombineTimeout < 0 || c.Tools.ReplicateTimeout < 0 {
		return &models.ValidationError{Field: "tools", Message: "timeouts must not be negative"}
	}

	if c.Merge.Parallel < 1 {
		return &models.ValidationError{
			Field:   "merge.parallel",
			Message: "must be at least 1",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
