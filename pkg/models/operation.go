package models

import (
	"time"
)

// MergeRun holds the fixed inputs of one merge invocation
type MergeRun struct {
	ID string
	// PrimaryRoot is the tree the destination is replicated from
	PrimaryRoot string
	// SecondaryRoot holds the counterparts merged into the destination
	SecondaryRoot string
	// UniversalRoot is the destination tree, mutated in place
	UniversalRoot   string
	PrimaryArch     Arch
	SecondaryArch   Arch
	ExcludePatterns []string
	DryRun          bool
	MaxWorkers      int
	CreatedAt       time.Time
}

// Validate checks if the run configuration is valid
func (r *MergeRun) Validate() error {
	if r.UniversalRoot == "" {
		return &ValidationError{Field: "UniversalRoot", Message: "destination path is required"}
	}
	if r.PrimaryRoot == "" {
		return &ValidationError{Field: "PrimaryRoot", Message: "primary architecture path is required"}
	}
	if r.SecondaryRoot == "" {
		return &ValidationError{Field: "SecondaryRoot", Message: "secondary architecture path is required"}
	}
	if !r.PrimaryArch.Valid() {
		return &ValidationError{Field: "PrimaryArch", Message: "unsupported architecture " + string(r.PrimaryArch)}
	}
	if !r.SecondaryArch.Valid() {
		return &ValidationError{Field: "SecondaryArch", Message: "unsupported architecture " + string(r.SecondaryArch)}
	}
	if r.PrimaryArch == r.SecondaryArch {
		return &ValidationError{Field: "SecondaryArch", Message: "must differ from the primary architecture"}
	}
	if r.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
