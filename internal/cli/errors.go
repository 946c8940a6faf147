package cli

import (
	"errors"
	"fmt"

	"github.com/sdejongh/makeuniversal/pkg/models"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// UsageError reports an invalid invocation. Nothing has been done when it is returned
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// StatusError carries the status of a completed run that should fail the process
type StatusError struct {
	Status models.MergeStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("merge finished with status %s", e.Status)
}

// ExitCode maps an error returned by the root command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Status.ExitCode()
	}

	return ExitError
}
