// Package command runs the external tools the merge pipeline depends on
// (lipo, rsync) under an explicit timeout policy.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNotStarted is returned when the process could not be launched
	ErrNotStarted = errors.New("process could not be started")
	// ErrTimeout is returned when the process did not finish within the timeout
	ErrTimeout = errors.New("process did not terminate in time")
	// ErrSignaled is returned when the process was killed before reporting a status
	ErrSignaled = errors.New("process terminated by signal")
)

// waitDelay bounds how long Wait keeps draining output after cancellation
const waitDelay = 2 * time.Second

// Result holds the captured output of a finished process
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited with status 0
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError describes a process that ran to completion with a non-zero status
type ExitError struct {
	Name     string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner executes an external command and waits for it
// A non-zero exit status is not an error: it is reported in Result
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	// Timeout bounds each invocation; zero waits indefinitely
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given per-call timeout
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run starts the command, waits for it and captures stdout and stderr
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotStarted, name, err)
	}

	err := cmd.Wait()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: %s after %s", ErrTimeout, name, r.Timeout)
		}
		return result, ctxErr
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Exited() {
				return result, fmt.Errorf("%w: %s: %v", ErrSignaled, name, exitErr)
			}
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("%s: %w", name, err)
	}

	return result, nil
}
