package command

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is an in-memory Runner for tests of the packages built on top of it
// Handler decides the result of each call; Calls records every invocation
type FakeRunner struct {
	Handler func(ctx context.Context, name string, args []string) (*Result, error)

	mu    sync.Mutex
	calls []Call
}

// Call is one recorded invocation
type Call struct {
	Name string
	Args []string
}

// String renders the call as a command line
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Run records the call and delegates to Handler
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()

	if f.Handler == nil {
		return &Result{}, nil
	}
	return f.Handler(ctx, name, args)
}

// Calls returns a copy of the recorded invocations
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
