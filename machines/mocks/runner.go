// Package mocks provides a hand-written CodeRunner for tests that need to
// observe what reached the machine, or to force a specific result.
package mocks

import (
	"context"
	"maps"
	"sync"

	"github.com/phtml-go/phtml/engine"
)

// Call records one RunCode invocation.
type Call struct {
	Source string
	Scope  map[string]any
}

// Runner is a configurable engine.CodeRunner. Zero value returns a nil
// result for every block.
type Runner struct {
	// Value is returned (wrapped in an engine.Response) when Err is nil.
	Value any
	// Err, when set, is returned from every RunCode call.
	Err error

	mu    sync.Mutex
	calls []Call
}

// RunCode implements engine.CodeRunner.
func (r *Runner) RunCode(
	_ context.Context,
	source string,
	scope map[string]any,
) (engine.Response, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Source: source, Scope: maps.Clone(scope)})
	r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	return engine.NewResult(r.Value, 0), nil
}

// Calls returns a copy of the recorded invocations.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// LastCall returns the most recent invocation, or false if none happened.
func (r *Runner) LastCall() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}
