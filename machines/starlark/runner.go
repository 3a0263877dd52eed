// Package starlark runs template code blocks on the Starlark interpreter,
// as an alternative host machine to the default Risor one.
package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/phtml-go/phtml/engine"
	"github.com/phtml-go/phtml/internal/helpers"
)

// Runner executes code-block bodies as Starlark programs. A block's result
// is the value of its "_" global, falling back to "result" by convention.
type Runner struct {
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Starlark code-block runner.
func New(handler slog.Handler) *Runner {
	handler, logger := helpers.SetupLogger(handler, "starlark", "Runner")

	return &Runner{
		logHandler: handler,
		logger:     logger,
	}
}

func (r *Runner) String() string {
	return "starlark.Runner"
}

// compile parses and compiles the block body with the scope names
// predeclared. GlobalReassign is enabled so a block may overwrite an
// injected name locally without tripping the resolver.
func compile(source string, predeclared starlarkLib.StringDict) (*starlarkLib.Program, error) {
	if source == "" {
		return nil, ErrContentEmpty
	}

	opts := &syntax.FileOptions{
		GlobalReassign: true,
	}

	f, err := opts.Parse("", []byte(source), 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	return prog, nil
}

// RunCode implements engine.CodeRunner.
func (r *Runner) RunCode(
	ctx context.Context,
	source string,
	scope map[string]any,
) (engine.Response, error) {
	logger := r.logger.WithGroup("RunCode")

	predeclared, err := convertToPredeclared(scope)
	if err != nil {
		return nil, err
	}

	prog, err := compile(source, predeclared)
	if err != nil {
		return nil, err
	}

	thread := &starlarkLib.Thread{
		Name: "phtml",
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.InfoContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}

	// Wire context cancellation into the running thread.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	startTime := time.Now()
	finalGlobals, err := prog.Init(thread, predeclared)
	execTime := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}

	// "_" holds the last value evaluated; "result" is the common explicit
	// convention for returning a structured value.
	mainVal := finalGlobals["_"]
	if mainVal == nil || mainVal == starlarkLib.None {
		if resultVal, ok := finalGlobals["result"]; ok {
			mainVal = resultVal
		}
	}

	logger.DebugContext(ctx, "execution complete", "mainVal", mainVal)
	return newExecResult(r.logHandler, mainVal, execTime), nil
}
