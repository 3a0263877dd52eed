// Package exprlang runs template code blocks on the expr-lang expression
// engine. Unlike the Risor and Starlark machines it evaluates a single
// expression per block, which keeps the machine side-effect free.
package exprlang

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/expr-lang/expr"

	"github.com/phtml-go/phtml/engine"
	"github.com/phtml-go/phtml/execution/constants"
	"github.com/phtml-go/phtml/internal/helpers"
)

// Runner executes code-block bodies as expr-lang expressions.
type Runner struct {
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new expr-lang code-block runner.
func New(handler slog.Handler) *Runner {
	handler, logger := helpers.SetupLogger(handler, "exprlang", "Runner")

	return &Runner{
		logHandler: handler,
		logger:     logger,
	}
}

func (r *Runner) String() string {
	return "exprlang.Runner"
}

// RunCode implements engine.CodeRunner.
func (r *Runner) RunCode(
	ctx context.Context,
	source string,
	scope map[string]any,
) (engine.Response, error) {
	logger := r.logger.WithGroup("RunCode")

	if source == "" {
		return nil, ErrContentEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env := maps.Clone(scope)
	if env == nil {
		env = map[string]any{}
	}
	env[constants.Ctx] = maps.Clone(scope)

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	startTime := time.Now()
	output, err := expr.Run(program, env)
	execTime := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("expr execution error: %w", err)
	}

	logger.DebugContext(ctx, "execution complete", "output", output)
	return engine.NewResult(output, execTime), nil
}
