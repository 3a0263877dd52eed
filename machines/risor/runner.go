// Package risor runs template code blocks on the Risor VM. It is the
// default host machine for non-echo blocks.
package risor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	risorParser "github.com/risor-io/risor/parser"

	"github.com/phtml-go/phtml/engine"
	"github.com/phtml-go/phtml/execution/constants"
	"github.com/phtml-go/phtml/internal/helpers"
)

// Runner executes code-block bodies on the Risor VM. Each block compiles
// and runs in isolation: the only globals visible to the block are the
// scope entries and the ctx map holding the same entries.
type Runner struct {
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Risor code-block runner.
func New(handler slog.Handler) *Runner {
	handler, logger := helpers.SetupLogger(handler, "risor", "Runner")

	return &Runner{
		logHandler: handler,
		logger:     logger,
	}
}

func (r *Runner) String() string {
	return "risor.Runner"
}

// compileWithGlobals parses and compiles the block body into bytecode, with
// custom global names. A block referencing a bound variable needs the name
// known at compile time even though the value is only injected at eval time.
func compileWithGlobals(source string, globals []string) (*risorCompiler.Code, error) {
	if source == "" {
		return nil, ErrContentEmpty
	}

	ast, err := risorParser.Parse(context.Background(), source)
	if err != nil {
		// Surface the friendlier message when there's a syntax error
		errMsg := err.Error()
		var friendlyErr risorErrors.FriendlyError
		if errors.As(err, &friendlyErr) {
			errMsg = friendlyErr.FriendlyErrorMessage()
		}
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}

	cfg := risorLib.NewConfig()
	globalNames := append(cfg.GlobalNames(), globals...)

	bc, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(globalNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	return bc, nil
}

// RunCode implements engine.CodeRunner.
func (r *Runner) RunCode(
	ctx context.Context,
	source string,
	scope map[string]any,
) (engine.Response, error) {
	logger := r.logger.WithGroup("RunCode")

	if scope == nil {
		scope = make(map[string]any)
	}

	globalNames := make([]string, 0, len(scope)+1)
	for k := range scope {
		globalNames = append(globalNames, k)
	}
	globalNames = append(globalNames, constants.Ctx)

	bytecode, err := compileWithGlobals(source, globalNames)
	if err != nil {
		return nil, err
	}

	opts := make([]risorLib.Option, 0, len(scope)+1)
	opts = append(opts, risorLib.WithGlobal(constants.Ctx, maps.Clone(scope)))
	for k, v := range scope {
		opts = append(opts, risorLib.WithGlobal(k, v))
	}

	startTime := time.Now()
	obj, err := risorLib.EvalCode(ctx, bytecode, opts...)
	execTime := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("risor execution error: %w", err)
	}

	result := newExecResult(r.logHandler, obj, execTime)

	switch result.Object.Type() {
	case "error":
		return result, fmt.Errorf("error returned from code block: %s", result.Inspect())
	case "function":
		return result, fmt.Errorf("function object returned from code block: %s", result.Inspect())
	}

	logger.DebugContext(ctx, "execution complete", "result", result)
	return result, nil
}
