// Package phtml renders text templates containing embedded code blocks. A
// template mixes literal text with blocks wrapped in "<?php ... ?>" or
// "<? ... ?>" delimiters; echo blocks ("<?= expr ?>") are screened against a
// restricted expression grammar before they run, and non-echo blocks are
// delegated to a pluggable host machine (Risor by default). Bound variables
// are validated before they reach the sandbox, and each execute call runs in
// a fresh scope that templates cannot use to reach engine internals.
package phtml

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phtml-go/phtml/capture"
	"github.com/phtml-go/phtml/engine"
	"github.com/phtml-go/phtml/execution/data"
	"github.com/phtml-go/phtml/execution/template"
	"github.com/phtml-go/phtml/execution/template/loader"
	"github.com/phtml-go/phtml/internal/helpers"
	"github.com/phtml-go/phtml/machines"
	"github.com/phtml-go/phtml/machines/types"
	"github.com/phtml-go/phtml/tpl/grammar"
)

// Engine binds variables, renders templates, and manages capture regions.
//
// The binding set is the only mutable state shared across calls on one
// Engine; the Engine performs no locking, so concurrent mutation by multiple
// callers is the caller's responsibility. Render and Execute themselves are
// reentrant: a template may invoke the engine recursively and each nested
// call gets its own fresh scope and capture region.
type Engine struct {
	vars     *data.Bindings
	extra    data.Provider
	runner   engine.CodeRunner
	machine  types.Type
	file     string
	funcs    map[string]grammar.Func
	captures *capture.Stack
	eval     *grammar.Evaluator

	logHandler slog.Handler
	logger     *slog.Logger
}

// Option configures an Engine during New.
type Option func(*Engine) error

// WithLogHandler sets the slog handler every component logs through.
func WithLogHandler(handler slog.Handler) Option {
	return func(e *Engine) error {
		if handler == nil {
			return fmt.Errorf("log handler is nil")
		}
		e.logHandler = handler
		return nil
	}
}

// WithMachine selects the host machine that runs non-echo code blocks.
func WithMachine(machineType types.Type) Option {
	return func(e *Engine) error {
		if _, err := types.Parse(machineType.String()); err != nil {
			return err
		}
		e.machine = machineType
		return nil
	}
}

// WithCodeRunner injects a specific code-block runner, overriding
// WithMachine.
func WithCodeRunner(runner engine.CodeRunner) Option {
	return func(e *Engine) error {
		if runner == nil {
			return fmt.Errorf("code runner is nil")
		}
		e.runner = runner
		return nil
	}
}

// WithTemplateFile sets the default template path used by Render when no
// path argument is given.
func WithTemplateFile(path string) Option {
	return func(e *Engine) error {
		e.file = path
		return nil
	}
}

// WithDataProvider adds a runtime data provider whose entries are merged
// over the engine's own bindings when the execution scope is seeded.
func WithDataProvider(provider data.Provider) Option {
	return func(e *Engine) error {
		if provider == nil {
			return fmt.Errorf("data provider is nil")
		}
		e.extra = provider
		return nil
	}
}

// WithFunc registers a Go function callable from whitelisted echo calls,
// alongside the built-in escapers. The per-call allowed-name pattern still
// has to admit the name before the grammar accepts the call form.
func WithFunc(name string, fn grammar.Func) Option {
	return func(e *Engine) error {
		if name == "" || fn == nil {
			return fmt.Errorf("function name and implementation are required")
		}
		if e.funcs == nil {
			e.funcs = make(map[string]grammar.Func)
		}
		e.funcs[name] = fn
		return nil
	}
}

// New creates an Engine. With no options it logs to stdout, runs code
// blocks on the Risor machine, and starts with an empty binding set.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		machine: types.Risor,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}

	handler, logger := helpers.SetupLogger(e.logHandler, "phtml", "Engine")
	e.logHandler = handler
	e.logger = logger

	e.vars = data.NewBindings(handler)
	e.captures = capture.NewStack(handler)
	e.eval = grammar.NewEvaluator(handler, e.funcs)

	if e.runner == nil {
		runner, err := machines.NewRunner(handler, e.machine)
		if err != nil {
			return nil, err
		}
		e.runner = runner
	}

	return e, nil
}

// Assign stores or overwrites a single binding. It returns false, leaving
// the binding set unchanged, when the name or value is rejected.
func (e *Engine) Assign(name string, value any) bool {
	return e.vars.Set(name, value) == nil
}

// AssignMap bulk-assigns every entry of m. The call is atomic: if any key
// or value is rejected nothing is applied and AssignMap returns false.
func (e *Engine) AssignMap(m map[string]any) bool {
	return e.vars.SetAll(m) == nil
}

// AssignFile bulk-assigns the entries of a YAML mapping file, through the
// same atomic validation as AssignMap.
func (e *Engine) AssignFile(path string) error {
	m, err := data.LoadBindingsFile(path)
	if err != nil {
		return err
	}
	return e.vars.SetAll(m)
}

// BeginCapture starts a manual output-capture region. Regions nest
// last-begun, first-ended.
func (e *Engine) BeginCapture() {
	e.captures.Begin()
}

// EndCapture stops the innermost capture region and returns its text, piped
// through the given filters in order.
func (e *Engine) EndCapture(filters ...capture.Filter) (string, error) {
	return e.captures.End(filters...)
}

// Render loads the template at path and executes it with the engine's
// bindings plus the given per-call bindings. An empty path falls back to
// the path configured with WithTemplateFile. A template that cannot be
// loaded is a fatal ErrTemplateMissing failure.
func (e *Engine) Render(
	ctx context.Context,
	path string,
	bindings map[string]any,
) (*Result, error) {
	if path == "" {
		path = e.file
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no template path given and no default configured",
			template.ErrTemplateMissing)
	}

	diskLoader, err := loader.NewFromDisk(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", template.ErrTemplateMissing, err)
	}

	unit, err := template.NewUnit(e.logHandler, "", diskLoader, e.provider(), nil)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("rendering template", "id", unit.GetID(), "path", path)

	cfg := defaultExecConfig()
	cfg.bindings = bindings
	return e.execute(ctx, unit.GetSource(), unit.GetDataProvider(), cfg)
}

// provider returns the engine's base data provider: the binding set,
// overlaid by the extra runtime provider when one is configured.
func (e *Engine) provider() data.Provider {
	if e.extra == nil {
		return e.vars
	}
	return data.NewCompositeProvider(e.vars, e.extra)
}
