package phtml

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/phtml-go/phtml/engine"
	"github.com/phtml-go/phtml/execution/constants"
	"github.com/phtml-go/phtml/execution/data"
	"github.com/phtml-go/phtml/tpl/grammar"
	"github.com/phtml-go/phtml/tpl/policy"
	"github.com/phtml-go/phtml/tpl/scanner"
)

// Result is the outcome of one render: the captured text, or a structured
// value the template explicitly terminated with. When Value is non-nil the
// render was halted and Text is empty; any output captured before the halt
// is discarded.
type Result struct {
	Text  string
	Value engine.Response
}

// HasValue reports whether the template terminated with a structured result
// instead of text.
func (r *Result) HasValue() bool {
	return r != nil && r.Value != nil
}

type execConfig struct {
	mode      policy.Mode
	allowed   *regexp.Regexp
	bindings  map[string]any
	checkOnly bool
}

func defaultExecConfig() execConfig {
	return execConfig{
		mode:    policy.Preserve,
		allowed: grammar.DefaultCallPattern,
	}
}

// ExecOption configures a single Execute or Valid call.
type ExecOption func(*execConfig)

// WithMode sets the fallback policy applied to echo blocks that fail
// grammar validation. Execute defaults to Preserve, Valid to Remove.
func WithMode(m policy.Mode) ExecOption {
	return func(c *execConfig) {
		c.mode = m
	}
}

// WithAllowedCalls sets the pattern a function name must match for the call
// form to pass validation. Defaults to the two built-in HTML escapers.
func WithAllowedCalls(pattern *regexp.Regexp) ExecOption {
	return func(c *execConfig) {
		c.allowed = pattern
	}
}

// WithBindings merges per-call bindings over the engine's binding set for
// this call only. The entries pass the same validation as Assign.
func WithBindings(m map[string]any) ExecOption {
	return func(c *execConfig) {
		c.bindings = m
	}
}

// CheckOnly restricts the call to the grammar check: no block executes, and
// the error reports the pass/fail verdict.
func CheckOnly() ExecOption {
	return func(c *execConfig) {
		c.checkOnly = true
	}
}

// Execute runs the template text against the engine's bindings and returns
// the rendered result. Echo blocks that fail grammar validation degrade per
// the configured mode; failures of the code blocks themselves propagate.
func (e *Engine) Execute(ctx context.Context, text string, opts ...ExecOption) (*Result, error) {
	cfg := defaultExecConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return e.execute(ctx, text, e.provider(), cfg)
}

// Valid reports whether every echo block in text passes grammar validation.
// It is a check-only Execute with mode defaulting to Remove; nothing runs.
func (e *Engine) Valid(text string, opts ...ExecOption) bool {
	cfg := defaultExecConfig()
	cfg.mode = policy.Remove
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.checkOnly = true

	_, err := e.execute(context.Background(), text, e.provider(), cfg)
	return err == nil
}

func (e *Engine) execute(
	ctx context.Context,
	text string,
	provider data.Provider,
	cfg execConfig,
) (*Result, error) {
	if !cfg.mode.Valid() {
		return nil, fmt.Errorf("%w: %s", policy.ErrUnknownMode, cfg.mode)
	}
	if cfg.allowed == nil {
		cfg.allowed = grammar.DefaultCallPattern
	}

	if cfg.checkOnly {
		return e.check(text, cfg.mode, cfg.allowed)
	}

	scope, err := e.buildScope(ctx, provider, cfg.bindings)
	if err != nil {
		return nil, err
	}

	// The region is released on every exit path; after a successful End
	// the ReleaseTo is a no-op.
	depth := e.captures.Depth()
	e.captures.Begin()
	defer e.captures.ReleaseTo(depth)

	for blk := range scanner.Scan(text) {
		if !blk.IsBlock() {
			e.captures.Write(blk.Raw)
			continue
		}

		if blk.IsEcho() {
			if err := e.runEcho(blk, cfg.mode, cfg.allowed, scope); err != nil {
				return nil, err
			}
			continue
		}

		resp, halted, err := e.runCode(ctx, blk, scope)
		if err != nil {
			return nil, err
		}
		if halted {
			e.captures.ReleaseTo(depth)
			return &Result{Value: resp}, nil
		}
	}

	out, err := e.captures.End()
	if err != nil {
		return nil, err
	}
	return &Result{Text: out}, nil
}

// check is the check-only path: every echo block must pass the grammar,
// nothing executes. NoCheck passes trivially since it bypasses validation.
func (e *Engine) check(text string, mode policy.Mode, allowed *regexp.Regexp) (*Result, error) {
	if mode == policy.NoCheck {
		return &Result{}, nil
	}
	for blk := range scanner.Scan(text) {
		if !blk.IsEcho() {
			continue
		}
		if !grammar.Valid(blk.EchoBody(), allowed) {
			return nil, fmt.Errorf("%w: echo block at offset %d", ErrCheckFailed, blk.Start)
		}
	}
	return &Result{}, nil
}

// buildScope seeds the per-call sandbox scope: provider data overlaid with
// validated per-call bindings, minus the executor's reserved control names.
func (e *Engine) buildScope(
	ctx context.Context,
	provider data.Provider,
	bindings map[string]any,
) (map[string]any, error) {
	base, err := provider.GetData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bindings: %w", err)
	}

	merged := maps.Clone(base)
	if merged == nil {
		merged = make(map[string]any)
	}

	if len(bindings) > 0 {
		callVars := data.NewBindings(e.logHandler)
		if err := callVars.SetAll(bindings); err != nil {
			return nil, fmt.Errorf("per-call bindings rejected: %w", err)
		}
		maps.Copy(merged, bindings)
	}

	scope := make(map[string]any, len(merged))
	for k, v := range merged {
		if constants.IsReservedScopeName(k) {
			e.logger.Debug("binding shadows reserved scope name, skipped", "name", k)
			continue
		}
		scope[k] = v
	}
	return scope, nil
}

// runEcho validates, evaluates, and emits one echo block, or applies the
// failure disposition when the interior does not match the grammar.
func (e *Engine) runEcho(
	blk scanner.Span,
	mode policy.Mode,
	allowed *regexp.Regexp,
	scope map[string]any,
) error {
	expr, err := grammar.Parse(blk.EchoBody(), allowed)
	if err != nil {
		if mode == policy.NoCheck {
			// Validation was bypassed, so a malformed echo is an execution
			// failure rather than a policy matter.
			return fmt.Errorf("echo block at offset %d: %w", blk.Start, err)
		}
		disp, derr := policy.ForFailure(mode)
		if derr != nil {
			return derr
		}
		e.captures.Write(policy.Replacement(disp, blk))
		return nil
	}

	val, err := e.eval.Eval(expr, scope)
	if err != nil {
		return fmt.Errorf("echo block at offset %d: %w", blk.Start, err)
	}
	e.captures.Write(grammar.ToText(val))
	return nil
}

// runCode hands a non-echo block to the host machine. A block whose result
// is a boolean or an associative/list structure halts the render with that
// structured value; every other result is logged and discarded, since
// output emission belongs to echo blocks.
func (e *Engine) runCode(
	ctx context.Context,
	blk scanner.Span,
	scope map[string]any,
) (engine.Response, bool, error) {
	body := strings.TrimSpace(blk.Body)
	if body == "" {
		return nil, false, nil
	}

	resp, err := e.runner.RunCode(ctx, body, scope)
	if err != nil {
		return nil, false, fmt.Errorf("code block at offset %d: %w", blk.Start, err)
	}

	switch resp.Type() {
	case data.BOOL, data.MAP, data.LIST:
		return resp, true, nil
	}

	e.logger.Debug("code block result discarded",
		"offset", blk.Start, "type", resp.Type(), "execTime", resp.GetExecTime())
	return nil, false, nil
}
