package grammar

import (
	"fmt"
	"html"
	"log/slog"
	"maps"
	"reflect"
	"strconv"
	"strings"

	"github.com/phtml-go/phtml/internal/helpers"
)

// Func is a Go function callable from the whitelisted call form. Arguments
// arrive already evaluated.
type Func func(args ...any) (any, error)

// DefaultFuncs returns the built-in registry: the two conservative output
// escapers, both mapped onto HTML entity escaping.
func DefaultFuncs() map[string]Func {
	escape := func(args ...any) (any, error) {
		if len(args) == 0 {
			return "", nil
		}
		return html.EscapeString(ToText(args[0])), nil
	}
	return map[string]Func{
		"htmlspecialchars": escape,
		"htmlentities":     escape,
	}
}

// Evaluator resolves parsed echo expressions against a sandbox scope.
type Evaluator struct {
	funcs map[string]Func

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewEvaluator creates an evaluator with the default function registry
// merged with extra (extra entries win on collision).
func NewEvaluator(handler slog.Handler, extra map[string]Func) *Evaluator {
	handler, logger := helpers.SetupLogger(handler, "grammar", "Evaluator")

	funcs := DefaultFuncs()
	maps.Copy(funcs, extra)

	return &Evaluator{
		funcs:      funcs,
		logHandler: handler,
		logger:     logger,
	}
}

// Eval resolves expr against scope. A missing variable or a missing path
// step resolves to nil, with a notice-level diagnostic unless the reference
// carries the suppression prefix. Call failures are returned as errors and
// propagate to the caller.
func (ev *Evaluator) Eval(expr Expr, scope map[string]any) (any, error) {
	switch e := expr.(type) {
	case *StringLit:
		return e.Value, nil
	case *IntLit:
		return e.Value, nil
	case *FloatLit:
		return e.Value, nil
	case *BoolLit:
		return e.Value, nil
	case *NullLit:
		return nil, nil

	case *VarPath:
		val, ok := scope[e.Name]
		if !ok {
			if !e.Quiet {
				ev.logger.Warn("undefined variable", "name", e.Name)
			}
			return nil, nil
		}
		for _, step := range e.Steps {
			val, ok = resolveStep(val, step)
			if !ok {
				if !e.Quiet {
					ev.logger.Warn("undefined path step", "name", e.Name, "step", stepString(step))
				}
				return nil, nil
			}
		}
		return val, nil

	case *Call:
		fn, ok := ev.funcs[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, e.Name)
		}

		args := make([]any, len(e.Args))
		for i, argExpr := range e.Args {
			arg, err := ev.Eval(argExpr, scope)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}

		out, err := fn(args...)
		if err != nil {
			return nil, fmt.Errorf("call to %q failed: %w", e.Name, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported expression node %T", expr)
	}
}

// resolveStep applies one access suffix to a value.
func resolveStep(val any, step Step) (any, bool) {
	switch step.Kind {
	case StepKey:
		return lookupKey(val, step.Key)
	case StepElem:
		return lookupElem(val, step.Index)
	case StepProp:
		return lookupProp(val, step.Key)
	default:
		return nil, false
	}
}

func lookupKey(val any, key string) (any, bool) {
	if m, ok := val.(map[string]any); ok {
		v, ok := m[key]
		return v, ok
	}
	return nil, false
}

func lookupElem(val any, idx int) (any, bool) {
	switch v := val.(type) {
	case []any:
		if idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	case map[string]any:
		// Associative values keep digit keys as strings.
		out, ok := v[strconv.Itoa(idx)]
		return out, ok
	default:
		return nil, false
	}
}

// lookupProp resolves a property access against a map entry or, for opaque
// object references, an exported struct field via reflection. Field names
// match exactly first, then case-insensitively, so a template's lowercase
// property names reach exported Go fields.
func lookupProp(val any, name string) (any, bool) {
	if m, ok := val.(map[string]any); ok {
		v, ok := m[name]
		return v, ok
	}

	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	field := rv.FieldByName(name)
	if !field.IsValid() {
		field = rv.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, name)
		})
	}
	if !field.IsValid() || !field.CanInterface() {
		return nil, false
	}
	return field.Interface(), true
}

func stepString(step Step) string {
	switch step.Kind {
	case StepKey:
		return "['" + step.Key + "']"
	case StepElem:
		return "[" + strconv.Itoa(step.Index) + "]"
	default:
		return "->" + step.Key
	}
}

// ToText renders an evaluated value as output text. Null renders as the
// empty string so missing-value substitutions disappear from the output.
func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
