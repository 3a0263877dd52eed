package starlark

import (
	"fmt"
	"log/slog"
	"time"

	starlarkLib "go.starlark.net/starlark"

	"github.com/phtml-go/phtml/execution/data"
	"github.com/phtml-go/phtml/internal/helpers"
)

// execResult is a wrapper around the starlark.Value interface.
type execResult struct {
	starlarkLib.Value
	execTime time.Duration

	logHandler slog.Handler
	logger     *slog.Logger
}

func newExecResult(handler slog.Handler, obj starlarkLib.Value, execTime time.Duration) *execResult {
	handler, logger := helpers.SetupLogger(handler, "starlark", "execResult")

	if obj == nil {
		obj = starlarkLib.None
	}

	return &execResult{
		Value:      obj,
		execTime:   execTime,
		logHandler: handler,
		logger:     logger,
	}
}

func (r *execResult) String() string {
	return fmt.Sprintf("ExecResult{Type: %s, Value: %v, ExecTime: %s}",
		r.Type(), r.Value, r.GetExecTime())
}

func (r *execResult) Type() data.Types {
	// Map Starlark types to our internal types
	switch r.Value.Type() {
	case "NoneType":
		return data.NONE
	case "bool":
		return data.BOOL
	case "int":
		return data.INT
	case "float":
		return data.FLOAT
	case "string":
		return data.STRING
	case "list":
		return data.LIST
	case "tuple":
		return data.TUPLE
	case "dict":
		return data.MAP
	case "set":
		return data.SET
	case "function", "builtin_function_or_method":
		return data.FUNCTION
	default:
		r.logger.Error("unknown type", "type", r.Value.Type())
		return data.ERROR
	}
}

// Interface converts the Starlark value to a native Go value.
func (r *execResult) Interface() any {
	v, err := convertStarlarkValueToInterface(r.Value)
	if err != nil {
		r.logger.Error("failed to convert result value", "error", err)
		return nil
	}
	return v
}

// Inspect returns a string representation of the result value.
func (r *execResult) Inspect() string {
	return r.Value.String()
}

func (r *execResult) GetExecTime() string {
	return r.execTime.String()
}
