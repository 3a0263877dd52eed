package engine

import (
	"fmt"
	"time"

	"github.com/phtml-go/phtml/execution/data"
)

// result is the Response implementation for values produced by the template
// executor itself: captured output text, check-only verdicts, and structured
// results converted to native Go values.
type result struct {
	value    any
	execTime time.Duration
}

// NewResult wraps a native Go value as a Response.
func NewResult(value any, execTime time.Duration) Response {
	return &result{
		value:    value,
		execTime: execTime,
	}
}

func (r *result) String() string {
	return fmt.Sprintf("Result{Type: %s, Value: %v, ExecTime: %s}",
		r.Type(), r.value, r.GetExecTime())
}

func (r *result) Type() data.Types {
	switch r.value.(type) {
	case nil:
		return data.NONE
	case bool:
		return data.BOOL
	case string:
		return data.STRING
	case int, int32, int64:
		return data.INT
	case float32, float64:
		return data.FLOAT
	case []any:
		return data.LIST
	case map[string]any:
		return data.MAP
	default:
		return data.ERROR
	}
}

func (r *result) Inspect() string {
	return fmt.Sprintf("%v", r.value)
}

func (r *result) Interface() any {
	return r.value
}

func (r *result) GetExecTime() string {
	return r.execTime.String()
}
