package risor

import (
	"fmt"
	"log/slog"
	"time"

	risorObject "github.com/risor-io/risor/object"

	"github.com/phtml-go/phtml/execution/data"
	"github.com/phtml-go/phtml/internal/helpers"
)

// execResult is a wrapper around the risor object.Object interface, but
// with some features removed and return types adjusted to be generic.
type execResult struct {
	risorObject.Object
	execTime time.Duration

	logHandler slog.Handler
	logger     *slog.Logger
}

func newExecResult(handler slog.Handler, obj risorObject.Object, execTime time.Duration) *execResult {
	handler, logger := helpers.SetupLogger(handler, "risor", "execResult")

	return &execResult{
		Object:     obj,
		execTime:   execTime,
		logHandler: handler,
		logger:     logger,
	}
}

func (r *execResult) String() string {
	return fmt.Sprintf("ExecResult{Type: %s, Value: %v, ExecTime: %s}",
		r.Type(), r.Object, r.GetExecTime())
}

func (r *execResult) Type() data.Types {
	return data.Types(r.Object.Type())
}

func (r *execResult) GetExecTime() string {
	return r.execTime.String()
}
