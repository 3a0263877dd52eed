// Package machines selects a concrete code-block runner by machine type.
package machines

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/phtml-go/phtml/engine"
	"github.com/phtml-go/phtml/machines/exprlang"
	"github.com/phtml-go/phtml/machines/risor"
	"github.com/phtml-go/phtml/machines/starlark"
	"github.com/phtml-go/phtml/machines/types"
)

// ErrInvalidMachineType is returned when no runner exists for the requested
// machine type.
var ErrInvalidMachineType = errors.New("invalid machine type")

// NewRunner creates a code-block runner for the given machine type.
func NewRunner(handler slog.Handler, machineType types.Type) (engine.CodeRunner, error) {
	switch machineType {
	case types.Risor:
		return risor.New(handler), nil
	case types.Starlark:
		return starlark.New(handler), nil
	case types.Expr:
		return exprlang.New(handler), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMachineType, machineType)
	}
}
