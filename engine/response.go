package engine

import "github.com/phtml-go/phtml/execution/data"

// Response is the value produced by executing a template or a code block.
// It is modeled on the shape of the machine object interfaces, with the
// machine-specific features removed.
type Response interface {
	// Type of the result value.
	Type() data.Types

	// Inspect returns a string representation of the result value.
	Inspect() string

	// Interface converts the result to a native Go value.
	Interface() any

	// GetExecTime returns the time it took to produce the result.
	GetExecTime() string
}
