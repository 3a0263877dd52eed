// Package engine defines the interfaces between the template executor and
// the host program-execution machines that run general code blocks.
package engine

import "context"

// CodeRunner executes one code-block body inside an isolated scope.
//
// The scope map is the only state visible to the executed code: it contains
// the caller's bindings (reserved control names already filtered out by the
// executor) and nothing else. Implementations must not leak references to
// any enclosing engine state into the executed program.
type CodeRunner interface {
	// RunCode evaluates source against scope and returns the resulting
	// value. Execution failures are returned verbatim; the executor
	// propagates them to the caller rather than masking them.
	RunCode(ctx context.Context, source string, scope map[string]any) (Response, error)
}
