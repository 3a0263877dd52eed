// Description: This file contains the names the executor reserves for itself.
package constants

// ContextKey is the type used for storing binding data on a context.Context.
type ContextKey string

const (
	// EvalData is the context key read by data.ContextProvider.
	EvalData ContextKey = "eval_data"

	// Ctx is the top-scope variable name machines use to expose the full
	// binding map to executed code blocks.
	Ctx = "ctx"
)

// reservedScopeNames are control names owned by the executor. A binding
// carrying one of these names is skipped (not overwritten) when the
// execution scope is seeded, so template data can never shadow them.
var reservedScopeNames = map[string]struct{}{
	Ctx:              {},
	string(EvalData): {},
}

// IsReservedScopeName reports whether name collides with one of the
// executor's own control variables.
func IsReservedScopeName(name string) bool {
	_, ok := reservedScopeNames[name]
	return ok
}
