package grammar

import "errors"

var (
	// ErrSyntax is returned when a block interior does not match the
	// restricted expression grammar.
	ErrSyntax = errors.New("expression does not match the restricted grammar")

	// ErrCallNotAllowed is returned when a call names a function outside
	// the allowed-call pattern for the current invocation.
	ErrCallNotAllowed = errors.New("function call is not whitelisted")

	// ErrUnknownFunction is returned at evaluation time when a whitelisted
	// call has no registered implementation.
	ErrUnknownFunction = errors.New("no implementation registered for function")
)
