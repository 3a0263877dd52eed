package policy

import "errors"

// ErrUnknownMode signals programmer error: an execution mode outside the
// defined set. It is not intended to be caught and handled at runtime.
var ErrUnknownMode = errors.New("unknown execution mode")
