package phtml

import "errors"

// ErrCheckFailed is returned by check-only execution when at least one echo
// block fails grammar validation.
var ErrCheckFailed = errors.New("template failed grammar check")
