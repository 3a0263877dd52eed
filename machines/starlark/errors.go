package starlark

import "errors"

var (
	ErrContentEmpty     = errors.New("starlark code block is empty")
	ErrValidationFailed = errors.New("starlark code block validation error")
)
