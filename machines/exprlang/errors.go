package exprlang

import "errors"

var (
	ErrContentEmpty     = errors.New("expr code block is empty")
	ErrValidationFailed = errors.New("expr code block validation error")
)
