package risor

import "errors"

var (
	ErrContentEmpty     = errors.New("risor code block is empty")
	ErrValidationFailed = errors.New("risor code block validation error")
)
