package capture

import "errors"

var (
	// ErrNoActiveRegion is returned by End when no capture region is open.
	ErrNoActiveRegion = errors.New("no active capture region")

	// ErrFilterHalted is returned by End when a filter step halts the
	// chain instead of producing text.
	ErrFilterHalted = errors.New("capture filter halted the chain")
)
