// Package capture implements output-capture regions as an explicit stack.
// The render path pushes a region on entry and guarantees a pop on every
// exit path; the manual Begin/End pair is exposed for composing nested
// sub-templates outside that guarantee.
package capture

import (
	"log/slog"
	"strings"

	"github.com/phtml-go/phtml/internal/helpers"
)

// Filter is one text-transform step applied to captured text when a region
// ends. Returning ok=false halts the chain.
type Filter func(text string) (string, bool)

// Stack holds the capture regions of one logical call stack. Regions nest
// last-begun, first-ended. The zero depth means no region is active and
// written output is discarded with a warning.
type Stack struct {
	regions []*strings.Builder

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewStack creates an empty capture stack.
func NewStack(handler slog.Handler) *Stack {
	handler, logger := helpers.SetupLogger(handler, "capture", "")

	return &Stack{
		logHandler: handler,
		logger:     logger,
	}
}

// Begin starts a new capture region.
func (s *Stack) Begin() {
	s.regions = append(s.regions, &strings.Builder{})
}

// Depth returns the number of active regions.
func (s *Stack) Depth() int {
	return len(s.regions)
}

// Write appends text to the innermost active region.
func (s *Stack) Write(text string) {
	if len(s.regions) == 0 {
		s.logger.Warn("write with no active capture region, output discarded")
		return
	}
	s.regions[len(s.regions)-1].WriteString(text)
}

// End stops the innermost region and returns its captured text, piped
// through the given filters in order. A halting filter stops the chain and
// End returns ErrFilterHalted. With no active region, End returns
// ErrNoActiveRegion.
func (s *Stack) End(filters ...Filter) (string, error) {
	if len(s.regions) == 0 {
		return "", ErrNoActiveRegion
	}

	top := s.regions[len(s.regions)-1]
	s.regions = s.regions[:len(s.regions)-1]

	text := top.String()
	for _, f := range filters {
		out, ok := f(text)
		if !ok {
			return "", ErrFilterHalted
		}
		text = out
	}
	return text, nil
}

// ReleaseTo discards regions until depth remain. The render path uses it to
// guarantee region release on failure exits, where captured text is dropped.
func (s *Stack) ReleaseTo(depth int) {
	if depth < 0 {
		depth = 0
	}
	for len(s.regions) > depth {
		s.regions = s.regions[:len(s.regions)-1]
	}
}
