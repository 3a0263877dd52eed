// Package policy decides what happens to an echo block that failed grammar
// validation: delete it, keep it inert, or escape it for display. One mode
// applies uniformly to every failing block of an execute call.
package policy

import (
	"fmt"
	"html"

	"github.com/phtml-go/phtml/tpl/scanner"
)

// Mode is the per-call execution policy.
type Mode int

const (
	// NoCheck bypasses validation entirely: shorthand blocks are rewritten
	// to the primary delimiter pair and everything executes unchecked. An
	// explicit trust escalation for callers who control the source.
	NoCheck Mode = iota

	// Remove replaces a failing block with empty text.
	Remove

	// Preserve keeps a failing block inert through execution and unwraps
	// it back to its original bytes in the final output.
	Preserve

	// HTMLQuote keeps a failing block inert and HTML-entity-escapes its
	// delimiters and content as literal display text.
	HTMLQuote
)

func (m Mode) String() string {
	switch m {
	case NoCheck:
		return "nocheck"
	case Remove:
		return "remove"
	case Preserve:
		return "preserve"
	case HTMLQuote:
		return "htmlquote"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case NoCheck, Remove, Preserve, HTMLQuote:
		return true
	default:
		return false
	}
}

// Disposition is the execution fate assigned to a block.
type Disposition int

const (
	// KeepCode marks a block that executes as code.
	KeepCode Disposition = iota

	// Removed marks a failing block replaced with empty text.
	Removed

	// InertPreserved marks a failing block kept as literal text and
	// unwrapped to its original bytes after execution.
	InertPreserved

	// EscapedPreserved marks a failing block kept as literal text and
	// entity-escaped, delimiters included, in the final output.
	EscapedPreserved
)

// ForFailure maps the execution mode onto the disposition of a block that
// failed validation. An unrecognized mode is a configuration error, not a
// recoverable condition.
func ForFailure(m Mode) (Disposition, error) {
	switch m {
	case Remove:
		return Removed, nil
	case Preserve:
		return InertPreserved, nil
	case HTMLQuote:
		return EscapedPreserved, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMode, m)
	}
}

// Replacement renders the deterministic final output text for a failing
// block under the given disposition.
func Replacement(d Disposition, blk scanner.Span) string {
	switch d {
	case Removed:
		return ""
	case InertPreserved:
		return blk.Raw
	case EscapedPreserved:
		return html.EscapeString(blk.Raw)
	default:
		return ""
	}
}
