// Package scanner splits raw template source into literal text spans and
// delimited code-block spans. Scanning is purely syntactic: block contents
// are located, never evaluated or validated.
package scanner

import (
	"fmt"
	"iter"
	"strings"
)

// Delim identifies which delimiter pair encloses a block span.
type Delim int

const (
	// DelimNone marks a literal text span.
	DelimNone Delim = iota

	// DelimPrimary marks a block opened with "<?php".
	DelimPrimary

	// DelimShorthand marks a block opened with "<?".
	DelimShorthand
)

const (
	openPrimary   = "<?php"
	openShorthand = "<?"
	closeTag      = "?>"

	// EchoMarker is the interior byte designating an echo block.
	EchoMarker = '='
)

func (d Delim) String() string {
	switch d {
	case DelimNone:
		return "text"
	case DelimPrimary:
		return "primary"
	case DelimShorthand:
		return "shorthand"
	default:
		return fmt.Sprintf("Delim(%d)", int(d))
	}
}

// Opener returns the opening delimiter bytes for a block kind.
func (d Delim) Opener() string {
	if d == DelimPrimary {
		return openPrimary
	}
	return openShorthand
}

// Span is one contiguous piece of template source: either literal text or a
// delimited block. Raw always holds the exact source bytes of the span,
// delimiters included, so a span sequence re-joins losslessly.
type Span struct {
	Delim  Delim
	Raw    string
	Body   string // block interior without delimiters, empty for text spans
	Start  int    // byte offset of the span in the source
	Closed bool   // false when a block ran to end-of-input unterminated
}

// IsBlock reports whether the span is a delimited block.
func (s Span) IsBlock() bool {
	return s.Delim != DelimNone
}

// IsEcho reports whether the span is a block whose interior begins with the
// echo marker.
func (s Span) IsEcho() bool {
	return s.IsBlock() && len(s.Body) > 0 && s.Body[0] == EchoMarker
}

// EchoBody returns the block interior with the echo marker stripped.
func (s Span) EchoBody() string {
	if !s.IsEcho() {
		return s.Body
	}
	return s.Body[1:]
}

// Rewritten returns the block's source bytes with the opening delimiter
// swapped for the one of kind d. Text spans are returned unchanged.
func (s Span) Rewritten(d Delim) string {
	if !s.IsBlock() {
		return s.Raw
	}

	var sb strings.Builder
	sb.WriteString(d.Opener())
	sb.WriteString(s.Body)
	if s.Closed {
		sb.WriteString(closeTag)
	}
	return sb.String()
}

// Scan returns a lazy, restartable sequence of spans covering src from start
// to end. Literal text and blocks alternate; both delimiter pairs are
// recognized in the same pass; closing-tag matching is non-greedy and
// tolerates embedded newlines. A block opened with one pair closes only at
// the shared closing tag; an unterminated block extends to end-of-input.
func Scan(src string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		pos := 0
		for pos < len(src) {
			rel := strings.Index(src[pos:], openShorthand)
			if rel < 0 {
				yield(Span{Delim: DelimNone, Raw: src[pos:], Start: pos, Closed: true})
				return
			}

			open := pos + rel
			if open > pos {
				if !yield(Span{Delim: DelimNone, Raw: src[pos:open], Start: pos, Closed: true}) {
					return
				}
			}

			delim := DelimShorthand
			bodyStart := open + len(openShorthand)
			if isPrimaryOpener(src, open) {
				delim = DelimPrimary
				bodyStart = open + len(openPrimary)
			}

			end := strings.Index(src[bodyStart:], closeTag)
			if end < 0 {
				yield(Span{
					Delim: delim,
					Raw:   src[open:],
					Body:  src[bodyStart:],
					Start: open,
				})
				return
			}

			bodyEnd := bodyStart + end
			next := bodyEnd + len(closeTag)
			if !yield(Span{
				Delim:  delim,
				Raw:    src[open:next],
				Body:   src[bodyStart:bodyEnd],
				Start:  open,
				Closed: true,
			}) {
				return
			}
			pos = next
		}
	}
}

// Spans collects the full span sequence for src into a slice.
func Spans(src string) []Span {
	var spans []Span
	for s := range Scan(src) {
		spans = append(spans, s)
	}
	return spans
}

// isPrimaryOpener reports whether the opener at off is the primary "<?php"
// tag rather than a shorthand tag followed by code that happens to start
// with the letters p-h-p (e.g. an identifier like "phpinfo").
func isPrimaryOpener(src string, off int) bool {
	if !strings.HasPrefix(src[off:], openPrimary) {
		return false
	}
	rest := src[off+len(openPrimary):]
	if rest == "" {
		return true
	}
	return !isIdentChar(rest[0])
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
