// Package grammar implements the restricted expression grammar for echo
// blocks: variable paths, literals, and whitelisted function calls. A block
// interior is accepted only when exactly one expression, anchored start to
// end, matches the grammar. The matcher is a small recursive-descent parser
// rather than a monolithic pattern, but it accepts the same language.
package grammar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCallPattern admits the two conservative output-escaping functions.
// Callers may substitute their own pattern per invocation.
var DefaultCallPattern = regexp.MustCompile(`^(?:htmlspecialchars|htmlentities)$`)

// Expr is a node of a parsed echo expression.
type Expr interface {
	exprNode()
}

// StepKind discriminates the suffix forms of a variable path.
type StepKind int

const (
	// StepKey is a string-keyed index suffix: ['name'].
	StepKey StepKind = iota

	// StepElem is a digit index suffix: [0].
	StepElem

	// StepProp is a property-access suffix: ->name.
	StepProp
)

// Step is one index or property-access suffix of a variable path.
type Step struct {
	Kind  StepKind
	Key   string // StepKey and StepProp
	Index int    // StepElem
}

// VarPath is a variable reference with zero or more access suffixes.
// Quiet marks the notice-suppression prefix: a missing value resolves to
// null without a diagnostic.
type VarPath struct {
	Quiet bool
	Name  string
	Steps []Step
}

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
}

// IntLit is an optionally signed integer literal.
type IntLit struct {
	Value int64
}

// FloatLit is an optionally signed decimal literal.
type FloatLit struct {
	Value float64
}

// BoolLit is a true or false literal.
type BoolLit struct {
	Value bool
}

// NullLit is the null literal.
type NullLit struct{}

// Call is a whitelisted function call with recursively parsed arguments.
type Call struct {
	Name string
	Args []Expr
}

func (*VarPath) exprNode()   {}
func (*StringLit) exprNode() {}
func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*BoolLit) exprNode()   {}
func (*NullLit) exprNode()   {}
func (*Call) exprNode()      {}

// Parse matches body against the grammar and returns the expression tree.
// allowed is the function-name pattern for this invocation; nil selects
// DefaultCallPattern. The whole body must reduce to one expression, with
// only whitespace and trailing comments around it.
func Parse(body string, allowed *regexp.Regexp) (Expr, error) {
	if allowed == nil {
		allowed = DefaultCallPattern
	}

	p := &parser{src: body, allowed: allowed}
	p.skipSpace()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpaceAndComments(); err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing content at offset %d", ErrSyntax, p.pos)
	}
	return expr, nil
}

// Valid reports whether body matches the grammar.
func Valid(body string, allowed *regexp.Regexp) bool {
	_, err := Parse(body, allowed)
	return err == nil
}

type parser struct {
	src     string
	pos     int
	allowed *regexp.Regexp
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// skipSpaceAndComments consumes trailing whitespace and comments after the
// expression. Line comments run to end-of-line; a block comment must close.
func (p *parser) skipSpaceAndComments() error {
	for {
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.src[p.pos:], "//"), p.peek() == '#':
			nl := strings.IndexByte(p.src[p.pos:], '\n')
			if nl < 0 {
				p.pos = len(p.src)
				return nil
			}
			p.pos += nl + 1
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				return fmt.Errorf("%w: unterminated comment", ErrSyntax)
			}
			p.pos += 2 + end + 2
		default:
			return nil
		}
	}
}

func (p *parser) parseExpr() (Expr, error) {
	switch c := p.peek(); {
	case c == '@':
		p.pos++
		p.skipSpace()
		if p.peek() != '$' {
			return nil, fmt.Errorf("%w: '@' must prefix a variable reference", ErrSyntax)
		}
		vp, err := p.parseVarPath()
		if err != nil {
			return nil, err
		}
		vp.Quiet = true
		return vp, nil

	case c == '$':
		return p.parseVarPath()

	case c == '\'' || c == '"':
		return p.parseString()

	case c == '+' || c == '-' || isDigit(c):
		return p.parseNumber()

	case isIdentStart(c):
		return p.parseIdentOrCall()

	default:
		return nil, fmt.Errorf("%w: unexpected character at offset %d", ErrSyntax, p.pos)
	}
}

func (p *parser) parseVarPath() (*VarPath, error) {
	p.pos++ // consume '$'
	name, ok := p.ident()
	if !ok {
		return nil, fmt.Errorf("%w: '$' must be followed by an identifier", ErrSyntax)
	}

	vp := &VarPath{Name: name}
	for {
		switch {
		case p.peek() == '[':
			p.pos++
			p.skipSpace()
			step, err := p.parseIndexStep()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if p.peek() != ']' {
				return nil, fmt.Errorf("%w: unterminated index suffix", ErrSyntax)
			}
			p.pos++
			vp.Steps = append(vp.Steps, step)

		case strings.HasPrefix(p.src[p.pos:], "->"):
			p.pos += 2
			prop, ok := p.ident()
			if !ok {
				return nil, fmt.Errorf("%w: '->' must be followed by an identifier", ErrSyntax)
			}
			vp.Steps = append(vp.Steps, Step{Kind: StepProp, Key: prop})

		default:
			return vp, nil
		}
	}
}

// parseIndexStep matches the interior of an index suffix: a string literal
// or a run of digits.
func (p *parser) parseIndexStep() (Step, error) {
	if c := p.peek(); c == '\'' || c == '"' {
		lit, err := p.parseString()
		if err != nil {
			return Step{}, err
		}
		return Step{Kind: StepKey, Key: lit.Value}, nil
	}

	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return Step{}, fmt.Errorf("%w: index must be a string or digits", ErrSyntax)
	}

	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return Step{}, fmt.Errorf("%w: index out of range", ErrSyntax)
	}
	return Step{Kind: StepElem, Index: n}, nil
}

// parseString matches a literal in either quote style. Backslash escapes of
// the quote character and of backslash itself are honored; any other
// backslash sequence is kept verbatim. Embedded newlines are legal.
func (p *parser) parseString() (*StringLit, error) {
	quote := p.src[p.pos]
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return &StringLit{Value: sb.String()}, nil
		case '\\':
			if p.pos+1 < len(p.src) {
				next := p.src[p.pos+1]
				if next == quote || next == '\\' {
					sb.WriteByte(next)
					p.pos += 2
					continue
				}
			}
			sb.WriteByte(c)
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("%w: unterminated string literal", ErrSyntax)
}

// parseNumber matches an optionally signed integer or decimal. No exponent
// form, no hex or octal.
func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}

	intDigits := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == intDigits {
		return nil, fmt.Errorf("%w: sign must be followed by digits", ErrSyntax)
	}

	isFloat := false
	if p.peek() == '.' {
		p.pos++
		fracDigits := p.pos
		for isDigit(p.peek()) {
			p.pos++
		}
		if p.pos == fracDigits {
			return nil, fmt.Errorf("%w: decimal point must be followed by digits", ErrSyntax)
		}
		isFloat = true
	}

	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return &FloatLit{Value: f}, nil
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return &IntLit{Value: n}, nil
}

// parseIdentOrCall matches the keyword literals and the whitelisted call
// form. An identifier immediately followed by '(' is a call; its name must
// match the allowed-call pattern, and each argument is itself a full
// expression, so calls nest arbitrarily.
func (p *parser) parseIdentOrCall() (Expr, error) {
	name, _ := p.ident()

	if p.peek() != '(' {
		switch name {
		case "true":
			return &BoolLit{Value: true}, nil
		case "false":
			return &BoolLit{Value: false}, nil
		case "null":
			return &NullLit{}, nil
		default:
			return nil, fmt.Errorf("%w: bare identifier %q", ErrSyntax, name)
		}
	}

	if !p.allowed.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrCallNotAllowed, name)
	}
	p.pos++ // consume '('

	call := &Call{Name: name}
	for {
		p.skipSpace()
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return call, nil
		default:
			return nil, fmt.Errorf("%w: expected ',' or ')' in argument list", ErrSyntax)
		}
	}
}

func (p *parser) ident() (string, bool) {
	start := p.pos
	if !isIdentStart(p.peek()) {
		return "", false
	}
	p.pos++
	for isIdentChar(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos], true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
