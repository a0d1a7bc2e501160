// Package expr provides a restricted arithmetic expression evaluator.
//
// The evaluator is the trust boundary between LLM output and the numeric
// answer shown to the user: the model proposes a formula, this package
// computes it. Anything outside the numeric grammar is rejected up front.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Evaluate parses and evaluates a restricted arithmetic expression.
// Allowed characters are digits, whitespace, '.', '(', ')', '+', '-',
// '*' and '/'. Precedence is standard (mul/div over add/sub), unary
// minus is supported. Division by zero follows IEEE float semantics.
func Evaluate(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("%w: empty expression", ErrMalformed)
	}
	for _, r := range s {
		if !allowed(r) {
			return 0, fmt.Errorf("%w: illegal character %q", ErrMalformed, r)
		}
	}

	p := &parser{input: s}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, p.input[p.pos], p.pos)
	}
	return v, nil
}

func allowed(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '(' || r == ')':
		return true
	case r == '+' || r == '-' || r == '*' || r == '/':
		return true
	case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		return true
	}
	return false
}

// parser is a recursive-descent parser over the restricted grammar:
//
//	expr   = term   { ('+'|'-') term }
//	term   = factor { ('*'|'/') factor }
//	factor = number | '(' expr ')' | '-' factor
type parser struct {
	input string
	pos   int
	depth int
}

// maxDepth bounds recursion so adversarial input cannot blow the stack.
const maxDepth = 200

func (p *parser) parseExpr() (float64, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return 0, fmt.Errorf("%w: expression too deeply nested", ErrMalformed)
	}

	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			left /= right
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	// Unary minus chains recurse here without passing through parseExpr,
	// so the depth guard has to count this frame too.
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return 0, fmt.Errorf("%w: expression too deeply nested", ErrMalformed)
	}

	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrMalformed)
	}

	switch {
	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ')' {
			return 0, fmt.Errorf("%w: missing closing parenthesis", ErrMalformed)
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	}
	return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, c, p.pos)
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	dots := 0
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '.' {
			dots++
			if dots > 1 {
				break
			}
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	lit := p.input[start:p.pos]
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrMalformed, lit)
	}
	return v, nil
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}
