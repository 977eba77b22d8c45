package tool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Digits, whitespace, decimal points, the four operators, and parentheses.
var calcPattern = regexp.MustCompile(`^[\d\s\+\-\*/\(\)\.]+$`)

// Evaluate computes a basic arithmetic expression over a restricted
// character set. Anything outside the whitelist is rejected before parsing.
func Evaluate(expression string) (float64, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, fmt.Errorf("expression is empty")
	}
	if !calcPattern.MatchString(expression) {
		return 0, fmt.Errorf("expression contains invalid characters")
	}

	p := &calcParser{input: expression}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
	return value, nil
}

type calcParser struct {
	input string
	pos   int
}

func (p *calcParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case p.match('-'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *calcParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.match('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.match('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *calcParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.match('+') {
		return p.parseUnary()
	}
	if p.match('-') {
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.parsePrimary()
}

func (p *calcParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.match('(') {
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.match(')') {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		return value, nil
	}
	return p.parseNumber()
}

func (p *calcParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	hasDigit, hasDot := false, false

	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch >= '0' && ch <= '9' {
			hasDigit = true
			p.pos++
			continue
		}
		if ch == '.' && !hasDot {
			hasDot = true
			p.pos++
			continue
		}
		break
	}

	if !hasDigit {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	raw := p.input[start:p.pos]
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return value, nil
}

func (p *calcParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *calcParser) match(expected byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == expected {
		p.pos++
		return true
	}
	return false
}
