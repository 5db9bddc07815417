// Package formula evaluates admin-authored arithmetic formulas. Formulas are
// plain expressions over + - * / ( ), numeric literals and {Name} variable
// placeholders, e.g. "({Weight} * 0.5) - {fitness_level}". Nothing else is
// accepted; a formula can never reach code or state.
package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Error describes a formula that could not be parsed or evaluated. Callers
// treat it as a data problem of the single affected catalog entry, never as
// a fatal condition.
type Error struct {
	Expr   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Expr, e.Reason)
}

func errf(expr, format string, args ...interface{}) *Error {
	return &Error{Expr: expr, Reason: fmt.Sprintf(format, args...)}
}

// Variables returns the placeholder names referenced by expr, in order of
// first appearance.
func Variables(expr string) []string {
	var names []string
	seen := map[string]struct{}{}
	for i := 0; i < len(expr); i++ {
		if expr[i] != '{' {
			continue
		}
		end := strings.IndexByte(expr[i:], '}')
		if end < 0 {
			break
		}
		name := expr[i+1 : i+end]
		if _, ok := seen[name]; !ok && name != "" {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		i += end
	}
	return names
}

// IsLiteral reports whether expr is a plain integer literal, which reps
// formulas are allowed to be.
func IsLiteral(expr string) bool {
	s := strings.TrimSpace(expr)
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// Eval substitutes vars into expr and evaluates the result. Every referenced
// variable must be present in vars; substituted values are inserted verbatim,
// so a non-numeric value surfaces as a parse Error just like a malformed
// formula would.
func Eval(expr string, vars map[string]string) (float64, error) {
	substituted, err := substitute(expr, vars)
	if err != nil {
		return 0, err
	}
	p := &parser{expr: expr, input: substituted}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, errf(expr, "unexpected %q at offset %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

func substitute(expr string, vars map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		if expr[i] != '{' {
			b.WriteByte(expr[i])
			continue
		}
		end := strings.IndexByte(expr[i:], '}')
		if end < 0 {
			return "", errf(expr, "unterminated placeholder")
		}
		name := expr[i+1 : i+end]
		value, ok := vars[name]
		if !ok {
			return "", errf(expr, "variable %q has no value", name)
		}
		b.WriteString(strings.TrimSpace(value))
		i += end
	}
	return b.String(), nil
}

// parser is a plain recursive-descent evaluator over the substituted text.
type parser struct {
	expr  string // original formula, for error reporting
	input string
	pos   int
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := p.peek()
		if !ok || (c != '+' && c != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if c == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := p.peek()
		if !ok || (c != '*' && c != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if c == '*' {
			left *= right
		} else {
			if right == 0 {
				return 0, errf(p.expr, "division by zero")
			}
			left /= right
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	c, ok := p.peek()
	if ok && c == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	c, ok := p.peek()
	if !ok {
		return 0, errf(p.expr, "unexpected end of expression")
	}
	if c == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		c, ok = p.peek()
		if !ok || c != ')' {
			return 0, errf(p.expr, "missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '.' || unicode.IsDigit(rune(c)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, errf(p.expr, "unexpected %q at offset %d", c, start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, errf(p.expr, "bad number %q", p.input[start:p.pos])
	}
	return v, nil
}
