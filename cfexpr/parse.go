// Package cfexpr parses arithmetic expressions over exact values into
// continued-fraction trees.
//
// The grammar is deliberately small:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | power
//	power   = primary { "^" ["-"] digits }
//	primary = number | cflit | "(" expr ")" | ident | ident "(" expr ")"
//	number  = digits [ "." digits ]
//	cflit   = "[" [int] [ (";" | ",") list ] "]"
//	list    = item { "," item }, item = digits | "(" digits { "," digits } ")"
//
// A parenthesised group inside a continued fraction literal is its period
// and must come last. Identifiers are e, phi and sqrt2; functions are inv,
// neg, sq, nonneg (over an expression) and erad, sqrt (over a non-negative
// integer literal).
//
// Parsing does not evaluate: a division by an exact zero is only reported
// when the resulting value is expanded.
package cfexpr

import (
	"fmt"
	"math/big"

	"fortio.org/safecast"

	"github.com/lattice-substrate/exactcf/cf"
	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

// Limits for denial-of-service protection.
const (
	// DefaultMaxDepth is the maximum nesting depth of parentheses, unary
	// operators and function calls.
	DefaultMaxDepth = 256

	// DefaultMaxInputSize is the maximum input size in bytes (64 KiB).
	DefaultMaxInputSize = 64 * 1024

	// MaxExponent bounds the magnitude of a "^" exponent.
	MaxExponent = 1 << 16
)

// Options controls parser behavior.
type Options struct {
	MaxDepth     int // 0 means DefaultMaxDepth
	MaxInputSize int // 0 means DefaultMaxInputSize
}

func (o *Options) maxDepth() int {
	if o != nil && o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o *Options) maxInputSize() int {
	if o != nil && o.MaxInputSize > 0 {
		return o.MaxInputSize
	}
	return DefaultMaxInputSize
}

var constants = map[string]cf.Fraction{
	"e":     cf.E,
	"phi":   cf.Phi,
	"sqrt2": cf.Sqrt2,
}

var unaryFuncs = map[string]func(cf.Fraction) cf.Fraction{
	"inv":    cf.Invert,
	"neg":    cf.Negate,
	"sq":     cf.Square,
	"nonneg": cf.NonNegative,
}

var integerFuncs = map[string]func(n *big.Int) (cf.Fraction, error){
	"erad": func(n *big.Int) (cf.Fraction, error) {
		if !n.IsInt64() {
			return nil, cferr.Newf(cferr.Domain, "erad argument %s out of range", n)
		}
		return cf.ExpRadical(n.Int64())
	},
	"sqrt": cf.Sqrt,
}

// parser holds the state for parsing.
type parser struct {
	data     string
	pos      int
	depth    int
	maxDepth int
}

// Parse parses a complete expression. Errors carry the byte offset of the
// offending token and class INVALID_EXPRESSION, or BOUND_EXCEEDED when a
// size, depth or exponent limit is hit.
func Parse(src string) (cf.Fraction, error) {
	return ParseWithOptions(src, nil)
}

// ParseWithOptions is like Parse but accepts configuration options.
func ParseWithOptions(src string, opts *Options) (cf.Fraction, error) {
	maxInput := opts.maxInputSize()
	if len(src) > maxInput {
		return nil, cferr.New(cferr.BoundExceeded, 0,
			fmt.Sprintf("input size %d exceeds maximum %d", len(src), maxInput))
	}

	p := &parser{data: src, maxDepth: opts.maxDepth()}
	p.skipWhitespace()
	if p.pos == len(p.data) {
		return nil, p.errorf("empty expression")
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos != len(p.data) {
		return nil, p.errorf("unexpected %q after expression", p.data[p.pos])
	}
	return x, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) cf.Fraction {
	x, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return x
}

func (p *parser) errorf(format string, args ...any) *cferr.Error {
	return cferr.New(cferr.InvalidExpression, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

// accept consumes b if it is the next non-blank byte.
func (p *parser) accept(b byte) bool {
	p.skipWhitespace()
	if c, ok := p.peek(); ok && c == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(b byte) error {
	p.skipWhitespace()
	c, ok := p.peek()
	if !ok {
		return p.errorf("unexpected end of input, expected %q", b)
	}
	if c != b {
		return p.errorf("expected %q, got %q", b, c)
	}
	p.pos++
	return nil
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) pushDepth() error {
	p.depth++
	if p.depth > p.maxDepth {
		return cferr.New(cferr.BoundExceeded, p.pos,
			fmt.Sprintf("nesting depth %d exceeds maximum %d", p.depth, p.maxDepth))
	}
	return nil
}

func (p *parser) popDepth() {
	p.depth--
}

func (p *parser) parseExpr() (cf.Fraction, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept('+'):
			y, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			x = cf.Add(x, y)
		case p.accept('-'):
			y, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			x = cf.Sub(x, y)
		default:
			return x, nil
		}
	}
}

func (p *parser) parseTerm() (cf.Fraction, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept('*'):
			y, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			x = cf.Mul(x, y)
		case p.accept('/'):
			y, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			x = cf.Div(x, y)
		default:
			return x, nil
		}
	}
}

func (p *parser) parseUnary() (cf.Fraction, error) {
	if !p.accept('-') {
		return p.parsePower()
	}
	if err := p.pushDepth(); err != nil {
		return nil, err
	}
	defer p.popDepth()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return cf.Negate(x), nil
}

func (p *parser) parsePower() (cf.Fraction, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.accept('^') {
		p.skipWhitespace()
		start := p.pos
		neg := p.accept('-')
		n, err := p.parseDigits()
		if err != nil {
			return nil, err
		}
		if neg {
			n.Neg(n)
		}
		k, err := exponent(n)
		if err != nil {
			return nil, cferr.Wrap(cferr.BoundExceeded, start, "exponent out of range", err)
		}
		x = cf.Pow(x, k)
	}
	return x, nil
}

// exponent narrows n to an int within ±MaxExponent. Exponents are carried
// as int32 so the same inputs fail on every platform.
func exponent(n *big.Int) (int, error) {
	if !n.IsInt64() {
		return 0, fmt.Errorf("%s does not fit in 64 bits", n)
	}
	k, err := safecast.Conv[int32](n.Int64())
	if err != nil {
		return 0, err
	}
	if k > MaxExponent || k < -MaxExponent {
		return 0, fmt.Errorf("|%d| exceeds %d", k, MaxExponent)
	}
	return int(k), nil
}

func (p *parser) parsePrimary() (cf.Fraction, error) {
	p.skipWhitespace()
	c, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of input")
	}
	switch {
	case c == '(':
		if err := p.pushDepth(); err != nil {
			return nil, err
		}
		defer p.popDepth()
		p.pos++
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return x, nil
	case c == '[':
		return p.parseLiteral()
	case isDigit(c):
		return p.parseNumber()
	case isLetter(c):
		return p.parseIdent()
	}
	return nil, p.errorf("unexpected %q", c)
}

func (p *parser) parseNumber() (cf.Fraction, error) {
	start := p.pos
	p.scanDigits()
	if c, ok := p.peek(); ok && c == '.' {
		p.pos++
		if c, ok := p.peek(); !ok || !isDigit(c) {
			return nil, p.errorf("expected digit after decimal point")
		}
		p.scanDigits()
	}
	r, err := rational.Parse(p.data[start:p.pos])
	if err != nil {
		return nil, cferr.Wrap(cferr.InvalidExpression, start, "invalid number", err)
	}
	return cf.FromRat(r), nil
}

func (p *parser) scanDigits() {
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
}

// parseDigits reads an unsigned integer after optional blanks.
func (p *parser) parseDigits() (*big.Int, error) {
	p.skipWhitespace()
	start := p.pos
	p.scanDigits()
	if start == p.pos {
		if p.pos == len(p.data) {
			return nil, p.errorf("unexpected end of input, expected digits")
		}
		return nil, p.errorf("expected digits, got %q", p.data[p.pos])
	}
	n, ok := new(big.Int).SetString(p.data[start:p.pos], 10)
	if !ok {
		return nil, cferr.New(cferr.InvalidExpression, start, "invalid integer")
	}
	return n, nil
}

// parseLiteral reads [a0; a1, ..., (p1, ..., pk)].
func (p *parser) parseLiteral() (cf.Fraction, error) {
	start := p.pos
	p.pos++
	var head, period []*big.Int

	p.skipWhitespace()
	if c, ok := p.peek(); ok && c != '(' && c != ']' {
		neg := p.accept('-')
		a0, err := p.parseDigits()
		if err != nil {
			return nil, err
		}
		if neg {
			a0.Neg(a0)
		}
		head = append(head, a0)
		if !p.accept(';') && !p.accept(',') {
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			return p.build(start, head, nil)
		}
	}

	for {
		if p.accept('(') {
			var err error
			if period, err = p.parsePeriod(); err != nil {
				return nil, err
			}
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			return p.build(start, head, period)
		}
		if len(head) == 0 && p.accept(']') {
			return nil, cferr.New(cferr.InvalidExpression, start, "empty continued fraction literal")
		}
		a, err := p.parseDigits()
		if err != nil {
			return nil, err
		}
		head = append(head, a)
		if p.accept(']') {
			return p.build(start, head, nil)
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parsePeriod() ([]*big.Int, error) {
	var period []*big.Int
	for {
		a, err := p.parseDigits()
		if err != nil {
			return nil, err
		}
		period = append(period, a)
		if p.accept(')') {
			return period, nil
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
	}
}

func (p *parser) build(start int, head, period []*big.Int) (cf.Fraction, error) {
	var (
		x   cf.Fraction
		err error
	)
	if len(period) == 0 {
		x, err = cf.Finite(head...)
	} else {
		x, err = cf.NewPeriodic(head, period)
	}
	if err != nil {
		return nil, cferr.Wrap(cferr.InvalidExpression, start, "invalid continued fraction literal", err)
	}
	return x, nil
}

func (p *parser) parseIdent() (cf.Fraction, error) {
	start := p.pos
	for p.pos < len(p.data) && (isLetter(p.data[p.pos]) || isDigit(p.data[p.pos])) {
		p.pos++
	}
	name := p.data[start:p.pos]

	if x, ok := constants[name]; ok {
		return x, nil
	}
	if f, ok := unaryFuncs[name]; ok {
		x, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		return f(x), nil
	}
	if f, ok := integerFuncs[name]; ok {
		if err := p.expect('('); err != nil {
			return nil, err
		}
		argStart := p.pos
		n, err := p.parseDigits()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		x, err := f(n)
		if err != nil {
			return nil, cferr.Wrap(cferr.InvalidExpression, argStart, "invalid argument to "+name, err)
		}
		return x, nil
	}
	return nil, cferr.New(cferr.InvalidExpression, start, fmt.Sprintf("unknown identifier %q", name))
}

func (p *parser) parseCall() (cf.Fraction, error) {
	if err := p.pushDepth(); err != nil {
		return nil, err
	}
	defer p.popDepth()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return x, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
