package cf

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

// Fraction is an immutable continued-fraction expression. Every call to
// Quotients returns a fresh generator; nodes hold no iteration state.
type Fraction interface {
	Quotients() PartialQuotients
	String() string
}

// duals memoises the negation and the inverse of a node. Each slot is
// written at most once; an empty slot only means the dual has not been
// built yet.
type duals struct {
	mu  sync.Mutex
	neg Fraction
	inv Fraction
}

func (d *duals) dualCell() *duals { return d }

type dualCarrier interface {
	dualCell() *duals
}

func cellOf(x Fraction) *duals {
	if c, ok := x.(dualCarrier); ok {
		return c.dualCell()
	}
	return nil
}

// install stores f in *slot unless another value got there first and returns
// whichever value is installed.
func (d *duals) install(slot *Fraction, f Fraction) Fraction {
	d.mu.Lock()
	defer d.mu.Unlock()
	if *slot == nil {
		*slot = f
	}
	return *slot
}

func (d *duals) load(slot *Fraction) Fraction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *slot
}

// leaf is an exact rational value.
type leaf struct {
	duals
	r *rational.Rat
}

// FromRat returns the continued fraction of r.
func FromRat(r *rational.Rat) Fraction {
	return &leaf{r: r}
}

// FromInt64 returns the continued fraction of the integer n.
func FromInt64(n int64) Fraction {
	return FromRat(rational.FromInt64(n))
}

// FromFloat64 returns the continued fraction of the exact value of f.
func FromFloat64(f float64) (Fraction, error) {
	r, err := rational.FromFloat64(f)
	if err != nil {
		return nil, err
	}
	return FromRat(r), nil
}

// RatOf returns the value of x if x is a rational leaf.
func RatOf(x Fraction) (*rational.Rat, bool) {
	if l, ok := x.(*leaf); ok {
		return l.r, true
	}
	return nil, false
}

func (l *leaf) Quotients() PartialQuotients { return newCursor(newEuclid(l.r)) }

func (l *leaf) String() string {
	if l.r.IsInt() {
		return l.r.Floor().String()
	}
	return l.r.String()
}

// periodicLeaf is [start...; (period...)] with a non-empty period.
type periodicLeaf struct {
	duals
	name   string
	start  []*big.Int
	period []*big.Int
}

// NewPeriodic returns [start...; period, period, ...]. Every digit except the
// leading one must be positive. With an empty period the expansion is
// finite and must be canonical: a trailing 1 is a DOMAIN error. The slices
// are copied.
func NewPeriodic(start, period []*big.Int) (Fraction, error) {
	if len(start) == 0 && len(period) == 0 {
		return nil, cferr.Newf(cferr.Domain, "continued fraction without partial quotients")
	}
	if err := validateDigits(start, true); err != nil {
		return nil, err
	}
	// period digits recur after the leading position, so all must be positive
	if err := validateDigits(period, false); err != nil {
		return nil, err
	}
	if len(period) == 0 {
		if n := len(start); n > 1 && start[n-1].Cmp(bigOne) == 0 {
			return nil, cferr.Newf(cferr.Domain, "finite continued fraction ends in 1")
		}
		return FromRat(evaluate(start)), nil
	}
	return &periodicLeaf{start: copyDigits(start), period: copyDigits(period)}, nil
}

// Finite returns the value of the finite continued fraction [digits...].
// Unlike NewPeriodic it accepts a trailing 1.
func Finite(digits ...*big.Int) (Fraction, error) {
	if len(digits) == 0 {
		return nil, cferr.Newf(cferr.Domain, "continued fraction without partial quotients")
	}
	if err := validateDigits(digits, true); err != nil {
		return nil, err
	}
	return FromRat(evaluate(digits)), nil
}

// evaluate folds a finite digit list into its rational value. Digits after
// the first are positive, so no denominator vanishes.
func evaluate(digits []*big.Int) *rational.Rat {
	num := new(big.Int).Set(digits[len(digits)-1])
	den := big.NewInt(1)
	for i := len(digits) - 2; i >= 0; i-- {
		// a + den/num = (a*num + den)/num
		num, den = mulAdd(digits[i], num, den), num
	}
	return rational.MustNew(num, den)
}

func copyDigits(ds []*big.Int) []*big.Int {
	out := make([]*big.Int, len(ds))
	for i, d := range ds {
		out[i] = new(big.Int).Set(d)
	}
	return out
}

func (p *periodicLeaf) Quotients() PartialQuotients {
	return newCursor(&periodic{start: p.start, period: p.period})
}

func (p *periodicLeaf) String() string {
	if p.name != "" {
		return p.name
	}
	return formatDigits(p.start, p.period)
}

func formatDigits(start, period []*big.Int) string {
	var b strings.Builder
	b.WriteByte('[')
	sep := func(i int) {
		switch {
		case i == 1:
			b.WriteString("; ")
		case i > 1:
			b.WriteString(", ")
		}
	}
	for i, d := range start {
		sep(i)
		b.WriteString(d.String())
	}
	if len(period) > 0 {
		sep(len(start))
		b.WriteByte('(')
		for i, d := range period {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.String())
		}
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

// patternLeaf is an infinite expansion given by a digit formula.
type patternLeaf struct {
	duals
	name  string
	digit func(k int) *big.Int
}

func (p *patternLeaf) Quotients() PartialQuotients {
	return newCursor(&pattern{digit: p.digit})
}

func (p *patternLeaf) String() string { return p.name }

type unary struct {
	duals
	name  string
	x     Fraction
	build func(src PartialQuotients, limit int) PartialQuotients
}

func (u *unary) Quotients() PartialQuotients { return u.quotientsWithin(DefaultInputLimit) }

func (u *unary) quotientsWithin(limit int) PartialQuotients {
	return u.build(QuotientsWithin(u.x, limit), limit)
}

func (u *unary) String() string { return fmt.Sprintf("%s(%s)", u.name, u.x) }

// Negate returns -x.
func Negate(x Fraction) Fraction {
	c := cellOf(x)
	if c != nil {
		if n := c.load(&c.neg); n != nil {
			return n
		}
	}
	var n Fraction
	if r, ok := RatOf(x); ok {
		n = FromRat(r.Neg())
	} else {
		n = &unary{name: "neg", x: x, build: func(src PartialQuotients, _ int) PartialQuotients {
			return newNegate(src)
		}}
	}
	if c == nil {
		return n
	}
	if nc := cellOf(n); nc != nil {
		nc.install(&nc.neg, x)
	}
	return c.install(&c.neg, n)
}

// Invert returns 1/x. The inverse of zero is not detected here: its
// generator fails with DIVIDE_BY_ZERO on the first request.
func Invert(x Fraction) Fraction {
	c := cellOf(x)
	if c != nil {
		if i := c.load(&c.inv); i != nil {
			return i
		}
	}
	var i Fraction
	if r, ok := RatOf(x); ok && !r.IsZero() {
		ri, _ := r.Inv()
		i = FromRat(ri)
	} else {
		i = &unary{name: "inv", x: x, build: func(src PartialQuotients, limit int) PartialQuotients {
			return newInvert(src, limit)
		}}
	}
	if c == nil {
		return i
	}
	if ic := cellOf(i); ic != nil {
		ic.install(&ic.inv, x)
	}
	return c.install(&c.inv, i)
}

// NonNegative returns x unchanged but fails with a DOMAIN error at the first
// digit if x turns out to be negative.
func NonNegative(x Fraction) Fraction {
	if r, ok := RatOf(x); ok && r.Sign() >= 0 {
		return x
	}
	return &unary{name: "nonneg", x: x, build: func(src PartialQuotients, _ int) PartialQuotients {
		return newCursor(&guard{src: src, check: checkNonNegative})
	}}
}

func nonZero(x Fraction) Fraction {
	return &unary{name: "nonzero", x: x, build: func(src PartialQuotients, _ int) PartialQuotients {
		return newCursor(&guard{src: src, check: checkNonZero})
	}}
}

// homNode applies a homographic map to one operand.
type homNode struct {
	duals
	m Matrix
	x Fraction
}

// Homographic returns (U*x+V)/(W*x+Z).
func Homographic(m Matrix, x Fraction) Fraction {
	return &homNode{m: m, x: x}
}

func (h *homNode) Quotients() PartialQuotients { return h.quotientsWithin(DefaultInputLimit) }

func (h *homNode) quotientsWithin(limit int) PartialQuotients {
	return newCursor(newHomographicEngine(h.m.big(), QuotientsWithin(h.x, limit), false, 0, limit))
}

func (h *homNode) String() string {
	return fmt.Sprintf("hom(%d, %d, %d, %d; %s)", h.m.U, h.m.V, h.m.W, h.m.Z, h.x)
}

// bigHomNode is homNode with arbitrary-precision coefficients, used for
// operations with one rational operand.
type bigHomNode struct {
	duals
	m    matrix
	x    Fraction
	text string
}

func (h *bigHomNode) Quotients() PartialQuotients { return h.quotientsWithin(DefaultInputLimit) }

func (h *bigHomNode) quotientsWithin(limit int) PartialQuotients {
	return newCursor(newHomographicEngine(h.m, QuotientsWithin(h.x, limit), false, 0, limit))
}

func (h *bigHomNode) String() string { return h.text }

// binNode applies a bihomographic map to two operands.
type binNode struct {
	duals
	t    Tensor
	op   string
	x, y Fraction
}

// Bihomographic returns (U*x*y + V*x + W*y + Z) / (P*x*y + Q*x + R*y + S).
func Bihomographic(t Tensor, x, y Fraction) Fraction {
	return &binNode{t: t, x: x, y: y}
}

func (b *binNode) Quotients() PartialQuotients { return b.quotientsWithin(DefaultInputLimit) }

func (b *binNode) quotientsWithin(limit int) PartialQuotients {
	return newBihomographic(b.t.big(), QuotientsWithin(b.x, limit), QuotientsWithin(b.y, limit), limit)
}

func (b *binNode) String() string {
	if b.op != "" {
		return fmt.Sprintf("(%s %s %s)", b.x, b.op, b.y)
	}
	t := b.t
	return fmt.Sprintf("bihom(%d, %d, %d, %d, %d, %d, %d, %d; %s, %s)",
		t.U, t.V, t.W, t.Z, t.P, t.Q, t.R, t.S, b.x, b.y)
}

// binary builds x op y: exactly when both operands are rational leaves, with
// a homographic engine when one is, and with the tensor engine otherwise.
// exact may return an error (division by zero); the lazy engines then
// report it when the result is read.
func binary(op string, t Tensor, x, y Fraction, exact func(a, b *rational.Rat) (*rational.Rat, error),
	left, right func(r *rational.Rat) matrix) Fraction {
	rx, okx := RatOf(x)
	ry, oky := RatOf(y)
	if okx && oky {
		if r, err := exact(rx, ry); err == nil {
			return FromRat(r)
		}
	}
	text := fmt.Sprintf("(%s %s %s)", x, op, y)
	switch {
	case okx:
		return &bigHomNode{m: left(rx), x: y, text: text}
	case oky:
		return &bigHomNode{m: right(ry), x: x, text: text}
	}
	return &binNode{t: t, op: op, x: x, y: y}
}

// Add returns x + y.
func Add(x, y Fraction) Fraction {
	return binary("+", AddTensor, x, y,
		func(a, b *rational.Rat) (*rational.Rat, error) { return a.Add(b), nil },
		// p/q + y = (q*y + p)/q
		func(r *rational.Rat) matrix { return matrix{u: r.Den(), v: r.Num(), w: big.NewInt(0), z: r.Den()} },
		func(r *rational.Rat) matrix { return matrix{u: r.Den(), v: r.Num(), w: big.NewInt(0), z: r.Den()} })
}

// Sub returns x - y.
func Sub(x, y Fraction) Fraction {
	return binary("-", SubTensor, x, y,
		func(a, b *rational.Rat) (*rational.Rat, error) { return a.Sub(b), nil },
		// p/q - y = (-q*y + p)/q
		func(r *rational.Rat) matrix {
			return matrix{u: new(big.Int).Neg(r.Den()), v: r.Num(), w: big.NewInt(0), z: r.Den()}
		},
		// x - p/q = (q*x - p)/q
		func(r *rational.Rat) matrix {
			return matrix{u: r.Den(), v: new(big.Int).Neg(r.Num()), w: big.NewInt(0), z: r.Den()}
		})
}

// Mul returns x * y.
func Mul(x, y Fraction) Fraction {
	return binary("*", MulTensor, x, y,
		func(a, b *rational.Rat) (*rational.Rat, error) { return a.Mul(b), nil },
		func(r *rational.Rat) matrix { return matrix{u: r.Num(), v: big.NewInt(0), w: big.NewInt(0), z: r.Den()} },
		func(r *rational.Rat) matrix { return matrix{u: r.Num(), v: big.NewInt(0), w: big.NewInt(0), z: r.Den()} })
}

// Div returns x / y. Division by zero is reported when the result is read.
func Div(x, y Fraction) Fraction {
	return binary("/", DivTensor, x, y,
		func(a, b *rational.Rat) (*rational.Rat, error) { return a.Quo(b) },
		// p/q / y = (0*y + p)/(q*y + 0)
		func(r *rational.Rat) matrix { return matrix{u: big.NewInt(0), v: r.Num(), w: r.Den(), z: big.NewInt(0)} },
		// x / (p/q) = (q*x + 0)/(0*x + p)
		func(r *rational.Rat) matrix { return matrix{u: r.Den(), v: big.NewInt(0), w: big.NewInt(0), z: r.Num()} })
}

// squareNode is x*x with both operands served from one shared generator.
type squareNode struct {
	duals
	x      Fraction
	window int
}

// Square returns x * x. The two operand streams share one generator of x.
func Square(x Fraction) Fraction {
	if r, ok := RatOf(x); ok {
		return FromRat(r.Square())
	}
	return &squareNode{x: x, window: DefaultShareWindow}
}

func (s *squareNode) Quotients() PartialQuotients { return s.quotientsWithin(DefaultInputLimit) }

func (s *squareNode) quotientsWithin(limit int) PartialQuotients {
	a, b := shareWithin(s.x, s.window, limit)
	return newBihomographic(MulTensor.big(), a, b, limit)
}

func (s *squareNode) String() string { return fmt.Sprintf("sq(%s)", s.x) }

// unitNode is x^0.
type unitNode struct {
	duals
	x Fraction
}

func (u *unitNode) Quotients() PartialQuotients { return u.quotientsWithin(DefaultInputLimit) }

func (u *unitNode) quotientsWithin(limit int) PartialQuotients {
	return newCursor(&unitPower{src: QuotientsWithin(u.x, limit)})
}

func (u *unitNode) String() string { return fmt.Sprintf("%s^0", u.x) }

// Pow returns x^n by repeated squaring. x^0 is 1 and x^-n is 1/x^n; both
// are DOMAIN errors for x = 0, reported when the result is read.
func Pow(x Fraction, n int) Fraction {
	if r, ok := RatOf(x); ok {
		if p, err := r.Pow(n); err == nil {
			return FromRat(p)
		}
	}
	switch {
	case n == 0:
		return &unitNode{x: x}
	case n < 0:
		// -(n+1) cannot overflow
		return Invert(nonZero(powPositive(x, uint(-(n+1))+1)))
	}
	return powPositive(x, uint(n))
}

func powPositive(x Fraction, n uint) Fraction {
	var acc Fraction
	base := x
	for {
		if n&1 == 1 {
			if acc == nil {
				acc = base
			} else {
				acc = Mul(acc, base)
			}
		}
		n >>= 1
		if n == 0 {
			return acc
		}
		base = Square(base)
	}
}

// chainNode is [prefix...; x].
type chainNode struct {
	duals
	prefix []*big.Int
	x      Fraction
}

// Chain returns the continued fraction [prefix...; x], that is prefix
// followed by the digits of x. x must be greater than 1 unless prefix is
// empty; otherwise reading the result fails with a DOMAIN error.
func Chain(prefix []*big.Int, x Fraction) (Fraction, error) {
	if len(prefix) == 0 {
		return x, nil
	}
	if err := validateDigits(prefix, true); err != nil {
		return nil, err
	}
	return &chainNode{prefix: copyDigits(prefix), x: x}, nil
}

func (c *chainNode) Quotients() PartialQuotients { return c.quotientsWithin(DefaultInputLimit) }

func (c *chainNode) quotientsWithin(limit int) PartialQuotients {
	return newCursor(&chain{prefix: c.prefix, tail: QuotientsWithin(c.x, limit)})
}

func (c *chainNode) String() string {
	return fmt.Sprintf("chain(%s; %s)", formatDigits(c.prefix, nil), c.x)
}
