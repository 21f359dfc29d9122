package cf

import (
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
)

// floorDiv returns floor(a/b) for b != 0.
func floorDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, bigOne)
	}
	return q
}

// euclid yields the Euclidean expansion of num/den.
type euclid struct {
	num, den *big.Int
}

func newEuclid(r *rational.Rat) *euclid {
	return &euclid{num: r.Num(), den: r.Den()}
}

func (e *euclid) step() (*big.Int, bool, error) {
	if e.den.Sign() == 0 {
		return nil, false, nil
	}
	// den stays positive, so Euclidean division is floor division
	m := new(big.Int)
	q, _ := new(big.Int).DivMod(e.num, e.den, m)
	e.num, e.den = e.den, m
	return q, true, nil
}

// periodic yields start followed by period repeated forever. An empty
// period makes the expansion finite.
type periodic struct {
	start  []*big.Int
	period []*big.Int
	i      int
}

func (p *periodic) step() (*big.Int, bool, error) {
	i := p.i
	if i < len(p.start) {
		p.i++
		return p.start[i], true, nil
	}
	if len(p.period) == 0 {
		return nil, false, nil
	}
	p.i++
	return p.period[(i-len(p.start))%len(p.period)], true, nil
}

// validateDigits checks that every digit after the leading one of the
// expansion is positive. lead reports whether digits[0] is the leading digit.
func validateDigits(digits []*big.Int, lead bool) error {
	for i, d := range digits {
		if i == 0 && lead {
			continue
		}
		if d.Sign() <= 0 {
			return cferr.Newf(cferr.Domain, "partial quotient %s at position %d must be positive", d, i)
		}
	}
	return nil
}

// pattern yields digit(k) for k = 0, 1, 2, ...
type pattern struct {
	digit func(k int) *big.Int
	k     int
}

func (p *pattern) step() (*big.Int, bool, error) {
	q := p.digit(p.k)
	p.k++
	return q, true, nil
}

// eDigit is the k-th partial quotient of e = [2; 1, 2, 1, 1, 4, 1, 1, 6, ...].
func eDigit(k int) *big.Int {
	if k == 0 {
		return bigTwo
	}
	i := k - 1
	if i%3 == 1 {
		return new(big.Int).SetInt64(2 * int64(i/3+1))
	}
	return bigOne
}

// expRadicalDigit returns the digit function of e^(1/n) =
// [1; n-1, 1, 1, 3n-1, 1, 1, 5n-1, ...] for n >= 2.
func expRadicalDigit(n *big.Int) func(k int) *big.Int {
	return func(k int) *big.Int {
		if k == 0 {
			return bigOne
		}
		i := k - 1
		if i%3 != 0 {
			return bigOne
		}
		d := new(big.Int).SetInt64(2*int64(i/3) + 1)
		d.Mul(d, n)
		return d.Sub(d, bigOne)
	}
}

// chain yields prefix and then the digits of tail, so that the value is
// [prefix...; tail]. A tail equal to exactly 1 is folded into the last
// prefix digit to keep the expansion canonical.
type chain struct {
	prefix  []*big.Int
	i       int
	tail    PartialQuotients
	pending *big.Int
	folded  bool
}

func (c *chain) step() (*big.Int, bool, error) {
	if c.i < len(c.prefix) {
		d := c.prefix[c.i]
		c.i++
		if c.i < len(c.prefix) {
			return d, true, nil
		}
		t, err := first(c.tail)
		if err != nil {
			return nil, false, err
		}
		if t.Sign() <= 0 {
			return nil, false, cferr.Newf(cferr.Domain, "chained expansion starts with %s, want a value above 1", t)
		}
		if t.Cmp(bigOne) == 0 && !c.tail.HasNext() {
			c.folded = true
			return new(big.Int).Add(d, bigOne), true, nil
		}
		c.pending = t
		return d, true, nil
	}
	if c.pending != nil {
		t := c.pending
		c.pending = nil
		return t, true, nil
	}
	if c.folded {
		return nil, false, nil
	}
	return pull(c.tail)
}
