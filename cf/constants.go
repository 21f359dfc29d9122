package cf

import (
	"fmt"
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

// E is Euler's number, [2; 1, 2, 1, 1, 4, 1, 1, 6, ...].
var E Fraction = &patternLeaf{name: "e", digit: eDigit}

// Phi is the golden ratio, [1; 1, 1, ...].
var Phi Fraction = &periodicLeaf{name: "phi", start: []*big.Int{big.NewInt(1)}, period: []*big.Int{big.NewInt(1)}}

// Sqrt2 is the square root of 2, [1; 2, 2, ...].
var Sqrt2 Fraction = &periodicLeaf{name: "sqrt2", start: []*big.Int{big.NewInt(1)}, period: []*big.Int{big.NewInt(2)}}

// ExpRadical returns e^(1/n) for n >= 1. ExpRadical(1) is E.
func ExpRadical(n int64) (Fraction, error) {
	switch {
	case n < 1:
		return nil, cferr.Newf(cferr.Domain, "e^(1/%d): root index must be positive", n)
	case n == 1:
		return E, nil
	}
	return &patternLeaf{name: fmt.Sprintf("erad(%d)", n), digit: expRadicalDigit(big.NewInt(n))}, nil
}

// Sqrt returns the square root of n. Perfect squares give a rational leaf;
// other values give the periodic expansion [a0; (a1, ..., 2*a0)], generated
// one digit at a time. A negative n is a DOMAIN error.
func Sqrt(n *big.Int) (Fraction, error) {
	if n.Sign() < 0 {
		return nil, cferr.Newf(cferr.Domain, "square root of negative %s", n)
	}
	a0 := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(a0, a0).Cmp(n) == 0 {
		return FromRat(rational.FromInt(a0)), nil
	}
	return &surdLeaf{n: new(big.Int).Set(n), a0: a0}, nil
}

// surdLeaf is the square root of a positive non-square integer.
type surdLeaf struct {
	duals
	n, a0 *big.Int
}

func (s *surdLeaf) Quotients() PartialQuotients {
	return newCursor(&surd{n: s.n, a0: s.a0})
}

func (s *surdLeaf) String() string { return fmt.Sprintf("sqrt(%s)", s.n) }

// surd steps the recurrence
//
//	m' = d*a - m,  d' = (n - m'^2)/d,  a' = floor((a0 + m')/d')
//
// from m = 0, d = 1, a = a0. The sequence is periodic on its own, so it is
// never stored.
type surd struct {
	n, a0   *big.Int
	m, d, a *big.Int
}

func (s *surd) step() (*big.Int, bool, error) {
	if s.a == nil {
		s.m, s.d, s.a = new(big.Int), big.NewInt(1), s.a0
		return s.a0, true, nil
	}
	s.m = mulSub(new(big.Int).Mul(s.d, s.a), s.m, bigOne)
	sq := new(big.Int).Mul(s.m, s.m)
	s.d = new(big.Int).Quo(sq.Sub(s.n, sq), s.d)
	s.a = new(big.Int).Quo(new(big.Int).Add(s.a0, s.m), s.d)
	return s.a, true, nil
}
