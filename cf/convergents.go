package cf

import (
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

// ConvergentIter yields the convergents p_k/q_k of a generator using
//
//	p_k = a_k*p_{k-1} + p_{k-2},  p_{-1} = 1, p_{-2} = 0
//	q_k = a_k*q_{k-1} + q_{k-2},  q_{-1} = 0, q_{-2} = 1
//
// Convergents are in lowest terms by construction.
type ConvergentIter struct {
	pq     PartialQuotients
	p1, p2 *big.Int
	q1, q2 *big.Int
}

// Convergents returns an iterator over the convergents of pq.
func Convergents(pq PartialQuotients) *ConvergentIter {
	return &ConvergentIter{pq: pq, p1: big.NewInt(1), p2: big.NewInt(0), q1: big.NewInt(0), q2: big.NewInt(1)}
}

// HasNext reports whether another convergent is available.
func (c *ConvergentIter) HasNext() bool {
	return c.pq.HasNext()
}

// Next returns the next convergent.
func (c *ConvergentIter) Next() (*rational.Rat, error) {
	a, err := c.pq.Next()
	if err != nil {
		return nil, err
	}
	p := mulAdd(a, c.p1, c.p2)
	q := mulAdd(a, c.q1, c.q2)
	c.p1, c.p2 = p, c.p1
	c.q1, c.q2 = q, c.q1
	return rational.FromCoprime(p, q)
}

// Index is the index of the last convergent returned, or -1.
func (c *ConvergentIter) Index() int {
	return c.pq.Index()
}

// Compare compares x and y digit by digit and returns -1, 0 or +1. Two
// equal irrational values never produce a differing digit, so at most
// maxTerms digits of each are read before giving up with BOUND_EXCEEDED.
// maxTerms also limits the arithmetic engines inside x and y.
func Compare(x, y Fraction, maxTerms int) (int, error) {
	if rx, ok := RatOf(x); ok {
		if ry, ok := RatOf(y); ok {
			return rx.Cmp(ry), nil
		}
	}
	px, py := QuotientsWithin(x, maxTerms), QuotientsWithin(y, maxTerms)
	for k := 0; k < maxTerms; k++ {
		moreX, moreY := px.HasNext(), py.HasNext()
		if !moreX && !moreY {
			return 0, nil
		}
		// an expansion that has ended behaves like an infinite digit
		var c int
		switch {
		case !moreX:
			c = 1
		case !moreY:
			c = -1
		default:
			a, err := px.Next()
			if err != nil {
				return 0, err
			}
			b, err := py.Next()
			if err != nil {
				return 0, err
			}
			c = a.Cmp(b)
		}
		if c != 0 {
			// larger digits increase the value at even positions and
			// decrease it at odd ones
			if k%2 == 1 {
				c = -c
			}
			return c, nil
		}
	}
	return 0, cferr.Newf(cferr.BoundExceeded, "values agree on the first %d partial quotients", maxTerms)
}
