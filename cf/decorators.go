package cf

import (
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
)

// queued emits a fixed head and then passes the rest of a source through.
type queued struct {
	head []*big.Int
	rest PartialQuotients
}

func (q *queued) step() (*big.Int, bool, error) {
	if len(q.head) > 0 {
		d := q.head[0]
		q.head = q.head[1:]
		return d, true, nil
	}
	if q.rest == nil {
		return nil, false, nil
	}
	return pull(q.rest)
}

// negate rewrites the leading digits of x so the result is the canonical
// expansion of -x. With x = [a0; a1, a2, ...]:
//
//	[a0]             -> [-a0]
//	[a0; 1, a2, ...] -> [-a0-1; a2+1, ...]
//	[a0; 2]          -> [-a0-1; 2]
//	[a0; a1, ...]    -> [-a0-1; 1, a1-1, ...]
type negate struct {
	src   PartialQuotients
	out   *queued
	start bool
}

func newNegate(src PartialQuotients) *cursor {
	return newCursor(&negate{src: src})
}

func (n *negate) step() (*big.Int, bool, error) {
	if !n.start {
		n.start = true
		head, err := n.head()
		if err != nil {
			return nil, false, err
		}
		n.out = &queued{head: head, rest: n.src}
	}
	return n.out.step()
}

func (n *negate) head() ([]*big.Int, error) {
	a0, err := first(n.src)
	if err != nil {
		return nil, err
	}
	if !n.src.HasNext() {
		return []*big.Int{new(big.Int).Neg(a0)}, nil
	}
	b0 := new(big.Int).Neg(a0)
	b0.Sub(b0, bigOne)
	a1, err := n.src.Next()
	if err != nil {
		return nil, err
	}
	if a1.Cmp(bigOne) == 0 {
		if !n.src.HasNext() {
			// non-canonical [a0; 1] is the integer a0+1
			return []*big.Int{b0}, nil
		}
		a2, err := n.src.Next()
		if err != nil {
			return nil, err
		}
		return []*big.Int{b0, new(big.Int).Add(a2, bigOne)}, nil
	}
	if a1.Cmp(bigTwo) == 0 && !n.src.HasNext() {
		return []*big.Int{b0, bigTwo}, nil
	}
	return []*big.Int{b0, bigOne, new(big.Int).Sub(a1, bigOne)}, nil
}

// invert yields the expansion of 1/x. Non-negative values are rewritten
// directly; a negative x hands the rest of the work to a homographic engine.
type invert struct {
	src   PartialQuotients
	limit int
	out   stepper
	start bool
}

func newInvert(src PartialQuotients, limit int) *cursor {
	return newCursor(&invert{src: src, limit: limit})
}

func (v *invert) step() (*big.Int, bool, error) {
	if !v.start {
		v.start = true
		out, err := v.begin()
		if err != nil {
			return nil, false, err
		}
		v.out = out
	}
	return v.out.step()
}

func (v *invert) begin() (stepper, error) {
	a0, err := first(v.src)
	if err != nil {
		return nil, err
	}
	switch a0.Sign() {
	case 0:
		if !v.src.HasNext() {
			return nil, cferr.Newf(cferr.DivideByZero, "inverse of zero")
		}
		// 1/[0; a1, a2, ...] = [a1; a2, ...]
		return &queued{rest: v.src}, nil
	case 1:
		if a0.Cmp(bigOne) == 0 && !v.src.HasNext() {
			return &queued{head: []*big.Int{bigOne}}, nil
		}
		return &queued{head: []*big.Int{bigZero, a0}, rest: v.src}, nil
	default:
		// (0x+1)/(1x+0) with a0 already ingested
		m := matrix{u: big.NewInt(0), v: big.NewInt(1), w: big.NewInt(1), z: big.NewInt(0)}.ingest(a0)
		return newHomographicEngine(m, v.src, true, 0, v.limit), nil
	}
}

// guard checks the leading digit of a source and then passes everything
// through unchanged.
type guard struct {
	src   PartialQuotients
	check func(a0 *big.Int, more bool) error
	out   *queued
}

func (g *guard) step() (*big.Int, bool, error) {
	if g.out == nil {
		a0, err := first(g.src)
		if err != nil {
			return nil, false, err
		}
		if err := g.check(a0, g.src.HasNext()); err != nil {
			return nil, false, err
		}
		g.out = &queued{head: []*big.Int{a0}, rest: g.src}
	}
	return g.out.step()
}

func checkNonNegative(a0 *big.Int, _ bool) error {
	if a0.Sign() < 0 {
		return cferr.Newf(cferr.Domain, "value is negative (leading partial quotient %s)", a0)
	}
	return nil
}

func checkNonZero(a0 *big.Int, more bool) error {
	if a0.Sign() == 0 && !more {
		return cferr.Newf(cferr.Domain, "zero raised to a negative power")
	}
	return nil
}

// unitPower yields [1] for x^0 once x is known to be non-zero.
type unitPower struct {
	src  PartialQuotients
	done bool
}

func (u *unitPower) step() (*big.Int, bool, error) {
	if u.done {
		return nil, false, nil
	}
	u.done = true
	a0, err := first(u.src)
	if err != nil {
		return nil, false, err
	}
	if a0.Sign() == 0 && !u.src.HasNext() {
		return nil, false, cferr.Newf(cferr.Domain, "0^0 is undefined")
	}
	return bigOne, true, nil
}
