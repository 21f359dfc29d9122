package cf

import (
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

// Matrix holds the coefficients of the homographic map (U*x+V)/(W*x+Z).
type Matrix struct {
	U, V, W, Z int64
}

func (m Matrix) big() matrix {
	return matrix{u: big.NewInt(m.U), v: big.NewInt(m.V), w: big.NewInt(m.W), z: big.NewInt(m.Z)}
}

// matrix is the engine state for (u*x'+v)/(w*x'+z), where x' is the complete
// quotient of the part of the source not yet ingested. Its methods never
// modify the receiver.
type matrix struct {
	u, v, w, z *big.Int
}

// ingest substitutes x' = a + 1/x''.
func (m matrix) ingest(a *big.Int) matrix {
	return matrix{u: mulAdd(m.u, a, m.v), v: m.u, w: mulAdd(m.w, a, m.z), z: m.w}
}

// emit replaces f by 1/(f-d).
func (m matrix) emit(d *big.Int) matrix {
	return matrix{u: m.w, v: m.z, w: mulSub(m.u, m.w, d), z: mulSub(m.v, m.z, d)}
}

// decide returns the next output digit if it is already determined. Once
// the leading digit of the source has been ingested x' lies in (1, inf], so
// the value lies between u/w and (u+v)/(w+z) provided the denominator keeps
// one sign over that range.
func (m matrix) decide() (*big.Int, bool) {
	wz := new(big.Int).Add(m.w, m.z)
	if !sameSign(m.w, wz) {
		return nil, false
	}
	d := floorDiv(m.u, m.w)
	if floorDiv(new(big.Int).Add(m.u, m.v), wz).Cmp(d) != 0 {
		return nil, false
	}
	return d, true
}

func (m matrix) denominatorZero() bool {
	return m.w.Sign() == 0 && m.z.Sign() == 0
}

func (m matrix) numeratorZero() bool {
	return m.u.Sign() == 0 && m.v.Sign() == 0
}

func mulAdd(x, a, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, a)
	return r.Add(r, y)
}

func mulSub(x, y, d *big.Int) *big.Int {
	r := new(big.Int).Mul(y, d)
	return r.Sub(x, r)
}

// sameSign reports whether all xs are non-zero with one common sign.
func sameSign(xs ...*big.Int) bool {
	s := xs[0].Sign()
	if s == 0 {
		return false
	}
	for _, x := range xs[1:] {
		if x.Sign() != s {
			return false
		}
	}
	return true
}

type phase int

const (
	needFirst phase = iota
	steady
	rationalTail
	finished
)

// homographic is the single-operand engine.
type homographic struct {
	m       matrix
	src     PartialQuotients
	phase   phase
	tail    *euclid
	emitted int
	limit   int
	reads   int
}

// newHomographicEngine starts an engine over src. primed means the leading
// digit of src has already been folded into m; emitted counts digits the
// caller has already produced for the same output stream. At most limit
// digits of src are read per output digit.
func newHomographicEngine(m matrix, src PartialQuotients, primed bool, emitted, limit int) *homographic {
	h := &homographic{m: m, src: src, emitted: emitted, limit: limit}
	if primed {
		h.phase = steady
	}
	return h
}

func (h *homographic) step() (*big.Int, bool, error) {
	for {
		switch h.phase {
		case needFirst:
			a, err := first(h.src)
			if err != nil {
				return nil, false, err
			}
			h.m = h.m.ingest(a)
			h.phase = steady

		case steady:
			if h.m.denominatorZero() {
				h.phase = finished
				return nil, false, h.unbounded(h.m.numeratorZero())
			}
			if d, ok := h.m.decide(); ok {
				h.m = h.m.emit(d)
				h.emitted++
				h.reads = 0
				if h.m.denominatorZero() {
					h.phase = finished
				}
				return d, true, nil
			}
			if !h.src.HasNext() {
				if err := h.finish(); err != nil {
					return nil, false, err
				}
				continue
			}
			if h.reads >= h.limit {
				return nil, false, undecided(h.limit)
			}
			h.reads++
			a, err := h.src.Next()
			if err != nil {
				return nil, false, err
			}
			h.m = h.m.ingest(a)

		case rationalTail:
			q, ok, err := h.tail.step()
			if !ok {
				h.phase = finished
			}
			return q, ok, err

		default:
			return nil, false, nil
		}
	}
}

// finish handles an exhausted source: x' is infinite, so the remaining value
// is exactly u/w.
func (h *homographic) finish() error {
	if h.m.w.Sign() == 0 {
		h.phase = finished
		return h.unbounded(h.m.u.Sign() == 0)
	}
	r, err := rational.New(h.m.u, h.m.w)
	if err != nil {
		return err
	}
	h.tail = newEuclid(r)
	h.phase = rationalTail
	return nil
}

// undecided is the error of an engine that read limit operand digits
// without settling its next output digit, as happens when an irrational
// input produces a rational value such as sqrt2*sqrt2.
func undecided(limit int) error {
	return cferr.Newf(cferr.BoundExceeded, "next partial quotient undecided after reading %d operand digits", limit)
}

// unbounded classifies an infinite remainder. After at least one digit it
// just means the previous digit was the last; before any digit the value
// itself is 1/0 (or 0/0 when the numerator vanishes too).
func (h *homographic) unbounded(indeterminate bool) error {
	switch {
	case indeterminate:
		return cferr.Newf(cferr.Domain, "indeterminate form 0/0")
	case h.emitted > 0:
		return nil
	default:
		return cferr.Newf(cferr.DivideByZero, "division by zero")
	}
}
