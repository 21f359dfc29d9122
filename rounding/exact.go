package rounding

import (
	"math"
	"math/big"

	"fortio.org/safecast"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/ieee"
	"github.com/lattice-substrate/exactcf/rational"
)

var bigOne = big.NewInt(1)

// magnitude is the direction a mode rounds |x| in.
type magnitude int

const (
	down magnitude = iota
	halfEven
	up
)

func magnitudeOf(m Mode, neg bool) magnitude {
	switch {
	case m == Nearest:
		return halfEven
	case (m == Floor) != neg:
		return down
	default:
		return up
	}
}

// roundMagnitude rounds a non-negative rational to an integer. exact is
// true if no rounding took place.
func roundMagnitude(x *rational.Rat, dir magnitude) (n *big.Int, exact bool) {
	n = x.Floor()
	frac := x.FracPart()
	if frac.IsZero() {
		return n, true
	}
	switch dir {
	case up:
		n.Add(n, bigOne)
	case halfEven:
		if c := frac.Cmp(rational.Half); c > 0 || (c == 0 && n.Bit(0) == 1) {
			n.Add(n, bigOne)
		}
	}
	return n, false
}

// roundFloat rounds x to format f and returns the raw bits. exact is true if
// x is representable.
func roundFloat(x *rational.Rat, f ieee.Format, m Mode) (bits uint64, exact bool) {
	if x.IsZero() {
		return 0, true
	}
	neg := x.Sign() < 0
	dir := magnitudeOf(m, neg)
	lo, _, _ := x.Log2Interval()
	if lo > f.MaxExp {
		// |x| >= 2^(MaxExp+1), past max finite plus half an ulp
		if dir == down {
			return f.MaxFiniteBits(neg), false
		}
		return f.InfBits(neg), false
	}
	// quantum exponent of the binade, clamped to the subnormal quantum
	e := lo
	if e < f.MinExp {
		e = f.MinExp
	}
	q := e - (f.Prec - 1)
	mant, exact := roundMagnitude(x.Abs().Mul2Exp(-q), dir)
	bits, ok := f.Pack(neg, mant.Uint64(), q)
	if !ok {
		// rounded up past the largest finite value
		if dir == down {
			return f.MaxFiniteBits(neg), false
		}
		return f.InfBits(neg), false
	}
	return bits, exact
}

// Float64Of rounds x to a float64.
func Float64Of(x *rational.Rat, m Mode) float64 {
	b, _ := roundFloat(x, ieee.Binary64, m)
	return math.Float64frombits(b)
}

// Float32Of rounds x to a float32.
func Float32Of(x *rational.Rat, m Mode) float32 {
	b, _ := roundFloat(x, ieee.Binary32, m)
	return math.Float32frombits(uint32(b))
}

// IntOf rounds x to an integer.
func IntOf(x *rational.Rat, m Mode) *big.Int {
	n, _ := roundInt(x, m)
	return n
}

func roundInt(x *rational.Rat, m Mode) (*big.Int, bool) {
	neg := x.Sign() < 0
	n, exact := roundMagnitude(x.Abs(), magnitudeOf(m, neg))
	if neg {
		n.Neg(n)
	}
	return n, exact
}

// intRange is the range of one fixed-width integral kind.
type intRange struct {
	bits     int
	min, max *big.Int
}

var ranges [numKinds]*intRange

func init() {
	for _, k := range []Kind{Int64, Int32, Int16, Int8} {
		bits := 64 >> (k - Int64)
		max := new(big.Int).Lsh(bigOne, uint(bits-1))
		min := new(big.Int).Neg(max)
		max.Sub(max, bigOne)
		ranges[k] = &intRange{bits: bits, min: min, max: max}
	}
}

// saturate clamps n to the range of k. BigInt is unbounded.
func saturate(n *big.Int, k Kind) *big.Int {
	r := ranges[k]
	if r == nil {
		return n
	}
	switch {
	case n.Cmp(r.max) > 0:
		return r.max
	case n.Cmp(r.min) < 0:
		return r.min
	}
	return n
}

// narrow converts an integer the cache has already clamped to the range of
// T. Failure means a cell was recorded without saturation and is reported
// as INTERNAL_ERROR.
func narrow[T safecast.Integer](n *big.Int) (T, error) {
	if !n.IsInt64() {
		return 0, cferr.Newf(cferr.InternalError, "cached integer %s is not saturated", n)
	}
	k, err := safecast.Conv[T](n.Int64())
	if err != nil {
		return 0, cferr.Wrap(cferr.InternalError, -1, "cached integer is not saturated", err)
	}
	return k, nil
}
