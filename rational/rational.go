// Package rational provides immutable exact rational numbers over
// arbitrary-precision integers. See the Rat type for details.
package rational

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/ieee"
)

var bigOne = big.NewInt(1)

// Common values. They are safe to share.
var (
	Zero = newReduced(big.NewInt(0), big.NewInt(1))
	One  = newReduced(big.NewInt(1), big.NewInt(1))
	Half = newReduced(big.NewInt(1), big.NewInt(2))
)

// Rat is an exact rational number num/den with den > 0.
//
// A Rat is immutable once constructed and is always used through a pointer.
// The sign lives in the numerator and zero is always 0/1, but the fraction
// is not reduced eagerly: arithmetic returns unreduced results and the
// reduced form is computed once on demand by Reduced. Cmp, Equal, Key and
// String work on the reduced form, so they agree for any representation of
// the same value.
//
// Derived values (reduced form, floor, ceiling, fractional part, log2
// interval, negation, inverse) are computed lazily and cached; filling a
// cache never changes the value, so a Rat may be shared between goroutines.
type Rat struct {
	num *big.Int
	den *big.Int

	reduceOnce sync.Once
	reduced    *Rat

	splitOnce sync.Once
	floor     *big.Int
	ceil      *big.Int
	frac      *Rat

	log2Once sync.Once
	log2Lo   int
	log2Hi   int
	log2Err  error

	neg atomic.Pointer[Rat]
	inv atomic.Pointer[Rat]
}

// newOwned takes ownership of num and den, moves the sign into the
// numerator and canonicalises zero. den must be non-zero.
func newOwned(num, den *big.Int) *Rat {
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	if num.Sign() == 0 {
		den.SetInt64(1)
	}
	return &Rat{num: num, den: den}
}

// newReduced is newOwned for a fraction already known to be in lowest terms.
func newReduced(num, den *big.Int) *Rat {
	r := newOwned(num, den)
	r.reduceOnce.Do(func() { r.reduced = r })
	return r
}

// New returns num/den. It returns a DIVIDE_BY_ZERO error if den is zero.
// The arguments are copied.
func New(num, den *big.Int) (*Rat, error) {
	if den.Sign() == 0 {
		return nil, cferr.Newf(cferr.DivideByZero, "rational %s/0", num)
	}
	return newOwned(new(big.Int).Set(num), new(big.Int).Set(den)), nil
}

// MustNew is like New but panics if den is zero.
func MustNew(num, den *big.Int) *Rat {
	r, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return r
}

// New64 is New for int64 arguments.
func New64(num, den int64) (*Rat, error) {
	return New(big.NewInt(num), big.NewInt(den))
}

// MustNew64 is like New64 but panics if den is zero.
func MustNew64(num, den int64) *Rat {
	r, err := New64(num, den)
	if err != nil {
		panic(err)
	}
	return r
}

// FromCoprime returns num/den for arguments the caller knows to be in lowest
// terms, such as continued-fraction convergents. The reduction step is
// skipped; passing a non-reduced pair makes Cmp, Equal and Key unreliable.
func FromCoprime(num, den *big.Int) (*Rat, error) {
	if den.Sign() == 0 {
		return nil, cferr.Newf(cferr.DivideByZero, "rational %s/0", num)
	}
	return newReduced(new(big.Int).Set(num), new(big.Int).Set(den)), nil
}

// FromInt returns the integer n as a Rat.
func FromInt(n *big.Int) *Rat {
	return newReduced(new(big.Int).Set(n), big.NewInt(1))
}

// FromInt64 returns the integer n as a Rat.
func FromInt64(n int64) *Rat {
	return newReduced(big.NewInt(n), big.NewInt(1))
}

// FromFloat64 returns the exact value of f. Both zeros map to Zero. A NaN or
// infinite f is a DOMAIN error.
func FromFloat64(f float64) (*Rat, error) {
	neg, mant, exp, ok := ieee.Binary64.Significand(math.Float64bits(f))
	if !ok {
		return nil, cferr.Newf(cferr.Domain, "float64 %v is not finite", f)
	}
	return fromSignificand(neg, mant, exp), nil
}

// FromFloat32 returns the exact value of f. Both zeros map to Zero. A NaN or
// infinite f is a DOMAIN error.
func FromFloat32(f float32) (*Rat, error) {
	neg, mant, exp, ok := ieee.Binary32.Significand(uint64(math.Float32bits(f)))
	if !ok {
		return nil, cferr.Newf(cferr.Domain, "float32 %v is not finite", f)
	}
	return fromSignificand(neg, mant, exp), nil
}

// fromSignificand builds (-1)^neg * mant * 2^exp in lowest terms.
func fromSignificand(neg bool, mant uint64, exp int) *Rat {
	if mant == 0 {
		return Zero
	}
	// strip trailing zeros so that an odd mantissa over a power of two is
	// already reduced
	tz := ieee.LowestSetBit(mant)
	mant >>= uint(tz)
	exp += tz
	n := new(big.Int).SetUint64(mant)
	if neg {
		n.Neg(n)
	}
	if exp >= 0 {
		return newReduced(n.Lsh(n, uint(exp)), big.NewInt(1))
	}
	return newReduced(n, new(big.Int).Lsh(bigOne, uint(-exp)))
}

// Parse parses "p/q", an integer, or a decimal number such as "-12.5e-3".
// A zero denominator is a DIVIDE_BY_ZERO error; anything else that does not
// parse is a DOMAIN error.
func Parse(s string) (*Rat, error) {
	s = strings.TrimSpace(s)
	if p, q, ok := strings.Cut(s, "/"); ok {
		num, ok1 := new(big.Int).SetString(p, 10)
		den, ok2 := new(big.Int).SetString(q, 10)
		if !ok1 || !ok2 {
			return nil, cferr.Newf(cferr.Domain, "invalid rational %q", s)
		}
		return New(num, den)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || strings.ContainsAny(s, "xXpP") {
		return nil, cferr.Newf(cferr.Domain, "invalid rational %q", s)
	}
	return FromBigRat(r), nil
}

// FromBigRat converts a big.Rat to a Rat.
func FromBigRat(r *big.Rat) *Rat {
	return newReduced(new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom()))
}

// BigRat converts x to a new big.Rat.
func (x *Rat) BigRat() *big.Rat {
	return new(big.Rat).SetFrac(x.num, x.den)
}

// Num returns a copy of the numerator of x as stored (not reduced).
func (x *Rat) Num() *big.Int {
	return new(big.Int).Set(x.num)
}

// Den returns a copy of the denominator of x as stored (not reduced).
func (x *Rat) Den() *big.Int {
	return new(big.Int).Set(x.den)
}

// Sign returns -1 if x < 0, 0 if x == 0, and 1 if x > 0.
func (x *Rat) Sign() int {
	return x.num.Sign()
}

// IsZero reports whether x == 0.
func (x *Rat) IsZero() bool {
	return x.num.Sign() == 0
}

// IsInt reports whether x is an integer.
func (x *Rat) IsInt() bool {
	x.split()
	return x.frac.IsZero()
}

// Reduced returns x in lowest terms. The result is computed once.
func (x *Rat) Reduced() *Rat {
	x.reduceOnce.Do(func() {
		g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(x.num), x.den)
		if g.Cmp(bigOne) == 0 {
			x.reduced = x
			return
		}
		x.reduced = newReduced(new(big.Int).Quo(x.num, g), new(big.Int).Quo(x.den, g))
	})
	return x.reduced
}

// String returns the reduced form of x as "p/q".
func (x *Rat) String() string {
	r := x.Reduced()
	return fmt.Sprintf("%s/%s", r.num, r.den)
}

// Key returns a string that is equal for equal values, for use as a map key.
func (x *Rat) Key() string {
	return x.String()
}

// Add returns x + y, not reduced.
func (x *Rat) Add(y *Rat) *Rat {
	if x.den.Cmp(y.den) == 0 {
		return newOwned(new(big.Int).Add(x.num, y.num), new(big.Int).Set(x.den))
	}
	n := new(big.Int).Mul(x.num, y.den)
	n.Add(n, new(big.Int).Mul(y.num, x.den))
	return newOwned(n, new(big.Int).Mul(x.den, y.den))
}

// Sub returns x - y, not reduced.
func (x *Rat) Sub(y *Rat) *Rat {
	if x.den.Cmp(y.den) == 0 {
		return newOwned(new(big.Int).Sub(x.num, y.num), new(big.Int).Set(x.den))
	}
	n := new(big.Int).Mul(x.num, y.den)
	n.Sub(n, new(big.Int).Mul(y.num, x.den))
	return newOwned(n, new(big.Int).Mul(x.den, y.den))
}

// Mul returns x * y, not reduced.
func (x *Rat) Mul(y *Rat) *Rat {
	return newOwned(new(big.Int).Mul(x.num, y.num), new(big.Int).Mul(x.den, y.den))
}

// Quo returns x / y, not reduced. Dividing by zero is a DIVIDE_BY_ZERO
// error.
func (x *Rat) Quo(y *Rat) (*Rat, error) {
	if y.IsZero() {
		return nil, cferr.Newf(cferr.DivideByZero, "%s divided by zero", x)
	}
	return newOwned(new(big.Int).Mul(x.num, y.den), new(big.Int).Mul(x.den, y.num)), nil
}

// Neg returns -x. The result is cached and knows x as its own negation.
func (x *Rat) Neg() *Rat {
	if n := x.neg.Load(); n != nil {
		return n
	}
	n := newOwned(new(big.Int).Neg(x.num), new(big.Int).Set(x.den))
	n.neg.Store(x)
	if !x.neg.CompareAndSwap(nil, n) {
		return x.neg.Load()
	}
	return n
}

// Inv returns 1/x. The inverse of zero is a DIVIDE_BY_ZERO error. The result
// is cached and knows x as its own inverse.
func (x *Rat) Inv() (*Rat, error) {
	if i := x.inv.Load(); i != nil {
		return i, nil
	}
	if x.IsZero() {
		return nil, cferr.Newf(cferr.DivideByZero, "inverse of zero")
	}
	i := newOwned(new(big.Int).Set(x.den), new(big.Int).Set(x.num))
	i.inv.Store(x)
	if !x.inv.CompareAndSwap(nil, i) {
		return x.inv.Load(), nil
	}
	return i, nil
}

// Abs returns |x|.
func (x *Rat) Abs() *Rat {
	if x.Sign() >= 0 {
		return x
	}
	return x.Neg()
}

// Square returns x * x.
func (x *Rat) Square() *Rat {
	return newOwned(new(big.Int).Mul(x.num, x.num), new(big.Int).Mul(x.den, x.den))
}

// Pow returns x^n. Unlike big.Int.Exp, 0^0 is not defined: it and 0^n for
// negative n are DOMAIN errors.
func (x *Rat) Pow(n int) (*Rat, error) {
	if x.IsZero() && n <= 0 {
		return nil, cferr.Newf(cferr.Domain, "0^%d is undefined", n)
	}
	if n == 0 {
		return One, nil
	}
	base := x
	if n < 0 {
		var err error
		if base, err = x.Inv(); err != nil {
			return nil, err
		}
	}
	e := new(big.Int).Abs(big.NewInt(int64(n)))
	return newOwned(new(big.Int).Exp(base.num, e, nil), new(big.Int).Exp(base.den, e, nil)), nil
}

// Mul2Exp returns x * 2^k exactly.
func (x *Rat) Mul2Exp(k int) *Rat {
	switch {
	case k > 0:
		return newOwned(new(big.Int).Lsh(x.num, uint(k)), new(big.Int).Set(x.den))
	case k < 0:
		return newOwned(new(big.Int).Set(x.num), new(big.Int).Lsh(x.den, uint(-k)))
	default:
		return x
	}
}

func (x *Rat) split() {
	x.splitOnce.Do(func() {
		// den > 0, so Euclidean division is floor division
		m := new(big.Int)
		q, _ := new(big.Int).DivMod(x.num, x.den, m)
		x.floor = q
		x.ceil = new(big.Int).Set(q)
		if m.Sign() != 0 {
			x.ceil.Add(x.ceil, bigOne)
		}
		x.frac = newOwned(m, new(big.Int).Set(x.den))
	})
}

// Floor returns the largest integer <= x.
func (x *Rat) Floor() *big.Int {
	x.split()
	return new(big.Int).Set(x.floor)
}

// Ceil returns the smallest integer >= x.
func (x *Rat) Ceil() *big.Int {
	x.split()
	return new(big.Int).Set(x.ceil)
}

// FracPart returns x - Floor(x), which lies in [0, 1).
func (x *Rat) FracPart() *Rat {
	x.split()
	return x.frac
}

// IntPart returns x truncated toward zero.
func (x *Rat) IntPart() *big.Int {
	return new(big.Int).Quo(x.num, x.den)
}

// Cmp returns -1 if x < y, 0 if x == y, and 1 if x > y.
func (x *Rat) Cmp(y *Rat) int {
	sx, sy := x.Sign(), y.Sign()
	if sx != sy {
		if sx < sy {
			return -1
		}
		return 1
	}
	if sx == 0 {
		return 0
	}
	xr, yr := x.Reduced(), y.Reduced()
	if xr.den.Cmp(yr.den) == 0 {
		return xr.num.Cmp(yr.num)
	}
	lhs := new(big.Int).Mul(xr.num, yr.den)
	return lhs.Cmp(new(big.Int).Mul(yr.num, xr.den))
}

// Equal reports whether x and y have the same value.
func (x *Rat) Equal(y *Rat) bool {
	xr, yr := x.Reduced(), y.Reduced()
	return xr.num.Cmp(yr.num) == 0 && xr.den.Cmp(yr.den) == 0
}

// Log2Interval brackets the base-2 logarithm of |x|: lo == hi if |x| is
// exactly 2^lo, otherwise hi == lo+1 and 2^lo < |x| < 2^hi. It is computed
// once, by comparing bit lengths rather than evaluating a logarithm. Zero is
// a DOMAIN error.
func (x *Rat) Log2Interval() (lo, hi int, err error) {
	x.log2Once.Do(func() {
		x.log2Lo, x.log2Hi, x.log2Err = log2Interval(x.num, x.den)
	})
	return x.log2Lo, x.log2Hi, x.log2Err
}

func log2Interval(num, den *big.Int) (lo, hi int, err error) {
	if num.Sign() == 0 {
		return 0, 0, cferr.Newf(cferr.Domain, "log2 of zero")
	}
	a := new(big.Int).Abs(num)
	// 2^(k-1) < a/den < 2^(k+1); shift the shorter side and compare to
	// pick the half
	k := a.BitLen() - den.BitLen()
	var c int
	if k >= 0 {
		c = a.Cmp(new(big.Int).Lsh(den, uint(k)))
	} else {
		c = new(big.Int).Lsh(a, uint(-k)).Cmp(den)
	}
	switch {
	case c == 0:
		return k, k, nil
	case c > 0:
		return k, k + 1, nil
	default:
		return k - 1, k, nil
	}
}
