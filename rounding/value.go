package rounding

import (
	"math"
	"math/big"
	"sync"

	"github.com/lattice-substrate/exactcf/cf"
	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/ieee"
	"github.com/lattice-substrate/exactcf/rational"
)

// DefaultMaxTerms bounds the partial quotients read from a continued
// fraction when Options.MaxTerms is not set.
const DefaultMaxTerms = 10000

// Options configures a Value.
type Options struct {
	// MaxTerms bounds how many partial quotients one conversion may read
	// before failing with BOUND_EXCEEDED. It also bounds how many operand
	// digits each arithmetic engine in the source may read per digit it
	// produces. Zero means DefaultMaxTerms.
	MaxTerms int
}

func (o *Options) maxTerms() int {
	if o == nil || o.MaxTerms <= 0 {
		return DefaultMaxTerms
	}
	return o.MaxTerms
}

// Value converts one exact source under any mode and kind. The digits of a
// continued-fraction source are generated once and replayed for later
// conversions. If the expansion turns out to be finite the exact rational
// is kept and used from then on.
//
// A Value is safe for concurrent use; conversions are serialised.
type Value struct {
	mu       sync.Mutex
	src      cf.Fraction
	exact    *rational.Rat
	digits   *cf.Buffer
	maxTerms int
	cache    table
}

// New returns a Value for x. A nil opts uses the defaults.
func New(x cf.Fraction, opts *Options) *Value {
	v := &Value{src: x, maxTerms: opts.maxTerms()}
	if r, ok := cf.RatOf(x); ok {
		v.exact = r
	}
	return v
}

// FromRat returns a Value for r.
func FromRat(r *rational.Rat) *Value {
	return &Value{src: cf.FromRat(r), exact: r, maxTerms: DefaultMaxTerms}
}

// Source returns the continued fraction the Value converts.
func (v *Value) Source() cf.Fraction {
	return v.src
}

// Exact returns the exact rational value if it is known, either because the
// source is rational or because a conversion found its expansion finite.
func (v *Value) Exact() (*rational.Rat, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.exact, v.exact != nil
}

// Float64 returns the value rounded to a float64.
func (v *Value) Float64(m Mode) (float64, error) {
	c, err := v.convert(m, Float64)
	return c.f, err
}

// Float32 returns the value rounded to a float32.
func (v *Value) Float32(m Mode) (float32, error) {
	c, err := v.convert(m, Float32)
	return float32(c.f), err
}

// Int64 returns the value rounded to an integer, saturated to the int64
// range.
func (v *Value) Int64(m Mode) (int64, error) {
	return convertInt[int64](v, m, Int64)
}

// Int32 is Int64 for int32.
func (v *Value) Int32(m Mode) (int32, error) {
	return convertInt[int32](v, m, Int32)
}

// Int16 is Int64 for int16.
func (v *Value) Int16(m Mode) (int16, error) {
	return convertInt[int16](v, m, Int16)
}

// Int8 is Int64 for int8.
func (v *Value) Int8(m Mode) (int8, error) {
	return convertInt[int8](v, m, Int8)
}

// BigInt returns the value rounded to an integer.
func (v *Value) BigInt(m Mode) (*big.Int, error) {
	c, err := v.convert(m, BigInt)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(c.i), nil
}

func convertInt[T int64 | int32 | int16 | int8](v *Value, m Mode, k Kind) (T, error) {
	c, err := v.convert(m, k)
	if err != nil {
		return 0, err
	}
	return narrow[T](c.i)
}

func (v *Value) convert(m Mode, k Kind) (cell, error) {
	if m < Floor || m > Ceiling || k < Float64 || k > BigInt {
		return cell{}, cferr.Newf(cferr.Domain, "invalid conversion %v to %v", m, k)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.cache.get(m, k); ok {
		return c, nil
	}
	if v.exact == nil {
		if err := v.approach(m, k); err != nil {
			return cell{}, err
		}
		if c, ok := v.cache.get(m, k); ok {
			return c, nil
		}
	}
	v.record(m, k, v.exact)
	c, _ := v.cache.get(m, k)
	return c, nil
}

// record rounds the exact value x and stores the outcome.
func (v *Value) record(m Mode, k Kind, x *rational.Rat) {
	switch k {
	case Float64:
		b, exact := roundFloat(x, ieee.Binary64, m)
		v.cache.recordFloat(m, k, math.Float64frombits(b), exact)
	case Float32:
		b, exact := roundFloat(x, ieee.Binary32, m)
		v.cache.recordFloat(m, k, float64(math.Float32frombits(uint32(b))), exact)
	default:
		n, exact := roundInt(x, m)
		v.cache.recordInt(m, n, exact)
	}
}

// approach walks the convergents of the source until two consecutive ones
// round to the same result. The value lies between consecutive convergents
// and rounding is monotonic, so the common result is the answer. If the
// expansion ends first, its last convergent is the exact value and is
// stored in v.exact instead.
func (v *Value) approach(m Mode, k Kind) error {
	if v.digits == nil {
		v.digits = cf.NewBuffer(cf.QuotientsWithin(v.src, v.maxTerms))
	}
	it := cf.Convergents(v.digits.Reader(0))
	var (
		last *rational.Rat
		prev candidate
	)
	for n := 0; ; n++ {
		if !it.HasNext() {
			if last == nil {
				return cferr.Newf(cferr.StateMisuse, "%s has no partial quotients", v.src)
			}
			v.exact = last
			return nil
		}
		if n >= v.maxTerms {
			return cferr.Newf(cferr.BoundExceeded, "%s did not settle to a %v %v within %d partial quotients",
				v.src, m, k, v.maxTerms)
		}
		c, err := it.Next()
		if err != nil {
			return err
		}
		cur := candidateOf(c, m, k)
		if last != nil && cur.same(prev) {
			if k.IsFloat() {
				v.cache.recordFloat(m, k, cur.f, false)
			} else {
				v.cache.recordInt(m, cur.n, false)
			}
			return nil
		}
		last, prev = c, cur
	}
}

// candidate is the rounding of one convergent. Integral candidates are kept
// unsaturated.
type candidate struct {
	f float64
	n *big.Int
}

func candidateOf(x *rational.Rat, m Mode, k Kind) candidate {
	switch k {
	case Float64:
		return candidate{f: Float64Of(x, m)}
	case Float32:
		return candidate{f: float64(Float32Of(x, m))}
	}
	return candidate{n: IntOf(x, m)}
}

func (c candidate) same(d candidate) bool {
	if c.n != nil {
		return d.n != nil && c.n.Cmp(d.n) == 0
	}
	return math.Float64bits(c.f) == math.Float64bits(d.f)
}
