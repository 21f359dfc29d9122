// Package ieee provides the IEEE 754 binary64 and binary32 helpers the
// rounding engine is built on: exact bit decomposition and reconstruction,
// ULP stepping, the representable interval around a big integer, bit-scan
// helpers and a table of exact powers of two.
//
// Nothing in this package rounds. Every function either is exact or reports
// that it could not be.
package ieee

import (
	"math"
	"math/big"
	"math/bits"
)

// Format describes one IEEE 754 binary interchange format.
type Format struct {
	Name     string
	Prec     int // significand precision including the hidden bit
	FracBits int // stored fraction bits
	ExpBits  int // stored exponent bits
	Bias     int
	MinExp   int // unbiased exponent of the smallest normal
	MaxExp   int // unbiased exponent of the largest finite value
}

var (
	Binary64 = Format{Name: "binary64", Prec: 53, FracBits: 52, ExpBits: 11, Bias: 1023, MinExp: -1022, MaxExp: 1023}
	Binary32 = Format{Name: "binary32", Prec: 24, FracBits: 23, ExpBits: 8, Bias: 127, MinExp: -126, MaxExp: 127}
)

// MinSubnormalExp returns the exponent of the smallest positive subnormal,
// which is also the quantum exponent of every subnormal.
func (f Format) MinSubnormalExp() int {
	return f.MinExp - (f.Prec - 1)
}

func (f Format) fracMask() uint64 {
	return 1<<uint(f.FracBits) - 1
}

func (f Format) maxBiased() int {
	return 1<<uint(f.ExpBits) - 1
}

func (f Format) signBit() uint64 {
	return 1 << uint(f.FracBits+f.ExpBits)
}

// Decompose splits raw bits into sign, biased exponent and fraction.
func (f Format) Decompose(b uint64) (neg bool, biasedExp int, frac uint64) {
	neg = b&f.signBit() != 0
	biasedExp = int((b >> uint(f.FracBits)) & uint64(f.maxBiased()))
	frac = b & f.fracMask()
	return neg, biasedExp, frac
}

// Compose is the inverse of Decompose. The exponent and fraction are
// masked to their field widths.
func (f Format) Compose(neg bool, biasedExp int, frac uint64) uint64 {
	b := (uint64(biasedExp)&uint64(f.maxBiased()))<<uint(f.FracBits) | frac&f.fracMask()
	if neg {
		b |= f.signBit()
	}
	return b
}

// Significand returns the integer significand and exponent of finite raw
// bits, so that the magnitude equals mant * 2^exp. ok is false for NaN and
// infinities.
func (f Format) Significand(b uint64) (neg bool, mant uint64, exp int, ok bool) {
	neg, biasedExp, frac := f.Decompose(b)
	switch biasedExp {
	case f.maxBiased():
		return neg, 0, 0, false
	case 0:
		return neg, frac, f.MinSubnormalExp(), true
	default:
		return neg, frac | 1<<uint(f.FracBits), biasedExp - f.Bias - f.FracBits, true
	}
}

// Pack assembles mant * 2^exp into raw bits. mant must satisfy
// mant <= 2^Prec, and exp must be the quantum exponent the value was rounded
// at: either mant is normalised (a carry to 2^Prec is renormalised here) or
// exp is MinSubnormalExp. ok is false if the value overflows the format or
// the arguments are not in that shape.
func (f Format) Pack(neg bool, mant uint64, exp int) (b uint64, ok bool) {
	if mant == 0 {
		return f.Compose(neg, 0, 0), true
	}
	hidden := uint64(1) << uint(f.FracBits)
	if mant == hidden<<1 {
		mant = hidden
		exp++
	}
	if mant > hidden<<1 {
		return 0, false
	}
	if mant < hidden {
		if exp != f.MinSubnormalExp() {
			return 0, false
		}
		return f.Compose(neg, 0, mant), true
	}
	e := exp + f.FracBits
	if e > f.MaxExp || e < f.MinExp {
		return 0, false
	}
	return f.Compose(neg, e+f.Bias, mant-hidden), true
}

// InfBits returns the bits of the signed infinity.
func (f Format) InfBits(neg bool) uint64 {
	return f.Compose(neg, f.maxBiased(), 0)
}

// MaxFiniteBits returns the bits of the signed largest finite value.
func (f Format) MaxFiniteBits(neg bool) uint64 {
	return f.Compose(neg, f.maxBiased()-1, f.fracMask())
}

// Decompose64 splits a float64 into sign, biased exponent and fraction.
func Decompose64(x float64) (neg bool, biasedExp int, frac uint64) {
	return Binary64.Decompose(math.Float64bits(x))
}

// Compose64 is the inverse of Decompose64.
func Compose64(neg bool, biasedExp int, frac uint64) float64 {
	return math.Float64frombits(Binary64.Compose(neg, biasedExp, frac))
}

// Decompose32 splits a float32 into sign, biased exponent and fraction.
func Decompose32(x float32) (neg bool, biasedExp int, frac uint64) {
	return Binary32.Decompose(uint64(math.Float32bits(x)))
}

// Compose32 is the inverse of Decompose32.
func Compose32(neg bool, biasedExp int, frac uint64) float32 {
	return math.Float32frombits(uint32(Binary32.Compose(neg, biasedExp, frac)))
}

// Next64 returns the smallest float64 greater than x.
func Next64(x float64) float64 { return math.Nextafter(x, math.Inf(1)) }

// Prev64 returns the largest float64 less than x.
func Prev64(x float64) float64 { return math.Nextafter(x, math.Inf(-1)) }

// Next32 returns the smallest float32 greater than x.
func Next32(x float32) float32 { return math.Nextafter32(x, float32(math.Inf(1))) }

// Prev32 returns the largest float32 less than x.
func Prev32(x float32) float32 { return math.Nextafter32(x, float32(math.Inf(-1))) }

// IntervalOfInt returns the closest float64 values lo <= n <= hi. They are
// equal when n is exactly representable. Beyond the finite range one side
// is an infinity.
func IntervalOfInt(n *big.Int) (lo, hi float64) {
	f, acc := new(big.Float).SetInt(n).Float64()
	switch acc {
	case big.Below:
		return f, Next64(f)
	case big.Above:
		return Prev64(f), f
	default:
		return f, f
	}
}

// IntervalOfInt64 is IntervalOfInt for an int64.
func IntervalOfInt64(n int64) (lo, hi float64) {
	return IntervalOfInt(big.NewInt(n))
}

// HighestSetBit returns the index of the most significant set bit of x, or
// -1 if x is zero.
func HighestSetBit(x uint64) int {
	return bits.Len64(x) - 1
}

// LowestSetBit returns the index of the least significant set bit of x, or
// -1 if x is zero.
func LowestSetBit(x uint64) int {
	if x == 0 {
		return -1
	}
	return bits.TrailingZeros64(x)
}

const (
	pow2Min = -1074
	pow2Max = 1023
)

// pow2Table holds 2^k for every k with a finite float64 power of two.
var pow2Table [pow2Max - pow2Min + 1]float64

func init() {
	for k := pow2Min; k <= pow2Max; k++ {
		pow2Table[k-pow2Min] = math.Ldexp(1, k)
	}
}

// Pow2 returns 2^k exactly. ok is false if 2^k is not a finite non-zero
// float64.
func Pow2(k int) (float64, bool) {
	if k < pow2Min || k > pow2Max {
		return 0, false
	}
	return pow2Table[k-pow2Min], true
}
