package cf_test

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-substrate/exactcf/cf"
	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rational"
)

func digits(t *testing.T, x cf.Fraction, n int) []int64 {
	t.Helper()
	qs, err := cf.Take(x, n)
	require.NoError(t, err)
	out := make([]int64, len(qs))
	for i, q := range qs {
		require.True(t, q.IsInt64(), "digit %d out of range: %s", i, q)
		out[i] = q.Int64()
	}
	return out
}

func bigs(ds ...int64) []*big.Int {
	out := make([]*big.Int, len(ds))
	for i, d := range ds {
		out[i] = big.NewInt(d)
	}
	return out
}

func ratCF(num, den int64) cf.Fraction {
	return cf.FromRat(rational.MustNew64(num, den))
}

// lazy hides a rational behind an identity homographic map so that the
// generic engines run instead of the exact shortcuts.
func lazy(num, den int64) cf.Fraction {
	return cf.Homographic(cf.Matrix{U: 1, V: 0, W: 0, Z: 1}, ratCF(num, den))
}

// canonical is the reference expansion computed with big.Rat.
func canonical(r *big.Rat) []int64 {
	num, den := new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom())
	var out []int64
	for den.Sign() != 0 {
		m := new(big.Int)
		q, _ := new(big.Int).DivMod(num, den, m)
		out = append(out, q.Int64())
		num, den = den, m
	}
	return out
}

func requireClass(t *testing.T, x cf.Fraction, class cferr.FailureClass) {
	t.Helper()
	assert.Equal(t, class, failureOf(t, x))
}

// failureOf reads x until its generator fails and returns the failure class.
func failureOf(t *testing.T, x cf.Fraction) cferr.FailureClass {
	t.Helper()
	pq := x.Quotients()
	for i := 0; i < 1000; i++ {
		require.True(t, pq.HasNext(), "%s ended without an error", x)
		if _, err := pq.Next(); err != nil {
			// errors are sticky
			_, again := pq.Next()
			assert.Equal(t, err, again)
			return cferr.ClassOf(err)
		}
	}
	t.Fatalf("%s did not fail", x)
	return ""
}

func TestRationalExpansions(t *testing.T) {
	cases := []struct {
		num, den int64
		want     []int64
	}{
		{123, 456, []int64{0, 3, 1, 2, 2, 2, 2}},
		{124, 455, []int64{0, 3, 1, 2, 41}},
		{-7, 3, []int64{-3, 1, 2}},
		{7, 3, []int64{2, 3}},
		{5, 1, []int64{5}},
		{0, 1, []int64{0}},
		{1, 2, []int64{0, 2}},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d/%d", c.num, c.den), func(t *testing.T) {
			assert.Equal(t, c.want, digits(t, ratCF(c.num, c.den), 100))
			assert.Equal(t, c.want, digits(t, lazy(c.num, c.den), 100))
		})
	}
}

func TestSumOfRationals(t *testing.T) {
	want := []int64{0, 1, 1, 5, 2, 2, 2, 4, 5, 1, 1, 2, 1, 2}
	x, y := ratCF(123, 456), ratCF(124, 455)
	assert.Equal(t, want, digits(t, cf.Add(x, y), 100))
	assert.Equal(t, want, digits(t, cf.Bihomographic(cf.AddTensor, x, y), 100))
	assert.Equal(t, want, digits(t, cf.Add(lazy(123, 456), lazy(124, 455)), 100))
	assert.Equal(t, want[:9], digits(t, cf.Add(x, y), 9))
}

func TestEngineArithmeticMatchesExact(t *testing.T) {
	values := [][2]int64{{-7, 3}, {-1, 2}, {0, 1}, {1, 3}, {5, 4}, {22, 7}, {-41, 12}, {3, 1}}
	ops := []struct {
		name  string
		apply func(x, y cf.Fraction) cf.Fraction
		exact func(x, y *big.Rat) *big.Rat
	}{
		{"add", cf.Add, func(x, y *big.Rat) *big.Rat { return new(big.Rat).Add(x, y) }},
		{"sub", cf.Sub, func(x, y *big.Rat) *big.Rat { return new(big.Rat).Sub(x, y) }},
		{"mul", cf.Mul, func(x, y *big.Rat) *big.Rat { return new(big.Rat).Mul(x, y) }},
		{"div", cf.Div, func(x, y *big.Rat) *big.Rat {
			if y.Sign() == 0 {
				return nil
			}
			return new(big.Rat).Quo(x, y)
		}},
	}
	for _, op := range ops {
		for _, a := range values {
			for _, b := range values {
				name := fmt.Sprintf("%s(%d/%d,%d/%d)", op.name, a[0], a[1], b[0], b[1])
				t.Run(name, func(t *testing.T) {
					want := op.exact(big.NewRat(a[0], a[1]), big.NewRat(b[0], b[1]))
					for _, x := range []cf.Fraction{
						op.apply(lazy(a[0], a[1]), lazy(b[0], b[1])),
						op.apply(ratCF(a[0], a[1]), lazy(b[0], b[1])),
						op.apply(lazy(a[0], a[1]), ratCF(b[0], b[1])),
					} {
						if want == nil {
							// 0/0 may surface as indeterminate instead
							class := failureOf(t, x)
							if a[0] == 0 {
								assert.Contains(t, []cferr.FailureClass{cferr.DivideByZero, cferr.Domain}, class)
							} else {
								assert.Equal(t, cferr.DivideByZero, class)
							}
							continue
						}
						assert.Equal(t, canonical(want), digits(t, x, 200), x.String())
					}
				})
			}
		}
	}
}

func TestDivideThenMultiplyRestores(t *testing.T) {
	x, y := lazy(-355, 113), lazy(17, 5)
	got := cf.Mul(cf.Div(x, y), y)
	assert.Equal(t, []int64{-4, 1, 6, 16}, digits(t, got, 100))
	assert.Equal(t, canonical(big.NewRat(-355, 113)), digits(t, got, 100))
}

func TestDivideByZeroExpansion(t *testing.T) {
	one, zero := cf.FromInt64(1), cf.FromInt64(0)
	_, err := cf.Div(one, zero).Quotients().Next()
	assert.Equal(t, cferr.DivideByZero, cferr.ClassOf(err))

	requireClass(t, cf.Div(one, zero), cferr.DivideByZero)
	requireClass(t, cf.Bihomographic(cf.DivTensor, one, zero), cferr.DivideByZero)
	requireClass(t, cf.Div(cf.E, zero), cferr.DivideByZero)
	requireClass(t, cf.Invert(zero), cferr.DivideByZero)
	requireClass(t, cf.Invert(lazy(0, 1)), cferr.DivideByZero)
	requireClass(t, cf.Homographic(cf.Matrix{U: 1}, cf.E), cferr.DivideByZero)
	requireClass(t, cf.Homographic(cf.Matrix{}, cf.E), cferr.Domain)
}

func TestConstants(t *testing.T) {
	assert.Equal(t, []int64{2, 1, 2, 1, 1, 4, 1, 1, 6, 1, 1, 8}, digits(t, cf.E, 12))
	assert.Equal(t, []int64{1, 1, 1, 1, 1}, digits(t, cf.Phi, 5))
	assert.Equal(t, []int64{1, 2, 2, 2, 2}, digits(t, cf.Sqrt2, 5))

	sqrtE, err := cf.ExpRadical(2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1, 1, 5, 1, 1, 9, 1, 1, 13}, digits(t, sqrtE, 11))

	e, err := cf.ExpRadical(1)
	require.NoError(t, err)
	assert.Same(t, cf.E, e)

	_, err = cf.ExpRadical(0)
	assert.Equal(t, cferr.Domain, cferr.ClassOf(err))
}

func TestSqrt(t *testing.T) {
	cases := []struct {
		n    int64
		want []int64
	}{
		{3, []int64{1, 1, 2, 1, 2, 1}},
		{2, []int64{1, 2, 2, 2, 2, 2}},
		{7, []int64{2, 1, 1, 1, 4, 1}},
		{16, []int64{4}},
		{0, []int64{0}},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.n), func(t *testing.T) {
			x, err := cf.Sqrt(big.NewInt(c.n))
			require.NoError(t, err)
			assert.Equal(t, c.want, digits(t, x, 6))
		})
	}
	_, err := cf.Sqrt(big.NewInt(-4))
	assert.Equal(t, cferr.Domain, cferr.ClassOf(err))
}

func TestSqrtLongPeriodIsLazy(t *testing.T) {
	// 10^18+3 has a period far too long to enumerate
	n, _ := new(big.Int).SetString("1000000000000000003", 10)
	x, err := cf.Sqrt(n)
	require.NoError(t, err)
	assert.Equal(t, "sqrt(1000000000000000003)", x.String())
	assert.Equal(t, []int64{1000000000, 666666666, 1, 2, 222222221, 1, 8, 74074073}, digits(t, x, 8))

	// the recurrence repeats once a reaches 2*a0
	y, err := cf.Sqrt(big.NewInt(13))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 1, 1, 1, 6, 1, 1, 1, 1, 6}, digits(t, y, 11))
}

func TestIrrationalArithmetic(t *testing.T) {
	assert.Equal(t, []int64{4, 7, 1, 1, 4, 1, 3, 2, 1, 3}, digits(t, cf.Add(cf.E, cf.Sqrt2), 10))
	assert.Equal(t, []int64{1, 9, 1, 39, 2, 4, 2, 1, 2, 2}, digits(t, cf.Sub(cf.E, cf.Phi), 10))
	assert.Equal(t, []int64{3, 1, 2, 1, 1, 4, 1, 1, 6, 1}, digits(t, cf.Add(cf.E, cf.FromInt64(1)), 10))
	assert.Equal(t, []int64{0, 2, 1, 1, 2, 1, 3, 1},
		digits(t, cf.Homographic(cf.Matrix{U: 1, V: 2, W: 3, Z: 4}, cf.E), 8))
}

func TestNegate(t *testing.T) {
	assert.Equal(t, []int64{-3, 3, 1, 1, 4, 1, 1, 6, 1, 1}, digits(t, cf.Negate(cf.E), 10))
	for _, v := range [][2]int64{{7, 3}, {-7, 3}, {5, 2}, {3, 2}, {4, 3}, {0, 1}, {-9, 1}, {123, 456}, {-1, 5}} {
		t.Run(fmt.Sprintf("%d/%d", v[0], v[1]), func(t *testing.T) {
			want := canonical(big.NewRat(-v[0], v[1]))
			assert.Equal(t, want, digits(t, cf.Negate(lazy(v[0], v[1])), 100))
			assert.Equal(t, want, digits(t, cf.Negate(ratCF(v[0], v[1])), 100))
		})
	}
}

func TestInvert(t *testing.T) {
	assert.Equal(t, []int64{0, 2, 1, 2, 1, 1, 4, 1, 1, 6}, digits(t, cf.Invert(cf.E), 10))
	assert.Equal(t, []int64{-1, 1, 1, 1, 2, 1, 1, 4}, digits(t, cf.Invert(cf.Negate(cf.E)), 8))
	for _, v := range [][2]int64{{7, 3}, {-7, 3}, {1, 1}, {-1, 1}, {3, 7}, {-3, 7}, {1, 5}, {-2, 1}} {
		t.Run(fmt.Sprintf("%d/%d", v[0], v[1]), func(t *testing.T) {
			want := canonical(big.NewRat(v[1], v[0]))
			assert.Equal(t, want, digits(t, cf.Invert(lazy(v[0], v[1])), 100))
		})
	}
}

func TestDualsAreMemoised(t *testing.T) {
	n := cf.Negate(cf.E)
	assert.Same(t, n, cf.Negate(cf.E))
	assert.Same(t, cf.E, cf.Negate(n))

	i := cf.Invert(cf.Sqrt2)
	assert.Same(t, cf.Sqrt2, cf.Invert(i))

	x := ratCF(3, 4)
	assert.Same(t, x, cf.Negate(cf.Negate(x)))
	assert.Equal(t, "4/3", cf.Invert(x).String())
}

func TestPow(t *testing.T) {
	assert.Equal(t, []int64{7, 2, 1, 1, 3, 18, 5, 1, 1, 6}, digits(t, cf.Pow(cf.E, 2), 10))
	assert.Equal(t, []int64{7, 2, 1, 1, 3, 18, 5, 1, 1, 6}, digits(t, cf.Square(cf.E), 10))
	assert.Equal(t, []int64{20, 11, 1, 2, 4, 3, 1, 5, 1, 2}, digits(t, cf.Pow(cf.E, 3), 10))
	assert.Equal(t, []int64{1}, digits(t, cf.Pow(cf.E, 0), 10))
	assert.Equal(t, []int64{0, 2, 1, 2, 1, 1, 4, 1, 1, 6}, digits(t, cf.Pow(cf.E, -1), 10))

	// rational powers are exact
	assert.Equal(t, "8/27", cf.Pow(ratCF(2, 3), 3).String())
	assert.Equal(t, "9/4", cf.Pow(ratCF(2, 3), -2).String())
	assert.Equal(t, canonical(big.NewRat(-8, 27)), digits(t, cf.Pow(lazy(-2, 3), 3), 100))
	assert.Equal(t, canonical(big.NewRat(81, 16)), digits(t, cf.Pow(lazy(-2, 3), -4), 100))

	requireClass(t, cf.Pow(cf.FromInt64(0), 0), cferr.Domain)
	requireClass(t, cf.Pow(cf.FromInt64(0), -2), cferr.Domain)
	requireClass(t, cf.Pow(lazy(0, 1), -1), cferr.Domain)
	requireClass(t, cf.Pow(lazy(0, 1), 0), cferr.Domain)
}

func TestShare(t *testing.T) {
	want := digits(t, cf.E, 40)
	read := func(pq cf.PartialQuotients, n int) []int64 {
		var out []int64
		for i := 0; i < n; i++ {
			require.True(t, pq.HasNext())
			q, err := pq.Next()
			require.NoError(t, err)
			out = append(out, q.Int64())
		}
		return out
	}

	t.Run("lockstep", func(t *testing.T) {
		a, b := cf.Share(cf.E, 2)
		var ga, gb []int64
		for i := 0; i < 40; i++ {
			ga = append(ga, read(a, 1)...)
			gb = append(gb, read(b, 1)...)
		}
		assert.Equal(t, want, ga)
		assert.Equal(t, want, gb)
	})

	t.Run("lagging reader detaches", func(t *testing.T) {
		a, b := cf.Share(cf.E, 3)
		ga := read(a, 25)
		gb := read(b, 40)
		ga = append(ga, read(a, 15)...)
		assert.Equal(t, want, ga)
		assert.Equal(t, want, gb)
		assert.Equal(t, 39, a.Index())
	})

	t.Run("finite", func(t *testing.T) {
		a, b := cf.Share(lazy(123, 456), 1)
		assert.Equal(t, []int64{0, 3, 1, 2, 2, 2, 2}, read(b, 7))
		assert.Equal(t, []int64{0, 3, 1, 2, 2, 2, 2}, read(a, 7))
		assert.False(t, a.HasNext())
		assert.False(t, b.HasNext())
	})
}

func TestPeriodic(t *testing.T) {
	x, err := cf.NewPeriodic(bigs(1), bigs(2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 2, 2}, digits(t, x, 4))
	assert.Equal(t, "[1; (2)]", x.String())

	x, err = cf.NewPeriodic(nil, bigs(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 1, 2, 1}, digits(t, x, 5))
	assert.Equal(t, "[(1, 2)]", x.String())

	x, err = cf.NewPeriodic(bigs(0, 3, 2), nil)
	require.NoError(t, err)
	r, ok := cf.RatOf(x)
	require.True(t, ok)
	assert.Equal(t, "2/7", r.String())

	for _, bad := range []struct{ start, period []*big.Int }{
		{bigs(0, 3, 1), nil},
		{bigs(1, 0), nil},
		{bigs(1), bigs(2, -1)},
		{nil, bigs(0)},
		{nil, nil},
	} {
		_, err := cf.NewPeriodic(bad.start, bad.period)
		assert.Equal(t, cferr.Domain, cferr.ClassOf(err), "%v %v", bad.start, bad.period)
	}

	f, err := cf.Finite(bigs(0, 3, 1)...)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 4}, digits(t, f, 10))
}

func TestChain(t *testing.T) {
	x, err := cf.Chain(bigs(1, 2), cf.FromInt64(3))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, digits(t, x, 10))

	x, err = cf.Chain(bigs(1, 2), cf.FromInt64(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, digits(t, x, 10))

	x, err = cf.Chain(bigs(-1), cf.Sqrt2)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1, 1, 2, 2, 2}, digits(t, x, 5))

	x, err = cf.Chain(bigs(1), cf.FromInt64(-2))
	require.NoError(t, err)
	requireClass(t, x, cferr.Domain)

	_, err = cf.Chain(bigs(1, 0), cf.E)
	assert.Equal(t, cferr.Domain, cferr.ClassOf(err))
}

func TestNonNegative(t *testing.T) {
	assert.Equal(t, []int64{2, 1, 2}, digits(t, cf.NonNegative(cf.E), 3))
	requireClass(t, cf.NonNegative(cf.Negate(cf.E)), cferr.Domain)
	requireClass(t, cf.NonNegative(ratCF(-1, 2)), cferr.Domain)
}

func TestGeneratorContract(t *testing.T) {
	pq := cf.FromInt64(5).Quotients()
	assert.Equal(t, -1, pq.Index())
	assert.False(t, pq.Started())
	assert.True(t, pq.HasNext())
	assert.True(t, pq.HasNext())
	assert.Equal(t, -1, pq.Index())

	q, err := pq.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(5), q.Int64())
	assert.Equal(t, 0, pq.Index())
	assert.True(t, pq.Started())

	assert.False(t, pq.HasNext())
	_, err = pq.Next()
	assert.Equal(t, cferr.StateMisuse, cferr.ClassOf(err))
}

func TestConvergents(t *testing.T) {
	value := big.NewRat(123456, 7891)
	it := cf.Convergents(cf.FromRat(rational.FromBigRat(value)).Quotients())
	var last *rational.Rat
	for it.HasNext() {
		c, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(1), new(big.Int).GCD(nil, nil, new(big.Int).Abs(c.Num()), c.Den()).Int64())

		// |p/q - v| < 1/q^2
		diff := new(big.Rat).Sub(c.BigRat(), value)
		diff.Abs(diff)
		q2 := new(big.Int).Mul(c.Den(), c.Den())
		assert.Equal(t, -1, diff.Cmp(new(big.Rat).SetFrac(big.NewInt(1), q2)), "convergent %s", c)
		last = c
	}
	require.NotNil(t, last)
	assert.Equal(t, 0, last.BigRat().Cmp(value))
}

func TestConvergentsOfE(t *testing.T) {
	it := cf.Convergents(cf.E.Quotients())
	var got []string
	for i := 0; i < 6; i++ {
		c, err := it.Next()
		require.NoError(t, err)
		got = append(got, c.String())
	}
	assert.Equal(t, []string{"2/1", "3/1", "8/3", "11/4", "19/7", "87/32"}, got)
	assert.Equal(t, 5, it.Index())
}

func TestCompare(t *testing.T) {
	cases := []struct {
		name string
		x, y cf.Fraction
		want int
	}{
		{"e>sqrt2", cf.E, cf.Sqrt2, 1},
		{"sqrt2<e", cf.Sqrt2, cf.E, -1},
		{"e>2.718", cf.E, ratCF(2718, 1000), 1},
		{"e<2.7183", cf.E, ratCF(27183, 10000), -1},
		{"rationals", ratCF(355, 113), ratCF(22, 7), -1},
		{"prefix", lazy(1, 1), lazy(3, 2), -1},
		{"prefix odd", lazy(3, 2), lazy(7, 5), 1},
		{"equal", lazy(7, 5), lazy(14, 10), 0},
		{"negative", cf.Negate(cf.E), cf.Negate(cf.Phi), -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := cf.Compare(c.x, c.y, 50)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	_, err := cf.Compare(cf.E, cf.E, 20)
	assert.Equal(t, cferr.BoundExceeded, cferr.ClassOf(err))
}

func TestBuffer(t *testing.T) {
	b := cf.NewBuffer(cf.E.Quotients())
	q, ok, err := b.At(5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), q.Int64())
	assert.Equal(t, 6, b.Len())
	assert.False(t, b.Complete())

	r := b.Reader(0)
	var got []int64
	for i := 0; i < 8; i++ {
		q, err := r.Next()
		require.NoError(t, err)
		got = append(got, q.Int64())
	}
	assert.Equal(t, []int64{2, 1, 2, 1, 1, 4, 1, 1}, got)

	f := cf.NewBuffer(ratCF(7, 3).Quotients())
	_, ok, err = f.At(2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.Complete())
	assert.Equal(t, 2, f.Len())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "(e + sqrt2)", cf.Add(cf.E, cf.Sqrt2).String())
	assert.Equal(t, "(1/2 * e)", cf.Mul(ratCF(1, 2), cf.E).String())
	assert.Equal(t, "neg(e)", cf.Negate(cf.E).String())
	assert.Equal(t, "inv(phi)", cf.Invert(cf.Phi).String())
	assert.Equal(t, "sq(e)", cf.Square(cf.E).String())
	assert.Equal(t, "-5", cf.FromInt64(-5).String())
}

// readUntilError reads up to n digits and returns those read before the
// first error.
func readUntilError(pq cf.PartialQuotients, n int) ([]int64, error) {
	var out []int64
	for len(out) < n && pq.HasNext() {
		q, err := pq.Next()
		if err != nil {
			return out, err
		}
		out = append(out, q.Int64())
	}
	return out, nil
}

func TestEngineInputLimit(t *testing.T) {
	// rational values of irrational operands never settle a digit
	for name, x := range map[string]cf.Fraction{
		"mul":    cf.Mul(cf.Sqrt2, cf.Sqrt2),
		"square": cf.Square(cf.Sqrt2),
		"sub":    cf.Sub(cf.E, cf.E),
		"nested": cf.Add(cf.Square(cf.Sqrt2), ratCF(1, 3)),
		"inv":    cf.Invert(cf.Negate(cf.Mul(cf.Sqrt2, cf.Sqrt2))),
	} {
		t.Run(name, func(t *testing.T) {
			pq := cf.QuotientsWithin(x, 40)
			_, err := readUntilError(pq, 5)
			require.Error(t, err)
			assert.Equal(t, cferr.BoundExceeded, cferr.ClassOf(err))

			// sticky
			require.True(t, pq.HasNext())
			_, again := pq.Next()
			assert.Equal(t, err, again)
		})
	}

	// sqrt2 / 10^6 = [0; 707106, 1, ...] needs about ten digits of sqrt2
	// for its second digit
	x := cf.Homographic(cf.Matrix{U: 1, V: 0, W: 0, Z: 1000000}, cf.Sqrt2)
	got, err := readUntilError(cf.QuotientsWithin(x, 3), 3)
	assert.Equal(t, []int64{0}, got)
	assert.Equal(t, cferr.BoundExceeded, cferr.ClassOf(err))

	got, err = readUntilError(cf.QuotientsWithin(x, 50), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 707106, 1}, got)

	// a limit below 1 and plain Quotients use the default
	assert.Equal(t, []int64{0, 707106, 1}, digits(t, x, 3))
	got, err = readUntilError(cf.QuotientsWithin(x, 0), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 707106, 1}, got)
}
