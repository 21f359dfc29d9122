package cfexpr_test

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-substrate/exactcf/cf"
	"github.com/lattice-substrate/exactcf/cfexpr"
	"github.com/lattice-substrate/exactcf/cferr"
)

func take(t *testing.T, x cf.Fraction, n int) []int64 {
	t.Helper()
	qs, err := cf.Take(x, n)
	require.NoError(t, err)
	out := make([]int64, len(qs))
	for i, q := range qs {
		out[i] = q.Int64()
	}
	return out
}

func TestRationalExpressions(t *testing.T) {
	cases := map[string]string{
		"1/2 + 1/3":         "5/6",
		"123/456 + 124/455": new(big.Rat).Add(big.NewRat(123, 456), big.NewRat(124, 455)).String(),
		"2*3+4":             "10/1",
		"2*(3+4)":           "14/1",
		"10-4-3":            "3/1",
		"12/3/2":            "2/1",
		"2^-2":              "1/4",
		"(1/2)^3":           "1/8",
		"-2^2":              "-4/1",
		"--2":               "2/1",
		"1.25":              "5/4",
		"0.1 * 10":          "1/1",
		"[0; 2, 3]":         "3/7",
		"[-1; 1, 2]":        "-1/3",
		"[2, 1]":            "3/1",
		"[5]":               "5/1",
		"sqrt(16)":          "4/1",
		" \t3/7\n":          "3/7",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			x, err := cfexpr.Parse(in)
			require.NoError(t, err)
			r, ok := cf.RatOf(x)
			require.True(t, ok, "%s should fold to a rational", x)
			assert.Equal(t, want, r.BigRat().String())
		})
	}
}

func TestIrrationalExpressions(t *testing.T) {
	cases := []struct {
		in   string
		want []int64
	}{
		{"e", []int64{2, 1, 2, 1, 1, 4, 1, 1, 6, 1, 1, 8}},
		{"phi", []int64{1, 1, 1, 1, 1, 1}},
		{"[(1)]", []int64{1, 1, 1, 1, 1, 1}},
		{"[1; (2)]", []int64{1, 2, 2, 2, 2, 2}},
		{"sqrt(2)", []int64{1, 2, 2, 2, 2, 2}},
		{"sqrt(1000000000000000003)", []int64{1000000000, 666666666, 1, 2, 222222221, 1}},
		{"sqrt2", []int64{1, 2, 2, 2, 2, 2}},
		{"[1; 2, (3, 4)]", []int64{1, 2, 3, 4, 3, 4}},
		{"erad(2)", []int64{1, 1, 1, 1, 5, 1, 1, 9, 1, 1, 13}},
		{"inv(e)", []int64{0, 2, 1, 2, 1, 1, 4, 1, 1, 6}},
		{"1/e", []int64{0, 2, 1, 2, 1, 1, 4, 1, 1, 6}},
		{"neg(e)", []int64{-3, 3, 1, 1, 4, 1, 1, 6, 1, 1}},
		{"-e", []int64{-3, 3, 1, 1, 4, 1, 1, 6, 1, 1}},
		{"sq(e)", []int64{7, 2, 1, 1, 3, 18, 5, 1, 1, 6}},
		{"e^2", []int64{7, 2, 1, 1, 3, 18, 5, 1, 1, 6}},
		{"e^3", []int64{20, 11, 1, 2, 4, 3, 1, 5, 1, 2}},
		{"e + sqrt2", []int64{4, 7, 1, 1, 4, 1, 3, 2, 1, 3}},
		{"e - phi", []int64{1, 9, 1, 39, 2, 4, 2, 1, 2, 2}},
		{"e + 1", []int64{3, 1, 2, 1, 1, 4, 1, 1, 6, 1}},
		{"nonneg(e)", []int64{2, 1, 2, 1, 1, 4}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			x, err := cfexpr.Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, take(t, x, len(c.want)))
		})
	}
}

func TestEvaluationErrors(t *testing.T) {
	cases := map[string]cferr.FailureClass{
		"1/0":        cferr.DivideByZero,
		"nonneg(-e)": cferr.Domain,
		"0^0":        cferr.Domain,
		"1/[0]":      cferr.DivideByZero,
	}
	for in, class := range cases {
		t.Run(in, func(t *testing.T) {
			x, err := cfexpr.Parse(in)
			require.NoError(t, err)
			_, err = cf.Take(x, 5)
			assert.Equal(t, class, cferr.ClassOf(err), "%v", err)
		})
	}
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct {
		in     string
		class  cferr.FailureClass
		offset int
	}{
		{"", cferr.InvalidExpression, 0},
		{"   ", cferr.InvalidExpression, 3},
		{"1 +", cferr.InvalidExpression, 3},
		{"(1", cferr.InvalidExpression, 2},
		{"2 $", cferr.InvalidExpression, 2},
		{"foo", cferr.InvalidExpression, 0},
		{"1 + pi", cferr.InvalidExpression, 4},
		{"1.", cferr.InvalidExpression, 2},
		{"[]", cferr.InvalidExpression, 0},
		{"[1;]", cferr.InvalidExpression, 3},
		{"[1; 2, (3", cferr.InvalidExpression, 9},
		{"[1; (2), 3]", cferr.InvalidExpression, 7},
		{"[1; 0]", cferr.InvalidExpression, 0},
		{"[1; (2, 1)] + [2; (0)]", cferr.InvalidExpression, 14},
		{"sqrt(x)", cferr.InvalidExpression, 5},
		{"sqrt 2", cferr.InvalidExpression, 5},
		{"erad(0)", cferr.InvalidExpression, 5},
		{"e^", cferr.InvalidExpression, 2},
		{"e^x", cferr.InvalidExpression, 2},
		{"2^99999999999999999999", cferr.BoundExceeded, 2},
		{"2^70000", cferr.BoundExceeded, 2},
		{"2^4294967296", cferr.BoundExceeded, 2},
		{"2^-2147483649", cferr.BoundExceeded, 2},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			_, err := cfexpr.Parse(c.in)
			require.Error(t, err)
			var e *cferr.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, c.class, e.Class, "%v", err)
			assert.Equal(t, c.offset, e.Offset, "%v", err)
		})
	}
}

func TestLiteralErrorKeepsCause(t *testing.T) {
	_, err := cfexpr.Parse("[1; 0]")
	require.Error(t, err)
	assert.Equal(t, cferr.InvalidExpression, cferr.ClassOf(err))
	var e *cferr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, cferr.Domain, cferr.ClassOf(e.Cause))
}

func TestExponentErrorKeepsCause(t *testing.T) {
	for _, in := range []string{"2^99999999999999999999", "2^4294967296", "e^70000"} {
		_, err := cfexpr.Parse(in)
		var e *cferr.Error
		require.True(t, errors.As(err, &e), in)
		assert.Equal(t, cferr.BoundExceeded, e.Class, in)
		assert.Error(t, e.Cause, in)
	}
}

func TestLimits(t *testing.T) {
	deep := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)
	_, err := cfexpr.Parse(deep)
	assert.Equal(t, cferr.BoundExceeded, cferr.ClassOf(err))

	x, err := cfexpr.ParseWithOptions(deep, &cfexpr.Options{MaxDepth: 301})
	require.NoError(t, err)
	assert.Equal(t, "1", x.String())

	_, err = cfexpr.Parse(strings.Repeat("-", 257) + "1")
	assert.Equal(t, cferr.BoundExceeded, cferr.ClassOf(err))

	_, err = cfexpr.ParseWithOptions("1+1+1", &cfexpr.Options{MaxInputSize: 4})
	var e *cferr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, cferr.BoundExceeded, e.Class)
	assert.Equal(t, 0, e.Offset)
}

func TestStringReparses(t *testing.T) {
	for _, in := range []string{"e + sqrt2", "[1; 2, (3, 4)]", "-3/7", "(e * phi) / 2", "[(1, 2)]"} {
		t.Run(in, func(t *testing.T) {
			x := cfexpr.MustParse(in)
			y, err := cfexpr.Parse(x.String())
			require.NoError(t, err, x.String())
			assert.Equal(t, take(t, x, 8), take(t, y, 8))
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { cfexpr.MustParse("1 +") })
}
