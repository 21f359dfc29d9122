// Package report renders evaluation results as RFC 8785 canonical JSON or
// as aligned text.
//
// JSON output is produced with encoding/json and then canonicalized, so the
// bytes for a given result are always identical. Integers of any size are
// emitted as strings; finite doubles are emitted as numbers in their
// ECMAScript shortest form.
package report

import (
	"encoding/json"
	"fmt"
	"math"

	jcs "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/lattice-substrate/exactcf/cf"
	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rounding"
)

// Float is a double that serializes as an ECMAScript number. Values JSON
// cannot carry are strings: "Infinity", "-Infinity" and "-0".
type Float float64

// String formats f the way MarshalJSON does, without quotes.
func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	case v == 0 && math.Signbit(v):
		return "-0"
	}
	s, err := jcs.NumberToJSON(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) || (v == 0 && math.Signbit(v)) {
		return json.Marshal(f.String())
	}
	s, err := jcs.NumberToJSON(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Rounding holds the results of one mode for every kind.
type Rounding struct {
	Float64 Float  `json:"float64"`
	Float32 Float  `json:"float32"`
	Int64   string `json:"int64"`
	Int32   string `json:"int32"`
	Int16   string `json:"int16"`
	Int8    string `json:"int8"`
	BigInt  string `json:"bigint"`
}

// Evaluation is the full report for one expression.
type Evaluation struct {
	Expression  string              `json:"expression"`
	Value       string              `json:"value"`
	Exact       string              `json:"exact,omitempty"`
	Quotients   []string            `json:"quotients"`
	Complete    bool                `json:"complete"`
	Convergents []string            `json:"convergents"`
	Rounding    map[string]Rounding `json:"rounding"`
}

// Round is the result of one conversion.
type Round struct {
	Expression string `json:"expression"`
	Mode       string `json:"mode"`
	Kind       string `json:"kind"`
	Result     string `json:"result"`
	Exact      bool   `json:"exact"`
}

// Comparison is the result of comparing two expressions.
type Comparison struct {
	Left     string `json:"left"`
	Right    string `json:"right"`
	Order    int    `json:"order"`
	Relation string `json:"relation"`
}

// Listing is a prefix of the partial quotients or the convergents.
type Listing struct {
	Expression string   `json:"expression"`
	Of         string   `json:"of"`
	Items      []string `json:"items"`
	Complete   bool     `json:"complete"`
}

// Quotients lists the first n partial quotients of x.
func Quotients(expr string, x cf.Fraction, n int) (*Listing, error) {
	l, err := listQuotients(cf.NewBuffer(x.Quotients()), n)
	if err != nil {
		return nil, err
	}
	l.Expression = expr
	return l, nil
}

// Convergents lists the first n convergents of x.
func Convergents(expr string, x cf.Fraction, n int) (*Listing, error) {
	l, err := listConvergents(cf.NewBuffer(x.Quotients()), n)
	if err != nil {
		return nil, err
	}
	l.Expression = expr
	return l, nil
}

// listQuotients reads up to n digits from buf. Complete is set if the
// expansion has no more than n digits.
func listQuotients(buf *cf.Buffer, n int) (*Listing, error) {
	l := &Listing{Of: "quotients", Items: []string{}}
	for i := 0; ; i++ {
		q, ok, err := buf.At(i)
		if err != nil {
			return nil, err
		}
		if !ok {
			l.Complete = true
			return l, nil
		}
		if i == n {
			return l, nil
		}
		l.Items = append(l.Items, q.String())
	}
}

func listConvergents(buf *cf.Buffer, n int) (*Listing, error) {
	l := &Listing{Of: "convergents", Items: []string{}}
	it := cf.Convergents(buf.Reader(0))
	for i := 0; i < n && it.HasNext(); i++ {
		c, err := it.Next()
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, c.String())
	}
	l.Complete = !it.HasNext()
	return l, nil
}

// Options controls Evaluate.
type Options struct {
	// Terms is how many partial quotients and convergents are listed.
	Terms int
	// Rounding configures the conversions.
	Rounding *rounding.Options
}

const defaultTerms = 20

func (o *Options) terms() int {
	if o == nil || o.Terms <= 0 {
		return defaultTerms
	}
	return o.Terms
}

func (o *Options) rounding() *rounding.Options {
	if o == nil {
		return nil
	}
	return o.Rounding
}

// Evaluate expands x and rounds it under every mode and kind.
func Evaluate(expr string, x cf.Fraction, opts *Options) (*Evaluation, error) {
	n := opts.terms()
	ev := &Evaluation{
		Expression: expr,
		Value:      x.String(),
		Rounding:   make(map[string]Rounding, len(rounding.Modes)),
	}

	limit := 0
	if r := opts.rounding(); r != nil {
		limit = r.MaxTerms
	}
	buf := cf.NewBuffer(cf.QuotientsWithin(x, limit))
	qs, err := listQuotients(buf, n)
	if err != nil {
		return nil, err
	}
	cs, err := listConvergents(buf, n)
	if err != nil {
		return nil, err
	}
	ev.Quotients, ev.Complete, ev.Convergents = qs.Items, qs.Complete, cs.Items

	v := rounding.New(x, opts.rounding())
	for _, m := range rounding.Modes {
		r, err := roundAll(v, m)
		if err != nil {
			return nil, err
		}
		ev.Rounding[m.String()] = r
	}
	if r, ok := v.Exact(); ok {
		ev.Exact = r.String()
	}
	return ev, nil
}

func roundAll(v *rounding.Value, m rounding.Mode) (Rounding, error) {
	var r Rounding
	f64, err := v.Float64(m)
	if err != nil {
		return r, err
	}
	f32, err := v.Float32(m)
	if err != nil {
		return r, err
	}
	r.Float64, r.Float32 = Float(f64), Float(f32)
	for _, k := range rounding.Kinds[rounding.Int64:] {
		s, err := Result(v, m, k)
		if err != nil {
			return r, err
		}
		switch k {
		case rounding.Int64:
			r.Int64 = s
		case rounding.Int32:
			r.Int32 = s
		case rounding.Int16:
			r.Int16 = s
		case rounding.Int8:
			r.Int8 = s
		case rounding.BigInt:
			r.BigInt = s
		}
	}
	return r, nil
}

// Result converts v and formats the outcome as report text.
func Result(v *rounding.Value, m rounding.Mode, k rounding.Kind) (string, error) {
	switch k {
	case rounding.Float64:
		f, err := v.Float64(m)
		return Float(f).String(), err
	case rounding.Float32:
		f, err := v.Float32(m)
		return Float(f).String(), err
	case rounding.Int64:
		n, err := v.Int64(m)
		return fmt.Sprint(n), err
	case rounding.Int32:
		n, err := v.Int32(m)
		return fmt.Sprint(n), err
	case rounding.Int16:
		n, err := v.Int16(m)
		return fmt.Sprint(n), err
	case rounding.Int8:
		n, err := v.Int8(m)
		return fmt.Sprint(n), err
	case rounding.BigInt:
		n, err := v.BigInt(m)
		if err != nil {
			return "", err
		}
		return n.String(), nil
	}
	return "", cferr.Newf(cferr.Domain, "unknown kind %v", k)
}

// NewRound converts x once and reports whether the result is exact.
func NewRound(expr string, x cf.Fraction, m rounding.Mode, k rounding.Kind, opts *rounding.Options) (*Round, error) {
	v := rounding.New(x, opts)
	s, err := Result(v, m, k)
	if err != nil {
		return nil, err
	}
	exact, err := isExact(v, k)
	if err != nil {
		return nil, err
	}
	return &Round{Expression: expr, Mode: m.String(), Kind: k.String(), Result: s, Exact: exact}, nil
}

// isExact reports whether the value is representable in k.
func isExact(v *rounding.Value, k rounding.Kind) (bool, error) {
	if k.IsFloat() {
		lo, err := Result(v, rounding.Floor, k)
		if err != nil {
			return false, err
		}
		hi, err := Result(v, rounding.Ceiling, k)
		return err == nil && lo == hi, err
	}
	lo, err := v.BigInt(rounding.Floor)
	if err != nil {
		return false, err
	}
	hi, err := v.BigInt(rounding.Ceiling)
	if err != nil || lo.Cmp(hi) != 0 {
		return false, err
	}
	// a saturated result is not the value
	s, err := Result(v, rounding.Floor, k)
	return err == nil && s == lo.String(), err
}

// NewComparison reports the order of two values read to at most maxTerms
// partial quotients each.
func NewComparison(left, right string, x, y cf.Fraction, maxTerms int) (*Comparison, error) {
	c, err := cf.Compare(x, y, maxTerms)
	if err != nil {
		return nil, err
	}
	rel := "="
	switch {
	case c < 0:
		rel = "<"
	case c > 0:
		rel = ">"
	}
	return &Comparison{Left: left, Right: right, Order: c, Relation: rel}, nil
}

// Encode marshals v and canonicalizes the result.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, cferr.Wrap(cferr.InternalError, -1, "marshal report", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, cferr.Wrap(cferr.InternalError, -1, "canonicalize report", err)
	}
	return out, nil
}
