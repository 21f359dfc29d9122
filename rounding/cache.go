package rounding

import (
	"math"
	"math/big"

	"github.com/lattice-substrate/exactcf/ieee"
)

// cell is one write-once slot of the table. Float kinds use f (a float32
// result is stored widened, which is exact); integral kinds use i, already
// saturated to the kind's range.
type cell struct {
	set bool
	f   float64
	i   *big.Int
}

func (c cell) same(d cell) bool {
	if c.i != nil || d.i != nil {
		return c.i != nil && d.i != nil && c.i.Cmp(d.i) == 0
	}
	return math.Float64bits(c.f) == math.Float64bits(d.f)
}

// table caches results by mode and kind.
type table [len(modeNames)][numKinds]cell

func (t *table) get(m Mode, k Kind) (cell, bool) {
	c := t[m][k]
	return c, c.set
}

func (t *table) put(m Mode, k Kind, c cell) {
	if !t[m][k].set {
		c.set = true
		t[m][k] = c
	}
}

func (t *table) putAll(k Kind, c cell) {
	for _, m := range Modes {
		t.put(m, k, c)
	}
}

// recordInt stores the integer n, the mode-m rounding of the source before
// saturation, and everything it implies. exact means the source equals n.
func (t *table) recordInt(m Mode, n *big.Int, exact bool) {
	for _, k := range Kinds[Int64:] {
		s := cell{i: saturate(n, k)}
		if exact {
			t.putAll(k, s)
		} else {
			t.put(m, k, s)
		}
		r := ranges[k]
		if r == nil {
			continue
		}
		// a bound reached in one direction pins the directions that can
		// only move further out
		switch m {
		case Floor:
			if n.Cmp(r.max) >= 0 {
				t.putAll(k, cell{i: r.max})
			}
		case Ceiling:
			if n.Cmp(r.min) <= 0 {
				t.putAll(k, cell{i: r.min})
			}
		case Nearest:
			if n.Cmp(r.max) >= 0 {
				t.put(Ceiling, k, cell{i: r.max})
			}
			if n.Cmp(r.min) <= 0 {
				t.put(Floor, k, cell{i: r.min})
			}
		}
	}
	if exact {
		lo, hi := ieee.IntervalOfInt(n)
		t.put(Floor, Float64, cell{f: lo})
		t.put(Ceiling, Float64, cell{f: hi})
		if lo == hi {
			t.recordExactFloat(lo)
		}
	}
	t.settle()
}

// recordFloat stores the mode-m rounding f of the source to kind k (Float64
// or Float32) and everything it implies.
func (t *table) recordFloat(m Mode, k Kind, f float64, exact bool) {
	if exact {
		t.recordExactFloat(f)
		if n, ok := integral(f); ok {
			t.recordInt(Floor, n, true)
		}
	} else {
		t.put(m, k, cell{f: f})
	}
	// a float bound beyond an integral range saturates that kind
	for _, k := range Kinds[Int64:BigInt] {
		r := ranges[k]
		edge, _ := ieee.Pow2(r.bits - 1)
		switch {
		case m == Floor && f >= edge:
			t.putAll(k, cell{i: r.max})
		case m == Ceiling && f <= -edge:
			t.putAll(k, cell{i: r.min})
		}
	}
	t.settle()
}

// recordExactFloat stores a source value that is exactly f in every float
// kind that can represent it.
func (t *table) recordExactFloat(f float64) {
	t.putAll(Float64, cell{f: f})
	if f32 := float32(f); float64(f32) == f {
		t.putAll(Float32, cell{f: f})
	}
}

// settle applies floor == ceiling => nearest.
func (t *table) settle() {
	for _, k := range Kinds {
		lo, hi := t[Floor][k], t[Ceiling][k]
		if lo.set && hi.set && lo.same(hi) {
			t.put(Nearest, k, lo)
		}
	}
}

// integral returns f as an integer if it is a finite whole number.
func integral(f float64) (*big.Int, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) || math.Trunc(f) != f {
		return nil, false
	}
	n, _ := big.NewFloat(f).Int(nil)
	return n, true
}
