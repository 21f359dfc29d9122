package cf

import (
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
)

// Tensor holds the coefficients of the bihomographic map
//
//	(U*x*y + V*x + W*y + Z) / (P*x*y + Q*x + R*y + S)
type Tensor struct {
	U, V, W, Z int64
	P, Q, R, S int64
}

// Tensors for the four arithmetic operations.
var (
	AddTensor = Tensor{0, 1, 1, 0, 0, 0, 0, 1}
	SubTensor = Tensor{0, 1, -1, 0, 0, 0, 0, 1}
	MulTensor = Tensor{1, 0, 0, 0, 0, 0, 0, 1}
	DivTensor = Tensor{0, 1, 0, 0, 0, 0, 1, 0}
)

func (t Tensor) big() tensor {
	return tensor{
		u: big.NewInt(t.U), v: big.NewInt(t.V), w: big.NewInt(t.W), z: big.NewInt(t.Z),
		p: big.NewInt(t.P), q: big.NewInt(t.Q), r: big.NewInt(t.R), s: big.NewInt(t.S),
	}
}

// tensor is the engine state over the complete quotients x', y' of the
// operands' unread tails. Its methods never modify the receiver.
type tensor struct {
	u, v, w, z *big.Int
	p, q, r, s *big.Int
}

// ingestX substitutes x' = a + 1/x''.
func (t tensor) ingestX(a *big.Int) tensor {
	return tensor{
		u: mulAdd(t.u, a, t.w), v: mulAdd(t.v, a, t.z), w: t.u, z: t.v,
		p: mulAdd(t.p, a, t.r), q: mulAdd(t.q, a, t.s), r: t.p, s: t.q,
	}
}

// ingestY substitutes y' = a + 1/y''.
func (t tensor) ingestY(a *big.Int) tensor {
	return tensor{
		u: mulAdd(t.u, a, t.v), v: t.u, w: mulAdd(t.w, a, t.z), z: t.w,
		p: mulAdd(t.p, a, t.q), q: t.p, r: mulAdd(t.r, a, t.s), s: t.r,
	}
}

// emit replaces f by 1/(f-d).
func (t tensor) emit(d *big.Int) tensor {
	return tensor{
		u: t.p, v: t.q, w: t.r, z: t.s,
		p: mulSub(t.u, t.p, d), q: mulSub(t.v, t.q, d), r: mulSub(t.w, t.r, d), s: mulSub(t.z, t.s, d),
	}
}

// decide returns the next output digit if the four corners of the box
// x', y' in [1, inf] agree on it.
func (t tensor) decide() (*big.Int, bool) {
	pq := new(big.Int).Add(t.p, t.q)
	pr := new(big.Int).Add(t.p, t.r)
	pqrs := new(big.Int).Add(pq, t.r)
	pqrs.Add(pqrs, t.s)
	if !sameSign(t.p, pq, pr, pqrs) {
		return nil, false
	}
	uv := new(big.Int).Add(t.u, t.v)
	uw := new(big.Int).Add(t.u, t.w)
	uvwz := new(big.Int).Add(uv, t.w)
	uvwz.Add(uvwz, t.z)
	d := floorDiv(t.u, t.p)
	if floorDiv(uv, pq).Cmp(d) != 0 || floorDiv(uw, pr).Cmp(d) != 0 || floorDiv(uvwz, pqrs).Cmp(d) != 0 {
		return nil, false
	}
	return d, true
}

func (t tensor) denominatorZero() bool {
	return t.p.Sign() == 0 && t.q.Sign() == 0 && t.r.Sign() == 0 && t.s.Sign() == 0
}

func (t tensor) numeratorZero() bool {
	return t.u.Sign() == 0 && t.v.Sign() == 0 && t.w.Sign() == 0 && t.z.Sign() == 0
}

// xExhausted is the map left once x' is infinite.
func (t tensor) xExhausted() matrix {
	return matrix{u: t.u, v: t.v, w: t.p, z: t.q}
}

// yExhausted is the map left once y' is infinite.
func (t tensor) yExhausted() matrix {
	return matrix{u: t.u, v: t.w, w: t.p, z: t.r}
}

// bihomographic is the two-operand engine. Operands are read alternately;
// when one ends the engine collapses into a homographic engine over the
// other.
type bihomographic struct {
	t       tensor
	x, y    PartialQuotients
	started bool
	readY   bool
	emitted int
	done    bool
	inner   *homographic
	limit   int
	reads   int
}

// newBihomographic starts an engine over x and y that reads at most limit
// operand digits per output digit.
func newBihomographic(t tensor, x, y PartialQuotients, limit int) *cursor {
	return newCursor(&bihomographic{t: t, x: x, y: y, limit: limit})
}

func (b *bihomographic) step() (*big.Int, bool, error) {
	if b.inner != nil {
		return b.inner.step()
	}
	if b.done {
		return nil, false, nil
	}
	if !b.started {
		b.started = true
		if err := b.begin(); err != nil {
			b.done = true
			return nil, false, err
		}
	}
	for {
		if d, ok := b.t.decide(); ok {
			b.t = b.t.emit(d)
			b.emitted++
			b.reads = 0
			if b.t.denominatorZero() {
				b.done = true
			}
			return d, true, nil
		}
		src, other := b.x, b.y
		if b.readY {
			src, other = b.y, b.x
		}
		if !src.HasNext() {
			m := b.t.xExhausted()
			if b.readY {
				m = b.t.yExhausted()
			}
			b.inner = newHomographicEngine(m, other, true, b.emitted, b.limit)
			return b.inner.step()
		}
		if b.reads >= b.limit {
			return nil, false, undecided(b.limit)
		}
		b.reads++
		a, err := src.Next()
		if err != nil {
			return nil, false, err
		}
		if b.readY {
			b.t = b.t.ingestY(a)
		} else {
			b.t = b.t.ingestX(a)
		}
		b.readY = !b.readY
	}
}

// begin ingests the leading digit of both operands, after which both
// complete quotients lie in (1, inf].
func (b *bihomographic) begin() error {
	if b.t.denominatorZero() {
		if b.t.numeratorZero() {
			return cferr.Newf(cferr.Domain, "indeterminate form 0/0")
		}
		return cferr.Newf(cferr.DivideByZero, "division by zero")
	}
	a, err := first(b.x)
	if err != nil {
		return err
	}
	b.t = b.t.ingestX(a)
	c, err := first(b.y)
	if err != nil {
		return err
	}
	b.t = b.t.ingestY(c)
	return nil
}
