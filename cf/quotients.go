// Package cf implements lazily evaluated continued fractions.
//
// A Fraction is an immutable expression node. Its Quotients method builds a
// fresh, single-use PartialQuotients generator that yields the partial
// quotients a0, a1, a2, ... of the value a0 + 1/(a1 + 1/(a2 + ...)) one at a
// time. Arithmetic is performed digit by digit by the homographic (one
// operand) and bihomographic (two operand, Gosper) engines without ever
// materialising an infinite expansion.
//
// Expansions are canonical: every digit after the first is at least 1, the
// expansion is finite iff the value is rational, and the last digit of a
// finite expansion longer than one digit is at least 2.
//
// Generators are not safe for concurrent use. Fractions are.
package cf

import (
	"math/big"

	"github.com/lattice-substrate/exactcf/cferr"
)

// PartialQuotients is a single-use, forward-only generator of the partial
// quotients of one continued fraction.
type PartialQuotients interface {
	// HasNext reports whether Next will return a digit or an error. It may be
	// called any number of times; it computes at most one digit ahead.
	HasNext() bool

	// Next returns the next digit. The returned integer must not be
	// modified. Calling Next when HasNext is false is a STATE_MISUSE error.
	// Once Next has returned an error it keeps returning it and the generator
	// must be discarded.
	Next() (*big.Int, error)

	// Index is the position of the last digit returned by Next, or -1
	// before the first call.
	Index() int

	// Started reports whether Next has returned a digit.
	Started() bool
}

// stepper computes the digits behind a cursor. ok is false once the
// expansion has ended.
type stepper interface {
	step() (q *big.Int, ok bool, err error)
}

// cursor holds the bookkeeping shared by every generator: position, one
// digit of lookahead and the sticky error.
type cursor struct {
	src     stepper
	index   int
	started bool
	peeked  bool
	q       *big.Int
	ok      bool
	err     error
}

func newCursor(s stepper) *cursor {
	return &cursor{src: s, index: -1}
}

func (c *cursor) peek() {
	if c.peeked {
		return
	}
	c.peeked = true
	c.q, c.ok, c.err = c.src.step()
}

func (c *cursor) HasNext() bool {
	c.peek()
	return c.ok || c.err != nil
}

func (c *cursor) Next() (*big.Int, error) {
	c.peek()
	if c.err != nil {
		return nil, c.err
	}
	if !c.ok {
		return nil, cferr.Newf(cferr.StateMisuse, "next called after the last partial quotient (index %d)", c.index)
	}
	c.peeked = false
	c.started = true
	c.index++
	return c.q, nil
}

func (c *cursor) Index() int {
	return c.index
}

func (c *cursor) Started() bool {
	return c.started
}

// pull adapts a generator to the stepper protocol.
func pull(pq PartialQuotients) (*big.Int, bool, error) {
	if !pq.HasNext() {
		return nil, false, nil
	}
	q, err := pq.Next()
	if err != nil {
		return nil, false, err
	}
	return q, true, nil
}

// first returns the leading digit of a generator that has not started yet.
// Every value has at least one digit, so an empty generator is a misuse.
func first(pq PartialQuotients) (*big.Int, error) {
	if !pq.HasNext() {
		return nil, cferr.Newf(cferr.StateMisuse, "expansion has no leading partial quotient")
	}
	return pq.Next()
}

// DefaultInputLimit is how many operand digits an arithmetic engine may read
// between two output digits unless QuotientsWithin sets another limit.
const DefaultInputLimit = 10000

// limited is implemented by nodes whose generators run arithmetic engines.
type limited interface {
	quotientsWithin(limit int) PartialQuotients
}

// QuotientsWithin is x.Quotients() with every arithmetic engine in the tree
// allowed to read at most limit operand digits per output digit. Running
// out is a BOUND_EXCEEDED error, which is sticky like any other. A limit
// below 1 means DefaultInputLimit; Quotients itself uses DefaultInputLimit.
func QuotientsWithin(x Fraction, limit int) PartialQuotients {
	if limit < 1 {
		limit = DefaultInputLimit
	}
	if l, ok := x.(limited); ok {
		return l.quotientsWithin(limit)
	}
	return x.Quotients()
}

// Take returns up to n leading partial quotients of x, fewer if the
// expansion is shorter.
func Take(x Fraction, n int) ([]*big.Int, error) {
	pq := x.Quotients()
	var out []*big.Int
	for len(out) < n && pq.HasNext() {
		q, err := pq.Next()
		if err != nil {
			return out, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Buffer records the digits of a generator so they can be read again from
// any position.
type Buffer struct {
	src    PartialQuotients
	digits []*big.Int
	done   bool
	err    error
}

// NewBuffer returns a Buffer that reads src on demand.
func NewBuffer(src PartialQuotients) *Buffer {
	return &Buffer{src: src}
}

// At returns digit i, reading the source as far as needed. ok is false if
// the expansion has fewer than i+1 digits.
func (b *Buffer) At(i int) (q *big.Int, ok bool, err error) {
	for i >= len(b.digits) {
		if b.err != nil {
			return nil, false, b.err
		}
		if b.done {
			return nil, false, nil
		}
		q, ok, err := pull(b.src)
		switch {
		case err != nil:
			b.err = err
		case !ok:
			b.done = true
		default:
			b.digits = append(b.digits, q)
		}
	}
	return b.digits[i], true, nil
}

// Len returns the number of digits read so far.
func (b *Buffer) Len() int {
	return len(b.digits)
}

// Complete reports whether the source has been read to its end, in which
// case Len is the length of the whole expansion.
func (b *Buffer) Complete() bool {
	return b.done
}

// Reader returns a new generator that replays the buffer from index from
// and continues reading the source past what has been recorded.
func (b *Buffer) Reader(from int) PartialQuotients {
	return newCursor(&bufferReader{b: b, i: from})
}

type bufferReader struct {
	b *Buffer
	i int
}

func (r *bufferReader) step() (*big.Int, bool, error) {
	q, ok, err := r.b.At(r.i)
	if ok {
		r.i++
	}
	return q, ok, err
}
