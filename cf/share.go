package cf

import "math/big"

// DefaultShareWindow is the replay window used by squaring nodes.
const DefaultShareWindow = 64

// shared is one physical generator of x read by two consumers. Digits
// between the slower and the faster reader are kept in a FIFO of at most
// window entries. A reader that falls out of the window detaches for good
// and re-derives x on its own.
type shared struct {
	x      Fraction
	src    PartialQuotients
	window int
	limit  int

	buf  []*big.Int // digits base .. base+len(buf)-1
	base int
	pos  [2]int
	solo [2]bool

	done bool
	err  error
}

// Share returns two independent generators over the digits of x that read
// one underlying generator as long as they stay within window digits of each
// other. A window below 1 means DefaultShareWindow.
func Share(x Fraction, window int) (PartialQuotients, PartialQuotients) {
	return shareWithin(x, window, DefaultInputLimit)
}

func shareWithin(x Fraction, window, limit int) (PartialQuotients, PartialQuotients) {
	if window < 1 {
		window = DefaultShareWindow
	}
	s := &shared{x: x, src: QuotientsWithin(x, limit), window: window, limit: limit}
	return newCursor(&shareReader{s: s, id: 0}), newCursor(&shareReader{s: s, id: 1})
}

type shareReader struct {
	s   *shared
	id  int
	own PartialQuotients
}

func (r *shareReader) step() (*big.Int, bool, error) {
	if r.own != nil {
		return pull(r.own)
	}
	s := r.s
	i := s.pos[r.id]
	if i < s.base {
		own, err := r.detach(i)
		if err != nil {
			return nil, false, err
		}
		r.own = own
		return pull(r.own)
	}
	for i >= s.base+len(s.buf) {
		if s.err != nil {
			return nil, false, s.err
		}
		if s.done {
			return nil, false, nil
		}
		q, ok, err := pull(s.src)
		switch {
		case err != nil:
			s.err = err
		case !ok:
			s.done = true
		default:
			s.buf = append(s.buf, q)
		}
	}
	q := s.buf[i-s.base]
	s.pos[r.id] = i + 1
	s.trim()
	return q, true, nil
}

// detach gives the reader its own generator of x, already advanced past the
// i digits the reader has consumed.
func (r *shareReader) detach(i int) (PartialQuotients, error) {
	r.s.solo[r.id] = true
	own := QuotientsWithin(r.s.x, r.s.limit)
	for k := 0; k < i; k++ {
		if _, err := first(own); err != nil {
			return nil, err
		}
	}
	return own, nil
}

// trim drops digits both attached readers have passed, then enforces the
// window on whatever is left.
func (s *shared) trim() {
	low := s.base + len(s.buf)
	for id, p := range s.pos {
		if !s.solo[id] && p < low {
			low = p
		}
	}
	if n := len(s.buf) - s.window; n > 0 && low-s.base < n {
		low = s.base + n
	}
	if drop := low - s.base; drop > 0 {
		s.buf = append(s.buf[:0:0], s.buf[drop:]...)
		s.base = low
	}
}
