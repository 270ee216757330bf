// Package chart keeps the historical and live price data of a view and
// turns it into a render-ready chart model.
package chart

import "FinDesk/internal/model"

// DefaultLiveTailSize is the number of live points a view keeps.
const DefaultLiveTailSize = 30

// LiveTail is a bounded ring of the most recent live prices. Once full, each
// append evicts the oldest point.
type LiveTail struct {
	buf   []model.PricePoint
	start int
	size  int
}

// NewLiveTail creates a tail holding at most capacity points.
func NewLiveTail(capacity int) *LiveTail {
	if capacity <= 0 {
		capacity = DefaultLiveTailSize
	}
	return &LiveTail{buf: make([]model.PricePoint, capacity)}
}

// Append adds p and reports whether it was kept. Points older than the newest
// retained point are rejected.
func (t *LiveTail) Append(p model.PricePoint) bool {
	if last, ok := t.Last(); ok && p.Timestamp.Before(last.Timestamp) {
		return false
	}
	if t.size < len(t.buf) {
		t.buf[(t.start+t.size)%len(t.buf)] = p
		t.size++
		return true
	}
	t.buf[t.start] = p
	t.start = (t.start + 1) % len(t.buf)
	return true
}

// Last returns the newest point.
func (t *LiveTail) Last() (model.PricePoint, bool) {
	if t.size == 0 {
		return model.PricePoint{}, false
	}
	return t.buf[(t.start+t.size-1)%len(t.buf)], true
}

// Points returns the retained points oldest first.
func (t *LiveTail) Points() []model.PricePoint {
	out := make([]model.PricePoint, t.size)
	for i := 0; i < t.size; i++ {
		out[i] = t.buf[(t.start+i)%len(t.buf)]
	}
	return out
}

func (t *LiveTail) Len() int { return t.size }

func (t *LiveTail) Cap() int { return len(t.buf) }

// Reset drops every point.
func (t *LiveTail) Reset() {
	t.start, t.size = 0, 0
}
