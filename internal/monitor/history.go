package monitor

import "sysbar/internal/models"

// Ring is a fixed-capacity FIFO of metric points with O(1) append-and-evict.
type Ring struct {
	buf  []models.MetricPoint
	head int
	n    int
}

// NewRing creates a ring holding at most capacity points.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]models.MetricPoint, capacity)}
}

// Push appends a point, evicting the oldest when full.
func (r *Ring) Push(p models.MetricPoint) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = p
		r.n++
		return
	}
	r.buf[r.head] = p
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of stored points.
func (r *Ring) Len() int {
	return r.n
}

// Points returns the stored points oldest-first as a fresh slice.
func (r *Ring) Points() []models.MetricPoint {
	out := make([]models.MetricPoint, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
