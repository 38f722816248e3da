package indicator

import (
	"fmt"
	"math"
)

// Rolling is a fixed-capacity sliding window over a numeric series.
// Uses a preallocated circular buffer with a running sum: O(1) append and
// mean, O(W) population standard deviation on demand. The oldest value is
// evicted when a new one arrives at capacity.
type Rolling struct {
	capacity int
	buf      []float64 // preallocated circular buffer
	idx      int       // current write position
	count    int       // total values received
	sum      float64
}

// NewRolling creates a sliding window with the given capacity (W >= 1).
func NewRolling(capacity int) (*Rolling, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("rolling window: capacity must be >= 1, got %d", capacity)
	}
	return &Rolling{
		capacity: capacity,
		buf:      make([]float64, capacity),
	}, nil
}

// Push appends a value, evicting the oldest when at capacity.
func (r *Rolling) Push(v float64) {
	if r.count >= r.capacity {
		// Subtract the oldest value being overwritten
		r.sum -= r.buf[r.idx]
	}
	r.buf[r.idx] = v
	r.sum += v
	r.idx = (r.idx + 1) % r.capacity
	r.count++
}

// Ready returns true once the window has been filled at least once.
// It never reverts to false.
func (r *Rolling) Ready() bool {
	return r.count >= r.capacity
}

// Mean returns the arithmetic mean of the window contents.
// Returns 0 until Ready.
func (r *Rolling) Mean() float64 {
	if !r.Ready() {
		return 0
	}
	return r.sum / float64(r.capacity)
}

// StdDev returns the population standard deviation of the window contents
// (no Bessel correction, matching conventional band-indicator behavior).
// Returns 0 until Ready; an all-equal window yields exactly 0.
func (r *Rolling) StdDev() float64 {
	if !r.Ready() {
		return 0
	}
	mean := r.sum / float64(r.capacity)
	var ss float64
	for _, v := range r.buf {
		d := v - mean
		ss += d * d
	}
	variance := ss / float64(r.capacity)
	if variance < 0 {
		variance = 0 // float drift guard
	}
	return math.Sqrt(variance)
}

// Cap returns the window capacity W.
func (r *Rolling) Cap() int {
	return r.capacity
}
