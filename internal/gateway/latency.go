package gateway

import (
	"math"
	"sort"
	"sync"
)

// LatencyTracker keeps the most recent latency samples in a fixed ring and
// reports p50/p95/p99 over them. Safe for concurrent use.
type LatencyTracker struct {
	mu   sync.Mutex
	ring []float64 // sample values in ms, overwritten oldest-first
	next int       // write cursor
	n    int       // samples held, up to len(ring)
}

// NewLatencyTracker creates a tracker holding the last `capacity` samples.
func NewLatencyTracker(capacity int) *LatencyTracker {
	if capacity <= 0 {
		capacity = 10000
	}
	return &LatencyTracker{ring: make([]float64, capacity)}
}

// Record adds one latency sample in milliseconds, evicting the oldest
// sample once the ring is full.
func (lt *LatencyTracker) Record(ms float64) {
	lt.mu.Lock()
	lt.ring[lt.next] = ms
	lt.next = (lt.next + 1) % len(lt.ring)
	if lt.n < len(lt.ring) {
		lt.n++
	}
	lt.mu.Unlock()
}

// Percentiles returns p50, p95, p99 in milliseconds, or zeros when no
// samples have been recorded yet.
func (lt *LatencyTracker) Percentiles() (p50, p95, p99 float64) {
	lt.mu.Lock()
	n := lt.n
	if n == 0 {
		lt.mu.Unlock()
		return 0, 0, 0
	}
	// Snapshot under the lock; the sort happens outside it.
	vals := make([]float64, n)
	if n == len(lt.ring) {
		copy(vals, lt.ring[lt.next:])
		copy(vals[len(lt.ring)-lt.next:], lt.ring[:lt.next])
	} else {
		copy(vals, lt.ring[:n])
	}
	lt.mu.Unlock()

	sort.Float64s(vals)
	return quantile(vals, 0.50), quantile(vals, 0.95), quantile(vals, 0.99)
}

// Count returns how many samples the tracker currently holds.
func (lt *LatencyTracker) Count() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.n
}

// quantile linearly interpolates the q-th quantile (0.0–1.0) of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch n {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	rank := q * float64(n-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
