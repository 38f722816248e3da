// Package ringbuf is a lock-free single-producer single-consumer ring over
// model.Observation. The drain loop is the only producer and the eval loop
// the only consumer, so plain atomic loads/stores suffice; cache-line
// padding keeps the two cursors off each other's lines.
package ringbuf

import (
	"sync/atomic"

	"volarbv1/internal/model"
)

const cacheLine = 64

// Ring is a lock-free SPSC ring of Observation values. The backing slice
// length is always a power of two so index masking replaces modulo.
type Ring struct {
	buf  []model.Observation
	mask uint64

	_pad0 [cacheLine]byte
	head  atomic.Uint64 // producer cursor
	_pad1 [cacheLine]byte
	tail  atomic.Uint64 // consumer cursor
	_pad2 [cacheLine]byte

	overflow atomic.Uint64
}

// New creates a ring. capacity rounds up to the next power of two, minimum 2.
func New(capacity int) *Ring {
	n := nextPow2(capacity)
	if n < 2 {
		n = 2
	}
	return &Ring{
		buf:  make([]model.Observation, n),
		mask: uint64(n - 1),
	}
}

// Push writes one observation without blocking. Returns false, leaving the
// ring untouched, when it is full.
func (r *Ring) Push(obs model.Observation) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= uint64(len(r.buf)) {
		r.overflow.Add(1)
		return false
	}
	r.buf[head&r.mask] = obs
	r.head.Store(head + 1)
	return true
}

// Pop reads the oldest observation without blocking. Returns false when the
// ring is empty.
func (r *Ring) Pop() (model.Observation, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail >= head {
		return model.Observation{}, false
	}
	obs := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return obs, true
}

// Len returns the number of buffered observations.
func (r *Ring) Len() int { return int(r.head.Load() - r.tail.Load()) }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Overflow returns how many pushes were rejected because the ring was full.
func (r *Ring) Overflow() uint64 { return r.overflow.Load() }

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
