package gateway

import "sync"

// replayEntry is one broadcast envelope retained for gap backfill.
type replayEntry struct {
	Seq  int64
	Data []byte // pre-built envelope JSON
}

// ReplayBuffer retains the last N envelopes broadcast on one channel so a
// client that detects a sequence gap can backfill without hitting Redis.
// Safe for concurrent use.
type ReplayBuffer struct {
	mu    sync.RWMutex
	ring  []replayEntry
	write int // next slot to overwrite
	full  bool
}

// NewReplayBuffer creates a buffer retaining `capacity` envelopes.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &ReplayBuffer{ring: make([]replayEntry, capacity)}
}

// Push retains one envelope, evicting the oldest when full. The data slice
// is copied; callers may reuse it.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.ring[rb.write] = replayEntry{Seq: seq, Data: cp}
	rb.write = (rb.write + 1) % len(rb.ring)
	if rb.write == 0 {
		rb.full = true
	}
}

// Range returns retained entries with seq in [fromSeq, toSeq], oldest first.
func (rb *ReplayBuffer) Range(fromSeq, toSeq int64) []replayEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var out []replayEntry
	n := rb.size()
	for i := 0; i < n; i++ {
		e := rb.ring[rb.slot(i)]
		if e.Seq >= fromSeq && e.Seq <= toSeq {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of envelopes currently retained.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size()
}

func (rb *ReplayBuffer) size() int {
	if rb.full {
		return len(rb.ring)
	}
	return rb.write
}

// slot maps a logical index (0 = oldest retained) to a ring position.
func (rb *ReplayBuffer) slot(logical int) int {
	if rb.full {
		return (rb.write + logical) % len(rb.ring)
	}
	return logical
}
