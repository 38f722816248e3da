package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"volarbv1/internal/model"
)

// BufferedWriter wraps a Redis Writer with a circuit breaker.
// During circuit-open state, decisions are buffered locally and flushed
// when the circuit closes again.
type BufferedWriter struct {
	writer *Writer
	cb     *CircuitBreaker
	ctx    context.Context

	mu     sync.Mutex
	buffer [][]byte // JSON-encoded decisions pending replay
	maxBuf int      // max buffered decisions before dropping oldest (default: 10000)

	// Callbacks
	OnBuffer func()          // called when a decision is buffered (for metrics)
	OnFlush  func(count int) // called after flushing buffered decisions
}

// NewBufferedWriter creates a BufferedWriter wrapping the given Writer.
func NewBufferedWriter(ctx context.Context, w *Writer, cb *CircuitBreaker, maxBufferSize int) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bw := &BufferedWriter{
		writer: w,
		cb:     cb,
		ctx:    ctx,
		buffer: make([][]byte, 0, 256),
		maxBuf: maxBufferSize,
	}

	// Register flush on circuit close
	prevCallback := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prevCallback != nil {
			prevCallback(from, to)
		}
		if to == StateClosed {
			go bw.flush()
		}
	}

	return bw
}

// PublishDecision publishes a decision through the circuit breaker.
// If the circuit is open, the decision is buffered locally.
func (bw *BufferedWriter) PublishDecision(d model.Decision) error {
	err := bw.cb.Execute(func() error {
		return bw.writer.Publish(bw.ctx, d)
	})
	if err == ErrCircuitOpen {
		bw.bufferDecision(d)
		return nil // buffered, not lost
	}
	return err
}

func (bw *BufferedWriter) bufferDecision(d model.Decision) {
	data, err := json.Marshal(d)
	if err != nil {
		log.Printf("[buffered-writer] marshal error: %v", err)
		return
	}

	bw.mu.Lock()
	defer bw.mu.Unlock()

	if len(bw.buffer) >= bw.maxBuf {
		// Buffer full — drop oldest
		bw.buffer = bw.buffer[1:]
	}
	bw.buffer = append(bw.buffer, data)

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// flush replays all buffered decisions through the underlying writer.
func (bw *BufferedWriter) flush() {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return
	}
	// Take ownership of the buffer
	toFlush := bw.buffer
	bw.buffer = make([][]byte, 0, 256)
	bw.mu.Unlock()

	flushed := 0
	for _, raw := range toFlush {
		var d model.Decision
		if json.Unmarshal(raw, &d) == nil {
			bw.writer.Publish(bw.ctx, d)
		}
		flushed++
	}

	log.Printf("[buffered-writer] flushed %d buffered decisions", flushed)
	if bw.OnFlush != nil {
		bw.OnFlush(flushed)
	}
}
