package ringbuf

import (
	"sync"
	"testing"
	"time"

	"volarbv1/internal/model"
)

func TestRing_PushPopFIFO(t *testing.T) {
	r := New(4)

	if !r.Push(model.Observation{Symbol: "SPY", Price: 430}) {
		t.Fatal("first Push failed")
	}
	if !r.Push(model.Observation{Symbol: "QQQ", Price: 380}) {
		t.Fatal("second Push failed")
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	obs, ok := r.Pop()
	if !ok || obs.Symbol != "SPY" {
		t.Fatalf("first Pop = %q ok=%v, want SPY", obs.Symbol, ok)
	}
	obs, ok = r.Pop()
	if !ok || obs.Symbol != "QQQ" {
		t.Fatalf("second Pop = %q ok=%v, want QQQ", obs.Symbol, ok)
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("Pop on empty ring returned ok")
	}
}

func TestRing_FullPushRejectedAndCounted(t *testing.T) {
	r := New(2)
	r.Push(model.Observation{Symbol: "A"})
	r.Push(model.Observation{Symbol: "B"})

	if r.Push(model.Observation{Symbol: "C"}) {
		t.Fatal("Push on full ring returned true")
	}
	if r.Overflow() != 1 {
		t.Fatalf("Overflow() = %d, want 1", r.Overflow())
	}
	// The rejected value must not have clobbered anything.
	if obs, _ := r.Pop(); obs.Symbol != "A" {
		t.Fatalf("oldest after rejected push = %q, want A", obs.Symbol)
	}
}

func TestRing_CursorWraparound(t *testing.T) {
	r := New(4)
	for round := 0; round < 5; round++ {
		for i := 0; i < 4; i++ {
			if !r.Push(model.Observation{Symbol: "SPY", Price: float64(round*10 + i)}) {
				t.Fatalf("round %d: Push %d failed", round, i)
			}
		}
		for i := 0; i < 4; i++ {
			obs, ok := r.Pop()
			if !ok {
				t.Fatalf("round %d: Pop %d failed", round, i)
			}
			if obs.Price != float64(round*10+i) {
				t.Fatalf("round %d Pop %d: price = %v, want %d", round, i, obs.Price, round*10+i)
			}
		}
	}
}

func TestRing_ConcurrentProducerConsumer(t *testing.T) {
	const count = 100_000
	r := New(1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < count; i++ {
			for !r.Push(model.Observation{Price: float64(i)}) {
				// ring full, spin
			}
		}
	}()

	received := make([]float64, 0, count)
	go func() {
		defer wg.Done()
		for len(received) < count {
			if obs, ok := r.Pop(); ok {
				received = append(received, obs.Price)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("producer/consumer did not finish in time")
	}

	for i, v := range received {
		if v != float64(i) {
			t.Fatalf("received[%d] = %v, want %d (ordering broken)", i, v, i)
		}
	}
}

func TestNextPow2(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {8, 8}, {9, 16}, {1023, 1024},
	}
	for _, tc := range cases {
		if got := nextPow2(tc.in); got != tc.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
