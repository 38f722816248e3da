package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"volarbv1/internal/model"
)

func TestFanOut_BroadcastsToAll(t *testing.T) {
	fo := New(10)
	out1 := fo.Subscribe()
	out2 := fo.Subscribe()

	input := make(chan model.Observation, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fo.Run(ctx, input)

	input <- model.Observation{Symbol: "SPY", Price: 431.55, TS: time.Now()}

	for i, out := range []<-chan model.Observation{out1, out2} {
		select {
		case obs := <-out:
			if obs.Symbol != "SPY" || obs.Price != 431.55 {
				t.Errorf("out%d: got %+v", i+1, obs)
			}
		case <-time.After(time.Second):
			t.Fatalf("out%d: timed out waiting for observation", i+1)
		}
	}
}

func TestFanOut_SlowConsumerDropsNotBlocks(t *testing.T) {
	fo := New(1)
	var drops int32
	fo.OnDrop = func(idx int) { atomic.AddInt32(&drops, 1) }

	slow := fo.Subscribe() // capacity 1, never drained

	input := make(chan model.Observation, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fo.Run(ctx, input)

	for i := 0; i < 5; i++ {
		input <- model.Observation{Symbol: "SPY", Price: 100 + float64(i), TS: time.Now()}
	}

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&drops) < 4 {
		select {
		case <-deadline:
			t.Fatalf("expected 4 drops, got %d", atomic.LoadInt32(&drops))
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	// The one buffered observation is the first one.
	obs := <-slow
	if obs.Price != 100 {
		t.Errorf("buffered observation: got price %v, want 100", obs.Price)
	}
}

func TestFanOut_ClosesOutputsWhenInputCloses(t *testing.T) {
	fo := New(10)
	out := fo.Subscribe()

	input := make(chan model.Observation)
	go fo.Run(context.Background(), input)
	close(input)

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected closed channel, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("output channel was not closed")
	}
}
