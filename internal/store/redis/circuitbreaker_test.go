package redis

import (
	"errors"
	"testing"
	"time"
)

var errProbe = errors.New("probe failed")

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	if got := cb.CurrentState(); got != StateClosed {
		t.Errorf("CurrentState() = %v, want closed", got)
	}
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errProbe }); !errors.Is(err, errProbe) {
			t.Fatalf("Execute returned %v, want errProbe", err)
		}
	}
	if got := cb.CurrentState(); got != StateOpen {
		t.Fatalf("CurrentState() = %v, want open after 3 failures", got)
	}

	// While open, fn must not even run.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute returned %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn ran while the breaker was open")
	}
}

func TestCircuitBreaker_ProbeSuccessCloses(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errProbe })
	}
	if cb.CurrentState() != StateOpen {
		t.Fatal("breaker did not open")
	}

	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe Execute returned %v", err)
	}
	if got := cb.CurrentState(); got != StateClosed {
		t.Errorf("CurrentState() = %v, want closed after successful probe", got)
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errProbe })
	}

	time.Sleep(60 * time.Millisecond)
	cb.Execute(func() error { return errProbe })

	if got := cb.CurrentState(); got != StateOpen {
		t.Errorf("CurrentState() = %v, want open after failed probe", got)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	cb.Execute(func() error { return errProbe })
	cb.Execute(func() error { return errProbe })
	cb.Execute(func() error { return nil })

	// Two more failures stay under the threshold after the reset.
	cb.Execute(func() error { return errProbe })
	cb.Execute(func() error { return errProbe })

	if got := cb.CurrentState(); got != StateClosed {
		t.Errorf("CurrentState() = %v, want closed", got)
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker(1, 50*time.Millisecond)
	cb.OnStateChange = func(from, to State) {
		transitions = append(transitions, to)
	}

	cb.Execute(func() error { return errProbe })
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("transitions = %v, want [open]", transitions)
	}

	time.Sleep(60 * time.Millisecond)
	cb.Execute(func() error { return nil })

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}
