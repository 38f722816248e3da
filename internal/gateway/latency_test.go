package gateway

import (
	"math"
	"testing"
)

func TestLatencyTracker_EmptyReturnsZeros(t *testing.T) {
	lt := NewLatencyTracker(100)
	if p50, p95, p99 := lt.Percentiles(); p50 != 0 || p95 != 0 || p99 != 0 {
		t.Errorf("Percentiles() on empty tracker = (%v, %v, %v), want zeros", p50, p95, p99)
	}
	if lt.Count() != 0 {
		t.Errorf("Count() = %d, want 0", lt.Count())
	}
}

func TestLatencyTracker_SingleSample(t *testing.T) {
	lt := NewLatencyTracker(100)
	lt.Record(42.5)

	p50, p95, p99 := lt.Percentiles()
	for name, got := range map[string]float64{"p50": p50, "p95": p95, "p99": p99} {
		if got != 42.5 {
			t.Errorf("%s = %v, want 42.5", name, got)
		}
	}
}

func TestLatencyTracker_Percentiles(t *testing.T) {
	lt := NewLatencyTracker(10000)
	for i := 1; i <= 100; i++ {
		lt.Record(float64(i))
	}

	p50, p95, p99 := lt.Percentiles()
	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"p50", p50, 50.5},
		{"p95", p95, 95.05},
		{"p99", p99, 99.01},
	}
	for _, c := range cases {
		if math.Abs(c.got-c.want) > 1.0 {
			t.Errorf("%s = %v, want ~%v", c.name, c.got, c.want)
		}
	}
}

func TestLatencyTracker_EvictsOldestWhenFull(t *testing.T) {
	lt := NewLatencyTracker(10)
	for i := 1; i <= 20; i++ {
		lt.Record(float64(i))
	}

	if lt.Count() != 10 {
		t.Fatalf("Count() = %d, want 10", lt.Count())
	}

	// Samples 1..10 were evicted; the median of 11..20 is 15.5.
	p50, _, _ := lt.Percentiles()
	if math.Abs(p50-15.5) > 1.0 {
		t.Errorf("p50 after eviction = %v, want ~15.5", p50)
	}
}

func TestLatencyTracker_CountGrowsToCapacity(t *testing.T) {
	lt := NewLatencyTracker(100)
	for i := 0; i < 5; i++ {
		lt.Record(float64(i))
	}
	if lt.Count() != 5 {
		t.Errorf("Count() = %d, want 5", lt.Count())
	}
}
