package strategy

import (
	"reflect"
	"testing"

	"volarbv1/internal/indicator"
	"volarbv1/internal/model"
)

// smallParams keeps warm-up short: three observations make an instrument ready.
func smallParams() indicator.Params {
	return indicator.Params{
		BandPeriod:       3,
		BandWidth:        2,
		MomentumPeriod:   2,
		VolatilityPeriod: 3,
		TrendPeriod:      3,
	}
}

func newTestRegistry(t *testing.T, symbols ...string) *Registry {
	t.Helper()
	r, err := NewRegistry(DefaultConfig(), smallParams())
	if err != nil {
		t.Fatal(err)
	}
	for _, sym := range symbols {
		if err := r.Add(sym); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func obsFor(symbol string, price float64) model.Observation {
	return model.Observation{Symbol: symbol, Price: price, TS: testTS}
}

// warmTo feeds valid observations until the instrument is ready.
func warmTo(t *testing.T, r *Registry, symbol string, prices ...float64) {
	t.Helper()
	for _, p := range prices {
		if err := r.Warm(obsFor(symbol, p)); err != nil {
			t.Fatal(err)
		}
	}
	if !r.HasReadySignals(symbol) {
		t.Fatalf("%s should be ready after %d observations", symbol, len(prices))
	}
}

func TestRegistry_AddRemoveReAdd(t *testing.T) {
	r := newTestRegistry(t, "SPY")
	if !r.Has("SPY") || r.Len() != 1 {
		t.Fatal("SPY should be tracked after Add")
	}

	warmTo(t, r, "SPY", 100, 101, 102)

	// Adding an already-tracked instrument must not reset its state.
	if err := r.Add("SPY"); err != nil {
		t.Fatal(err)
	}
	if !r.HasReadySignals("SPY") {
		t.Error("duplicate Add reset live indicator state")
	}

	r.Remove("SPY")
	if r.Has("SPY") {
		t.Fatal("SPY should be gone after Remove")
	}
	r.Remove("SPY") // no-op

	// A re-added instrument starts cold: no decisions from stale history.
	if err := r.Add("SPY"); err != nil {
		t.Fatal(err)
	}
	if r.HasReadySignals("SPY") {
		t.Error("re-added instrument must start cold")
	}
}

func TestRegistry_AddEmptySymbol(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Add(""); err == nil {
		t.Error("expected error for empty symbol")
	}
}

func TestRegistry_InstrumentsSorted(t *testing.T) {
	r := newTestRegistry(t, "QQQ", "AAPL", "SPY")
	got := r.Instruments()
	want := []string{"AAPL", "QQQ", "SPY"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Instruments(): got %v, want %v", got, want)
	}
}

func TestRegistry_UnknownSymbol(t *testing.T) {
	r := newTestRegistry(t, "SPY")

	if _, err := r.OnObservation(obsFor("TSLA", 250), model.AccountSnapshot{}); err == nil {
		t.Error("OnObservation should fail for untracked symbol")
	}
	if err := r.Warm(obsFor("TSLA", 250)); err == nil {
		t.Error("Warm should fail for untracked symbol")
	}
	if r.HasReadySignals("TSLA") {
		t.Error("HasReadySignals should be false for untracked symbol")
	}
	if r.Set("TSLA") != nil {
		t.Error("Set should be nil for untracked symbol")
	}
}

func TestRegistry_WarmProducesNoDecision(t *testing.T) {
	r := newTestRegistry(t, "SPY")

	// Warm-up feeds indicators only; the first evaluated observation after
	// warm-up gets a real decision path, not a readiness no-op.
	warmTo(t, r, "SPY", 100, 101, 102)

	d, err := r.OnObservation(obsFor("SPY", 101.5), model.AccountSnapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Reason == "signals not ready" {
		t.Error("instrument warmed through Warm should evaluate for real")
	}
}

func TestRegistry_InvalidPriceSkipsEvaluation(t *testing.T) {
	r := newTestRegistry(t, "SPY")
	warmTo(t, r, "SPY", 100, 101, 102)
	before := r.Set("SPY").Bands.Middle()

	d, err := r.OnObservation(obsFor("SPY", -1), model.AccountSnapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != model.ActionNoOp || d.Reason != "skipped: invalid price" {
		t.Fatalf("invalid price: got %s (%q)", d.Action, d.Reason)
	}
	if got := r.Set("SPY").Bands.Middle(); got != before {
		t.Errorf("invalid price must not touch indicator state: middle band %v → %v", before, got)
	}
}

func TestRegistry_WarmSkipsInvalidPrices(t *testing.T) {
	r := newTestRegistry(t, "SPY")
	for _, p := range []float64{100, -5, 0, 101} {
		if err := r.Warm(obsFor("SPY", p)); err != nil {
			t.Fatal(err)
		}
	}
	// Only the two valid observations count; one more completes warm-up.
	if r.HasReadySignals("SPY") {
		t.Fatal("invalid prices must not count toward warm-up")
	}
	if err := r.Warm(obsFor("SPY", 102)); err != nil {
		t.Fatal(err)
	}
	if !r.HasReadySignals("SPY") {
		t.Error("three valid observations should complete warm-up")
	}
}

func TestRegistry_SnapshotRoundTrip(t *testing.T) {
	src := newTestRegistry(t, "SPY", "QQQ")
	warmTo(t, src, "SPY", 100, 101, 102)
	warmTo(t, src, "QQQ", 380, 381, 382)

	data, err := src.SnapshotJSON()
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestRegistry(t, "SPY", "QQQ")
	if err := dst.RestoreFromSnapshotJSON(data); err != nil {
		t.Fatal(err)
	}
	for _, sym := range []string{"SPY", "QQQ"} {
		if !dst.HasReadySignals(sym) {
			t.Errorf("%s should be ready after restore", sym)
		}
	}

	// Both registries must decide identically on the next observation.
	acct := model.AccountSnapshot{}
	want, err := src.OnObservation(obsFor("SPY", 101.5), acct)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dst.OnObservation(obsFor("SPY", 101.5), acct)
	if err != nil {
		t.Fatal(err)
	}
	if got.Action != want.Action || got.Reason != want.Reason {
		t.Errorf("restored registry diverged: got %s (%q), want %s (%q)",
			got.Action, got.Reason, want.Action, want.Reason)
	}
}

func TestRegistry_RestoreToleratesUniverseChanges(t *testing.T) {
	src := newTestRegistry(t, "SPY", "QQQ")
	warmTo(t, src, "SPY", 100, 101, 102)
	warmTo(t, src, "QQQ", 380, 381, 382)
	data, err := src.SnapshotJSON()
	if err != nil {
		t.Fatal(err)
	}

	// QQQ was delisted, TSLA is new: SPY restores, QQQ's entry is ignored,
	// TSLA stays cold.
	dst := newTestRegistry(t, "SPY", "TSLA")
	if err := dst.RestoreFromSnapshotJSON(data); err != nil {
		t.Fatal(err)
	}
	if !dst.HasReadySignals("SPY") {
		t.Error("SPY should be restored")
	}
	if dst.HasReadySignals("TSLA") {
		t.Error("TSLA should stay cold")
	}
}

func TestRegistry_RestoreEmptyAndBadData(t *testing.T) {
	r := newTestRegistry(t, "SPY")
	if err := r.RestoreFromSnapshotJSON(nil); err != nil {
		t.Errorf("empty snapshot should be a clean no-op: %v", err)
	}
	if err := r.RestoreFromSnapshotJSON([]byte("{not json")); err == nil {
		t.Error("corrupt snapshot should fail loudly")
	}
}

func TestNewRegistry_RejectsBadParams(t *testing.T) {
	if _, err := NewRegistry(Config{}, smallParams()); err == nil {
		t.Error("zero engine config should fail validation")
	}
	if _, err := NewRegistry(DefaultConfig(), indicator.Params{}); err == nil {
		t.Error("zero indicator params should fail validation")
	}
}
