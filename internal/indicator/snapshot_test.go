package indicator

import (
	"encoding/json"
	"testing"
)

func warmSet(t *testing.T, p Params, prices []float64) *Set {
	t.Helper()
	s, err := NewSet(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, price := range prices {
		s.Update(obs(price))
	}
	return s
}

func TestSetSnapshot_RoundTripStaysInSync(t *testing.T) {
	p := Params{BandPeriod: 3, BandWidth: 2, MomentumPeriod: 2, VolatilityPeriod: 3, TrendPeriod: 4}
	prices := []float64{100, 102, 101, 104, 103}

	original := warmSet(t, p, prices)
	snap := original.Snapshot("TEST")

	restoredSet, err := NewSet(p)
	if err != nil {
		t.Fatal(err)
	}
	restored, cold := restoredSet.RestoreFromSnapshot(snap)
	if restored != 4 || cold != 0 {
		t.Fatalf("expected 4 restored, 0 cold; got %d, %d", restored, cold)
	}

	// Both sets must now produce identical values for identical input.
	next := obs(105.5)
	original.Update(next)
	restoredSet.Update(next)

	assertClose(t, "middle", restoredSet.Bands.Middle(), original.Bands.Middle(), 1e-12)
	assertClose(t, "upper", restoredSet.Bands.Upper(), original.Bands.Upper(), 1e-12)
	assertClose(t, "lower", restoredSet.Bands.Lower(), original.Bands.Lower(), 1e-12)
	assertClose(t, "momentum", restoredSet.Momentum.Value(), original.Momentum.Value(), 1e-12)
	assertClose(t, "volatility", restoredSet.Volatility.Value(), original.Volatility.Value(), 1e-12)
	assertClose(t, "trend", restoredSet.Trend.Value(), original.Trend.Value(), 1e-12)

	if restoredSet.Ready() != original.Ready() {
		t.Error("readiness diverged after restore")
	}
}

func TestSetSnapshot_SurvivesJSON(t *testing.T) {
	p := Params{BandPeriod: 3, BandWidth: 2, MomentumPeriod: 2, VolatilityPeriod: 3, TrendPeriod: 3}
	original := warmSet(t, p, []float64{10, 11, 12, 13})

	data, err := json.Marshal(original.Snapshot("TEST"))
	if err != nil {
		t.Fatal(err)
	}

	var snap SetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}

	restoredSet, _ := NewSet(p)
	restored, cold := restoredSet.RestoreFromSnapshot(snap)
	if restored != 4 || cold != 0 {
		t.Fatalf("expected 4 restored, 0 cold; got %d, %d", restored, cold)
	}
	assertClose(t, "middle after JSON round-trip", restoredSet.Bands.Middle(), original.Bands.Middle(), 1e-12)
}

func TestSetSnapshot_PeriodMismatchLeavesIndicatorCold(t *testing.T) {
	p := Params{BandPeriod: 3, BandWidth: 2, MomentumPeriod: 2, VolatilityPeriod: 3, TrendPeriod: 3}
	original := warmSet(t, p, []float64{10, 11, 12, 13})
	snap := original.Snapshot("TEST")

	// Restore into a set with a different band period: bands stay cold,
	// the other indicators restore.
	other := Params{BandPeriod: 5, BandWidth: 2, MomentumPeriod: 2, VolatilityPeriod: 3, TrendPeriod: 3}
	restoredSet, _ := NewSet(other)
	restored, cold := restoredSet.RestoreFromSnapshot(snap)
	if restored != 3 || cold != 1 {
		t.Fatalf("expected 3 restored, 1 cold; got %d, %d", restored, cold)
	}
	if restoredSet.Bands.Ready() {
		t.Error("mismatched bands should be cold")
	}
}

func TestSetSnapshot_WidthMismatchLeavesBandsCold(t *testing.T) {
	p := Params{BandPeriod: 3, BandWidth: 2, MomentumPeriod: 2, VolatilityPeriod: 3, TrendPeriod: 3}
	original := warmSet(t, p, []float64{10, 11, 12, 13})
	snap := original.Snapshot("TEST")

	// Same period, different multiplier: restoring would silently change the
	// band geometry, so bands must stay cold.
	other := Params{BandPeriod: 3, BandWidth: 2.5, MomentumPeriod: 2, VolatilityPeriod: 3, TrendPeriod: 3}
	restoredSet, _ := NewSet(other)
	restored, cold := restoredSet.RestoreFromSnapshot(snap)
	if restored != 3 || cold != 1 {
		t.Fatalf("expected 3 restored, 1 cold; got %d, %d", restored, cold)
	}
	if restoredSet.Bands.Ready() {
		t.Error("width-mismatched bands should be cold")
	}
}

func TestBands_RestoreRejectsWidthMismatch(t *testing.T) {
	b, err := NewBands(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	src, _ := NewBands(3, 2.5)
	for _, price := range []float64{10, 11, 12} {
		src.Update(obs(price))
	}

	if err := b.RestoreFromSnapshot(src.Snapshot()); err == nil {
		t.Fatal("expected error restoring a snapshot with width 2.5 into width 2")
	}
	if b.Ready() {
		t.Error("failed restore must leave the indicator cold")
	}
}

func TestSetSnapshot_EmptySnapshotAllCold(t *testing.T) {
	restoredSet, _ := NewSet(DefaultParams())
	restored, cold := restoredSet.RestoreFromSnapshot(SetSnapshot{Symbol: "TEST"})
	if restored != 0 || cold != 4 {
		t.Fatalf("expected 0 restored, 4 cold; got %d, %d", restored, cold)
	}
}
