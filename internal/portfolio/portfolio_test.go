package portfolio

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", label, got, want, tol)
	}
}

func newTestPortfolio(t *testing.T, cash float64) *Portfolio {
	t.Helper()
	pf, err := New(cash)
	if err != nil {
		t.Fatal(err)
	}
	return pf
}

func TestNew_RejectsNonPositiveCash(t *testing.T) {
	for _, cash := range []float64{0, -100} {
		if _, err := New(cash); err == nil {
			t.Errorf("cash %v: expected error", cash)
		}
	}
}

func TestApplyFill_OpensPosition(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)

	if err := pf.ApplyFill("SPY", 10, 430); err != nil {
		t.Fatal(err)
	}
	pos := pf.Position("SPY")
	if pos.Qty != 10 || pos.AvgPrice != 430 {
		t.Errorf("position: got qty=%v avg=%v, want 10/430", pos.Qty, pos.AvgPrice)
	}
	assertClose(t, "cash", pf.Cash(), 100_000-4_300, 1e-9)
	assertClose(t, "total value", pf.TotalValue(), 100_000, 1e-9)
}

func TestApplyFill_BlendsSameDirection(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 10, 400)
	_ = pf.ApplyFill("SPY", 10, 420)

	pos := pf.Position("SPY")
	if pos.Qty != 20 {
		t.Fatalf("qty: got %v, want 20", pos.Qty)
	}
	assertClose(t, "blended avg", pos.AvgPrice, 410, 1e-9)
}

func TestApplyFill_ReductionKeepsAvgPrice(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 20, 400)
	_ = pf.ApplyFill("SPY", -5, 440)

	pos := pf.Position("SPY")
	if pos.Qty != 15 {
		t.Fatalf("qty: got %v, want 15", pos.Qty)
	}
	assertClose(t, "avg after reduction", pos.AvgPrice, 400, 1e-9)
	// 100000 - 8000 + 2200
	assertClose(t, "cash", pf.Cash(), 94_200, 1e-9)
}

func TestApplyFill_CloseToFlatDeletesPosition(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 10, 400)
	_ = pf.ApplyFill("SPY", -10, 440)

	pos := pf.Position("SPY")
	if !pos.Flat() {
		t.Errorf("position should be flat, got %+v", pos)
	}
	if len(pf.Positions()) != 0 {
		t.Error("closed position should be removed from the book")
	}
	// Realized: bought at 400, sold at 440, 10 shares.
	assertClose(t, "cash after round trip", pf.Cash(), 100_400, 1e-9)
}

func TestApplyFill_FlipThroughFlat(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 10, 400)
	_ = pf.ApplyFill("SPY", -25, 410)

	pos := pf.Position("SPY")
	if pos.Qty != -15 {
		t.Fatalf("qty: got %v, want -15", pos.Qty)
	}
	// The remainder past flat is a fresh position at the fill price.
	assertClose(t, "avg after flip", pos.AvgPrice, 410, 1e-9)
}

func TestApplyFill_Rejections(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	if err := pf.ApplyFill("SPY", 0, 400); err == nil {
		t.Error("zero quantity should be rejected")
	}
	if err := pf.ApplyFill("SPY", 10, 0); err == nil {
		t.Error("zero price should be rejected")
	}
	if err := pf.ApplyFill("SPY", 10, -1); err == nil {
		t.Error("negative price should be rejected")
	}
	assertClose(t, "cash untouched", pf.Cash(), 100_000, 1e-9)
}

func TestTotalValue_MarksAtLatestPrice(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 100, 400) // cash 60000, holding 40000

	pf.UpdatePrice("SPY", 440)
	assertClose(t, "marked up", pf.TotalValue(), 60_000+44_000, 1e-9)

	pf.UpdatePrice("SPY", 0) // ignored
	assertClose(t, "bad mark ignored", pf.TotalValue(), 104_000, 1e-9)
}

func TestTotalValue_FallsBackToEntryPrice(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 100, 400)
	// ApplyFill records the fill price as the latest mark, so value is flat
	// until a new observation moves it.
	assertClose(t, "value at entry", pf.TotalValue(), 100_000, 1e-9)
}

func TestExposureRatio(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	assertClose(t, "flat exposure", pf.ExposureRatio(), 0, 1e-9)

	_ = pf.ApplyFill("SPY", 100, 400) // |40000| / 100000
	assertClose(t, "single long", pf.ExposureRatio(), 0.40, 1e-9)

	_ = pf.ApplyFill("QQQ", -50, 380) // gross 40000+19000, total still 100000
	assertClose(t, "long plus short", pf.ExposureRatio(), 0.59, 1e-9)

	// Mark SPY up: gross 85000+19000, total 145000.
	pf.UpdatePrice("SPY", 850)
	assertClose(t, "after mark", pf.ExposureRatio(), 104_000.0/145_000.0, 1e-9)
}

func TestExposureRatio_AboveEntryGate(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	_ = pf.ApplyFill("SPY", 100, 850)
	if pf.ExposureRatio() <= 0.80 {
		t.Errorf("exposure should exceed the 0.80 entry gate, got %v", pf.ExposureRatio())
	}
}

func TestPosition_UnknownSymbolIsFlat(t *testing.T) {
	pf := newTestPortfolio(t, 100_000)
	pos := pf.Position("TSLA")
	if !pos.Flat() || pos.Symbol != "TSLA" {
		t.Errorf("unknown symbol should be flat: %+v", pos)
	}
}
