package indicator

import (
	"fmt"

	"volarbv1/internal/model"
)

// Trend filters market direction by comparing the current price to a
// longer-term simple moving average. At most one of Uptrend/Downtrend is
// true at any time; both are false until ready or when price sits exactly
// on the average.
type Trend struct {
	window *Rolling
}

// NewTrend creates a trend filter over the given period (typically 50).
func NewTrend(period int) (*Trend, error) {
	w, err := NewRolling(period)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	return &Trend{window: w}, nil
}

func (t *Trend) Name() string { return "TREND" }

func (t *Trend) Update(obs model.Observation) {
	t.window.Push(obs.Price)
}

func (t *Trend) Ready() bool { return t.window.Ready() }

// Value returns the reference moving average. 0 until Ready.
func (t *Trend) Value() float64 { return t.window.Mean() }

// Uptrend reports whether the given price sits above the moving average.
func (t *Trend) Uptrend(price float64) bool {
	return t.window.Ready() && price > t.window.Mean()
}

// Downtrend reports whether the given price sits below the moving average.
func (t *Trend) Downtrend(price float64) bool {
	return t.window.Ready() && price < t.window.Mean()
}
