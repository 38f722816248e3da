package indicator

import (
	"fmt"
	"math"

	"volarbv1/internal/model"
)

// Volatility estimates rolling volatility as the population standard
// deviation of log returns between consecutive closes. The first
// observation contributes a zero return so window alignment stays
// deterministic.
//
// The decision policy does not consult this value; it is computed and
// exposed as part of the signal surface only.
type Volatility struct {
	returns   *Rolling
	prevClose float64
	seen      bool
}

// NewVolatility creates a volatility estimator over the given number of
// returns (typically 20).
func NewVolatility(period int) (*Volatility, error) {
	w, err := NewRolling(period)
	if err != nil {
		return nil, fmt.Errorf("volatility: %w", err)
	}
	return &Volatility{returns: w}, nil
}

func (v *Volatility) Name() string { return "VOLATILITY" }

func (v *Volatility) Update(obs model.Observation) {
	price := obs.Price
	if !v.seen {
		v.seen = true
		v.prevClose = price
		v.returns.Push(0)
		return
	}

	r := 0.0
	if v.prevClose > 0 && price > 0 {
		r = math.Log(price / v.prevClose)
	}
	v.returns.Push(r)
	v.prevClose = price
}

func (v *Volatility) Ready() bool { return v.returns.Ready() }

// Value returns the rolling standard deviation of log returns.
// 0 until Ready.
func (v *Volatility) Value() float64 { return v.returns.StdDev() }
