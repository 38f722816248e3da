package indicator

import (
	"fmt"

	"volarbv1/internal/model"
)

// Momentum is a 0–100 relative-strength oscillator using Wilder's smoothing.
// Below 30 reads as oversold, above 70 as overbought. Update is O(1) per
// observation — no history scans.
type Momentum struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewMomentum creates a momentum oscillator with the given lookback
// (typically 14).
func NewMomentum(period int) (*Momentum, error) {
	if period < 1 {
		return nil, fmt.Errorf("momentum: period must be >= 1, got %d", period)
	}
	return &Momentum{period: period}, nil
}

func (m *Momentum) Name() string { return "MOMENTUM" }

func (m *Momentum) Update(obs model.Observation) {
	price := obs.Price
	m.count++

	if m.count == 1 {
		// First observation — just record price, no delta yet
		m.prevClose = price
		return
	}

	delta := price - m.prevClose
	m.prevClose = price

	gain := 0.0
	loss := 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if m.count <= m.period+1 {
		// Accumulation phase: build initial averages
		m.avgGain += gain
		m.avgLoss += loss

		if m.count == m.period+1 {
			m.avgGain /= float64(m.period)
			m.avgLoss /= float64(m.period)
			m.recompute()
		}
		return
	}

	// Wilder's smoothing: avg = (prevAvg * (period-1) + new) / period
	p := float64(m.period)
	m.avgGain = (m.avgGain*(p-1) + gain) / p
	m.avgLoss = (m.avgLoss*(p-1) + loss) / p
	m.recompute()
}

func (m *Momentum) recompute() {
	if m.avgLoss == 0 {
		m.current = 100.0
		return
	}
	rs := m.avgGain / m.avgLoss
	m.current = 100.0 - (100.0 / (1.0 + rs))
}

// Value returns the current 0–100 oscillator reading. 0 until Ready.
func (m *Momentum) Value() float64 { return m.current }

func (m *Momentum) Ready() bool { return m.count > m.period }
