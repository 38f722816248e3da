package indicator

import (
	"fmt"

	"volarbv1/internal/model"
)

// Bands computes a simple moving average with upper/lower bands at
// ±width standard deviations. Price crossing outside a band flags
// overextension (contrarian entry); reversion to the middle band is the
// profit-target exit.
type Bands struct {
	window *Rolling
	width  float64
}

// NewBands creates a band indicator over the given period (typically 20)
// with the given deviation multiplier (typically 2).
func NewBands(period int, width float64) (*Bands, error) {
	if width <= 0 {
		return nil, fmt.Errorf("bands: width must be positive, got %g", width)
	}
	w, err := NewRolling(period)
	if err != nil {
		return nil, fmt.Errorf("bands: %w", err)
	}
	return &Bands{window: w, width: width}, nil
}

func (b *Bands) Name() string { return "BANDS" }

func (b *Bands) Update(obs model.Observation) {
	b.window.Push(obs.Price)
}

func (b *Bands) Ready() bool { return b.window.Ready() }

// Middle returns the moving average. 0 until Ready.
func (b *Bands) Middle() float64 { return b.window.Mean() }

// Upper returns mean + width·stddev. 0 until Ready.
func (b *Bands) Upper() float64 {
	if !b.window.Ready() {
		return 0
	}
	return b.window.Mean() + b.width*b.window.StdDev()
}

// Lower returns mean − width·stddev. 0 until Ready.
func (b *Bands) Lower() float64 {
	if !b.window.Ready() {
		return 0
	}
	return b.window.Mean() - b.width*b.window.StdDev()
}
