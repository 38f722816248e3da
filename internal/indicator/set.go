package indicator

import (
	"fmt"

	"volarbv1/internal/model"
)

// Params configures the indicator complement for one instrument.
type Params struct {
	BandPeriod       int     `yaml:"band_period"`
	BandWidth        float64 `yaml:"band_width"`
	MomentumPeriod   int     `yaml:"momentum_period"`
	VolatilityPeriod int     `yaml:"volatility_period"`
	TrendPeriod      int     `yaml:"trend_period"`
}

// DefaultParams returns the standard periods: 20-bar bands at 2 deviations,
// 14-bar momentum, 20-bar volatility, 50-bar trend.
func DefaultParams() Params {
	return Params{
		BandPeriod:       20,
		BandWidth:        2,
		MomentumPeriod:   14,
		VolatilityPeriod: 20,
		TrendPeriod:      50,
	}
}

// Validate fails fast on non-positive periods or band width.
func (p Params) Validate() error {
	if p.BandPeriod < 1 {
		return fmt.Errorf("indicator params: band_period must be >= 1, got %d", p.BandPeriod)
	}
	if p.BandWidth <= 0 {
		return fmt.Errorf("indicator params: band_width must be positive, got %g", p.BandWidth)
	}
	if p.MomentumPeriod < 1 {
		return fmt.Errorf("indicator params: momentum_period must be >= 1, got %d", p.MomentumPeriod)
	}
	if p.VolatilityPeriod < 1 {
		return fmt.Errorf("indicator params: volatility_period must be >= 1, got %d", p.VolatilityPeriod)
	}
	if p.TrendPeriod < 1 {
		return fmt.Errorf("indicator params: trend_period must be >= 1, got %d", p.TrendPeriod)
	}
	return nil
}

// Set owns the full indicator complement for a single instrument. Sets for
// different instruments share no state; a set is created when the instrument
// joins the tradable universe and discarded when it leaves.
type Set struct {
	Bands      *Bands
	Momentum   *Momentum
	Volatility *Volatility
	Trend      *Trend
}

// NewSet creates the four indicators from the given params.
func NewSet(p Params) (*Set, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	bands, err := NewBands(p.BandPeriod, p.BandWidth)
	if err != nil {
		return nil, err
	}
	momentum, err := NewMomentum(p.MomentumPeriod)
	if err != nil {
		return nil, err
	}
	volatility, err := NewVolatility(p.VolatilityPeriod)
	if err != nil {
		return nil, err
	}
	trend, err := NewTrend(p.TrendPeriod)
	if err != nil {
		return nil, err
	}
	return &Set{Bands: bands, Momentum: momentum, Volatility: volatility, Trend: trend}, nil
}

// Update feeds the observation to all four indicators. Each updates in
// isolation — there is no cross-indicator dependency at update time.
func (s *Set) Update(obs model.Observation) {
	s.Bands.Update(obs)
	s.Momentum.Update(obs)
	s.Volatility.Update(obs)
	s.Trend.Update(obs)
}

// Ready reports whether the indicators the decision policy requires have
// enough history. Trend and volatility are not gating: an unready trend
// simply blocks entries via its own false Uptrend/Downtrend.
func (s *Set) Ready() bool {
	return s.Bands.Ready() && s.Momentum.Ready()
}

// Indicators returns the complement behind the shared readiness capability,
// in fixed order.
func (s *Set) Indicators() []Indicator {
	return []Indicator{s.Bands, s.Momentum, s.Volatility, s.Trend}
}
