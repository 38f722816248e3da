// Package strategy implements the per-instrument decision policy: it reads
// indicator outputs together with an account snapshot and emits at most one
// position-change decision per observation.
//
// Entry rules are contrarian (price outside a band plus an oversold/overbought
// oscillator, filtered by trend direction); exits are stop-losses and
// reversion to the middle band. Entry and exit rules are mutually exclusive
// by position state: entries require a flat position, exits a non-flat one.
package strategy

import (
	"fmt"
	"time"

	"volarbv1/internal/indicator"
	"volarbv1/internal/model"
)

// Oscillator thresholds by convention: below 30 oversold, above 70 overbought.
const (
	OversoldLevel   = 30.0
	OverboughtLevel = 70.0
)

// Config holds the per-engine sizing and risk parameters.
// All fractions are of total portfolio value.
type Config struct {
	LongSize    float64 `yaml:"long_size"`    // entry size for long positions
	ShortSize   float64 `yaml:"short_size"`   // entry size for short positions
	LongStop    float64 `yaml:"long_stop"`    // stop-loss distance below long entry
	ShortStop   float64 `yaml:"short_stop"`   // stop-loss distance above short entry
	MaxExposure float64 `yaml:"max_exposure"` // aggregate exposure cap for new entries
}

// DefaultConfig returns the standard parameters: 5%/3% sizing, 5%/3% stops,
// 80% exposure cap.
func DefaultConfig() Config {
	return Config{
		LongSize:    0.05,
		ShortSize:   0.03,
		LongStop:    0.05,
		ShortStop:   0.03,
		MaxExposure: 0.80,
	}
}

// Validate fails fast on parameters outside (0, 1].
func (c Config) Validate() error {
	check := func(name string, v float64) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("strategy config: %s must be in (0, 1], got %g", name, v)
		}
		return nil
	}
	if err := check("long_size", c.LongSize); err != nil {
		return err
	}
	if err := check("short_size", c.ShortSize); err != nil {
		return err
	}
	if err := check("long_stop", c.LongStop); err != nil {
		return err
	}
	if err := check("short_stop", c.ShortStop); err != nil {
		return err
	}
	return check("max_exposure", c.MaxExposure)
}

// Engine is the per-instrument decision state machine. It holds no mutable
// state of its own: every evaluation reads the same pre-action snapshot of
// indicator and account state and emits exactly one decision.
type Engine struct {
	symbol string
	cfg    Config
}

// NewEngine creates a decision engine for one instrument.
func NewEngine(symbol string, cfg Config) (*Engine, error) {
	if symbol == "" {
		return nil, fmt.Errorf("strategy engine: empty symbol")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{symbol: symbol, cfg: cfg}, nil
}

// Symbol returns the instrument this engine decides for.
func (e *Engine) Symbol() string { return e.symbol }

// Evaluate applies the decision policy against one observation and the
// account snapshot captured for this evaluation pass.
//
// Order of checks: readiness and price preconditions, then for a flat
// position the exposure gate and entry rules, for a non-flat position the
// stop-loss then the middle-band exit. The exposure gate suppresses entries
// only — risk reduction is never blocked.
func (e *Engine) Evaluate(price float64, ts time.Time, acct model.AccountSnapshot, set *indicator.Set) model.Decision {
	noop := func(reason string) model.Decision {
		return model.Decision{Symbol: e.symbol, Action: model.ActionNoOp, Price: price, Reason: reason, TS: ts}
	}
	liquidate := func(reason string) model.Decision {
		return model.Decision{Symbol: e.symbol, Action: model.ActionLiquidate, Price: price, Reason: reason, TS: ts}
	}

	if !set.Ready() {
		return noop("signals not ready")
	}
	obs := model.Observation{Symbol: e.symbol, Price: price, TS: ts}
	if !obs.Valid() {
		return noop(fmt.Sprintf("invalid price %g", price))
	}

	pos := acct.Position
	if pos.Flat() {
		if acct.ExposureRatio > e.cfg.MaxExposure {
			return noop(fmt.Sprintf("portfolio exposure %.2f above limit %.2f", acct.ExposureRatio, e.cfg.MaxExposure))
		}
		if price < set.Bands.Lower() && set.Momentum.Value() < OversoldLevel && set.Trend.Uptrend(price) {
			return model.Decision{
				Symbol:       e.symbol,
				Action:       model.ActionEnterLong,
				SizeFraction: e.cfg.LongSize,
				Price:        price,
				Reason:       "price below lower band, oscillator oversold, uptrend",
				TS:           ts,
			}
		}
		if price > set.Bands.Upper() && set.Momentum.Value() > OverboughtLevel && set.Trend.Downtrend(price) {
			return model.Decision{
				Symbol:       e.symbol,
				Action:       model.ActionEnterShort,
				SizeFraction: e.cfg.ShortSize,
				Price:        price,
				Reason:       "price above upper band, oscillator overbought, downtrend",
				TS:           ts,
			}
		}
		return noop("no entry conditions met")
	}

	// Non-flat: stop-loss takes precedence over the profit-target exit.
	if pos.Qty > 0 {
		if price < pos.AvgPrice*(1-e.cfg.LongStop) {
			return liquidate(fmt.Sprintf("long stop-loss: price %.4f below %.4f", price, pos.AvgPrice*(1-e.cfg.LongStop)))
		}
		if price >= set.Bands.Middle() {
			return liquidate("long exit: price at middle band")
		}
	} else {
		if price > pos.AvgPrice*(1+e.cfg.ShortStop) {
			return liquidate(fmt.Sprintf("short stop-loss: price %.4f above %.4f", price, pos.AvgPrice*(1+e.cfg.ShortStop)))
		}
		if price <= set.Bands.Middle() {
			return liquidate("short exit: price at middle band")
		}
	}
	return noop("holding")
}
