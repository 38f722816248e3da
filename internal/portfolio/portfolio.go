// Package portfolio tracks positions, cash, and portfolio-level exposure.
//
// It maintains a real-time view of all open positions, marks them against
// the latest observed prices, and provides the aggregate exposure ratio the
// decision engine gates entries on.
package portfolio

import (
	"fmt"
	"math"
	"sync"

	"volarbv1/internal/model"
)

// Portfolio tracks cash and all open positions.
type Portfolio struct {
	mu        sync.RWMutex
	cash      float64
	positions map[string]*model.Position
	lastPrice map[string]float64
}

// New creates a Portfolio with the given starting cash.
func New(startingCash float64) (*Portfolio, error) {
	if startingCash <= 0 {
		return nil, fmt.Errorf("portfolio: starting cash must be positive, got %g", startingCash)
	}
	return &Portfolio{
		cash:      startingCash,
		positions: make(map[string]*model.Position),
		lastPrice: make(map[string]float64),
	}, nil
}

// UpdatePrice records the latest observed price for an instrument.
func (pf *Portfolio) UpdatePrice(symbol string, price float64) {
	if price <= 0 {
		return
	}
	pf.mu.Lock()
	pf.lastPrice[symbol] = price
	pf.mu.Unlock()
}

// Position returns a copy of the instrument's position; the zero value
// (flat) if none is open.
func (pf *Portfolio) Position(symbol string) model.Position {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	if pos, ok := pf.positions[symbol]; ok {
		return *pos
	}
	return model.Position{Symbol: symbol}
}

// ApplyFill adjusts cash and position state for a fill of qty at price.
// Positive qty buys, negative sells. Same-direction fills blend the average
// entry price; reducing fills leave it unchanged; a fill to exactly flat
// closes the position.
func (pf *Portfolio) ApplyFill(symbol string, qty, price float64) error {
	if qty == 0 {
		return fmt.Errorf("portfolio: zero-quantity fill for %s", symbol)
	}
	if price <= 0 {
		return fmt.Errorf("portfolio: non-positive fill price %g for %s", price, symbol)
	}

	pf.mu.Lock()
	defer pf.mu.Unlock()

	pf.cash -= qty * price
	pf.lastPrice[symbol] = price

	pos, ok := pf.positions[symbol]
	if !ok {
		pf.positions[symbol] = &model.Position{Symbol: symbol, Qty: qty, AvgPrice: price}
		return nil
	}

	newQty := pos.Qty + qty
	switch {
	case newQty == 0:
		delete(pf.positions, symbol)
	case (pos.Qty > 0) == (qty > 0):
		// Adding in the same direction: blend the average entry price.
		pos.AvgPrice = (pos.AvgPrice*math.Abs(pos.Qty) + price*math.Abs(qty)) / math.Abs(newQty)
		pos.Qty = newQty
	case (newQty > 0) != (pos.Qty > 0):
		// Crossed through flat: the remainder is a fresh position at price.
		pos.Qty = newQty
		pos.AvgPrice = price
	default:
		// Reduced but still open: average entry unchanged.
		pos.Qty = newQty
	}
	return nil
}

// Positions returns a snapshot of all open positions.
func (pf *Portfolio) Positions() []model.Position {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	out := make([]model.Position, 0, len(pf.positions))
	for _, p := range pf.positions {
		out = append(out, *p)
	}
	return out
}

// Cash returns the current cash balance.
func (pf *Portfolio) Cash() float64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.cash
}

// TotalValue returns cash plus every position marked at its latest price.
func (pf *Portfolio) TotalValue() float64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.totalValueLocked()
}

func (pf *Portfolio) totalValueLocked() float64 {
	total := pf.cash
	for sym, pos := range pf.positions {
		total += pos.MarketValue(pf.markLocked(sym, pos))
	}
	return total
}

// ExposureRatio returns Σ|holding value| / total portfolio value, the
// fraction of the portfolio committed to open positions. 0 when the
// portfolio has no positive value.
func (pf *Portfolio) ExposureRatio() float64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()

	total := pf.totalValueLocked()
	if total <= 0 {
		return 0
	}
	var gross float64
	for sym, pos := range pf.positions {
		gross += math.Abs(pos.MarketValue(pf.markLocked(sym, pos)))
	}
	return gross / total
}

// markLocked returns the latest price for a symbol, falling back to the
// position's entry price before any observation has arrived.
func (pf *Portfolio) markLocked(symbol string, pos *model.Position) float64 {
	if p, ok := pf.lastPrice[symbol]; ok && p > 0 {
		return p
	}
	return pos.AvgPrice
}
