// Package execution translates decisions into position changes.
//
// The core only requests target positions; this package plays the external
// collaborator role: the paper executor sizes and applies simulated fills
// against the portfolio, and the journal persists them for audit.
package execution

import (
	"fmt"
	"log"
	"sync"
	"time"

	"volarbv1/internal/model"
	"volarbv1/internal/portfolio"
)

// Fill represents a simulated order fill.
type Fill struct {
	OrderID  string         `json:"order_id"`
	Decision model.Decision `json:"decision"`
	Qty      float64        `json:"qty"` // signed fill quantity
	Price    float64        `json:"price"`
	FilledAt time.Time      `json:"filled_at"`
}

// Paper simulates execution without broker calls: entries are sized as
// size-fraction × portfolio value at the decision price, liquidations close
// the full position.
type Paper struct {
	mu       sync.RWMutex
	pf       *portfolio.Portfolio
	fills    []Fill
	orderSeq int64
}

// NewPaper creates a paper executor over the given portfolio.
func NewPaper(pf *portfolio.Portfolio) *Paper {
	return &Paper{
		pf:    pf,
		fills: make([]Fill, 0, 1024),
	}
}

// Execute applies one decision. Returns the fill and true when a position
// change happened; NoOps and liquidations of an already-flat position
// return false.
func (p *Paper) Execute(d model.Decision) (Fill, bool) {
	if !d.Actionable() || d.Price <= 0 {
		return Fill{}, false
	}

	var qty float64
	switch d.Action {
	case model.ActionEnterLong:
		qty = d.SizeFraction * p.pf.TotalValue() / d.Price
	case model.ActionEnterShort:
		qty = -d.SizeFraction * p.pf.TotalValue() / d.Price
	case model.ActionLiquidate:
		qty = -p.pf.Position(d.Symbol).Qty
	}
	if qty == 0 {
		return Fill{}, false
	}

	if err := p.pf.ApplyFill(d.Symbol, qty, d.Price); err != nil {
		log.Printf("[paper] fill rejected for %s: %v", d.Symbol, err)
		return Fill{}, false
	}

	p.mu.Lock()
	p.orderSeq++
	fill := Fill{
		OrderID:  fmt.Sprintf("PAPER-%d", p.orderSeq),
		Decision: d,
		Qty:      qty,
		Price:    d.Price,
		FilledAt: time.Now().UTC(),
	}
	p.fills = append(p.fills, fill)
	p.mu.Unlock()

	log.Printf("[paper] %s %s qty=%.4f price=%.4f order=%s reason=%s",
		d.Action, d.Symbol, qty, d.Price, fill.OrderID, d.Reason)
	return fill, true
}

// Fills returns a snapshot of all fills.
func (p *Paper) Fills() []Fill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make([]Fill, len(p.fills))
	copy(cp, p.fills)
	return cp
}
