package model

// Position represents a tracked trading position.
// Qty is signed: positive = long, negative = short, 0 = flat.
type Position struct {
	Symbol   string  `json:"symbol"`
	Qty      float64 `json:"qty"`
	AvgPrice float64 `json:"avg_price"` // average entry price
}

// Flat reports whether the position holds no quantity.
func (p Position) Flat() bool {
	return p.Qty == 0
}

// MarketValue returns the signed value of the position at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Qty * price
}

// UnrealizedPnL computes unrealized profit/loss at the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.AvgPrice) * p.Qty
}
