package model

import (
	"encoding/json"
	"math"
	"time"
)

// Observation is a single close-price observation for one instrument.
// It is consumed once per evaluation pass; nothing outside the indicator
// windows retains it.
type Observation struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"` // UTC bar close time
}

// Valid reports whether the observation carries a usable positive price.
// A failed check is a data-quality skip, not an error.
func (o *Observation) Valid() bool {
	return o.Symbol != "" && o.Price > 0 && !math.IsNaN(o.Price) && !math.IsInf(o.Price, 0)
}

// JSON returns the JSON-encoded observation (ignoring errors for hot-path usage).
func (o *Observation) JSON() []byte {
	b, _ := json.Marshal(o)
	return b
}
