package model

import (
	"encoding/json"
	"time"
)

// Action represents the position-change decision for one evaluation.
type Action string

const (
	ActionEnterLong  Action = "ENTER_LONG"
	ActionEnterShort Action = "ENTER_SHORT"
	ActionLiquidate  Action = "LIQUIDATE"
	ActionNoOp       Action = "NOOP"
)

// Decision is the single output of one evaluation for one instrument.
// At most one non-NoOp decision is produced per observation.
type Decision struct {
	Symbol       string    `json:"symbol"`
	Action       Action    `json:"action"`
	SizeFraction float64   `json:"size_fraction,omitempty"` // fraction of portfolio value, entries only
	Price        float64   `json:"price"`                   // price the decision was evaluated against
	Reason       string    `json:"reason,omitempty"`
	TS           time.Time `json:"ts"`
}

// Actionable reports whether the decision requests a position change.
func (d *Decision) Actionable() bool {
	return d.Action != ActionNoOp && d.Action != ""
}

// JSON returns the JSON-encoded decision (ignoring errors for hot-path usage).
func (d *Decision) JSON() []byte {
	b, _ := json.Marshal(d)
	return b
}

// StreamKey returns the Redis stream key for this instrument's decisions.
func (d *Decision) StreamKey() string {
	return "decision:" + d.Symbol
}

// PubSubChannel returns the pubsub channel for real-time subscribers.
func (d *Decision) PubSubChannel() string {
	return "pub:decision:" + d.Symbol
}
