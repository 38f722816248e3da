package strategy

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"volarbv1/internal/indicator"
	"volarbv1/internal/model"
)

// Registry owns per-instrument indicator and decision state. Instruments are
// inserted when they join the tradable universe and removed on delist;
// removal discards all state, so a later re-add starts cold — no decision is
// ever made from a previously removed instrument's history.
//
// Designed for single-goroutine usage — no locks needed. Instruments could
// be evaluated in parallel without synchronization as long as the exposure
// snapshot is captured once per pass.
type Registry struct {
	cfg    Config
	params indicator.Params

	instruments map[string]*instrumentState
}

// instrumentState bundles the live indicator set and decision engine for
// one instrument.
type instrumentState struct {
	set    *indicator.Set
	engine *Engine
}

// NewRegistry creates an empty registry. Engine and indicator parameters are
// validated once here and shared by every instrument added later.
func NewRegistry(cfg Config, params indicator.Params) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg:         cfg,
		params:      params,
		instruments: make(map[string]*instrumentState, 64),
	}, nil
}

// Add inserts an instrument into the tradable set with fresh indicator and
// engine state. Adding an already-present instrument is a no-op: live state
// is never silently reset.
func (r *Registry) Add(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("registry: empty symbol")
	}
	if _, exists := r.instruments[symbol]; exists {
		return nil
	}
	set, err := indicator.NewSet(r.params)
	if err != nil {
		return err
	}
	engine, err := NewEngine(symbol, r.cfg)
	if err != nil {
		return err
	}
	r.instruments[symbol] = &instrumentState{set: set, engine: engine}
	return nil
}

// Remove discards all state for an instrument. Removing an unknown symbol
// is a no-op.
func (r *Registry) Remove(symbol string) {
	delete(r.instruments, symbol)
}

// Has reports whether the instrument is currently tracked.
func (r *Registry) Has(symbol string) bool {
	_, ok := r.instruments[symbol]
	return ok
}

// Len returns the number of tracked instruments.
func (r *Registry) Len() int {
	return len(r.instruments)
}

// Instruments returns the tracked symbols in sorted order, so evaluation
// passes visit instruments deterministically.
func (r *Registry) Instruments() []string {
	out := make([]string, 0, len(r.instruments))
	for sym := range r.instruments {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Warm updates an instrument's indicators without evaluating a decision.
// Used while the host is replaying warm-up history. Invalid prices are
// skipped so they cannot poison indicator state.
func (r *Registry) Warm(obs model.Observation) error {
	st, ok := r.instruments[obs.Symbol]
	if !ok {
		return fmt.Errorf("registry: unknown instrument %q", obs.Symbol)
	}
	if !obs.Valid() {
		return nil
	}
	st.set.Update(obs)
	return nil
}

// OnObservation is the single evaluation entry point: update the four
// indicators with the new observation, then evaluate the decision policy
// against the updated indicator outputs and the given account snapshot.
//
// An invalid price skips the whole evaluation — indicator state is left
// untouched and a NoOp is returned.
func (r *Registry) OnObservation(obs model.Observation, acct model.AccountSnapshot) (model.Decision, error) {
	st, ok := r.instruments[obs.Symbol]
	if !ok {
		return model.Decision{}, fmt.Errorf("registry: unknown instrument %q", obs.Symbol)
	}
	if !obs.Valid() {
		return model.Decision{
			Symbol: obs.Symbol,
			Action: model.ActionNoOp,
			Price:  obs.Price,
			Reason: "skipped: invalid price",
			TS:     obs.TS,
		}, nil
	}

	st.set.Update(obs)
	return st.engine.Evaluate(obs.Price, obs.TS, acct, st.set), nil
}

// HasReadySignals reports whether the instrument's gating indicators have
// accumulated enough history. False for unknown instruments. Calling it
// repeatedly without new observations returns the same value.
func (r *Registry) HasReadySignals(symbol string) bool {
	st, ok := r.instruments[symbol]
	return ok && st.set.Ready()
}

// Set returns the live indicator set for an instrument, or nil if unknown.
// Read-only access for reporting; callers must not Update through it.
func (r *Registry) Set(symbol string) *indicator.Set {
	st, ok := r.instruments[symbol]
	if !ok {
		return nil
	}
	return st.set
}

// ── Checkpointing ──

// Snapshot holds the serialized indicator state of every tracked instrument.
type Snapshot struct {
	Version     int                     `json:"version"` // schema version for forward compat
	Instruments []indicator.SetSnapshot `json:"instruments"`
}

// Snapshot captures indicator state for all instruments, in sorted order.
// Engine state needs no checkpointing: the policy is pure.
func (r *Registry) Snapshot() *Snapshot {
	snap := &Snapshot{Version: 1}
	for _, sym := range r.Instruments() {
		snap.Instruments = append(snap.Instruments, r.instruments[sym].set.Snapshot(sym))
	}
	return snap
}

// SnapshotJSON returns the serialized snapshot for the snapshot store.
func (r *Registry) SnapshotJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

// RestoreFromSnapshotJSON rebuilds indicator state from a checkpoint. It is
// tolerant of universe changes: snapshot entries for instruments no longer
// tracked are skipped, tracked instruments without a snapshot entry stay
// cold, and per-indicator mismatches cold-start that indicator only.
func (r *Registry) RestoreFromSnapshotJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("registry: unmarshal snapshot: %w", err)
	}

	for _, ss := range snap.Instruments {
		st, ok := r.instruments[ss.Symbol]
		if !ok {
			continue // no longer in the universe
		}
		restored, cold := st.set.RestoreFromSnapshot(ss)
		if cold > 0 {
			log.Printf("[registry] %s: restored %d, cold-started %d indicators", ss.Symbol, restored, cold)
		}
	}
	return nil
}
