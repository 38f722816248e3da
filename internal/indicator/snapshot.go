package indicator

import "fmt"

// Snapshottable is implemented by indicators that support state serialization.
type Snapshottable interface {
	Indicator
	Snapshot() Snapshot
	RestoreFromSnapshot(snap Snapshot) error
}

// Snapshot holds the serialized state of a single indicator instance.
type Snapshot struct {
	Type   string `json:"type"` // "BANDS", "MOMENTUM", "VOLATILITY", "TREND"
	Period int    `json:"period"`

	// Rolling-window fields (BANDS, VOLATILITY, TREND)
	Buf   []float64 `json:"buf,omitempty"`
	Idx   int       `json:"idx,omitempty"`
	Count int       `json:"count"`
	Sum   float64   `json:"sum,omitempty"`

	// BANDS fields
	Width float64 `json:"width,omitempty"`

	// MOMENTUM / VOLATILITY fields
	PrevClose float64 `json:"prev_close,omitempty"`
	AvgGain   float64 `json:"avg_gain,omitempty"`
	AvgLoss   float64 `json:"avg_loss,omitempty"`
	Current   float64 `json:"current,omitempty"`
	Seen      bool    `json:"seen,omitempty"`
}

// SetSnapshot holds indicator snapshots for a single instrument.
type SetSnapshot struct {
	Symbol     string     `json:"symbol"`
	Indicators []Snapshot `json:"indicators"`
}

// snapshotInto copies the window state into the snapshot.
func (r *Rolling) snapshotInto(snap *Snapshot) {
	bufCopy := make([]float64, len(r.buf))
	copy(bufCopy, r.buf)
	snap.Period = r.capacity
	snap.Buf = bufCopy
	snap.Idx = r.idx
	snap.Count = r.count
	snap.Sum = r.sum
}

// restoreFrom rebuilds the window state from the snapshot.
func (r *Rolling) restoreFrom(snap Snapshot) error {
	if snap.Period != r.capacity {
		return fmt.Errorf("rolling window: snapshot period %d does not match capacity %d", snap.Period, r.capacity)
	}
	if len(snap.Buf) != r.capacity {
		return fmt.Errorf("rolling window: snapshot buffer length %d does not match capacity %d", len(snap.Buf), r.capacity)
	}
	copy(r.buf, snap.Buf)
	r.idx = snap.Idx
	r.count = snap.Count
	r.sum = snap.Sum
	return nil
}

// Snapshot serializes the band indicator state for checkpoint persistence.
func (b *Bands) Snapshot() Snapshot {
	snap := Snapshot{Type: "BANDS", Width: b.width}
	b.window.snapshotInto(&snap)
	return snap
}

// RestoreFromSnapshot restores band indicator state from a checkpoint.
// A snapshot taken under a different width would silently change the band
// geometry, so it is rejected like a period mismatch.
func (b *Bands) RestoreFromSnapshot(snap Snapshot) error {
	if snap.Width != b.width {
		return fmt.Errorf("bands: snapshot width %g does not match %g", snap.Width, b.width)
	}
	return b.window.restoreFrom(snap)
}

// Snapshot serializes the oscillator state for checkpoint persistence.
func (m *Momentum) Snapshot() Snapshot {
	return Snapshot{
		Type:      "MOMENTUM",
		Period:    m.period,
		Count:     m.count,
		PrevClose: m.prevClose,
		AvgGain:   m.avgGain,
		AvgLoss:   m.avgLoss,
		Current:   m.current,
	}
}

// RestoreFromSnapshot restores oscillator state from a checkpoint.
func (m *Momentum) RestoreFromSnapshot(snap Snapshot) error {
	if snap.Period != m.period {
		return fmt.Errorf("momentum: snapshot period %d does not match %d", snap.Period, m.period)
	}
	m.count = snap.Count
	m.prevClose = snap.PrevClose
	m.avgGain = snap.AvgGain
	m.avgLoss = snap.AvgLoss
	m.current = snap.Current
	return nil
}

// Snapshot serializes the volatility estimator state for checkpoint persistence.
func (v *Volatility) Snapshot() Snapshot {
	snap := Snapshot{Type: "VOLATILITY", PrevClose: v.prevClose, Seen: v.seen}
	v.returns.snapshotInto(&snap)
	return snap
}

// RestoreFromSnapshot restores volatility estimator state from a checkpoint.
func (v *Volatility) RestoreFromSnapshot(snap Snapshot) error {
	if err := v.returns.restoreFrom(snap); err != nil {
		return err
	}
	v.prevClose = snap.PrevClose
	v.seen = snap.Seen
	return nil
}

// Snapshot serializes the trend filter state for checkpoint persistence.
func (t *Trend) Snapshot() Snapshot {
	snap := Snapshot{Type: "TREND"}
	t.window.snapshotInto(&snap)
	return snap
}

// RestoreFromSnapshot restores trend filter state from a checkpoint.
func (t *Trend) RestoreFromSnapshot(snap Snapshot) error {
	return t.window.restoreFrom(snap)
}

// Snapshot captures the state of all four indicators.
func (s *Set) Snapshot(symbol string) SetSnapshot {
	ss := SetSnapshot{Symbol: symbol}
	for _, ind := range s.Indicators() {
		si, ok := ind.(Snapshottable)
		if !ok {
			continue
		}
		ss.Indicators = append(ss.Indicators, si.Snapshot())
	}
	return ss
}

// RestoreFromSnapshot rebuilds indicator state from a checkpoint. Indicators
// are matched by type; a mismatched or missing entry leaves that indicator
// cold rather than failing the whole restore.
func (s *Set) RestoreFromSnapshot(ss SetSnapshot) (restored, cold int) {
	byType := make(map[string]Snapshot, len(ss.Indicators))
	for _, snap := range ss.Indicators {
		byType[snap.Type] = snap
	}

	for _, ind := range s.Indicators() {
		si, ok := ind.(Snapshottable)
		if !ok {
			cold++
			continue
		}
		snap, found := byType[si.Name()]
		if !found {
			cold++
			continue
		}
		if err := si.RestoreFromSnapshot(snap); err != nil {
			cold++
			continue
		}
		restored++
	}
	return restored, cold
}
