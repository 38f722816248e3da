// Package replay provides an observation replayer that reads historical data
// from SQLite and emits it at configurable speed for backtesting.
package replay

import (
	"context"
	"log"
	"time"

	"volarbv1/internal/model"
	sqlitestore "volarbv1/internal/store/sqlite"
)

// Replayer reads historical observations from SQLite and replays them
// at a configurable speed multiplier.
type Replayer struct {
	reader *sqlitestore.Reader
}

// New creates a Replayer backed by a SQLite reader.
func New(reader *sqlitestore.Reader) *Replayer {
	return &Replayer{reader: reader}
}

// Run replays all stored observations, emitting them into outCh.
// speed controls the playback rate: 1.0 = real-time, 10.0 = 10x, 0 = as fast as possible.
// fromTS filters observations to those after this Unix timestamp (0 = all).
func (r *Replayer) Run(ctx context.Context, fromTS int64, speed float64, outCh chan<- model.Observation) error {
	all, err := r.reader.ReadAllObservations(fromTS)
	if err != nil {
		return err
	}

	if len(all) == 0 {
		log.Println("[replay] no observations found in SQLite")
		return nil
	}

	// Sort by timestamp (they may be interleaved across symbols)
	sortObservations(all)

	log.Printf("[replay] loaded %d observations, speed=%.1fx", len(all), speed)

	var prevTS time.Time
	emitted := 0

	for _, obs := range all {
		select {
		case <-ctx.Done():
			log.Printf("[replay] cancelled after %d observations", emitted)
			return ctx.Err()
		default:
		}

		// Simulate time gaps between observations
		if speed > 0 && !prevTS.IsZero() {
			gap := obs.TS.Sub(prevTS)
			if gap > 0 {
				scaledGap := time.Duration(float64(gap) / speed)
				// Cap max sleep to avoid very long waits
				if scaledGap > 5*time.Second {
					scaledGap = 5 * time.Second
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(scaledGap):
				}
			}
		}
		prevTS = obs.TS

		outCh <- obs
		emitted++
	}

	log.Printf("[replay] completed: %d observations replayed", emitted)
	return nil
}

// sortObservations sorts by timestamp (insertion sort — stable and fine for replay sizes).
func sortObservations(obs []model.Observation) {
	for i := 1; i < len(obs); i++ {
		for j := i; j > 0 && obs[j].TS.Before(obs[j-1].TS); j-- {
			obs[j], obs[j-1] = obs[j-1], obs[j]
		}
	}
}
