package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple the signal engine from concrete storage
// implementations (Redis, SQLite). Each implementation satisfies one or
// more of them.

// ObservationWriter persists a stream of price observations.
type ObservationWriter interface {
	// Run reads observations from obsCh and writes them.
	// Blocks until ctx is cancelled or obsCh is closed.
	Run(ctx context.Context, obsCh <-chan Observation)

	// Close releases underlying resources.
	Close() error
}

// ObservationReader reads stored observations for warm-up and replay.
type ObservationReader interface {
	// ReadObservations reads observations for one instrument after the
	// given unix timestamp, ordered by time ascending.
	ReadObservations(symbol string, afterTS int64) ([]Observation, error)

	// ReadAllObservations reads observations for all instruments after the
	// given unix timestamp, ordered by time ascending.
	ReadAllObservations(afterTS int64) ([]Observation, error)

	// Close releases underlying resources.
	Close() error
}

// SnapshotWriter persists registry checkpoints as raw JSON.
// Using []byte avoids a model→strategy→model import cycle.
type SnapshotWriter interface {
	// SaveSnapshotJSON persists a JSON-encoded registry snapshot.
	SaveSnapshotJSON(data []byte) error
}

// SnapshotReader loads the most recent registry checkpoint.
type SnapshotReader interface {
	// ReadLatestSnapshotJSON loads the most recent snapshot as raw JSON.
	// Returns nil, nil if no snapshot exists.
	ReadLatestSnapshotJSON() ([]byte, error)
}

// DecisionPublisher publishes emitted decisions to downstream consumers.
type DecisionPublisher interface {
	// Publish writes one decision.
	Publish(ctx context.Context, d Decision) error

	// Close releases underlying resources.
	Close() error
}
