package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"volarbv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for warm-up and snapshot restore.
type Reader struct {
	db *sql.DB
}

var (
	_ model.ObservationReader = (*Reader)(nil)
	_ model.SnapshotReader    = (*Reader)(nil)
)

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadObservations reads observations for a single symbol after the given
// unix-milli timestamp (0 = all), ordered by timestamp ascending.
func (r *Reader) ReadObservations(symbol string, afterTS int64) ([]model.Observation, error) {
	rows, err := r.db.Query(`
		SELECT symbol, ts, price
		FROM observations
		WHERE symbol = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ReadAllObservations reads all observations after the given unix-milli
// timestamp (0 = all), ordered by timestamp ascending.
func (r *Reader) ReadAllObservations(afterTS int64) ([]model.Observation, error) {
	rows, err := r.db.Query(`
		SELECT symbol, ts, price
		FROM observations
		WHERE ts > ?
		ORDER BY ts ASC
	`, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query all observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]model.Observation, error) {
	var out []model.Observation
	for rows.Next() {
		var obs model.Observation
		var tsMilli int64
		if err := rows.Scan(&obs.Symbol, &tsMilli, &obs.Price); err != nil {
			return nil, fmt.Errorf("sqlite scan observations: %w", err)
		}
		obs.TS = time.UnixMilli(tsMilli).UTC()
		out = append(out, obs)
	}
	return out, rows.Err()
}

// ReadLatestSnapshotJSON loads the most recent registry snapshot from SQLite.
// Returns nil with no error when no snapshot exists.
func (r *Reader) ReadLatestSnapshotJSON() ([]byte, error) {
	var data string
	err := r.db.QueryRow(`
		SELECT data FROM registry_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // no snapshot
		}
		return nil, fmt.Errorf("sqlite read snapshot: %w", err)
	}

	return []byte(data), nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
