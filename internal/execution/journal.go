package execution

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Journal persists executed decisions to SQLite for analysis and audit.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id      TEXT NOT NULL,
		symbol        TEXT NOT NULL,
		action        TEXT NOT NULL,
		size_fraction REAL DEFAULT 0,
		qty           REAL NOT NULL,
		price         REAL NOT NULL,
		reason        TEXT,
		filled_at     DATETIME NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol);
	CREATE INDEX IF NOT EXISTS idx_decisions_filled_at ON decisions(filled_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened decision journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordFill persists an executed decision to the journal.
func (j *Journal) RecordFill(fill Fill) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO decisions (order_id, symbol, action, size_fraction, qty, price, reason, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fill.OrderID,
		fill.Decision.Symbol,
		string(fill.Decision.Action),
		fill.Decision.SizeFraction,
		fill.Qty,
		fill.Price,
		fill.Decision.Reason,
		fill.FilledAt.Format(time.RFC3339),
	)
	return err
}

// Record represents a row from the decisions table.
type Record struct {
	ID           int64   `json:"id"`
	OrderID      string  `json:"order_id"`
	Symbol       string  `json:"symbol"`
	Action       string  `json:"action"`
	SizeFraction float64 `json:"size_fraction"`
	Qty          float64 `json:"qty"`
	Price        float64 `json:"price"`
	Reason       string  `json:"reason"`
	FilledAt     string  `json:"filled_at"`
}

// GetRecords returns the last N executed decisions, newest first.
func (j *Journal) GetRecords(limit int) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, order_id, symbol, action, size_fraction, qty, price, reason, filled_at
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Symbol, &rec.Action,
			&rec.SizeFraction, &rec.Qty, &rec.Price, &rec.Reason, &rec.FilledAt); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
