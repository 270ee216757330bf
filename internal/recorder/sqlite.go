package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"FinDesk/internal/model"
)

// SQLiteRecorder persists quote samples and events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read recent quotes while pollers write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_samples (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			price          REAL,
			change         REAL,
			change_percent REAL,
			volume         INTEGER,
			simulated      INTEGER,
			source         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_symbol_ts ON quote_samples(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS poll_errors (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			view_id   TEXT,
			symbol    TEXT,
			provider  TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_poll_errors_ts ON poll_errors(timestamp)`,

		`CREATE TABLE IF NOT EXISTS ledger_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			user_id   TEXT,
			resource  TEXT,
			action    TEXT,
			entity_id INTEGER,
			outcome   TEXT,
			detail    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_events_ts ON ledger_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func (r *SQLiteRecorder) RecordQuote(q *model.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quote_samples
		(timestamp, symbol, price, change, change_percent, volume, simulated, source)
		VALUES (?,?,?,?,?,?,?,?)`,
		stamp(q.Timestamp), q.Symbol, q.Price, q.Change, q.ChangePercent,
		q.Volume, q.Simulated, q.Source,
	)
	return err
}

func (r *SQLiteRecorder) RecordPollError(evt *PollError) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO poll_errors
		(timestamp, view_id, symbol, provider, error)
		VALUES (?,?,?,?,?)`,
		stamp(evt.At), evt.ViewID, evt.Symbol, evt.Provider, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordLedgerEvent(evt *LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO ledger_events
		(timestamp, user_id, resource, action, entity_id, outcome, detail)
		VALUES (?,?,?,?,?,?,?)`,
		stamp(evt.At), evt.UserID, evt.Resource, evt.Action,
		evt.EntityID, evt.Outcome, evt.Detail,
	)
	return err
}

// RecentQuotes returns up to limit samples for symbol, newest first.
func (r *SQLiteRecorder) RecentQuotes(symbol string, limit int) ([]model.Quote, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(`SELECT timestamp, symbol, price, change, change_percent, volume, simulated, source
		FROM quote_samples WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var out []model.Quote
	for rows.Next() {
		var (
			q  model.Quote
			ms int64
		)
		if err := rows.Scan(&ms, &q.Symbol, &q.Price, &q.Change, &q.ChangePercent, &q.Volume, &q.Simulated, &q.Source); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Timestamp = time.UnixMilli(ms)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
