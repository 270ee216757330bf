package recorder

import (
	"time"

	"FinDesk/internal/model"
)

// PollError is a failed refresh tick of a view.
type PollError struct {
	ViewID   string
	Symbol   string
	Provider string
	Error    string
	At       time.Time
}

// LedgerEvent is the outcome of one ledger mutation.
type LedgerEvent struct {
	UserID   string
	Resource string // "transactions", "investments", "categories"
	Action   string // "CREATE", "UPDATE", "DELETE"
	EntityID int
	Outcome  string // "OK", "INVALID", "REJECTED", "UNAVAILABLE"
	Detail   string
	At       time.Time
}

// Recorder persists quote samples and operational events for later review.
type Recorder interface {
	RecordQuote(q *model.Quote) error
	RecordPollError(evt *PollError) error
	RecordLedgerEvent(evt *LedgerEvent) error
	RecentQuotes(symbol string, limit int) ([]model.Quote, error)
	Close() error
}
