package recorder

import "FinDesk/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuote(_ *model.Quote) error                { return nil }
func (n *NoopRecorder) RecordPollError(_ *PollError) error              { return nil }
func (n *NoopRecorder) RecordLedgerEvent(_ *LedgerEvent) error          { return nil }
func (n *NoopRecorder) RecentQuotes(string, int) ([]model.Quote, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
