package model

import "time"

// Quote is a single point-in-time price observation for a symbol.
// A new Quote is produced on every poll; values are never mutated afterwards.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Simulated     bool      `json:"simulated"`
	Source        string    `json:"source"`
}

// Point returns the quote as a chart point.
func (q *Quote) Point() PricePoint {
	return PricePoint{Timestamp: q.Timestamp, Price: q.Price}
}

// PricePoint is one sample of a price series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// HistoricalSeries is an ordered price series for a symbol over a past window.
// It is immutable once fetched and replaced wholesale when the timeframe changes.
type HistoricalSeries struct {
	Symbol    string       `json:"symbol"`
	Timeframe Timeframe    `json:"timeframe"`
	Points    []PricePoint `json:"points"`
	Simulated bool         `json:"simulated"`
	Source    string       `json:"source"`
}

// Last returns the newest point of the series.
func (s *HistoricalSeries) Last() (PricePoint, bool) {
	if s == nil || len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}
