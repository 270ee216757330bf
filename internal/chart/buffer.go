package chart

import "FinDesk/internal/model"

// Buffer pairs the immutable historical series of a view with its live tail.
// The two are never merged; callers style them independently. A Buffer is not
// safe for concurrent use.
type Buffer struct {
	history *model.HistoricalSeries
	tail    *LiveTail
}

// NewBuffer creates an empty buffer with a live tail of the given size.
func NewBuffer(tailSize int) *Buffer {
	return &Buffer{tail: NewLiveTail(tailSize)}
}

// Reset replaces the history and clears the live tail.
func (b *Buffer) Reset(series *model.HistoricalSeries) {
	b.history = series
	b.tail.Reset()
}

// Clear drops both the history and the live tail.
func (b *Buffer) Clear() { b.Reset(nil) }

// SetHistory replaces the history and keeps the live tail.
func (b *Buffer) SetHistory(series *model.HistoricalSeries) { b.history = series }

// Append adds a live point.
func (b *Buffer) Append(p model.PricePoint) bool { return b.tail.Append(p) }

// History is the current historical series, nil while loading.
func (b *Buffer) History() *model.HistoricalSeries { return b.history }

// Tail exposes the live tail.
func (b *Buffer) Tail() *LiveTail { return b.tail }

// Datasets returns copies of the historical and live points.
func (b *Buffer) Datasets() (historical, live []model.PricePoint) {
	if b.history != nil {
		historical = append([]model.PricePoint(nil), b.history.Points...)
	}
	return historical, b.tail.Points()
}

// Empty reports whether there is nothing to draw.
func (b *Buffer) Empty() bool {
	return (b.history == nil || len(b.history.Points) == 0) && b.tail.Len() == 0
}
