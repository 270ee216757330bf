package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"FinDesk/internal/model"
)

// DefaultHistoricalTimeout bounds historical fetches.
const DefaultHistoricalTimeout = 10 * time.Second

// Fallback wraps a primary provider and substitutes simulated data when the
// primary has nothing for a symbol, or, if enabled, when it is unavailable.
type Fallback struct {
	Primary               Provider
	Simulator             *Simulator
	FallbackOnUnavailable bool
	HistoricalTimeout     time.Duration
}

// NewFallback wraps primary with a fresh simulator.
func NewFallback(primary Provider, fallbackOnUnavailable bool, historicalTimeout time.Duration) *Fallback {
	if historicalTimeout <= 0 {
		historicalTimeout = DefaultHistoricalTimeout
	}
	return &Fallback{
		Primary:               primary,
		Simulator:             NewSimulator(),
		FallbackOnUnavailable: fallbackOnUnavailable,
		HistoricalTimeout:     historicalTimeout,
	}
}

func (f *Fallback) Name() string { return f.Primary.Name() }

func (f *Fallback) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol, err := CleanSymbol(symbol)
	if err != nil {
		return nil, err
	}
	q, err := f.Primary.GetQuote(ctx, symbol)
	if err == nil {
		return q, nil
	}
	if !f.shouldFallback(err) {
		return nil, err
	}
	log.Warn().Err(err).Str("symbol", symbol).Str("provider", f.Primary.Name()).Msg("quote falling back to simulated data")
	sq, serr := f.Simulator.GetQuote(ctx, symbol)
	if serr != nil {
		return nil, errors.Join(err, serr)
	}
	sq.Simulated = true
	return sq, nil
}

// GetHistorical enforces HistoricalTimeout on the primary; a timeout surfaces
// as an UnavailableError.
func (f *Fallback) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	symbol, err := CleanSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if !tf.Valid() {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}

	tctx, cancel := context.WithTimeout(ctx, f.HistoricalTimeout)
	series, err := f.Primary.GetHistorical(tctx, symbol, tf)
	cancel()
	if err == nil && len(series.Points) < 2 {
		err = noData(f.Primary.Name(), symbol)
	}
	if err == nil {
		return series, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, ErrProviderUnavailable) {
		err = unavailable(f.Primary.Name(), fmt.Errorf("historical fetch timed out after %s: %w", f.HistoricalTimeout, err))
	}
	if !f.shouldFallback(err) || ctx.Err() != nil {
		return nil, err
	}
	log.Warn().Err(err).Str("symbol", symbol).Str("timeframe", string(tf)).Str("provider", f.Primary.Name()).Msg("history falling back to simulated data")

	// anchor the synthetic series on whatever current price we can get
	current, _ := BasePrice(symbol)
	qctx, qcancel := context.WithTimeout(ctx, f.HistoricalTimeout)
	if q, qerr := f.Primary.GetQuote(qctx, symbol); qerr == nil && q.Price > 0 {
		current = q.Price
	}
	qcancel()
	return SyntheticSeries(symbol, tf, current, f.Simulator.Now()), nil
}

func (f *Fallback) shouldFallback(err error) bool {
	switch {
	case errors.Is(err, ErrNoData):
		return true
	case errors.Is(err, ErrProviderUnavailable):
		return f.FallbackOnUnavailable
	default:
		return false
	}
}
