package provider

import (
	"context"

	"golang.org/x/time/rate"

	"FinDesk/internal/model"
)

// RateLimited spaces calls to an upstream with a per-minute budget.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps p; a non-positive budget returns p unchanged.
func WithRateLimit(p Provider, perMinute int) Provider {
	if perMinute <= 0 {
		return p
	}
	burst := perMinute / 12
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst),
	}
}

func (r *RateLimited) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, unavailable(r.Name(), err)
	}
	return r.Provider.GetQuote(ctx, symbol)
}

func (r *RateLimited) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, unavailable(r.Name(), err)
	}
	return r.Provider.GetHistorical(ctx, symbol, tf)
}
