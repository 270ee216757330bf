package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDesk/internal/model"
)

// stubProvider returns canned results.
type stubProvider struct {
	quote    *model.Quote
	quoteErr error
	series   *model.HistoricalSeries
	histErr  error
	block    bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	return s.quote, s.quoteErr
}

func (s *stubProvider) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.series, s.histErr
}

func TestFallback_PassesThroughSuccess(t *testing.T) {
	q := &model.Quote{Symbol: "AAPL", Price: 190}
	f := NewFallback(&stubProvider{quote: q}, false, 0)
	got, err := f.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Same(t, q, got)
}

func TestFallback_NoDataSynthesizes(t *testing.T) {
	f := NewFallback(&stubProvider{quoteErr: noData("stub", "AAPL")}, false, 0)
	got, err := f.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	// even a known symbol is flagged once the upstream had nothing
	assert.True(t, got.Simulated)
	assert.InDelta(t, 189.84, got.Price, 189.84*jitter+0.006)
}

func TestFallback_Unavailable(t *testing.T) {
	upstream := unavailable("stub", errors.New("connection refused"))

	strict := NewFallback(&stubProvider{quoteErr: upstream}, false, 0)
	_, err := strict.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	lenient := NewFallback(&stubProvider{quoteErr: upstream}, true, 0)
	q, err := lenient.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.Simulated)
}

func TestFallback_HistoricalTimeout(t *testing.T) {
	f := NewFallback(&stubProvider{block: true}, false, 20*time.Millisecond)
	start := time.Now()
	_, err := f.GetHistorical(context.Background(), "AAPL", model.Timeframe1M)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFallback_HistoricalNoDataAnchorsOnQuote(t *testing.T) {
	stub := &stubProvider{
		quote:   &model.Quote{Symbol: "XYZ", Price: 50},
		histErr: noData("stub", "XYZ"),
	}
	f := NewFallback(stub, false, 0)
	s, err := f.GetHistorical(context.Background(), "XYZ", model.Timeframe1W)
	require.NoError(t, err)
	assert.True(t, s.Simulated)
	assert.Len(t, s.Points, model.Timeframe1W.Points())
	last, ok := s.Last()
	require.True(t, ok)
	assert.InDelta(t, 50, last.Price, 50*historyStart*historyNoise+0.01)
}

func TestFallback_ShortSeriesTreatedAsNoData(t *testing.T) {
	stub := &stubProvider{
		quoteErr: noData("stub", "AAPL"),
		series: &model.HistoricalSeries{Points: []model.PricePoint{
			{Timestamp: time.Now(), Price: 1},
		}},
	}
	f := NewFallback(stub, false, 0)
	s, err := f.GetHistorical(context.Background(), "AAPL", model.Timeframe1D)
	require.NoError(t, err)
	assert.Len(t, s.Points, model.Timeframe1D.Points())
}

func TestFallback_RejectsUnknownTimeframe(t *testing.T) {
	f := NewFallback(&stubProvider{}, true, 0)
	_, err := f.GetHistorical(context.Background(), "AAPL", model.Timeframe("2D"))
	assert.Error(t, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{name: "default simulated", opts: Options{}, want: "simulated"},
		{name: "yahoo", opts: Options{Name: "yahoo"}, want: "yahoo"},
		{name: "finnhub needs key", opts: Options{Name: "finnhub"}, wantErr: true},
		{name: "finnhub", opts: Options{Name: "finnhub", APIKey: "k"}, want: "finnhub"},
		{name: "alphavantage", opts: Options{Name: "AlphaVantage", APIKey: "k", RatePerMinute: 5}, want: "alphavantage"},
		{name: "serpapi", opts: Options{Name: "serpapi", APIKey: "k"}, want: "serpapi"},
		{name: "mock needs url", opts: Options{Name: "mock"}, wantErr: true},
		{name: "mock", opts: Options{Name: "mock", BaseURL: "http://localhost:1"}, want: "mock"},
		{name: "unknown", opts: Options{Name: "bloomberg"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
			assert.IsType(t, &Fallback{}, p)
		})
	}
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	p := WithRateLimit(&stubProvider{quote: &model.Quote{Price: 1}}, 1)
	_, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.GetQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
