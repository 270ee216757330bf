package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FinDesk/internal/chart"
	"FinDesk/internal/market"
	"FinDesk/internal/model"
)

func TestSparkline(t *testing.T) {
	pts := []model.PricePoint{{Price: 1}, {Price: 2}, {Price: 3}}
	assert.Equal(t, "▁▄█", sparkline(pts, 1, 3, 10))
	assert.Equal(t, "", sparkline(nil, 0, 1, 10))
	// flat series stays on the baseline
	assert.Equal(t, "▁▁", sparkline([]model.PricePoint{{Price: 5}, {Price: 5}}, 5, 5, 10))
	assert.Len(t, []rune(sparkline(make([]model.PricePoint, 200), 0, 1, 60)), 60)
}

func TestRenderState(t *testing.T) {
	b := chart.NewBuffer(30)
	now := time.Now()
	b.Reset(&model.HistoricalSeries{
		Symbol:    "AAPL",
		Timeframe: model.Timeframe1M,
		Points:    []model.PricePoint{{Timestamp: now.Add(-time.Hour), Price: 100}, {Timestamp: now, Price: 110}},
	})
	st := market.ViewState{
		Symbol:    "AAPL",
		Timeframe: model.Timeframe1M,
		Interval:  "5s",
		Chart:     chart.Render(b, "AAPL", model.Timeframe1M),
		Quote:     &model.Quote{Symbol: "AAPL", Price: 110, Change: -1.5, ChangePercent: -1.35, Source: "simulated", Simulated: true, Timestamp: now},
		Error:     "finnhub unavailable",
		Stale:     true,
	}
	out := renderState(st)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "$110.00")
	assert.Contains(t, out, "-1.50")
	assert.Contains(t, out, "stale: finnhub unavailable")
	assert.Contains(t, out, "simulated")

	loading := renderState(market.ViewState{Symbol: "MSFT", Chart: chart.Chart{Loading: true}})
	assert.True(t, strings.Contains(loading, "Loading..."))
}

func TestMockBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/mock", mockBaseURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000/mock", mockBaseURL("127.0.0.1:9000"))
	assert.Equal(t, "http://localhost:8080/mock", mockBaseURL("garbage"))
}

func TestRenderSummary(t *testing.T) {
	pts := make([]model.PricePoint, 25)
	for i := range pts {
		pts[i] = model.PricePoint{Price: float64(100 + i)}
	}
	out := renderSummary(pts)
	assert.Contains(t, out, "high $124.00")
	assert.Contains(t, out, "range 100%")
	assert.Contains(t, out, "SMA20 $114.50")
	assert.Contains(t, out, "RSI14 100.0")
	assert.Empty(t, renderSummary(nil))
}
