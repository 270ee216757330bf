package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"FinDesk/internal/model"
)

// MockREST reads the mock quote/historical endpoints.
type MockREST struct {
	client *resty.Client
}

// NewMockREST creates a client for a mock server rooted at baseURL.
func NewMockREST(baseURL, proxyURL string, timeout time.Duration) *MockREST {
	return &MockREST{client: newRestClient(baseURL, proxyURL, timeout)}
}

func (m *MockREST) Name() string { return "mock" }

type mockQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	Timestamp     string  `json:"timestamp"`
	Simulated     bool    `json:"simulated"`
	Mocked        bool    `json:"__mocked"`
}

type mockHistory struct {
	Symbol     string    `json:"symbol"`
	Prices     []float64 `json:"prices"`
	Timestamps []string  `json:"timestamps"`
	Mocked     bool      `json:"__mocked"`
}

func (m *MockREST) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var mq mockQuote
	if err := getJSON(ctx, m.client, m.Name(), symbol, "/quote/"+url.PathEscape(symbol), nil, &mq); err != nil {
		return nil, err
	}
	if mq.Price <= 0 {
		return nil, noData(m.Name(), symbol)
	}
	ts, err := time.Parse(time.RFC3339Nano, mq.Timestamp)
	if err != nil {
		return nil, unavailable(m.Name(), fmt.Errorf("parse timestamp %q: %w", mq.Timestamp, err))
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         mq.Price,
		Change:        mq.Change,
		ChangePercent: mq.ChangePercent,
		Volume:        mq.Volume,
		Timestamp:     ts,
		Simulated:     mq.Simulated,
		Source:        m.Name(),
	}, nil
}

func (m *MockREST) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	var mh mockHistory
	params := map[string]string{"period": tf.MockPeriod()}
	if err := getJSON(ctx, m.client, m.Name(), symbol, "/historical/"+url.PathEscape(symbol), params, &mh); err != nil {
		return nil, err
	}
	if len(mh.Prices) != len(mh.Timestamps) {
		return nil, unavailable(m.Name(), fmt.Errorf("mismatched series: %d prices, %d timestamps", len(mh.Prices), len(mh.Timestamps)))
	}
	points := make([]model.PricePoint, 0, len(mh.Prices))
	for i, raw := range mh.Timestamps {
		ts, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			return nil, unavailable(m.Name(), fmt.Errorf("parse date %q: %w", raw, err))
		}
		points = append(points, model.PricePoint{Timestamp: ts, Price: mh.Prices[i]})
	}
	return &model.HistoricalSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    sortStrict(points),
		Simulated: true,
		Source:    m.Name(),
	}, nil
}
