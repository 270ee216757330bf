package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"FinDesk/internal/model"
)

// YahooBaseURL is the public Yahoo Finance chart host.
const YahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo implements Provider using the Yahoo Finance v8 chart API.
type Yahoo struct {
	client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahoo creates a Yahoo provider. An empty baseURL targets YahooBaseURL.
func NewYahoo(baseURL, proxyURL string, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	return &Yahoo{
		client: newRestClient(baseURL, proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
		},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				RegularMarketVol   int64   `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooRanges maps a timeframe to the chart interval and range parameters.
var yahooRanges = map[model.Timeframe][2]string{
	model.Timeframe1D:  {"5m", "1d"},
	model.Timeframe1W:  {"30m", "5d"},
	model.Timeframe1M:  {"1d", "1mo"},
	model.Timeframe3M:  {"1d", "3mo"},
	model.Timeframe1Y:  {"1d", "1y"},
	model.Timeframe5Y:  {"1wk", "5y"},
	model.TimeframeMax: {"1mo", "max"},
}

func (y *Yahoo) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	var chart yahooChart
	path := "/v8/finance/chart/" + url.PathEscape(y.yahooSymbol(symbol))
	params := map[string]string{"interval": interval, "range": rng}
	if err := getJSON(ctx, y.client, y.Name(), symbol, path, params, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, ErrNoData)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, noData(y.Name(), symbol)
	}
	return &chart, nil
}

func (y *Yahoo) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	chart, err := y.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, noData(y.Name(), symbol)
	}
	prev := meta.ChartPreviousClose
	if prev == 0 {
		prev = meta.PreviousClose
	}
	q := &model.Quote{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		Volume:    meta.RegularMarketVol,
		Timestamp: time.Now(),
		Source:    y.Name(),
	}
	if meta.RegularMarketTime > 0 {
		q.Timestamp = time.Unix(meta.RegularMarketTime, 0)
	}
	if prev > 0 {
		q.Change = round2(q.Price - prev)
		q.ChangePercent = round2(q.Change / prev * 100)
	}
	return q, nil
}

func (y *Yahoo) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	params, ok := yahooRanges[tf]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	chart, err := y.fetchChart(ctx, symbol, params[0], params[1])
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, noData(y.Name(), symbol)
	}
	closes := result.Indicators.Quote[0].Close
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars (holidays, halts)
		}
		points = append(points, model.PricePoint{Timestamp: time.Unix(ts, 0), Price: *closes[i]})
	}
	return &model.HistoricalSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    sortStrict(points),
		Source:    y.Name(),
	}, nil
}
