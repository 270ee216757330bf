package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"FinDesk/internal/model"
)

// Finnhub implements Provider with the official finnhub-go client.
type Finnhub struct {
	api *finnhub.DefaultApiService
}

// NewFinnhub creates the provider. baseURL overrides the API server (tests,
// proxies); an empty value keeps the client default.
func NewFinnhub(baseURL, apiKey, proxyURL string, timeout time.Duration) *Finnhub {
	return &Finnhub{api: NewFinnhubAPI(baseURL, apiKey, proxyURL, timeout)}
}

// NewFinnhubAPI builds a configured finnhub-go service; shared with the news feed.
func NewFinnhubAPI(baseURL, apiKey, proxyURL string, timeout time.Duration) *finnhub.DefaultApiService {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout, Transport: transport}
	if baseURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: baseURL}}
	}
	return finnhub.NewAPIClient(cfg).DefaultApi
}

func (f *Finnhub) Name() string { return "finnhub" }

func (f *Finnhub) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	res, _, err := f.api.Quote(ctx).Symbol(symbol).Execute()
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	// unknown symbols come back as an all-zero quote
	if res.GetC() == 0 && res.GetPc() == 0 {
		return nil, noData(f.Name(), symbol)
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         round2(float64(res.GetC())),
		Change:        round2(float64(res.GetD())),
		ChangePercent: round2(float64(res.GetDp())),
		Timestamp:     time.Now(),
		Source:        f.Name(),
	}, nil
}

// finnhubResolutions maps a timeframe to a candle resolution.
var finnhubResolutions = map[model.Timeframe]string{
	model.Timeframe1D:  "15",
	model.Timeframe1W:  "60",
	model.Timeframe1M:  "D",
	model.Timeframe3M:  "D",
	model.Timeframe1Y:  "D",
	model.Timeframe5Y:  "W",
	model.TimeframeMax: "M",
}

func (f *Finnhub) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	resolution, ok := finnhubResolutions[tf]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	to := time.Now()
	from := to.Add(-tf.Window())
	res, _, err := f.api.StockCandles(ctx).
		Symbol(symbol).
		Resolution(resolution).
		From(from.Unix()).
		To(to.Unix()).
		Execute()
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	if res.GetS() == "no_data" {
		return nil, noData(f.Name(), symbol)
	}
	closes := res.GetC()
	stamps := res.GetT()
	points := make([]model.PricePoint, 0, len(closes))
	for i := 0; i < len(closes) && i < len(stamps); i++ {
		points = append(points, model.PricePoint{
			Timestamp: time.Unix(stamps[i], 0),
			Price:     round2(float64(closes[i])),
		})
	}
	return &model.HistoricalSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    sortStrict(points),
		Source:    f.Name(),
	}, nil
}
