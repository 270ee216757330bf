package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"FinDesk/internal/model"
)

// AlphaVantageBaseURL is the public Alpha Vantage host.
const AlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantage implements Provider against an Alpha Vantage style /query API.
type AlphaVantage struct {
	client *resty.Client
	apiKey string
}

// NewAlphaVantage creates the provider; an empty baseURL targets AlphaVantageBaseURL.
func NewAlphaVantage(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantage {
	if baseURL == "" {
		baseURL = AlphaVantageBaseURL
	}
	return &AlphaVantage{client: newRestClient(baseURL, proxyURL, timeout), apiKey: apiKey}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

// avEnvelope carries the error/throttle fields every response may contain.
type avEnvelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (e avEnvelope) check(provider, symbol string) error {
	switch {
	case e.ErrorMessage != "":
		return fmt.Errorf("%s: %s: %w", provider, e.ErrorMessage, ErrNoData)
	case e.Note != "":
		return unavailable(provider, fmt.Errorf("throttled: %s", e.Note))
	case e.Information != "":
		return unavailable(provider, fmt.Errorf("%s", e.Information))
	}
	return nil
}

type avGlobalQuote struct {
	avEnvelope
	Quote map[string]string `json:"Global Quote"`
}

func (a *AlphaVantage) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var gq avGlobalQuote
	params := map[string]string{"function": "GLOBAL_QUOTE", "symbol": symbol, "apikey": a.apiKey}
	if err := getJSON(ctx, a.client, a.Name(), symbol, "/query", params, &gq); err != nil {
		return nil, err
	}
	if err := gq.check(a.Name(), symbol); err != nil {
		return nil, err
	}
	if len(gq.Quote) == 0 {
		return nil, noData(a.Name(), symbol)
	}
	price, err := parseAVFloat(gq.Quote["05. price"])
	if err != nil || price <= 0 {
		return nil, noData(a.Name(), symbol)
	}
	change, _ := parseAVFloat(gq.Quote["09. change"])
	pct, _ := parseAVFloat(strings.TrimSuffix(gq.Quote["10. change percent"], "%"))
	volume, _ := strconv.ParseInt(gq.Quote["06. volume"], 10, 64)
	return &model.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: pct,
		Volume:        volume,
		Timestamp:     time.Now(),
		Source:        a.Name(),
	}, nil
}

func (a *AlphaVantage) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	params := map[string]string{"symbol": symbol, "apikey": a.apiKey}
	layout := model.DateLayout
	switch tf {
	case model.Timeframe1D:
		params["function"] = "TIME_SERIES_INTRADAY"
		params["interval"] = "15min"
		layout = "2006-01-02 15:04:05"
	case model.Timeframe1W:
		params["function"] = "TIME_SERIES_INTRADAY"
		params["interval"] = "60min"
		params["outputsize"] = "full"
		layout = "2006-01-02 15:04:05"
	case model.Timeframe1M, model.Timeframe3M:
		params["function"] = "TIME_SERIES_DAILY"
	case model.Timeframe1Y, model.Timeframe5Y:
		params["function"] = "TIME_SERIES_DAILY"
		params["outputsize"] = "full"
	default:
		params["function"] = "TIME_SERIES_WEEKLY"
	}

	var raw map[string]any
	if err := getJSON(ctx, a.client, a.Name(), symbol, "/query", params, &raw); err != nil {
		return nil, err
	}
	env := avEnvelope{}
	env.Note, _ = raw["Note"].(string)
	env.Information, _ = raw["Information"].(string)
	env.ErrorMessage, _ = raw["Error Message"].(string)
	if err := env.check(a.Name(), symbol); err != nil {
		return nil, err
	}

	var series map[string]any
	for key, v := range raw {
		if strings.HasPrefix(key, "Time Series") || strings.HasPrefix(key, "Weekly Time Series") {
			series, _ = v.(map[string]any)
			break
		}
	}
	if len(series) == 0 {
		return nil, noData(a.Name(), symbol)
	}
	points := make([]model.PricePoint, 0, len(series))
	for stamp, bar := range series {
		fields, ok := bar.(map[string]any)
		if !ok {
			continue
		}
		closeStr, _ := fields["4. close"].(string)
		price, err := parseAVFloat(closeStr)
		if err != nil {
			continue
		}
		ts, err := time.Parse(layout, stamp)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{Timestamp: ts, Price: price})
	}
	return &model.HistoricalSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    trimWindow(sortStrict(points), tf.Window()),
		Source:    a.Name(),
	}, nil
}

func parseAVFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
