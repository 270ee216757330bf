package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"FinDesk/internal/model"
)

// SerpAPIBaseURL is the public SerpApi host.
const SerpAPIBaseURL = "https://serpapi.com"

// SerpAPI implements Provider using the google_finance engine of a SerpApi
// style search proxy.
type SerpAPI struct {
	client *resty.Client
	apiKey string
}

// NewSerpAPI creates the provider; an empty baseURL targets SerpAPIBaseURL.
func NewSerpAPI(baseURL, apiKey, proxyURL string, timeout time.Duration) *SerpAPI {
	if baseURL == "" {
		baseURL = SerpAPIBaseURL
	}
	return &SerpAPI{client: newRestClient(baseURL, proxyURL, timeout), apiKey: apiKey}
}

func (s *SerpAPI) Name() string { return "serpapi" }

type serpResponse struct {
	Error   string `json:"error"`
	Summary *struct {
		Title          string  `json:"title"`
		Stock          string  `json:"stock"`
		ExtractedPrice float64 `json:"extracted_price"`
		PriceMovement  struct {
			Percentage float64 `json:"percentage"`
			Value      float64 `json:"value"`
			Movement   string  `json:"movement"`
		} `json:"price_movement"`
	} `json:"summary"`
	Graph []struct {
		Price  float64 `json:"price"`
		Date   string  `json:"date"`
		Volume int64   `json:"volume"`
	} `json:"graph"`
}

// serpWindows maps a timeframe to the engine's window parameter.
var serpWindows = map[model.Timeframe]string{
	model.Timeframe1D:  "1D",
	model.Timeframe1W:  "5D",
	model.Timeframe1M:  "1M",
	model.Timeframe3M:  "6M",
	model.Timeframe1Y:  "1Y",
	model.Timeframe5Y:  "5Y",
	model.TimeframeMax: "MAX",
}

var serpDateLayouts = []string{
	time.RFC3339,
	"Jan 02 2006, 03:04 PM MST",
	"Jan 02 2006, 03:04 PM UTC-07:00",
	"Jan 02 2006",
	model.DateLayout,
}

func parseSerpDate(s string) (time.Time, error) {
	for _, layout := range serpDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (s *SerpAPI) search(ctx context.Context, symbol, window string) (*serpResponse, error) {
	params := map[string]string{
		"engine":  "google_finance",
		"q":       symbol,
		"api_key": s.apiKey,
	}
	if window != "" {
		params["window"] = window
	}
	var resp serpResponse
	if err := getJSON(ctx, s.client, s.Name(), symbol, "/search.json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s: %s: %w", s.Name(), resp.Error, ErrNoData)
	}
	return &resp, nil
}

func (s *SerpAPI) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	resp, err := s.search(ctx, symbol, "")
	if err != nil {
		return nil, err
	}
	if resp.Summary == nil || resp.Summary.ExtractedPrice <= 0 {
		return nil, noData(s.Name(), symbol)
	}
	move := resp.Summary.PriceMovement
	sign := 1.0
	if strings.EqualFold(move.Movement, "down") {
		sign = -1
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         resp.Summary.ExtractedPrice,
		Change:        sign * move.Value,
		ChangePercent: sign * move.Percentage,
		Timestamp:     time.Now(),
		Source:        s.Name(),
	}, nil
}

func (s *SerpAPI) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	window, ok := serpWindows[tf]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	resp, err := s.search(ctx, symbol, window)
	if err != nil {
		return nil, err
	}
	points := make([]model.PricePoint, 0, len(resp.Graph))
	for _, g := range resp.Graph {
		ts, err := parseSerpDate(g.Date)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{Timestamp: ts, Price: g.Price})
	}
	return &model.HistoricalSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    trimWindow(sortStrict(points), tf.Window()),
		Source:    s.Name(),
	}, nil
}
