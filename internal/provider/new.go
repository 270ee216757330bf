package provider

import (
	"fmt"
	"strings"
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Name              string
	BaseURL           string
	APIKey            string
	Proxy             string
	Timeout           time.Duration
	RatePerMinute     int
	FallbackSimulated bool
	HistoricalTimeout time.Duration
}

// New builds the named provider, rate limits live upstreams and wraps the
// result in a Fallback.
func New(opts Options) (Provider, error) {
	var (
		p    Provider
		live = true
	)
	switch strings.ToLower(opts.Name) {
	case "", "simulated":
		p = NewSimulator()
		live = false
	case "mock":
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("provider mock requires base_url")
		}
		p = NewMockREST(opts.BaseURL, opts.Proxy, opts.Timeout)
		live = false
	case "finnhub":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("provider finnhub requires api_key")
		}
		p = NewFinnhub(opts.BaseURL, opts.APIKey, opts.Proxy, opts.Timeout)
	case "alphavantage":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("provider alphavantage requires api_key")
		}
		p = NewAlphaVantage(opts.BaseURL, opts.APIKey, opts.Proxy, opts.Timeout)
	case "serpapi":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("provider serpapi requires api_key")
		}
		p = NewSerpAPI(opts.BaseURL, opts.APIKey, opts.Proxy, opts.Timeout)
	case "yahoo":
		p = NewYahoo(opts.BaseURL, opts.Proxy, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Name)
	}
	if live && opts.RatePerMinute > 0 {
		p = WithRateLimit(p, opts.RatePerMinute)
	}
	return NewFallback(p, opts.FallbackSimulated, opts.HistoricalTimeout), nil
}
