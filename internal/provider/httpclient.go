package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// newRestClient builds a resty client with optional proxy support.
func newRestClient(baseURL, proxyURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0 (FinDesk)")
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}

// getJSON issues a GET and decodes the JSON body into out. Transport failures
// and non-2xx statuses become UnavailableError; 404 becomes ErrNoData.
func getJSON(ctx context.Context, c *resty.Client, provider, symbol, path string, params map[string]string, out any) error {
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return unavailable(provider, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return noData(provider, symbol)
	}
	if !resp.IsSuccess() {
		return unavailable(provider, fmt.Errorf("status %d, body: %s", resp.StatusCode(), truncate(resp.String(), 200)))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return unavailable(provider, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
