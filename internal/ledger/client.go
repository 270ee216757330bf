package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// UserHeader carries the caller's user id on every backend request.
const UserHeader = "userId"

// Client talks to the remote ledger backend.
type Client struct {
	rc *resty.Client
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL, proxyURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if proxyURL != "" {
		rc.SetProxy(proxyURL)
	}
	return &Client{rc: rc}
}

// do sends one request. Transport failures wrap ErrBackendUnavailable;
// non-2xx answers become *ServerError. out may be nil.
func (c *Client) do(ctx context.Context, userID, method, path string, body, out any) error {
	if userID == "" {
		return ErrMissingUser
	}
	req := c.rc.R().
		SetContext(ctx).
		SetHeader(UserHeader, userID)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrBackendUnavailable, method, path, err)
	}
	if !resp.IsSuccess() {
		return &ServerError{Status: resp.StatusCode(), Body: truncate(resp.String(), 300)}
	}
	if out == nil || len(resp.Body()) == 0 || resp.StatusCode() == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUndecodableResponse, method, path, err)
	}
	return nil
}

func listWire[W any](ctx context.Context, c *Client, userID, path string) ([]W, error) {
	var out []W
	if err := c.do(ctx, userID, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func createWire[W any](ctx context.Context, c *Client, userID, path string, body W) (W, bool, error) {
	var out W
	var raw json.RawMessage
	if err := c.do(ctx, userID, http.MethodPost, path, body, &raw); err != nil {
		return out, false, err
	}
	if len(raw) == 0 {
		return out, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("%w: POST %s: %v", ErrUndecodableResponse, path, err)
	}
	return out, true, nil
}

func updateWire[W any](ctx context.Context, c *Client, userID, path string, id int, body W) (W, bool, error) {
	var out W
	var raw json.RawMessage
	if err := c.do(ctx, userID, http.MethodPut, itemPath(path, id), body, &raw); err != nil {
		return out, false, err
	}
	if len(raw) == 0 {
		return out, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("%w: PUT %s: %v", ErrUndecodableResponse, path, err)
	}
	return out, true, nil
}

func deleteWire(ctx context.Context, c *Client, userID, path string, id int) error {
	return c.do(ctx, userID, http.MethodDelete, itemPath(path, id), nil, nil)
}

func itemPath(path string, id int) string {
	return path + "/" + strconv.Itoa(id)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
