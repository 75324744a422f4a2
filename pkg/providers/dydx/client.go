package dydx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"markethub-api/pkg/providers"
)

const (
	defaultBaseURL          = "https://api.dydx.exchange"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// Client speaks the dYdX indexer markets API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default indexer endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMaxRetries adjusts the retry budget for transient failures.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// NewClient constructs a dYdX indexer client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Market fetches a single market by its "BASE-QUOTE" name. Unknown markets
// map to providers.ErrNotFound.
func (c *Client) Market(ctx context.Context, marketName string) (*Market, error) {
	name := strings.ToUpper(strings.TrimSpace(marketName))
	if name == "" {
		return nil, fmt.Errorf("dydx: empty market name")
	}
	endpoint := fmt.Sprintf("%s/v3/markets?market=%s", c.baseURL, url.QueryEscape(name))

	var payload MarketsResponse
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	market, ok := payload.Markets[name]
	if !ok {
		return nil, providers.ErrNotFound
	}
	return &market, nil
}

func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("dydx: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = providers.Transient("dydx", 0, err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = providers.Transient("dydx", resp.StatusCode, readErr)
			case resp.StatusCode == http.StatusTooManyRequests:
				return providers.ErrRateLimited
			case resp.StatusCode == http.StatusNotFound:
				return providers.ErrNotFound
			case resp.StatusCode >= 500:
				lastErr = providers.Transient("dydx", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
			case resp.StatusCode >= 400:
				return providers.Permanent("dydx", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
			default:
				if err := json.Unmarshal(body, result); err != nil {
					return providers.Permanent("dydx", fmt.Errorf("decode response: %w", err))
				}
				return nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	return lastErr
}
