package binance

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
	defaultBaseURL          = "https://api.binance.com"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// Client speaks the Binance spot REST API.
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

// WithBaseURL overrides the default API endpoint.
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

// NewClient constructs a Binance API client.
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

// Ticker24h fetches the rolling 24h ticker for a concatenated pair symbol
// such as "WBNBUSDT". An unlisted symbol maps to providers.ErrNotFound.
func (c *Client) Ticker24h(ctx context.Context, pairSymbol string) (*Ticker24h, error) {
	symbol := strings.ToUpper(strings.TrimSpace(pairSymbol))
	if symbol == "" {
		return nil, fmt.Errorf("binance: empty symbol")
	}
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", c.baseURL, url.QueryEscape(symbol))

	var ticker Ticker24h
	if err := c.get(ctx, endpoint, &ticker); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ticker.LastPrice) == "" {
		return nil, providers.Permanent("binance", fmt.Errorf("ticker %s missing lastPrice", symbol))
	}
	return &ticker, nil
}

// get performs a GET with transient-only retries. Client errors (4xx) are
// mapped to the taxonomy immediately and never retried.
func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("binance: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = providers.Transient("binance", 0, err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = providers.Transient("binance", resp.StatusCode, readErr)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418:
				return providers.ErrRateLimited
			case resp.StatusCode >= 500:
				lastErr = providers.Transient("binance", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
			case resp.StatusCode >= 400:
				var apiErr apiError
				if json.Unmarshal(body, &apiErr) == nil && apiErr.Code == codeInvalidSymbol {
					return providers.ErrNotFound
				}
				return providers.Permanent("binance", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
			default:
				if err := json.Unmarshal(body, result); err != nil {
					return providers.Permanent("binance", fmt.Errorf("decode response: %w", err))
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
