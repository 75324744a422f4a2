package geckoterminal

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
	defaultBaseURL          = "https://api.geckoterminal.com/api/v2"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// Client speaks the GeckoTerminal DEX aggregator API. Networks are
// addressed by slug ("eth", "bsc", "solana"), pools and tokens by address.
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

// NewClient constructs a GeckoTerminal API client.
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

// TrendingPools lists the currently trending pools on one network.
func (c *Client) TrendingPools(ctx context.Context, network string) ([]PoolResource, error) {
	return c.listPools(ctx, fmt.Sprintf("%s/networks/%s/trending_pools", c.baseURL, url.PathEscape(network)))
}

// NewPools lists the most recently created pools on one network.
func (c *Client) NewPools(ctx context.Context, network string) ([]PoolResource, error) {
	return c.listPools(ctx, fmt.Sprintf("%s/networks/%s/new_pools", c.baseURL, url.PathEscape(network)))
}

// TopPools lists pools ranked by liquidity on one network.
func (c *Client) TopPools(ctx context.Context, network string) ([]PoolResource, error) {
	return c.listPools(ctx, fmt.Sprintf("%s/networks/%s/pools", c.baseURL, url.PathEscape(network)))
}

// SearchPools searches pools by free text. An empty network searches every
// chain the aggregator covers.
func (c *Client) SearchPools(ctx context.Context, query, network string) ([]PoolResource, error) {
	endpoint := fmt.Sprintf("%s/search/pools?query=%s", c.baseURL, url.QueryEscape(query))
	if network != "" {
		endpoint += "&network=" + url.QueryEscape(network)
	}
	return c.listPools(ctx, endpoint)
}

// TokenPools lists pools holding the given token, most liquid first.
func (c *Client) TokenPools(ctx context.Context, network, tokenAddress string) ([]PoolResource, error) {
	endpoint := fmt.Sprintf("%s/networks/%s/tokens/%s/pools",
		c.baseURL, url.PathEscape(network), url.PathEscape(tokenAddress))
	return c.listPools(ctx, endpoint)
}

// PoolOHLCV fetches candles for one pool. timeframe is "hour" or "day";
// limit bounds the number of bars returned, newest first.
func (c *Client) PoolOHLCV(ctx context.Context, network, poolAddress, timeframe string, limit int) ([][]float64, error) {
	endpoint := fmt.Sprintf("%s/networks/%s/pools/%s/ohlcv/%s?aggregate=1&limit=%d",
		c.baseURL, url.PathEscape(network), url.PathEscape(poolAddress), url.PathEscape(timeframe), limit)

	var payload OHLCVResponse
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Data.Attributes.OhlcvList, nil
}

func (c *Client) listPools(ctx context.Context, endpoint string) ([]PoolResource, error) {
	var payload PoolsResponse
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("geckoterminal: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = providers.Transient("geckoterminal", 0, err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = providers.Transient("geckoterminal", resp.StatusCode, readErr)
			case resp.StatusCode == http.StatusTooManyRequests:
				return providers.ErrRateLimited
			case resp.StatusCode == http.StatusNotFound:
				return providers.ErrNotFound
			case resp.StatusCode >= 500:
				lastErr = providers.Transient("geckoterminal", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
			case resp.StatusCode >= 400:
				return providers.Permanent("geckoterminal", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
			default:
				if err := json.Unmarshal(body, result); err != nil {
					return providers.Permanent("geckoterminal", fmt.Errorf("decode response: %w", err))
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
