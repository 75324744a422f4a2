package coingecko

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
	defaultBaseURL          = "https://api.coingecko.com/api/v3"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// Client speaks the CoinGecko metadata API.
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

// NewClient constructs a CoinGecko API client.
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

// SearchCoins searches the coin directory by free text.
func (c *Client) SearchCoins(ctx context.Context, query string) ([]SearchCoin, error) {
	endpoint := fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query))
	var payload SearchResponse
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Coins, nil
}

// CoinMarkets lists market records, optionally filtered by category or an
// explicit coin-ID list, ranked by market cap.
func (c *Client) CoinMarkets(ctx context.Context, category string, ids []string, limit int) ([]CoinMarket, error) {
	endpoint := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc", c.baseURL)
	if category != "" {
		endpoint += "&category=" + url.QueryEscape(category)
	}
	if len(ids) > 0 {
		endpoint += "&ids=" + url.QueryEscape(strings.Join(ids, ","))
	}
	if limit > 0 {
		endpoint += fmt.Sprintf("&per_page=%d", limit)
	}

	var markets []CoinMarket
	if err := c.get(ctx, endpoint, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// ContractCoin fetches a coin by asset-platform slug and contract address.
func (c *Client) ContractCoin(ctx context.Context, platform, address string) (*ContractCoin, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/contract/%s",
		c.baseURL, url.PathEscape(platform), url.PathEscape(strings.ToLower(address)))

	var coin ContractCoin
	if err := c.get(ctx, endpoint, &coin); err != nil {
		return nil, err
	}
	if coin.ID == "" {
		return nil, providers.ErrNotFound
	}
	return &coin, nil
}

func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("coingecko: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = providers.Transient("coingecko", 0, err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = providers.Transient("coingecko", resp.StatusCode, readErr)
			case resp.StatusCode == http.StatusTooManyRequests:
				return providers.ErrRateLimited
			case resp.StatusCode == http.StatusNotFound:
				return providers.ErrNotFound
			case resp.StatusCode >= 500:
				lastErr = providers.Transient("coingecko", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
			case resp.StatusCode >= 400:
				return providers.Permanent("coingecko", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
			default:
				if err := json.Unmarshal(body, result); err != nil {
					return providers.Permanent("coingecko", fmt.Errorf("decode response: %w", err))
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
