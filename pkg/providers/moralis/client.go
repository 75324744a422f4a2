package moralis

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
	defaultBaseURL          = "https://deep-index.moralis.io/api/v2.2"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// Client speaks the Moralis deep-index API. Every call is authenticated
// with an explicit key so the provider layer can rotate credentials
// between attempts.
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

// NewClient constructs a Moralis API client.
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

// TokenMetadata fetches ERC-20 metadata for one contract address on the
// given hex chain ID.
func (c *Client) TokenMetadata(ctx context.Context, apiKey, hexChainID, address string) (*TokenMetadata, error) {
	endpoint := fmt.Sprintf("%s/erc20/metadata?chain=%s&addresses%%5B0%%5D=%s",
		c.baseURL, url.QueryEscape(hexChainID), url.QueryEscape(address))

	var entries []TokenMetadata
	if err := c.get(ctx, apiKey, endpoint, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 || strings.TrimSpace(entries[0].Symbol) == "" {
		return nil, providers.ErrNotFound
	}
	return &entries[0], nil
}

// TokenPrice fetches the indexed USD price for one contract address.
func (c *Client) TokenPrice(ctx context.Context, apiKey, hexChainID, address string) (*TokenPrice, error) {
	endpoint := fmt.Sprintf("%s/erc20/%s/price?chain=%s",
		c.baseURL, url.PathEscape(address), url.QueryEscape(hexChainID))

	var price TokenPrice
	if err := c.get(ctx, apiKey, endpoint, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// HolderStats fetches holder counts for one contract address.
func (c *Client) HolderStats(ctx context.Context, apiKey, hexChainID, address string) (*HolderStats, error) {
	endpoint := fmt.Sprintf("%s/erc20/%s/holders?chain=%s",
		c.baseURL, url.PathEscape(address), url.QueryEscape(hexChainID))

	var stats HolderStats
	if err := c.get(ctx, apiKey, endpoint, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) get(ctx context.Context, apiKey, endpoint string, result any) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("moralis: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-API-Key", apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = providers.Transient("moralis", 0, err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = providers.Transient("moralis", resp.StatusCode, readErr)
			case resp.StatusCode == http.StatusTooManyRequests:
				return providers.ErrRateLimited
			case resp.StatusCode == http.StatusUnauthorized:
				// Expired or revoked JWT keys surface as 401; treat like a
				// quota failure so the pool rotates past the dead key.
				return providers.ErrRateLimited
			case resp.StatusCode == http.StatusNotFound:
				return providers.ErrNotFound
			case resp.StatusCode >= 500:
				lastErr = providers.Transient("moralis", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
			case resp.StatusCode >= 400:
				var apiErr apiError
				_ = json.Unmarshal(body, &apiErr)
				return providers.Permanent("moralis", fmt.Errorf("http %d: %s", resp.StatusCode, apiErr.Message))
			default:
				if err := json.Unmarshal(body, result); err != nil {
					return providers.Permanent("moralis", fmt.Errorf("decode response: %w", err))
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
