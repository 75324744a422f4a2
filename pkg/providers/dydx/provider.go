package dydx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/providers"
)

const defaultProviderTimeout = 5 * time.Second

// Provider adapts the dYdX perpetuals indexer for USD/USDC-quoted pairs.
// The indexer reports the 24h move as a raw price delta, so normalization
// derives the percentage the rest of the platform expects.
type Provider struct {
	client  *Client
	timeout time.Duration
	name    string
}

var _ providers.PairQuoter = (*Provider)(nil)

// NewProvider constructs a dYdX provider around an existing client.
func NewProvider(client *Client, timeout time.Duration) *Provider {
	if client == nil {
		client = NewClient()
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Provider{client: client, timeout: timeout, name: chains.ProviderDydx}
}

func init() {
	providers.Register("dydx", func(name string, cfg *providers.ProviderConfig) (any, error) {
		clientOpts := []Option{}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPTimeout > 0 {
			clientOpts = append(clientOpts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.MaxRetries > 0 {
			clientOpts = append(clientOpts, WithMaxRetries(cfg.MaxRetries))
		}
		p := NewProvider(NewClient(clientOpts...), cfg.Timeout)
		p.name = name
		return p, nil
	})
}

// Name implements providers.PairQuoter.
func (p *Provider) Name() string {
	return p.name
}

// FetchPair quotes a perpetual market. Pairs not quoted in USD or USDC are
// outside the indexer's universe and fall through the cascade as not found.
func (p *Provider) FetchPair(ctx context.Context, base, quote string) (*providers.PairQuote, error) {
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if quote != "USD" && quote != "USDC" {
		return nil, providers.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Markets are listed under USD regardless of which stable the caller
	// asked with.
	marketName := strings.ToUpper(strings.TrimSpace(base)) + "-USD"
	market, err := p.client.Market(ctx, marketName)
	if err != nil {
		return nil, err
	}
	if market.Status != "" && !strings.EqualFold(market.Status, "ONLINE") {
		return nil, providers.ErrNotFound
	}

	price, err := parseDecimal(market.OraclePrice, "oraclePrice")
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, providers.ErrNotFound
	}
	change, err := parseDecimal(market.PriceChange24H, "priceChange24H")
	if err != nil {
		return nil, err
	}

	result := &providers.PairQuote{
		Symbol: strings.ToUpper(strings.TrimSpace(base)) + "-" + quote,
		Price:  price,
		Source: p.name,
	}
	if pct, ok := changePercent(price, change); ok {
		result.Change24h = providers.Float(pct)
	}
	if market.Volume24H != "" {
		volume, err := parseDecimal(market.Volume24H, "volume24H")
		if err != nil {
			return nil, err
		}
		result.Volume24h = providers.Float(volume)
	}
	return result, nil
}

// changePercent converts a raw 24h price delta into percentage form against
// the price 24h ago. A zero reference price leaves the stat unknown rather
// than fabricating a figure.
func changePercent(current, rawChange float64) (float64, bool) {
	prev := current - rawChange
	if prev == 0 {
		return 0, false
	}
	return rawChange / prev * 100, true
}

func parseDecimal(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, providers.Permanent("dydx", fmt.Errorf("parse %s %q: %w", field, raw, err))
	}
	return v, nil
}
