package geckoterminal

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/providers"
)

const defaultProviderTimeout = 8 * time.Second

// Default platform-category to listing-endpoint mapping; overridable per
// deployment through the provider config.
var defaultCategories = map[string]string{
	"hot":      "trending",
	"trending": "trending",
	"new":      "new",
	"top":      "top",
}

// Provider adapts the GeckoTerminal DEX aggregator. It serves category and
// search listings per chain, pool-level pair listings, and the on-chain
// last-resort tier of the pair-price cascade.
type Provider struct {
	client     *Client
	timeout    time.Duration
	name       string
	categories map[string]string
}

var (
	_ providers.CategoryFetcher = (*Provider)(nil)
	_ providers.SearchFetcher   = (*Provider)(nil)
	_ providers.PairLister      = (*Provider)(nil)
	_ providers.PairQuoter      = (*Provider)(nil)
)

// NewProvider constructs a GeckoTerminal provider around an existing client.
func NewProvider(client *Client, timeout time.Duration) *Provider {
	if client == nil {
		client = NewClient()
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Provider{
		client:     client,
		timeout:    timeout,
		name:       chains.ProviderGeckoTerminal,
		categories: defaultCategories,
	}
}

func init() {
	providers.Register("geckoterminal", func(name string, cfg *providers.ProviderConfig) (any, error) {
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
		if len(cfg.Categories) > 0 {
			merged := make(map[string]string, len(defaultCategories)+len(cfg.Categories))
			for k, v := range defaultCategories {
				merged[k] = v
			}
			for k, v := range cfg.Categories {
				merged[strings.ToLower(k)] = v
			}
			p.categories = merged
		}
		return p, nil
	})
}

// Name implements the capability interfaces.
func (p *Provider) Name() string {
	return p.name
}

// FetchByCategory lists base tokens of the category's pools on one chain.
func (p *Provider) FetchByCategory(ctx context.Context, chain chains.Chain, category string, limit int) ([]providers.Token, error) {
	pools, err := p.poolsForCategory(ctx, chain, category)
	if err != nil {
		return nil, err
	}
	return p.tokensFromPools(chain, pools, limit), nil
}

// Search lists base tokens of pools matching the query on one chain.
func (p *Provider) Search(ctx context.Context, chain chains.Chain, query string, limit int) ([]providers.Token, error) {
	network, ok := chain.ProviderID(p.name)
	if !ok {
		return nil, providers.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pools, err := p.client.SearchPools(ctx, query, network)
	if err != nil {
		return nil, err
	}
	return p.tokensFromPools(chain, pools, limit), nil
}

// FetchPairs lists the category's pools on one chain as trading pairs.
func (p *Provider) FetchPairs(ctx context.Context, chain chains.Chain, category string, limit int) ([]providers.Pair, error) {
	pools, err := p.poolsForCategory(ctx, chain, category)
	if err != nil {
		return nil, err
	}

	pairs := make([]providers.Pair, 0, len(pools))
	for _, pool := range pools {
		if limit > 0 && len(pairs) >= limit {
			break
		}
		pair, err := p.normalizePair(chain, pool)
		if err != nil {
			logx.WithContext(ctx).Errorf("geckoterminal: skip malformed pool %s: %v", pool.ID, err)
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// FetchPair is the on-chain cascade tier: locate the most liquid pool for
// the pair via search, then derive 24h stats from its candles. When no
// candle data exists the quote degrades to price-only with unknown stats
// rather than fabricating zeros.
func (p *Provider) FetchPair(ctx context.Context, base, quote string) (*providers.PairQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pools, err := p.client.SearchPools(ctx, base+"/"+quote, "")
	if err != nil {
		return nil, err
	}
	pool, network, ok := matchPool(pools, base, quote)
	if !ok {
		return nil, providers.ErrNotFound
	}

	price, err := parseDecimal(pool.Attributes.BaseTokenPriceUSD, "base_token_price_usd")
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, providers.ErrNotFound
	}

	result := &providers.PairQuote{
		Symbol: strings.ToUpper(base) + "-" + strings.ToUpper(quote),
		Price:  price,
		Source: p.name,
	}

	bars, err := p.client.PoolOHLCV(ctx, network, pool.Attributes.Address, "hour", 24)
	if err != nil {
		logx.WithContext(ctx).Errorf("geckoterminal: ohlcv unavailable for %s/%s pool=%s: %v",
			base, quote, pool.Attributes.Address, err)
		return result, nil
	}
	applyBarStats(result, bars)
	return result, nil
}

func (p *Provider) poolsForCategory(ctx context.Context, chain chains.Chain, category string) ([]PoolResource, error) {
	network, ok := chain.ProviderID(p.name)
	if !ok {
		return nil, providers.ErrNotFound
	}
	listing, ok := p.categories[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return nil, providers.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch listing {
	case "trending":
		return p.client.TrendingPools(ctx, network)
	case "new":
		return p.client.NewPools(ctx, network)
	default:
		return p.client.TopPools(ctx, network)
	}
}

func (p *Provider) tokensFromPools(chain chains.Chain, pools []PoolResource, limit int) []providers.Token {
	tokens := make([]providers.Token, 0, len(pools))
	seen := make(map[string]bool)
	for _, pool := range pools {
		if limit > 0 && len(tokens) >= limit {
			break
		}
		tok, err := p.normalizeBaseToken(chain, pool)
		if err != nil {
			logx.Errorf("geckoterminal: skip malformed pool %s: %v", pool.ID, err)
			continue
		}
		if seen[tok.Key()] {
			continue
		}
		seen[tok.Key()] = true
		tokens = append(tokens, *tok)
	}
	return tokens
}
