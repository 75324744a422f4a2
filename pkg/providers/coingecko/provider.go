package coingecko

import (
	"context"
	"net/http"
	"strings"
	"time"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/providers"
)

const defaultProviderTimeout = 8 * time.Second

// Default platform-category to CoinGecko category-ID mapping. An empty
// mapping value means "top coins by market cap, no category filter".
var defaultCategories = map[string]string{
	"hot":  "",
	"top":  "",
	"meme": "meme-token",
	"defi": "decentralized-finance-defi",
	"ai":   "artificial-intelligence",
}

// Provider adapts the CoinGecko metadata service. It resolves tokens by
// symbol or contract address, lists centralized-exchange instruments by
// category, and backfills rank/supply during enrichment.
type Provider struct {
	client     *Client
	timeout    time.Duration
	name       string
	categories map[string]string
}

var (
	_ providers.TokenFetcher    = (*Provider)(nil)
	_ providers.CategoryFetcher = (*Provider)(nil)
	_ providers.Enricher        = (*Provider)(nil)
)

// NewProvider constructs a CoinGecko provider around an existing client.
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
		name:       chains.ProviderCoinGecko,
		categories: defaultCategories,
	}
}

func init() {
	providers.Register("coingecko", func(name string, cfg *providers.ProviderConfig) (any, error) {
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

// FetchToken resolves a symbol or contract address to a metadata record.
func (p *Provider) FetchToken(ctx context.Context, chain chains.Chain, symbolOrAddress string) (*providers.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if chain.ID == chains.ChainCEX {
		return p.fetchBySymbol(ctx, symbolOrAddress)
	}
	platform, ok := chain.ProviderID(p.name)
	if !ok {
		return nil, providers.ErrNotFound
	}
	address, err := chains.NormalizeAddress(chain, symbolOrAddress)
	if err != nil {
		return nil, providers.ErrNotFound
	}

	coin, err := p.client.ContractCoin(ctx, platform, address)
	if err != nil {
		return nil, err
	}

	tok := &providers.Token{
		ChainID:           chain.ID,
		Address:           address,
		Symbol:            strings.ToUpper(coin.Symbol),
		Name:              coin.Name,
		LogoURI:           coin.Image.Small,
		PriceUSD:          coin.MarketData.CurrentPrice["usd"],
		MarketCap:         coin.MarketData.MarketCap["usd"],
		Volume24h:         coin.MarketData.TotalVolume["usd"],
		PriceChange24h:    coin.MarketData.PriceChange24hPct,
		MarketCapRank:     coin.MarketCapRank,
		CirculatingSupply: coin.MarketData.CirculatingSupply,
	}
	tok.AddProvider(p.name)
	return tok, nil
}

// FetchByCategory lists centralized-exchange instruments for a category,
// ranked by market cap. On-chain listings belong to the DEX aggregator.
func (p *Provider) FetchByCategory(ctx context.Context, chain chains.Chain, category string, limit int) ([]providers.Token, error) {
	if chain.ID != chains.ChainCEX {
		return nil, providers.ErrNotFound
	}
	categoryID, ok := p.categories[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return nil, providers.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	markets, err := p.client.CoinMarkets(ctx, categoryID, nil, limit)
	if err != nil {
		return nil, err
	}

	tokens := make([]providers.Token, 0, len(markets))
	for _, market := range markets {
		if limit > 0 && len(tokens) >= limit {
			break
		}
		tokens = append(tokens, p.normalizeMarket(market))
	}
	return tokens, nil
}

// Enrich backfills rank and circulating supply onto an aggregated token,
// and repairs an implausible zero price when the directory knows better.
func (p *Provider) Enrich(ctx context.Context, chain chains.Chain, token *providers.Token) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var source *providers.Token
	var err error
	if chain.ID == chains.ChainCEX || !strings.HasPrefix(token.Address, "0x") {
		source, err = p.fetchBySymbol(ctx, token.Symbol)
	} else {
		source, err = p.FetchToken(ctx, chain, token.Address)
	}
	if err != nil {
		return err
	}

	if token.MarketCapRank == 0 {
		token.MarketCapRank = source.MarketCapRank
	}
	if token.CirculatingSupply == 0 {
		token.CirculatingSupply = source.CirculatingSupply
	}
	if token.MarketCap == 0 {
		token.MarketCap = source.MarketCap
	}
	if token.PriceUSD == 0 {
		token.PriceUSD = source.PriceUSD
	}
	if token.LogoURI == "" {
		token.LogoURI = source.LogoURI
	}
	token.AddProvider(p.name)
	return nil
}

func (p *Provider) fetchBySymbol(ctx context.Context, symbol string) (*providers.Token, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, providers.ErrNotFound
	}
	hits, err := p.client.SearchCoins(ctx, symbol)
	if err != nil {
		return nil, err
	}
	coinID := ""
	for _, hit := range hits {
		if strings.EqualFold(hit.Symbol, symbol) {
			coinID = hit.ID
			break
		}
	}
	if coinID == "" {
		return nil, providers.ErrNotFound
	}

	markets, err := p.client.CoinMarkets(ctx, "", []string{coinID}, 1)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, providers.ErrNotFound
	}
	tok := p.normalizeMarket(markets[0])
	return &tok, nil
}

func (p *Provider) normalizeMarket(market CoinMarket) providers.Token {
	symbol := strings.ToUpper(market.Symbol)
	tok := providers.Token{
		ChainID:           chains.ChainCEX,
		Address:           strings.ToLower(symbol),
		Symbol:            symbol,
		Name:              market.Name,
		LogoURI:           market.Image,
		PriceUSD:          market.CurrentPrice,
		MarketCap:         market.MarketCap,
		MarketCapRank:     market.MarketCapRank,
		Volume24h:         market.TotalVolume,
		PriceChange24h:    market.PriceChangePercentage24h,
		CirculatingSupply: market.CirculatingSupply,
	}
	tok.AddProvider(p.name)
	return tok
}
