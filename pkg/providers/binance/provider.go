package binance

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

// Provider adapts the Binance spot ticker feed to the aggregation
// contracts. It is the fastest and most accurate source for liquid
// USD-quoted pairs, so it sits first in the pair-price cascade.
type Provider struct {
	client  *Client
	timeout time.Duration
	name    string
}

var (
	_ providers.PairQuoter   = (*Provider)(nil)
	_ providers.TokenFetcher = (*Provider)(nil)
)

// NewProvider constructs a Binance provider around an existing client.
func NewProvider(client *Client, timeout time.Duration) *Provider {
	if client == nil {
		client = NewClient()
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Provider{client: client, timeout: timeout, name: chains.ProviderBinance}
}

func init() {
	providers.Register("binance", func(name string, cfg *providers.ProviderConfig) (any, error) {
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

// Name implements the capability interfaces.
func (p *Provider) Name() string {
	return p.name
}

// FetchPair returns the 24h ticker for base/quote as a normalized quote.
// Binance reports every stat directly, so nothing is derived.
func (p *Provider) FetchPair(ctx context.Context, base, quote string) (*providers.PairQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker, err := p.client.Ticker24h(ctx, base+quote)
	if err != nil {
		return nil, err
	}
	return p.normalizeTicker(base+"-"+quote, ticker)
}

// FetchToken serves centralized-exchange-only instruments: the ticker
// symbol stands in for the address and the chain is the CEX sentinel.
func (p *Provider) FetchToken(ctx context.Context, chain chains.Chain, symbolOrAddress string) (*providers.Token, error) {
	if chain.ID != chains.ChainCEX {
		return nil, providers.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	symbol := strings.ToUpper(strings.TrimSpace(symbolOrAddress))
	ticker, err := p.client.Ticker24h(ctx, symbol+"USDT")
	if err != nil {
		return nil, err
	}

	price, err := parseDecimal(ticker.LastPrice, "lastPrice")
	if err != nil {
		return nil, err
	}
	change, err := parseDecimal(ticker.PriceChangePercent, "priceChangePercent")
	if err != nil {
		return nil, err
	}
	volume, err := parseDecimal(ticker.QuoteVolume, "quoteVolume")
	if err != nil {
		return nil, err
	}

	tok := &providers.Token{
		ChainID:        chains.ChainCEX,
		Address:        strings.ToLower(symbol),
		Symbol:         symbol,
		Name:           symbol,
		PriceUSD:       price,
		PriceChange24h: change,
		Volume24h:      volume,
	}
	tok.AddProvider(p.name)
	return tok, nil
}

func (p *Provider) normalizeTicker(pairSymbol string, ticker *Ticker24h) (*providers.PairQuote, error) {
	price, err := parseDecimal(ticker.LastPrice, "lastPrice")
	if err != nil {
		return nil, err
	}
	change, err := parseDecimal(ticker.PriceChangePercent, "priceChangePercent")
	if err != nil {
		return nil, err
	}
	high, err := parseDecimal(ticker.HighPrice, "highPrice")
	if err != nil {
		return nil, err
	}
	low, err := parseDecimal(ticker.LowPrice, "lowPrice")
	if err != nil {
		return nil, err
	}
	volume, err := parseDecimal(ticker.Volume, "volume")
	if err != nil {
		return nil, err
	}

	return &providers.PairQuote{
		Symbol:    pairSymbol,
		Price:     price,
		Change24h: providers.Float(change),
		High24h:   providers.Float(high),
		Low24h:    providers.Float(low),
		Volume24h: providers.Float(volume),
		Source:    p.name,
	}, nil
}

func parseDecimal(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, providers.Permanent("binance", fmt.Errorf("parse %s %q: %w", field, raw, err))
	}
	return v, nil
}
