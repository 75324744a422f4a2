package moralis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/keypool"
	"markethub-api/pkg/providers"
)

const defaultProviderTimeout = 8 * time.Second

// Provider adapts the Moralis on-chain indexer. Moralis enforces hard
// per-key request quotas, so every call draws its credential from a
// rotating pool: a quota failure exhausts the key and the call retries on
// the next one until the pool runs dry.
type Provider struct {
	client  *Client
	pool    *keypool.Pool
	timeout time.Duration
	name    string
	nowFn   func() time.Time
}

var _ providers.TokenFetcher = (*Provider)(nil)

// NewProvider constructs a Moralis provider. The key pool is required.
func NewProvider(client *Client, pool *keypool.Pool, timeout time.Duration) (*Provider, error) {
	if pool == nil {
		return nil, fmt.Errorf("moralis: key pool required")
	}
	if client == nil {
		client = NewClient()
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Provider{
		client:  client,
		pool:    pool,
		timeout: timeout,
		name:    chains.ProviderMoralis,
		nowFn:   time.Now,
	}, nil
}

func init() {
	providers.Register("moralis", func(name string, cfg *providers.ProviderConfig) (any, error) {
		poolOpts := []keypool.Option{}
		if cfg.KeyRecovery > 0 {
			poolOpts = append(poolOpts, keypool.WithRecoveryInterval(cfg.KeyRecovery))
		}
		pool, err := keypool.New(cfg.APIKeys, poolOpts...)
		if err != nil {
			return nil, err
		}

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
		p, err := NewProvider(NewClient(clientOpts...), pool, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		p.name = name
		return p, nil
	})
}

// Name implements providers.TokenFetcher.
func (p *Provider) Name() string {
	return p.name
}

// Pool exposes the credential pool for operational reset endpoints.
func (p *Provider) Pool() *keypool.Pool {
	return p.pool
}

// FetchToken resolves a contract address to an indexed token record.
// Moralis is address-keyed, so plain symbols are out of its reach.
func (p *Provider) FetchToken(ctx context.Context, chain chains.Chain, symbolOrAddress string) (*providers.Token, error) {
	hexChainID, ok := chain.ProviderID(p.name)
	if !ok {
		return nil, providers.ErrNotFound
	}
	address, err := chains.NormalizeAddress(chain, symbolOrAddress)
	if err != nil {
		return nil, providers.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	meta, err := withKeyRotation(p, ctx, func(key string) (*TokenMetadata, error) {
		return p.client.TokenMetadata(ctx, key, hexChainID, address)
	})
	if err != nil {
		return nil, err
	}

	tok := &providers.Token{
		ChainID: chain.ID,
		Address: address,
		Symbol:  strings.ToUpper(meta.Symbol),
		Name:    meta.Name,
		LogoURI: meta.Logo,
	}
	if decimals, err := strconv.Atoi(strings.TrimSpace(meta.Decimals)); err == nil {
		tok.Decimals = decimals
	}

	price, err := withKeyRotation(p, ctx, func(key string) (*TokenPrice, error) {
		return p.client.TokenPrice(ctx, key, hexChainID, address)
	})
	switch {
	case err == nil:
		tok.PriceUSD = price.USDPrice
		if change, perr := strconv.ParseFloat(strings.TrimSpace(price.PercentChange24h), 64); perr == nil {
			tok.PriceChange24h = change
		}
	case providers.IsNotFound(err):
		// Metadata without an indexed price is still a useful record.
	default:
		return nil, err
	}

	if holders, herr := withKeyRotation(p, ctx, func(key string) (*HolderStats, error) {
		return p.client.HolderStats(ctx, key, hexChainID, address)
	}); herr == nil {
		tok.Holders = holders.TotalHolders
	} else if !providers.IsNotFound(herr) {
		logx.WithContext(ctx).Errorf("moralis: holder stats for %s on %s: %v", address, chain.Name, herr)
	}

	tok.AddProvider(p.name)
	return tok, nil
}

// withKeyRotation runs fn against the pool's current key, rotating past
// quota-failed or expired-JWT keys. It returns keypool.ErrExhausted without
// touching the network once every key is gone.
func withKeyRotation[T any](p *Provider, ctx context.Context, fn func(key string) (T, error)) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		key, err := p.pool.Current()
		if err != nil {
			return zero, err
		}
		if keypool.JWTExpired(key.Value, p.nowFn()) {
			logx.Infof("moralis: credential %d expired, rotating", key.Index)
			p.pool.MarkExhausted(key)
			continue
		}

		result, err := fn(key.Value)
		if errors.Is(err, providers.ErrRateLimited) {
			logx.Infof("moralis: credential %d out of quota, rotating", key.Index)
			p.pool.MarkExhausted(key)
			continue
		}
		return result, err
	}
}
