package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"markethub-api/internal/cache"
	"markethub-api/pkg/chains"
	"markethub-api/pkg/journal"
	"markethub-api/pkg/keypool"
	"markethub-api/pkg/mixer"
	"markethub-api/pkg/providers"
)

// ErrInvalidInput marks a request rejected before any upstream call.
var ErrInvalidInput = errors.New("aggregator: invalid input")

const (
	defaultListingLimit = 20
	maxListingLimit     = 100
	defaultCategory     = "hot"
)

// TokensQuery describes one listing or search request. An empty Query lists
// by Category; a non-empty Query searches, and an address-shaped Query does
// an exact on-chain lookup instead of free-text search.
type TokensQuery struct {
	Query    string
	Category string
	ChainIDs []int64
	Limit    int
	Page     int
}

// TokensResult is a page of the mixed cross-chain listing.
type TokensResult struct {
	Tokens []providers.Token
	Total  int
}

func (s *Service) normalizeTokensQuery(q TokensQuery) (TokensQuery, error) {
	q.Query = strings.TrimSpace(q.Query)
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == "" {
		q.Category = defaultCategory
	}
	if q.Limit < 0 {
		return q, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	if q.Limit == 0 {
		q.Limit = defaultListingLimit
	}
	if q.Limit > maxListingLimit {
		q.Limit = maxListingLimit
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	for _, id := range q.ChainIDs {
		if _, ok := s.registry.Resolve(id); !ok {
			return q, fmt.Errorf("%w: unknown chain %d", ErrInvalidInput, id)
		}
	}
	return q, nil
}

// resolveChains maps the requested chain IDs to registry entries, keeping
// request order. An empty request means every registered chain.
func (s *Service) resolveChains(ids []int64) []chains.Chain {
	if len(ids) == 0 {
		return s.registry.All()
	}
	out := make([]chains.Chain, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := s.registry.Resolve(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// GetTokens serves the aggregated token listing. Identical request shapes
// share one cache entry and one in-flight aggregation.
func (s *Service) GetTokens(ctx context.Context, q TokensQuery) (*TokensResult, error) {
	q, err := s.normalizeTokensQuery(q)
	if err != nil {
		return nil, err
	}

	var key string
	if q.Query != "" {
		key = cache.SearchKey(q.ChainIDs, q.Query, q.Limit, q.Page)
	} else {
		key = cache.ListingKey(q.ChainIDs, q.Category, q.Limit, q.Page)
	}
	return cache.Take(s.store, cache.TTLListing, key, func() (*TokensResult, error) {
		return s.fetchTokens(ctx, q)
	})
}

// listingJob is one chain×adapter unit of the fan-out.
type listingJob struct {
	chain  chains.Chain
	source string
	run    func(ctx context.Context) ([]providers.Token, error)
}

func (s *Service) listingJobs(q TokensQuery) []listingJob {
	targets := s.resolveChains(q.ChainIDs)
	var jobs []listingJob
	switch {
	case q.Query != "" && isAddressQuery(q.Query):
		for _, chain := range targets {
			chain := chain
			for _, fetcher := range s.tokenFetchers {
				fetcher := fetcher
				jobs = append(jobs, listingJob{chain: chain, source: fetcher.Name(),
					run: func(ctx context.Context) ([]providers.Token, error) {
						tok, err := fetcher.FetchToken(ctx, chain, q.Query)
						if err != nil {
							return nil, err
						}
						return []providers.Token{*tok}, nil
					}})
			}
		}
	case q.Query != "":
		for _, chain := range targets {
			chain := chain
			for _, fetcher := range s.searchFetchers {
				fetcher := fetcher
				jobs = append(jobs, listingJob{chain: chain, source: fetcher.Name(),
					run: func(ctx context.Context) ([]providers.Token, error) {
						return fetcher.Search(ctx, chain, q.Query, q.Limit)
					}})
			}
		}
	default:
		for _, chain := range targets {
			chain := chain
			for _, fetcher := range s.categoryFetchers {
				fetcher := fetcher
				jobs = append(jobs, listingJob{chain: chain, source: fetcher.Name(),
					run: func(ctx context.Context) ([]providers.Token, error) {
						return fetcher.FetchByCategory(ctx, chain, q.Category, q.Limit)
					}})
			}
		}
	}
	return jobs
}

func (s *Service) fetchTokens(ctx context.Context, q TokensQuery) (*TokensResult, error) {
	start := time.Now()
	operation := "tokens.list"
	if q.Query != "" {
		operation = "tokens.search"
	}

	jobs := s.listingJobs(q)
	slots := make([][]providers.Token, len(jobs))
	jobErrs := make([]error, len(jobs))

	tasks := make([]func() error, len(jobs))
	for i := range jobs {
		i, job := i, jobs[i]
		tasks[i] = func() error {
			jobCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			defer cancel()

			tokens, err := job.run(jobCtx)
			if err != nil {
				jobErrs[i] = err
				if !providers.IsNotFound(err) {
					logx.WithContext(ctx).Errorf("aggregator: %s listing via %s on chain %d failed: %v",
						operation, job.source, job.chain.ID, err)
				}
				return nil
			}
			slots[i] = tokens
			return nil
		}
	}
	if len(tasks) > 0 {
		_ = mr.Finish(tasks...)
	}

	// An aborted fan-out is not an empty listing. Returning the context
	// error keeps the entry out of the cache, so live callers re-fetch.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mixed, sources := s.mergeAndMix(jobs, slots)
	total := len(mixed)
	page := paginate(mixed, q.Limit, q.Page)

	if total == 0 {
		if err := escalateListingFailure(jobErrs); err != nil {
			s.record(&journal.Record{Operation: operation, Request: requestDigest(q), Sources: sources},
				start, 0, err)
			return nil, err
		}
	}

	s.enrichTokens(ctx, page)

	result := &TokensResult{Tokens: page, Total: total}
	s.record(&journal.Record{Operation: operation, Request: requestDigest(q), Sources: sources},
		start, len(page), nil)
	return result, nil
}

// mergeAndMix folds the fan-out slots into per-chain groups (request chain
// order, duplicate tokens merged across adapters) and interleaves them.
func (s *Service) mergeAndMix(jobs []listingJob, slots [][]providers.Token) ([]providers.Token, []string) {
	var groups []mixer.ChainGroup
	groupIdx := make(map[int64]int)
	tokenIdx := make(map[string][2]int)
	sourceSet := make(map[string]bool)
	var sources []string

	for i, job := range jobs {
		for _, tok := range slots[i] {
			if tok.ChainID != job.chain.ID {
				tok.ChainID = job.chain.ID
			}
			if !sourceSet[job.source] {
				sourceSet[job.source] = true
				sources = append(sources, job.source)
			}

			gi, ok := groupIdx[tok.ChainID]
			if !ok {
				gi = len(groups)
				groupIdx[tok.ChainID] = gi
				groups = append(groups, mixer.ChainGroup{ChainID: tok.ChainID})
			}

			key := tok.Key()
			if pos, dup := tokenIdx[key]; dup {
				mergeToken(&groups[pos[0]].Tokens[pos[1]], tok)
				continue
			}
			groups[gi].Tokens = append(groups[gi].Tokens, tok)
			tokenIdx[key] = [2]int{gi, len(groups[gi].Tokens) - 1}
		}
	}
	return mixer.Mix(groups, 0), sources
}

// mergeToken folds a later adapter's view of the same token into dst,
// filling gaps without overwriting data already present.
func mergeToken(dst *providers.Token, src providers.Token) {
	for _, p := range src.Providers {
		dst.AddProvider(p)
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.LogoURI == "" {
		dst.LogoURI = src.LogoURI
	}
	if dst.Decimals == 0 {
		dst.Decimals = src.Decimals
	}
	if dst.PriceUSD == 0 {
		dst.PriceUSD = src.PriceUSD
	}
	if dst.Volume24h == 0 {
		dst.Volume24h = src.Volume24h
	}
	if dst.PriceChange24h == 0 {
		dst.PriceChange24h = src.PriceChange24h
	}
	if dst.Liquidity == 0 {
		dst.Liquidity = src.Liquidity
	}
	if dst.MarketCap == 0 {
		dst.MarketCap = src.MarketCap
	}
	if dst.MarketCapRank == 0 {
		dst.MarketCapRank = src.MarketCapRank
	}
	if dst.CirculatingSupply == 0 {
		dst.CirculatingSupply = src.CirculatingSupply
	}
	if dst.Holders == 0 {
		dst.Holders = src.Holders
	}
}

func paginate(tokens []providers.Token, limit, page int) []providers.Token {
	start := (page - 1) * limit
	if start >= len(tokens) {
		return []providers.Token{}
	}
	end := start + limit
	if end > len(tokens) {
		end = len(tokens)
	}
	return tokens[start:end]
}

// escalateListingFailure decides whether an empty result hides a reportable
// failure. Key-pool exhaustion always surfaces; a fan-out where every job
// failed transiently surfaces one upstream error. Plain misses stay empty.
func escalateListingFailure(jobErrs []error) error {
	if len(jobErrs) == 0 {
		return nil
	}
	failures := 0
	var transient error
	for _, err := range jobErrs {
		if err == nil {
			return nil
		}
		failures++
		if errors.Is(err, keypool.ErrExhausted) {
			return err
		}
		if providers.IsTransient(err) && transient == nil {
			transient = err
		}
	}
	if failures == len(jobErrs) && transient != nil {
		return transient
	}
	return nil
}

func requestDigest(q TokensQuery) map[string]any {
	digest := map[string]any{
		"category": q.Category,
		"limit":    q.Limit,
		"page":     q.Page,
	}
	if q.Query != "" {
		digest["query"] = q.Query
	}
	if len(q.ChainIDs) > 0 {
		digest["chains"] = fmt.Sprint(q.ChainIDs)
	}
	return digest
}

// isAddressQuery reports whether a search query is an exact token address
// rather than free text. EVM hex addresses and base58 Solana mints qualify.
func isAddressQuery(q string) bool {
	if common.IsHexAddress(q) {
		return true
	}
	if len(q) < 32 || len(q) > 44 {
		return false
	}
	for _, r := range q {
		switch {
		case r >= '1' && r <= '9', r >= 'A' && r <= 'H', r >= 'J' && r <= 'N',
			r >= 'P' && r <= 'Z', r >= 'a' && r <= 'k', r >= 'm' && r <= 'z':
		default:
			return false
		}
	}
	return true
}
