package aggregator

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"markethub-api/internal/cache"
	"markethub-api/pkg/journal"
	"markethub-api/pkg/providers"
)

// PairsQuery describes one pool-level pair listing request.
type PairsQuery struct {
	Category string
	ChainIDs []int64
	Limit    int
}

// PairsResult is the aggregated pool listing.
type PairsResult struct {
	Pairs []providers.Pair
	Total int
}

// GetMarketPairsByCategory lists trading pools for a category across the
// requested chains, interleaving per-chain results in request order.
func (s *Service) GetMarketPairsByCategory(ctx context.Context, q PairsQuery) (*PairsResult, error) {
	normalized, err := s.normalizeTokensQuery(TokensQuery{Category: q.Category, ChainIDs: q.ChainIDs, Limit: q.Limit})
	if err != nil {
		return nil, err
	}
	q.Category, q.Limit = normalized.Category, normalized.Limit

	key := cache.PairsKey(q.ChainIDs, q.Category, q.Limit)
	return cache.Take(s.store, cache.TTLListing, key, func() (*PairsResult, error) {
		return s.fetchPairs(ctx, q)
	})
}

func (s *Service) fetchPairs(ctx context.Context, q PairsQuery) (*PairsResult, error) {
	start := time.Now()
	targets := s.resolveChains(q.ChainIDs)

	type job struct {
		chainID int64
		source  string
		run     func(ctx context.Context) ([]providers.Pair, error)
	}
	var jobs []job
	for _, chain := range targets {
		chain := chain
		for _, lister := range s.pairListers {
			lister := lister
			jobs = append(jobs, job{chainID: chain.ID, source: lister.Name(),
				run: func(ctx context.Context) ([]providers.Pair, error) {
					return lister.FetchPairs(ctx, chain, q.Category, q.Limit)
				}})
		}
	}

	slots := make([][]providers.Pair, len(jobs))
	jobErrs := make([]error, len(jobs))
	tasks := make([]func() error, len(jobs))
	for i := range jobs {
		i, j := i, jobs[i]
		tasks[i] = func() error {
			jobCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			defer cancel()

			pairs, err := j.run(jobCtx)
			if err != nil {
				jobErrs[i] = err
				if !providers.IsNotFound(err) {
					logx.WithContext(ctx).Errorf("aggregator: pair listing via %s on chain %d failed: %v",
						j.source, j.chainID, err)
				}
				return nil
			}
			slots[i] = pairs
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

	// Round-robin across chains, one pool per chain per round, so one busy
	// chain cannot monopolise the listing.
	byChain := make(map[int64][]providers.Pair)
	var order []int64
	var sources []string
	seenSource := make(map[string]bool)
	for i, j := range jobs {
		if len(slots[i]) == 0 {
			continue
		}
		if !seenSource[j.source] {
			seenSource[j.source] = true
			sources = append(sources, j.source)
		}
		if _, ok := byChain[j.chainID]; !ok {
			order = append(order, j.chainID)
		}
		byChain[j.chainID] = append(byChain[j.chainID], slots[i]...)
	}

	var mixed []providers.Pair
	for round := 0; ; round++ {
		advanced := false
		for _, id := range order {
			if round < len(byChain[id]) {
				mixed = append(mixed, byChain[id][round])
				advanced = true
			}
		}
		if !advanced || (q.Limit > 0 && len(mixed) >= q.Limit) {
			break
		}
	}
	total := 0
	for _, id := range order {
		total += len(byChain[id])
	}
	if q.Limit > 0 && len(mixed) > q.Limit {
		mixed = mixed[:q.Limit]
	}
	if mixed == nil {
		mixed = []providers.Pair{}
	}

	if total == 0 {
		if err := escalateListingFailure(jobErrs); err != nil {
			s.record(&journal.Record{Operation: "pairs.list", Sources: sources}, start, 0, err)
			return nil, err
		}
	}

	result := &PairsResult{Pairs: mixed, Total: total}
	s.record(&journal.Record{Operation: "pairs.list",
		Request: map[string]any{"category": q.Category, "limit": q.Limit},
		Sources: sources}, start, len(mixed), nil)
	return result, nil
}
