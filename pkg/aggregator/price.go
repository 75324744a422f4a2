package aggregator

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/internal/cache"
	"markethub-api/pkg/journal"
	"markethub-api/pkg/providers"
)

// GetPriceForPair resolves a "BASE-QUOTE" symbol through the configured
// tier cascade: each tier is asked in order, ErrNotFound falls through to
// the next, and the first tier returning a positive price wins so later
// tiers are never called. Transient tier failures are logged and skipped;
// when every tier fails transiently the last such failure escalates.
func (s *Service) GetPriceForPair(ctx context.Context, symbol string) (*providers.PairQuote, error) {
	base, quote, err := providers.PairSymbol(symbol)
	if err != nil {
		return nil, ErrInvalidInput
	}

	key := cache.PairKey(base, quote)
	return cache.Take(s.store, cache.TTLPair, key, func() (*providers.PairQuote, error) {
		return s.cascadePair(ctx, base, quote)
	})
}

func (s *Service) cascadePair(ctx context.Context, base, quote string) (*providers.PairQuote, error) {
	start := time.Now()
	request := map[string]any{"base": base, "quote": quote}

	transientCount := 0
	var lastTransient error
	for _, tier := range s.cascade {
		tierCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
		result, err := tier.FetchPair(tierCtx, base, quote)
		cancel()

		if err != nil {
			if providers.IsNotFound(err) {
				continue
			}
			logx.WithContext(ctx).Errorf("aggregator: pair %s-%s via %s failed: %v",
				base, quote, tier.Name(), err)
			transientCount++
			lastTransient = err
			continue
		}
		if result == nil || result.Price <= 0 {
			continue
		}

		s.record(&journal.Record{Operation: "pair.price", Request: request,
			Sources: []string{tier.Name()}}, start, 1, nil)
		return result, nil
	}

	// A cancelled cascade walk is not a miss.
	if err := ctx.Err(); err != nil {
		s.record(&journal.Record{Operation: "pair.price", Request: request}, start, 0, err)
		return nil, err
	}
	if len(s.cascade) > 0 && transientCount == len(s.cascade) {
		s.record(&journal.Record{Operation: "pair.price", Request: request}, start, 0, lastTransient)
		return nil, lastTransient
	}
	s.record(&journal.Record{Operation: "pair.price", Request: request}, start, 0, providers.ErrNotFound)
	return nil, providers.ErrNotFound
}
