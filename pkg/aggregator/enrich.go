package aggregator

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/pkg/providers"
)

// enrichTokens runs the best-effort metadata backfill over one response
// page. Tokens with a suspect price or no market-cap rank go first; at most
// MaxPerResponse tokens get a directory lookup. Failures are logged and
// never fail the listing.
func (s *Service) enrichTokens(ctx context.Context, tokens []providers.Token) {
	if !s.enrich.Enabled || len(s.enrichers) == 0 || len(tokens) == 0 {
		return
	}
	budget := s.enrich.MaxPerResponse
	if budget <= 0 {
		budget = len(tokens)
	}

	candidates := make([]int, 0, len(tokens))
	for i := range tokens {
		if s.needsEnrichment(&tokens[i]) {
			candidates = append(candidates, i)
		}
	}
	// Suspect prices jump the queue within the lookup budget.
	for pass := 0; pass < 2; pass++ {
		for _, i := range candidates {
			if budget == 0 {
				return
			}
			suspect := tokens[i].PriceUSD < s.enrich.MinPlausiblePrice
			if (pass == 0) != suspect {
				continue
			}
			s.enrichOne(ctx, &tokens[i])
			budget--
		}
	}
}

func (s *Service) needsEnrichment(tok *providers.Token) bool {
	return tok.MarketCapRank == 0 ||
		tok.CirculatingSupply == 0 ||
		tok.PriceUSD < s.enrich.MinPlausiblePrice
}

func (s *Service) enrichOne(ctx context.Context, tok *providers.Token) {
	chain, ok := s.registry.Resolve(tok.ChainID)
	if !ok {
		return
	}
	for _, enricher := range s.enrichers {
		enrichCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
		err := enricher.Enrich(enrichCtx, chain, tok)
		cancel()
		if err == nil {
			return
		}
		if !providers.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("aggregator: enrich %s on chain %d via %s failed: %v",
				tok.Symbol, tok.ChainID, enricher.Name(), err)
		}
	}
}
