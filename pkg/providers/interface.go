package providers

import (
	"context"

	"markethub-api/pkg/chains"
)

// Each adapter implements the subset of these capabilities its upstream can
// serve; which adapter supports what is a compile-time fact the orchestrator
// wires explicitly, never a runtime surprise.

// TokenFetcher resolves a symbol or contract address to normalized tokens.
type TokenFetcher interface {
	Name() string
	FetchToken(ctx context.Context, chain chains.Chain, symbolOrAddress string) (*Token, error)
}

// CategoryFetcher lists tokens for a category on one chain, most relevant
// first, at most limit entries.
type CategoryFetcher interface {
	Name() string
	FetchByCategory(ctx context.Context, chain chains.Chain, category string, limit int) ([]Token, error)
}

// SearchFetcher lists tokens matching a free-text query on one chain.
type SearchFetcher interface {
	Name() string
	Search(ctx context.Context, chain chains.Chain, query string, limit int) ([]Token, error)
}

// PairLister lists pool-level trading pairs for a category on one chain.
type PairLister interface {
	Name() string
	FetchPairs(ctx context.Context, chain chains.Chain, category string, limit int) ([]Pair, error)
}

// PairQuoter returns a price quote for one base/quote pair. A tier that has
// no data returns ErrNotFound so the cascade can fall through.
type PairQuoter interface {
	Name() string
	FetchPair(ctx context.Context, base, quote string) (*PairQuote, error)
}

// Enricher backfills metadata (rank, circulating supply) onto an already
// aggregated token. Best effort only.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, chain chains.Chain, token *Token) error
}
