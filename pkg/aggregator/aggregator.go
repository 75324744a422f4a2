package aggregator

import (
	"time"

	"markethub-api/internal/cache"
	"markethub-api/pkg/chains"
	"markethub-api/pkg/journal"
	"markethub-api/pkg/providers"
)

const defaultAdapterTimeout = 8 * time.Second

// EnrichPolicy controls the best-effort metadata backfill pass that runs on
// aggregated listings before they are cached.
type EnrichPolicy struct {
	Enabled bool
	// MaxPerResponse caps directory lookups per response.
	MaxPerResponse int
	// MinPlausiblePrice marks a token price below it as suspect; suspect
	// tokens are prioritised for enrichment.
	MinPlausiblePrice float64
}

// Service aggregates market data from every configured upstream adapter
// behind one cache. Construct it once at startup and share it.
type Service struct {
	registry *chains.Registry
	store    *cache.Store
	journal  *journal.Writer

	tokenFetchers    []providers.TokenFetcher
	categoryFetchers []providers.CategoryFetcher
	searchFetchers   []providers.SearchFetcher
	pairListers      []providers.PairLister
	cascade          []providers.PairQuoter
	enrichers        []providers.Enricher

	enrich         EnrichPolicy
	adapterTimeout time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithTokenFetchers sets the adapters used for exact symbol/address lookups.
func WithTokenFetchers(fetchers ...providers.TokenFetcher) Option {
	return func(s *Service) { s.tokenFetchers = fetchers }
}

// WithCategoryFetchers sets the adapters used for category listings.
func WithCategoryFetchers(fetchers ...providers.CategoryFetcher) Option {
	return func(s *Service) { s.categoryFetchers = fetchers }
}

// WithSearchFetchers sets the adapters used for free-text search.
func WithSearchFetchers(fetchers ...providers.SearchFetcher) Option {
	return func(s *Service) { s.searchFetchers = fetchers }
}

// WithPairListers sets the adapters used for pool-level pair listings.
func WithPairListers(listers ...providers.PairLister) Option {
	return func(s *Service) { s.pairListers = listers }
}

// WithCascade sets the ordered pair-price tiers. Order is the fallback
// order; earlier tiers are authoritative.
func WithCascade(quoters ...providers.PairQuoter) Option {
	return func(s *Service) { s.cascade = quoters }
}

// WithEnrichers sets the metadata backfill adapters.
func WithEnrichers(enrichers ...providers.Enricher) Option {
	return func(s *Service) { s.enrichers = enrichers }
}

// WithEnrichPolicy sets the enrichment policy.
func WithEnrichPolicy(policy EnrichPolicy) Option {
	return func(s *Service) { s.enrich = policy }
}

// WithAdapterTimeout bounds each upstream call during fan-out.
func WithAdapterTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.adapterTimeout = d
		}
	}
}

// WithJournal enables the aggregation audit journal.
func WithJournal(w *journal.Writer) Option {
	return func(s *Service) { s.journal = w }
}

// New builds a Service over the given chain registry and response cache.
func New(registry *chains.Registry, store *cache.Store, opts ...Option) *Service {
	s := &Service{
		registry:       registry,
		store:          store,
		adapterTimeout: defaultAdapterTimeout,
		enrich:         EnrichPolicy{Enabled: true, MaxPerResponse: 5},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTLs exposes the cache TTL set for response header construction.
func (s *Service) TTLs() cache.TTLSet {
	return s.store.TTLs()
}

func (s *Service) record(rec *journal.Record, start time.Time, size int, err error) {
	if s.journal == nil {
		return
	}
	rec.DurationMS = time.Since(start).Milliseconds()
	rec.ResultSize = size
	rec.Success = err == nil
	if err != nil {
		rec.ErrMessage = err.Error()
	}
	_, _ = s.journal.Write(rec)
}
