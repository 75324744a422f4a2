package svc

import (
	"log"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"markethub-api/internal/cache"
	"markethub-api/internal/config"
	"markethub-api/internal/model"
	"markethub-api/pkg/aggregator"
	"markethub-api/pkg/chains"
	"markethub-api/pkg/journal"
	providerspkg "markethub-api/pkg/providers"

	// Import for side-effects: registers the upstream adapters
	_ "markethub-api/pkg/providers/binance"
	_ "markethub-api/pkg/providers/coingecko"
	_ "markethub-api/pkg/providers/dydx"
	_ "markethub-api/pkg/providers/geckoterminal"
	_ "markethub-api/pkg/providers/moralis"
)

type ServiceContext struct {
	Config config.Config

	Registry   *chains.Registry
	Store      *cache.Store
	Journal    *journal.Writer
	Aggregator *aggregator.Service

	// Adapters holds every built upstream adapter keyed by configured name,
	// for ops tooling (cron warmers, pool resets).
	Adapters map[string]any

	// Optional DB models, injected only when a DSN is configured.
	DBConn              sqlx.SqlConn
	AdvertsModel        model.AdvertsModel
	FaqsModel           model.FaqsModel
	StakingPoolsModel   model.StakingPoolsModel
	PriceSnapshotsModel model.PriceSnapshotsModel
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config:   c,
		Registry: chains.DefaultRegistry(),
	}

	store, err := cache.NewStore(cache.NewTTLSet(c.TTL))
	if err != nil {
		log.Fatalf("failed to build response cache: %v", err)
	}
	svc.Store = store

	if c.JournalDir != "" {
		svc.Journal = journal.NewWriter(c.JournalDir)
	}

	provCfg := c.Providers.Value
	if provCfg == nil {
		log.Fatalf("providers config is required (set Providers.File in the main config)")
	}
	built, err := provCfg.Build()
	if err != nil {
		log.Fatalf("failed to build providers: %v", err)
	}
	svc.Adapters = built

	opts := capabilityOptions(built, provCfg.Cascade)
	opts = append(opts,
		aggregator.WithEnrichPolicy(aggregator.EnrichPolicy{
			Enabled:           c.Enrich.Enabled,
			MaxPerResponse:    c.Enrich.MaxPerResponse,
			MinPlausiblePrice: c.Enrich.MinPlausiblePrice,
		}),
	)
	if svc.Journal != nil {
		opts = append(opts, aggregator.WithJournal(svc.Journal))
	}
	if c.Timeout > 0 {
		// Leave headroom under the rest timeout for merge and encode.
		opts = append(opts, aggregator.WithAdapterTimeout(time.Duration(c.Timeout)*time.Millisecond*8/10))
	}
	svc.Aggregator = aggregator.New(svc.Registry, store, opts...)

	// Only inject DB models when a DSN is provided; the API itself never
	// requires Postgres.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.AdvertsModel = model.NewAdvertsModel(conn)
		svc.FaqsModel = model.NewFaqsModel(conn)
		svc.StakingPoolsModel = model.NewStakingPoolsModel(conn)
		svc.PriceSnapshotsModel = model.NewPriceSnapshotsModel(conn)
	}
	return svc
}

// capabilityOptions sorts the built adapters into the aggregator's typed
// capability lists. Cascade order follows config; every other list uses
// name order so fan-out composition is deterministic across restarts.
func capabilityOptions(built map[string]any, cascade []string) []aggregator.Option {
	names := make([]string, 0, len(built))
	for name := range built {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		tokenFetchers    []providerspkg.TokenFetcher
		categoryFetchers []providerspkg.CategoryFetcher
		searchFetchers   []providerspkg.SearchFetcher
		pairListers      []providerspkg.PairLister
		enrichers        []providerspkg.Enricher
		quoters          []providerspkg.PairQuoter
	)
	for _, name := range names {
		adapter := built[name]
		if f, ok := adapter.(providerspkg.TokenFetcher); ok {
			tokenFetchers = append(tokenFetchers, f)
		}
		if f, ok := adapter.(providerspkg.CategoryFetcher); ok {
			categoryFetchers = append(categoryFetchers, f)
		}
		if f, ok := adapter.(providerspkg.SearchFetcher); ok {
			searchFetchers = append(searchFetchers, f)
		}
		if f, ok := adapter.(providerspkg.PairLister); ok {
			pairListers = append(pairListers, f)
		}
		if f, ok := adapter.(providerspkg.Enricher); ok {
			enrichers = append(enrichers, f)
		}
	}
	for _, name := range cascade {
		adapter, ok := built[name]
		if !ok {
			log.Fatalf("cascade references unknown provider %q", name)
		}
		quoter, ok := adapter.(providerspkg.PairQuoter)
		if !ok {
			log.Fatalf("cascade provider %q cannot quote pairs", name)
		}
		quoters = append(quoters, quoter)
	}

	return []aggregator.Option{
		aggregator.WithTokenFetchers(tokenFetchers...),
		aggregator.WithCategoryFetchers(categoryFetchers...),
		aggregator.WithSearchFetchers(searchFetchers...),
		aggregator.WithPairListers(pairListers...),
		aggregator.WithEnrichers(enrichers...),
		aggregator.WithCascade(quoters...),
	}
}
