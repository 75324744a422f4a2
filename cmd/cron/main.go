package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"markethub-api/internal/cli"
	"markethub-api/internal/config"
	"markethub-api/internal/model"
	"markethub-api/internal/svc"
	"markethub-api/pkg/aggregator"
)

const (
	apiTimeout      = 15 * time.Second // Timeout for one warm/snapshot pass
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
)

var (
	configFile = flag.String("f", "etc/markethub.yaml", "the config file")

	defaultWarmCategories = []string{"hot", "trending"}
	defaultSnapshotPairs  = []string{"BTC-USDT", "ETH-USDT"}
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting cron monitor...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load app config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	warmCategories := appCfg.Cron.WarmCategories
	if len(warmCategories) == 0 {
		warmCategories = defaultWarmCategories
	}
	snapshotPairs := appCfg.Cron.SnapshotPairs
	if len(snapshotPairs) == 0 {
		snapshotPairs = defaultSnapshotPairs
	}
	warmInterval := time.Duration(appCfg.Cron.WarmIntervalSeconds) * time.Second
	snapshotInterval := time.Duration(appCfg.Cron.SnapshotIntervalSeconds) * time.Second

	log.Printf("  - Warm Categories: %v", warmCategories)
	log.Printf("  - Snapshot Pairs: %v", snapshotPairs)
	log.Printf("  - Intervals: warm=%s, snapshot=%s", warmInterval, snapshotInterval)

	svcCtx := svc.NewServiceContext(*appCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runWarmer(ctx, svcCtx.Aggregator, warmCategories, warmInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSnapshots(ctx, svcCtx.Aggregator, svcCtx.PriceSnapshotsModel, snapshotPairs, snapshotInterval)
	}()

	log.Println("[main] Cron monitor started. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping tasks...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] All tasks stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Cron monitor stopped")
}

// runWarmer pre-fetches the hot listings on a schedule so interactive
// callers hit a warm cache.
func runWarmer(ctx context.Context, agg *aggregator.Service, categories []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately on startup
	warmListings(ctx, agg, categories)

	for {
		select {
		case <-ctx.Done():
			log.Println("[warm] Stopping listing warmer")
			return
		case <-ticker.C:
			warmListings(ctx, agg, categories)
		}
	}
}

func warmListings(parentCtx context.Context, agg *aggregator.Service, categories []string) {
	if parentCtx.Err() != nil {
		return
	}
	for _, category := range categories {
		func(cat string) {
			ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
			defer cancel()

			start := time.Now()
			result, err := agg.GetTokens(ctx, aggregator.TokensQuery{Category: cat})
			elapsed := time.Since(start)

			if err != nil {
				log.Printf("[warm.%s] [ERROR] %v, took %dms", cat, err, elapsed.Milliseconds())
				return
			}
			log.Printf("[warm.%s] [OK] %d tokens (of %d), took %dms",
				cat, len(result.Tokens), result.Total, elapsed.Milliseconds())
		}(category)
	}
}

// runSnapshots resolves the monitored pairs on a schedule and persists the
// quotes when Postgres is configured.
func runSnapshots(ctx context.Context, agg *aggregator.Service, snapshots model.PriceSnapshotsModel, pairs []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately on startup
	snapshotAll(ctx, agg, snapshots, pairs)

	for {
		select {
		case <-ctx.Done():
			log.Println("[snapshot] Stopping pair snapshots")
			return
		case <-ticker.C:
			snapshotAll(ctx, agg, snapshots, pairs)
		}
	}
}

func snapshotAll(parentCtx context.Context, agg *aggregator.Service, snapshots model.PriceSnapshotsModel, pairs []string) {
	if parentCtx.Err() != nil {
		return
	}
	for _, pair := range pairs {
		func(symbol string) {
			ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
			defer cancel()

			start := time.Now()
			quote, err := agg.GetPriceForPair(ctx, symbol)
			elapsed := time.Since(start)

			if err != nil {
				log.Printf("[snapshot.%s] [ERROR] %v, took %dms", symbol, err, elapsed.Milliseconds())
				return
			}
			if quote.Price <= 0 {
				log.Printf("[snapshot.%s] [WARN] invalid price=%f, took %dms", symbol, quote.Price, elapsed.Milliseconds())
				return
			}

			change := "n/a"
			if quote.Change24h != nil {
				change = fmt.Sprintf("%.2f%%", *quote.Change24h)
			}
			log.Printf("[snapshot.%s] [OK] price=%.6f, change_24h=%s, source=%s, took %dms",
				symbol, quote.Price, change, quote.Source, elapsed.Milliseconds())

			if snapshots == nil {
				return
			}
			if _, err := snapshots.Insert(ctx, &model.PriceSnapshot{
				Symbol:    symbol,
				PriceUSD:  quote.Price,
				Change24h: quote.Change24h,
				Source:    quote.Source,
			}); err != nil {
				log.Printf("[snapshot.%s] [ERROR] persist failed: %v", symbol, err)
			}
		}(pair)
	}
}
