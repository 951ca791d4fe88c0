// sync-rates runs the daily currency sync once and exits: one rate fetch,
// then a best-effort repricing pass over every foreign-costed item not yet
// synced today. Schedule it from cron.
//
// Usage: go run ./cmd/sync-rates
package main

import (
	"context"
	"log"
	"os"
	"time"

	"storefront-console/internal/core"
	"storefront-console/internal/db"
	"storefront-console/internal/rates"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	source := rates.NewClient(os.Getenv("RATE_SOURCE_URL"))
	sync := core.NewCurrencySyncService(pool, source)

	result, err := sync.Sync(ctx)
	if err != nil {
		log.Fatalf("sync: %v", err)
	}

	log.Printf("rate %s: %d scanned, %d updated, %d failed",
		result.Rate, result.Scanned, result.Updated, len(result.Failures))
	for _, f := range result.Failures {
		log.Printf("  failed: %v", f)
	}
	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}
