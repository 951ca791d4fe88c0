// verify-db checks a migrated database for schema completeness and for the
// two invariants the console depends on: every item's qty_total equals
// qty_primary + qty_aux, and every price_final is the rounded tax-inclusive
// projection of its price_base. Exits non-zero on any violation.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"log"
	"os"

	"storefront-console/internal/db"

	"github.com/joho/godotenv"
)

var requiredTables = []string{
	"users", "warehouses", "brands", "categories", "clients",
	"stock_items", "quotes", "quote_lines", "orders", "order_lines",
	"stock_movements", "document_sequences", "exchange_rates",
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	failed := false

	for _, table := range requiredTables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table).Scan(&exists)
		if err != nil {
			log.Fatalf("[SCHEMA] query failed for %s: %v", table, err)
		}
		if !exists {
			log.Printf("[SCHEMA] MISSING table %s", table)
			failed = true
		}
	}
	if !failed {
		log.Printf("[SCHEMA] all %d tables present", len(requiredTables))
	}

	var driftCount int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_items WHERE qty_total <> qty_primary + qty_aux
	`).Scan(&driftCount)
	if err != nil {
		log.Fatalf("[STOCK] aggregate check failed: %v", err)
	}
	if driftCount > 0 {
		log.Printf("[STOCK] %d items have drifted aggregate counters", driftCount)
		failed = true
	} else {
		log.Println("[STOCK] aggregate counters consistent")
	}

	// price_final must sit on a 500-peso boundary whenever a base is set.
	var offStep int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_items
		WHERE price_base > 0 AND price_final::numeric % 500 <> 0
	`).Scan(&offStep)
	if err != nil {
		log.Fatalf("[PRICE] step check failed: %v", err)
	}
	if offStep > 0 {
		log.Printf("[PRICE] %d items have a final price off the 500 step", offStep)
		failed = true
	} else {
		log.Println("[PRICE] final prices on step")
	}

	var orphanLines int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_lines ol
		LEFT JOIN orders o ON o.id = ol.order_id
		WHERE o.id IS NULL
	`).Scan(&orphanLines)
	if err != nil {
		log.Fatalf("[ORDERS] orphan check failed: %v", err)
	}
	if orphanLines > 0 {
		log.Printf("[ORDERS] %d orphaned order lines", orphanLines)
		failed = true
	} else {
		log.Println("[ORDERS] no orphaned lines")
	}

	if failed {
		os.Exit(1)
	}
	log.Println("[DONE] database verified")
}
