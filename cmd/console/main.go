// console is the one-shot admin CLI: stock listings, movement audits, the
// currency sync, workbook imports, and the monthly sales report, all against
// the same application service the web server uses.
package main

import (
	"context"
	"log"
	"os"

	"storefront-console/internal/adapters/cli"
	"storefront-console/internal/app"
	"storefront-console/internal/core"
	"storefront-console/internal/db"
	"storefront-console/internal/rates"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	rateSource := rates.NewClient(os.Getenv("RATE_SOURCE_URL"))

	userService := core.NewUserService(pool)
	catalogService := core.NewCatalogService(pool, rateSource)
	stockService := core.NewStockService(pool)
	orderService := core.NewOrderService(pool)
	quoteService := core.NewQuoteService(pool, orderService)
	syncService := core.NewCurrencySyncService(pool, rateSource)
	importService := core.NewImportService(pool, rateSource)

	svc := app.NewAppService(userService, catalogService, stockService,
		orderService, quoteService, syncService, importService)

	cli.Run(ctx, svc, os.Args[1:])
}
