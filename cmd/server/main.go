package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "storefront-console/internal/adapters/web"
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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

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

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
