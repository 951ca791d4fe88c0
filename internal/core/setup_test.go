package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB. RESTART IDENTITY makes the seeded row IDs
	// predictable: warehouses 1/2, brand 1, category 1, client 1, items 1/2.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, order_lines, orders, quote_lines, quotes,
			stock_items, clients, categories, brands, warehouses,
			document_sequences, exchange_rates, users
			RESTART IDENTITY CASCADE;

		INSERT INTO warehouses (code, name) VALUES ('MAIN', 'Main Warehouse'), ('SHOP', 'Shop Floor');
		INSERT INTO brands (name) VALUES ('Generic');
		INSERT INTO categories (name) VALUES ('Components');
		INSERT INTO clients (code, name) VALUES ('C-001', 'Test Client');

		INSERT INTO stock_items (sku, brand_id, category_id, name, description, tech_specs,
			cost_local, margin_pct, price_base, price_final,
			warehouse_primary_id, qty_primary, warehouse_aux_id, qty_aux, qty_total,
			image_path, is_active)
		VALUES
			('SKU-A', 1, 1, 'Widget A', 'A widget', '', 10000, 30, 13000, 15500, 1, 10, 2, 5, 15, 'img/a.png', true),
			('SKU-B', 1, 1, 'Widget B', 'B widget', '', 5000, 20, 6000, 7000, 1, 2, 2, 1, 3, 'img/b.png', true);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// poolQuantities reads the raw counters of one item straight from the table.
func poolQuantities(t *testing.T, pool *pgxpool.Pool, itemID int) (primary, aux, total int64) {
	t.Helper()
	err := pool.QueryRow(context.Background(), `
		SELECT qty_primary, qty_aux, qty_total FROM stock_items WHERE id = $1
	`, itemID).Scan(&primary, &aux, &total)
	if err != nil {
		t.Fatalf("Failed to read pool quantities for item %d: %v", itemID, err)
	}
	return primary, aux, total
}

func movementTypes(t *testing.T, pool *pgxpool.Pool, itemID int) []string {
	t.Helper()
	rows, err := pool.Query(context.Background(), `
		SELECT movement_type FROM stock_movements WHERE stock_item_id = $1 ORDER BY id
	`, itemID)
	if err != nil {
		t.Fatalf("Failed to read movements for item %d: %v", itemID, err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var mt string
		if err := rows.Scan(&mt); err != nil {
			t.Fatalf("Failed to scan movement: %v", err)
		}
		types = append(types, mt)
	}
	return types
}
