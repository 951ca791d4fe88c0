// seed is a one-shot tool that restores the master seed data: the two
// warehouses, a starter set of brands and categories, and the admin account.
// Safe to re-run; everything upserts.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"storefront-console/internal/db"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Restoring warehouses...")
	_, err = tx.Exec(ctx, `
		INSERT INTO warehouses (code, name) VALUES
		    ('MAIN', 'Main Warehouse'),
		    ('SHOP', 'Shop Floor')
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to restore warehouses: %v", err)
	}

	log.Println("Restoring brands...")
	_, err = tx.Exec(ctx, `
		INSERT INTO brands (name) VALUES
		    ('Generic'), ('Baseline'), ('ProLine')
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to restore brands: %v", err)
	}

	log.Println("Restoring categories...")
	_, err = tx.Exec(ctx, `
		INSERT INTO categories (name)
		SELECT v.name FROM (VALUES ('Uncategorized'), ('Components'), ('Accessories')) AS v(name)
		WHERE NOT EXISTS (SELECT 1 FROM categories c WHERE c.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to restore categories: %v", err)
	}

	log.Println("Restoring admin user...")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is not set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ('admin', 'admin@localhost', $1, 'admin')
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash;
	`, string(hash))
	if err != nil {
		log.Fatalf("Failed to restore admin user: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed data restored.")
}
