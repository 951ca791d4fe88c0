package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockItemInput carries the editable descriptive fields of a stock item.
// Price fields are edited through EditPrice and pool counters through the
// stock and order services, never here.
type StockItemInput struct {
	SKU                string `json:"sku"`
	BrandID            *int   `json:"brand_id"`
	CategoryID         *int   `json:"category_id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	TechSpecs          string `json:"tech_specs"`
	WarehousePrimaryID int    `json:"warehouse_primary_id"`
	WarehouseAuxID     *int   `json:"warehouse_aux_id"`
	ImagePath          string `json:"image_path"`
}

// CatalogService manages stock items and the master data they reference.
// Deletes of referenced records surface as ReferentialIntegrityError, and the
// activation gate keeps incomplete items off the storefront while still
// letting them be saved.
type CatalogService interface {
	CreateStockItem(ctx context.Context, input StockItemInput) (*StockItem, error)
	UpdateStockItem(ctx context.Context, id int, input StockItemInput) (*StockItem, error)
	DeleteStockItem(ctx context.Context, id int) error
	GetStockItem(ctx context.Context, id int) (*StockItem, error)
	ListStockItems(ctx context.Context, activeOnly bool) ([]StockItem, error)

	// EditPrice applies a single-field price edit and persists the harmonized
	// snapshot. A foreign-cost edit with the rate source unreachable persists
	// only the foreign cost and returns the item together with
	// ErrRateUnavailable so the caller can report the skipped cascade.
	EditPrice(ctx context.Context, id int, field PriceField, value decimal.Decimal) (*StockItem, error)

	// SetActive flips the sellable flag. Activation is gated on the mandatory
	// fields; deactivation always succeeds.
	SetActive(ctx context.Context, id int, active bool) (*StockItem, error)
	SetImage(ctx context.Context, id int, path string) (*StockItem, error)

	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	CreateWarehouse(ctx context.Context, code, name string) (*Warehouse, error)
	DeleteWarehouse(ctx context.Context, id int) error

	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, name string) (*Brand, error)
	DeleteBrand(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string, parentID *int) (*Category, error)
	DeleteCategory(ctx context.Context, id int) error

	ListClients(ctx context.Context) ([]Client, error)
	CreateClient(ctx context.Context, c Client) (*Client, error)
	UpdateClient(ctx context.Context, c Client) (*Client, error)
	DeleteClient(ctx context.Context, id int) error
}

type catalogService struct {
	pool   *pgxpool.Pool
	source RateSource // may be nil; foreign-cost edits then skip the cascade
}

func NewCatalogService(pool *pgxpool.Pool, source RateSource) CatalogService {
	return &catalogService{pool: pool, source: source}
}

// ── stock items ──────────────────────────────────────────────────────────────

func (s *catalogService) CreateStockItem(ctx context.Context, input StockItemInput) (*StockItem, error) {
	if input.SKU == "" {
		return nil, fmt.Errorf("sku is required")
	}
	if input.WarehousePrimaryID == 0 {
		return nil, fmt.Errorf("primary warehouse is required")
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO stock_items
		  (sku, brand_id, category_id, name, description, tech_specs,
		   warehouse_primary_id, warehouse_aux_id, image_path, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		RETURNING id
	`, input.SKU, input.BrandID, input.CategoryID, input.Name, input.Description,
		input.TechSpecs, input.WarehousePrimaryID, input.WarehouseAuxID, input.ImagePath,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock item: %w", err)
	}
	return fetchStockItem(ctx, s.pool, id)
}

func (s *catalogService) UpdateStockItem(ctx context.Context, id int, input StockItemInput) (*StockItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locked so a concurrent order commit cannot interleave with a pool
	// reassignment.
	if _, err := lockStockRow(ctx, tx, id); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE stock_items
		SET sku = $1, brand_id = $2, category_id = $3, name = $4, description = $5,
		    tech_specs = $6, warehouse_primary_id = $7, warehouse_aux_id = $8,
		    image_path = $9,
		    is_active = is_active AND $9 <> '',
		    updated_at = NOW()
		WHERE id = $10
	`, input.SKU, input.BrandID, input.CategoryID, input.Name, input.Description,
		input.TechSpecs, input.WarehousePrimaryID, input.WarehouseAuxID, input.ImagePath, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("stock item %d not found", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return fetchStockItem(ctx, s.pool, id)
}

func (s *catalogService) DeleteStockItem(ctx context.Context, id int) error {
	it, err := fetchStockItem(ctx, s.pool, id)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id); err != nil {
		return mapFKViolation(err, "stock item", it.SKU)
	}
	return nil
}

func (s *catalogService) GetStockItem(ctx context.Context, id int) (*StockItem, error) {
	return fetchStockItem(ctx, s.pool, id)
}

func (s *catalogService) ListStockItems(ctx context.Context, activeOnly bool) ([]StockItem, error) {
	q := `
		SELECT id, sku, brand_id, category_id, name, description, tech_specs,
		       cost_foreign, cost_local, margin_pct, price_base, price_final,
		       warehouse_primary_id, qty_primary, warehouse_aux_id, qty_aux, qty_total,
		       image_path, is_active, last_rate_sync, created_at, updated_at
		FROM stock_items`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY sku`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock items: %w", err)
	}
	defer rows.Close()

	var items []StockItem
	for rows.Next() {
		var it StockItem
		if err := rows.Scan(
			&it.ID, &it.SKU, &it.BrandID, &it.CategoryID, &it.Name, &it.Description, &it.TechSpecs,
			&it.CostForeign, &it.CostLocal, &it.MarginPct, &it.PriceBase, &it.PriceFinal,
			&it.WarehousePrimaryID, &it.QtyPrimary, &it.WarehouseAuxID, &it.QtyAux, &it.QtyTotal,
			&it.ImagePath, &it.IsActive, &it.LastRateSync, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *catalogService) EditPrice(ctx context.Context, id int, field PriceField, value decimal.Decimal) (*StockItem, error) {
	switch field {
	case FieldCostForeign, FieldCostLocal, FieldMarginPct, FieldPriceBase, FieldPriceFinal:
	default:
		return nil, fmt.Errorf("unknown price field %q", field)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("price value cannot be negative, got %s", value)
	}

	var rate *decimal.Decimal
	if field == FieldCostForeign && s.source != nil {
		if r, err := s.source.CurrentRate(ctx); err == nil && r.IsPositive() {
			rate = &r
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cur PriceFields
	err = tx.QueryRow(ctx, `
		SELECT cost_foreign, cost_local, margin_pct, price_base, price_final
		FROM stock_items
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&cur.CostForeign, &cur.CostLocal, &cur.MarginPct, &cur.PriceBase, &cur.PriceFinal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock item %d not found", id)
		}
		return nil, fmt.Errorf("failed to lock stock item %d: %w", id, err)
	}

	next, harmErr := Harmonize(field, value, cur, rate)
	if harmErr != nil && !errors.Is(harmErr, ErrRateUnavailable) {
		return nil, harmErr
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_items
		SET cost_foreign = $1, cost_local = $2, margin_pct = $3,
		    price_base = $4, price_final = $5, updated_at = NOW()
		WHERE id = $6
	`, next.CostForeign, next.CostLocal, next.MarginPct, next.PriceBase, next.PriceFinal, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update prices: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	it, err := fetchStockItem(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	// harmErr is ErrRateUnavailable or nil at this point; the edit itself is
	// persisted either way.
	return it, harmErr
}

func (s *catalogService) SetActive(ctx context.Context, id int, active bool) (*StockItem, error) {
	it, err := fetchStockItem(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	if active {
		if missing := it.MissingForSale(); len(missing) > 0 {
			return nil, &IncompleteItemError{SKU: it.SKU, Missing: missing}
		}
	}
	if _, err := s.pool.Exec(ctx, `
		UPDATE stock_items SET is_active = $1, updated_at = NOW() WHERE id = $2
	`, active, id); err != nil {
		return nil, fmt.Errorf("failed to update active flag: %w", err)
	}
	return fetchStockItem(ctx, s.pool, id)
}

func (s *catalogService) SetImage(ctx context.Context, id int, path string) (*StockItem, error) {
	// Clearing the image also deactivates: the activation gate requires one.
	tag, err := s.pool.Exec(ctx, `
		UPDATE stock_items
		SET image_path = $1,
		    is_active = is_active AND $1 <> '',
		    updated_at = NOW()
		WHERE id = $2
	`, path, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("stock item %d not found", id)
	}
	return fetchStockItem(ctx, s.pool, id)
}

// ── master data ──────────────────────────────────────────────────────────────

func (s *catalogService) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, is_active, created_at FROM warehouses ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *catalogService) CreateWarehouse(ctx context.Context, code, name string) (*Warehouse, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("warehouse code and name are required")
	}
	w := &Warehouse{Code: code, Name: name, IsActive: true}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (code, name) VALUES ($1, $2) RETURNING id, created_at
	`, code, name).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return w, nil
}

func (s *catalogService) DeleteWarehouse(ctx context.Context, id int) error {
	var code string
	err := s.pool.QueryRow(ctx, `SELECT code FROM warehouses WHERE id = $1`, id).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("warehouse %d not found", id)
		}
		return fmt.Errorf("failed to fetch warehouse: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id); err != nil {
		return mapFKViolation(err, "warehouse", code)
	}
	return nil
}

func (s *catalogService) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *catalogService) CreateBrand(ctx context.Context, name string) (*Brand, error) {
	if name == "" {
		return nil, fmt.Errorf("brand name is required")
	}
	b := &Brand{Name: name}
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO brands (name) VALUES ($1) RETURNING id
	`, name).Scan(&b.ID); err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return b, nil
}

func (s *catalogService) DeleteBrand(ctx context.Context, id int) error {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM brands WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("brand %d not found", id)
		}
		return fmt.Errorf("failed to fetch brand: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id); err != nil {
		return mapFKViolation(err, "brand", name)
	}
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, parent_id FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name string, parentID *int) (*Category, error) {
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	c := &Category{Name: name, ParentID: parentID}
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, parent_id) VALUES ($1, $2) RETURNING id
	`, name, parentID).Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int) error {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM categories WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("category %d not found", id)
		}
		return fmt.Errorf("failed to fetch category: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return mapFKViolation(err, "category", name)
	}
	return nil
}

func (s *catalogService) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, email, phone, address, created_at FROM clients ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *catalogService) CreateClient(ctx context.Context, c Client) (*Client, error) {
	if c.Code == "" || c.Name == "" {
		return nil, fmt.Errorf("client code and name are required")
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (code, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.Code, c.Name, c.Email, c.Phone, c.Address).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &c, nil
}

func (s *catalogService) UpdateClient(ctx context.Context, c Client) (*Client, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE clients SET code = $1, name = $2, email = $3, phone = $4, address = $5
		WHERE id = $6
	`, c.Code, c.Name, c.Email, c.Phone, c.Address, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("client %d not found", c.ID)
	}
	return &c, nil
}

func (s *catalogService) DeleteClient(ctx context.Context, id int) error {
	var code string
	err := s.pool.QueryRow(ctx, `SELECT code FROM clients WHERE id = $1`, id).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("client %d not found", id)
		}
		return fmt.Errorf("failed to fetch client: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id); err != nil {
		return mapFKViolation(err, "client", code)
	}
	return nil
}
