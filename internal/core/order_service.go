package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService is the reconciliation engine for committed sales. Every
// mutation runs in a single transaction: a create deducts each line from its
// chosen pool, an edit is a full replace (restore every old line, then deduct
// every new one — never a partial diff), and a delete restores everything.
// If any line fails, the whole mutation rolls back and no counter moves.
type OrderService interface {
	CreateOrder(ctx context.Context, in OrderInput) (*Order, error)
	// UpdateOrder replaces the order's lines and header fields wholesale.
	UpdateOrder(ctx context.Context, orderID int, in OrderInput) (*Order, error)
	DeleteOrder(ctx context.Context, orderID int) error
	SetOrderStatus(ctx context.Context, orderID int, status string) (*Order, error)

	GetOrder(ctx context.Context, orderID int) (*Order, error)
	ListOrders(ctx context.Context, status *string) ([]Order, error)

	// MonthlySales returns per-month order totals for a calendar year.
	MonthlySales(ctx context.Context, year int) ([]MonthlySales, error)
}

// OrderInput is the submitted create/edit form. The cross-warehouse
// confirmation gate lives in the cart UI: by submit time every line carries
// an explicit warehouse choice, which is still re-validated against the
// item's pools under the row lock.
type OrderInput struct {
	ClientID    int             `json:"client_id"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	Notes       string          `json:"notes"`
	Lines       []LineInput     `json:"lines"`
}

// MonthlySales is one row of the monthly sales summary.
type MonthlySales struct {
	Month  int             `json:"month"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

type orderService struct {
	pool *pgxpool.Pool
}

func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool}
}

func validateOrderInput(in OrderInput) error {
	if in.ClientID == 0 {
		return fmt.Errorf("client is required")
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("an order needs at least one line")
	}
	for i, ln := range in.Lines {
		if ln.Quantity <= 0 {
			return fmt.Errorf("line %d: quantity must be positive, got %d", i+1, ln.Quantity)
		}
	}
	if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("discount must be between 0 and 100, got %s", in.DiscountPct)
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := nextDocumentNumber(ctx, tx, docTypeOrder, time.Now())
	if err != nil {
		return nil, err
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, client_id, status, discount_pct, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, number, in.ClientID, OrderStatusOpen, in.DiscountPct, in.Notes).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order header: %w", err)
	}

	lines, err := commitLinesTx(ctx, tx, orderID, number, in.Lines)
	if err != nil {
		return nil, err
	}

	if err := writeOrderTotals(ctx, tx, orderID, lines, in.DiscountPct); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// UpdateOrder is a full replace: every committed line is first restored to
// the pool it originally drew from, the old line records are deleted, and
// the new lines are deducted exactly as on create. Restore-then-deduct is
// deliberately chosen over a quantity diff — it stays correct when the line
// set changes shape (items added, removed, or switched between warehouses).
func (s *orderService) UpdateOrder(ctx context.Context, orderID int, in OrderInput) (*Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var number, status string
	err = tx.QueryRow(ctx, `SELECT order_number, status FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&number, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if status != OrderStatusOpen {
		return nil, fmt.Errorf("order %s is %s and can no longer be edited", number, status)
	}

	if err := restoreLinesTx(ctx, tx, orderID, number); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("failed to delete old order lines: %w", err)
	}

	lines, err := commitLinesTx(ctx, tx, orderID, number, in.Lines)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET client_id = $1, discount_pct = $2, notes = $3, updated_at = NOW()
		WHERE id = $4
	`, in.ClientID, in.DiscountPct, in.Notes, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order header: %w", err)
	}
	if err := writeOrderTotals(ctx, tx, orderID, lines, in.DiscountPct); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var number string
	err = tx.QueryRow(ctx, `SELECT order_number FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d not found", orderID)
		}
		return fmt.Errorf("failed to lock order: %w", err)
	}

	if err := restoreLinesTx(ctx, tx, orderID, number); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *orderService) SetOrderStatus(ctx context.Context, orderID int, status string) (*Order, error) {
	switch status {
	case OrderStatusOpen, OrderStatusDelivered, OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("unknown order status %q", status)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	o := &Order{}
	err := s.pool.QueryRow(ctx, `
		SELECT o.id, o.order_number, o.quote_id, o.client_id, c.name, o.status,
		       o.subtotal, o.discount_pct, o.total, o.notes, o.created_at, o.updated_at
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.id = $1
	`, orderID).Scan(&o.ID, &o.OrderNumber, &o.QuoteID, &o.ClientID, &o.ClientName, &o.Status,
		&o.Subtotal, &o.DiscountPct, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	o.Lines, err = fetchLines(ctx, s.pool, "order_lines", "order_id", orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderService) ListOrders(ctx context.Context, status *string) ([]Order, error) {
	query := `
		SELECT o.id, o.order_number, o.quote_id, o.client_id, c.name, o.status,
		       o.subtotal, o.discount_pct, o.total, o.notes, o.created_at, o.updated_at
		FROM orders o
		JOIN clients c ON c.id = o.client_id
	`
	args := []any{}
	if status != nil {
		query += ` WHERE o.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY o.id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.QuoteID, &o.ClientID, &o.ClientName, &o.Status,
			&o.Subtotal, &o.DiscountPct, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *orderService) MonthlySales(ctx context.Context, year int) ([]MonthlySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE EXTRACT(YEAR FROM created_at) = $1 AND status <> $2
		GROUP BY month
		ORDER BY month
	`, year, OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}
	defer rows.Close()

	var out []MonthlySales
	for rows.Next() {
		var m MonthlySales
		if err := rows.Scan(&m.Month, &m.Orders, &m.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ── Shared line helpers ──────────────────────────────────────────────────────

// commitLinesTx deducts and persists the submitted lines for an order inside
// the caller's transaction. The unit price is captured from the catalog at
// this moment and never re-derived.
func commitLinesTx(ctx context.Context, tx pgx.Tx, orderID int, number string, inputs []LineInput) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		price, err := reserveStockTx(ctx, tx, in.StockItemID, in.WarehouseID, in.Quantity,
			&orderID, fmt.Sprintf("order %s", number))
		if err != nil {
			return nil, err
		}

		ln := LineItem{
			LineNumber:  i + 1,
			StockItemID: in.StockItemID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			UnitPrice:   price,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_lines (order_id, line_number, stock_item_id, warehouse_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, orderID, ln.LineNumber, ln.StockItemID, ln.WarehouseID, ln.Quantity, ln.UnitPrice).Scan(&ln.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line %d: %w", i+1, err)
		}
		lines = append(lines, ln)
	}
	return lines, nil
}

// restoreLinesTx puts every committed line of an order back into the pool it
// originally drew from.
func restoreLinesTx(ctx context.Context, tx pgx.Tx, orderID int, number string) error {
	rows, err := tx.Query(ctx, `
		SELECT stock_item_id, warehouse_id, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY line_number
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to query order lines: %w", err)
	}

	type oldLine struct {
		itemID, warehouseID int
		qty                 int64
	}
	var old []oldLine
	for rows.Next() {
		var l oldLine
		if err := rows.Scan(&l.itemID, &l.warehouseID, &l.qty); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		old = append(old, l)
	}
	rows.Close()

	for _, l := range old {
		if err := releaseStockTx(ctx, tx, l.itemID, l.warehouseID, l.qty,
			&orderID, fmt.Sprintf("order %s line restore", number)); err != nil {
			return err
		}
	}
	return nil
}

func writeOrderTotals(ctx context.Context, tx pgx.Tx, orderID int, lines []LineItem, discountPct decimal.Decimal) error {
	subtotal, total := documentTotals(lines, discountPct)
	_, err := tx.Exec(ctx, `
		UPDATE orders SET subtotal = $1, total = $2, updated_at = NOW() WHERE id = $3
	`, subtotal, total, orderID)
	if err != nil {
		return fmt.Errorf("failed to write order totals: %w", err)
	}
	return nil
}

// fetchLines loads the line items of one quote or order, joined with catalog
// identifiers for display.
func fetchLines(ctx context.Context, pool *pgxpool.Pool, table, fkColumn string, docID int) ([]LineItem, error) {
	rows, err := pool.Query(ctx, `
		SELECT l.id, l.line_number, l.stock_item_id, si.sku, si.name, l.warehouse_id, l.quantity, l.unit_price
		FROM `+table+` l
		JOIN stock_items si ON si.id = l.stock_item_id
		WHERE l.`+fkColumn+` = $1
		ORDER BY l.line_number
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var ln LineItem
		if err := rows.Scan(&ln.ID, &ln.LineNumber, &ln.StockItemID, &ln.SKU, &ln.Name,
			&ln.WarehouseID, &ln.Quantity, &ln.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		lines = append(lines, ln)
	}
	return lines, nil
}
