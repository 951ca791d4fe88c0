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

// QuoteService manages priced proposals. A quote reserves nothing: its lines
// carry captured unit prices but no stock is touched until conversion.
type QuoteService interface {
	CreateQuote(ctx context.Context, in OrderInput) (*Quote, error)
	UpdateQuote(ctx context.Context, quoteID int, in OrderInput) (*Quote, error)
	DeleteQuote(ctx context.Context, quoteID int) error

	// SetQuoteStatus moves a quote between OPEN and EXPIRED. CONVERTED is
	// reached only through ConvertToOrder and is terminal.
	SetQuoteStatus(ctx context.Context, quoteID int, status string) (*Quote, error)

	// ConvertToOrder copies the quote's lines verbatim — captured unit prices
	// unchanged — into a new order, deducting stock now. Insufficiency on any
	// line aborts the whole conversion.
	ConvertToOrder(ctx context.Context, quoteID int) (*Order, error)

	GetQuote(ctx context.Context, quoteID int) (*Quote, error)
	ListQuotes(ctx context.Context, status *string) ([]Quote, error)
}

type quoteService struct {
	pool   *pgxpool.Pool
	orders OrderService
}

func NewQuoteService(pool *pgxpool.Pool, orders OrderService) QuoteService {
	return &quoteService{pool: pool, orders: orders}
}

func (s *quoteService) CreateQuote(ctx context.Context, in OrderInput) (*Quote, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := nextDocumentNumber(ctx, tx, docTypeQuote, time.Now())
	if err != nil {
		return nil, err
	}

	var quoteID int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotes (quote_number, client_id, status, discount_pct, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, number, in.ClientID, QuoteStatusOpen, in.DiscountPct, in.Notes).Scan(&quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quote header: %w", err)
	}

	lines, err := writeQuoteLinesTx(ctx, tx, quoteID, in.Lines)
	if err != nil {
		return nil, err
	}
	if err := writeQuoteTotals(ctx, tx, quoteID, lines, in.DiscountPct); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetQuote(ctx, quoteID)
}

func (s *quoteService) UpdateQuote(ctx context.Context, quoteID int, in OrderInput) (*Quote, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM quotes WHERE id = $1 FOR UPDATE`, quoteID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d not found", quoteID)
		}
		return nil, fmt.Errorf("failed to lock quote: %w", err)
	}
	if status == QuoteStatusConverted {
		return nil, fmt.Errorf("quote %d has been converted and can no longer be edited", quoteID)
	}

	// Quotes hold no stock, so an edit is a plain rewrite of the lines.
	if _, err := tx.Exec(ctx, `DELETE FROM quote_lines WHERE quote_id = $1`, quoteID); err != nil {
		return nil, fmt.Errorf("failed to delete old quote lines: %w", err)
	}
	lines, err := writeQuoteLinesTx(ctx, tx, quoteID, in.Lines)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE quotes SET client_id = $1, discount_pct = $2, notes = $3, updated_at = NOW()
		WHERE id = $4
	`, in.ClientID, in.DiscountPct, in.Notes, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to update quote header: %w", err)
	}
	if err := writeQuoteTotals(ctx, tx, quoteID, lines, in.DiscountPct); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetQuote(ctx, quoteID)
}

func (s *quoteService) DeleteQuote(ctx context.Context, quoteID int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, quoteID)
	if err != nil {
		return mapFKViolation(err, "quote", fmt.Sprintf("%d", quoteID))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quote %d not found", quoteID)
	}
	return nil
}

func (s *quoteService) SetQuoteStatus(ctx context.Context, quoteID int, status string) (*Quote, error) {
	switch status {
	case QuoteStatusOpen, QuoteStatusExpired:
	default:
		return nil, fmt.Errorf("unknown quote status %q", status)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE quotes SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $3
	`, status, quoteID, QuoteStatusConverted)
	if err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if q, getErr := s.GetQuote(ctx, quoteID); getErr == nil {
			return nil, fmt.Errorf("quote %s has been converted and its status is final", q.QuoteNumber)
		}
		return nil, fmt.Errorf("quote %d not found", quoteID)
	}
	return s.GetQuote(ctx, quoteID)
}

func (s *quoteService) ConvertToOrder(ctx context.Context, quoteID int) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		q      Quote
		status string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, quote_number, client_id, status, subtotal, discount_pct, total, notes
		FROM quotes
		WHERE id = $1
		FOR UPDATE
	`, quoteID).Scan(&q.ID, &q.QuoteNumber, &q.ClientID, &status, &q.Subtotal, &q.DiscountPct, &q.Total, &q.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d not found", quoteID)
		}
		return nil, fmt.Errorf("failed to lock quote: %w", err)
	}
	if status != QuoteStatusOpen {
		return nil, fmt.Errorf("quote %s is %s and cannot be converted", q.QuoteNumber, status)
	}

	rows, err := tx.Query(ctx, `
		SELECT line_number, stock_item_id, warehouse_id, quantity, unit_price
		FROM quote_lines
		WHERE quote_id = $1
		ORDER BY line_number
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote lines: %w", err)
	}
	var lines []LineItem
	for rows.Next() {
		var ln LineItem
		if err := rows.Scan(&ln.LineNumber, &ln.StockItemID, &ln.WarehouseID, &ln.Quantity, &ln.UnitPrice); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan quote line: %w", err)
		}
		lines = append(lines, ln)
	}
	rows.Close()
	if len(lines) == 0 {
		return nil, fmt.Errorf("quote %s has no lines to convert", q.QuoteNumber)
	}

	number, err := nextDocumentNumber(ctx, tx, docTypeOrder, time.Now())
	if err != nil {
		return nil, err
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, quote_id, client_id, status, subtotal, discount_pct, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, number, quoteID, q.ClientID, OrderStatusOpen, q.Subtotal, q.DiscountPct, q.Total, q.Notes).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order header: %w", err)
	}

	// Deduct stock now, line by line, keeping the quote's captured prices.
	for _, ln := range lines {
		if _, err := reserveStockTx(ctx, tx, ln.StockItemID, ln.WarehouseID, ln.Quantity,
			&orderID, fmt.Sprintf("order %s (from quote %s)", number, q.QuoteNumber)); err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, line_number, stock_item_id, warehouse_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, ln.LineNumber, ln.StockItemID, ln.WarehouseID, ln.Quantity, ln.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line %d: %w", ln.LineNumber, err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE quotes SET status = $1, updated_at = NOW() WHERE id = $2`,
		QuoteStatusConverted, quoteID); err != nil {
		return nil, fmt.Errorf("failed to mark quote converted: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.orders.GetOrder(ctx, orderID)
}

func (s *quoteService) GetQuote(ctx context.Context, quoteID int) (*Quote, error) {
	q := &Quote{}
	err := s.pool.QueryRow(ctx, `
		SELECT q.id, q.quote_number, q.client_id, c.name, q.status,
		       q.subtotal, q.discount_pct, q.total, q.notes, q.created_at, q.updated_at
		FROM quotes q
		JOIN clients c ON c.id = q.client_id
		WHERE q.id = $1
	`, quoteID).Scan(&q.ID, &q.QuoteNumber, &q.ClientID, &q.ClientName, &q.Status,
		&q.Subtotal, &q.DiscountPct, &q.Total, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d not found", quoteID)
		}
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}

	q.Lines, err = fetchLines(ctx, s.pool, "quote_lines", "quote_id", quoteID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *quoteService) ListQuotes(ctx context.Context, status *string) ([]Quote, error) {
	query := `
		SELECT q.id, q.quote_number, q.client_id, c.name, q.status,
		       q.subtotal, q.discount_pct, q.total, q.notes, q.created_at, q.updated_at
		FROM quotes q
		JOIN clients c ON c.id = q.client_id
	`
	args := []any{}
	if status != nil {
		query += ` WHERE q.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY q.id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.QuoteNumber, &q.ClientID, &q.ClientName, &q.Status,
			&q.Subtotal, &q.DiscountPct, &q.Total, &q.Notes, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// writeQuoteLinesTx validates each line against the item's pools and persists
// it with the unit price captured from the catalog at this moment. No stock
// moves: the capacity check happens at conversion time.
func writeQuoteLinesTx(ctx context.Context, tx pgx.Tx, quoteID int, inputs []LineInput) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		row, err := lockStockRow(ctx, tx, in.StockItemID)
		if err != nil {
			return nil, err
		}
		if in.WarehouseID != row.primaryWarehouseID && in.WarehouseID != row.auxWarehouseID {
			return nil, &WrongWarehouseError{SKU: row.sku, WarehouseID: in.WarehouseID}
		}

		ln := LineItem{
			LineNumber:  i + 1,
			StockItemID: in.StockItemID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			UnitPrice:   row.priceFinal,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO quote_lines (quote_id, line_number, stock_item_id, warehouse_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, quoteID, ln.LineNumber, ln.StockItemID, ln.WarehouseID, ln.Quantity, ln.UnitPrice).Scan(&ln.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert quote line %d: %w", i+1, err)
		}
		lines = append(lines, ln)
	}
	return lines, nil
}

func writeQuoteTotals(ctx context.Context, tx pgx.Tx, quoteID int, lines []LineItem, discountPct decimal.Decimal) error {
	subtotal, total := documentTotals(lines, discountPct)
	_, err := tx.Exec(ctx, `
		UPDATE quotes SET subtotal = $1, total = $2, updated_at = NOW() WHERE id = $3
	`, subtotal, total, quoteID)
	if err != nil {
		return fmt.Errorf("failed to write quote totals: %w", err)
	}
	return nil
}
