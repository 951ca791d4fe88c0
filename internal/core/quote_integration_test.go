package core_test

import (
	"context"
	"strings"
	"testing"

	"storefront-console/internal/core"

	"github.com/shopspring/decimal"
)

// A quote is a priced proposal: it captures unit prices but reserves no stock.
func TestQuote_CreateDoesNotTouchStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	quotes := core.NewQuoteService(pool, orders)
	ctx := context.Background()

	q, err := quotes.CreateQuote(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if !strings.HasPrefix(q.QuoteNumber, "QUO-") {
		t.Errorf("quote number = %q, want QUO- prefix", q.QuoteNumber)
	}
	if q.Status != core.QuoteStatusOpen {
		t.Errorf("status = %q, want %q", q.Status, core.QuoteStatusOpen)
	}
	if len(q.Lines) != 1 || !q.Lines[0].UnitPrice.Equal(decimal.NewFromInt(15500)) {
		t.Errorf("lines = %+v, want one line at 15500", q.Lines)
	}

	if primary, aux, _ := poolQuantities(t, pool, 1); primary != 10 || aux != 5 {
		t.Errorf("pools = %d/%d after quote, want untouched 10/5", primary, aux)
	}
	if got := movementTypes(t, pool, 1); len(got) != 0 {
		t.Errorf("quote produced movements %v, want none", got)
	}
}

// Conversion deducts stock at the quote's captured prices, ignoring any
// catalog reprice that happened in between.
func TestQuote_ConvertKeepsCapturedPrices(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	quotes := core.NewQuoteService(pool, orders)
	ctx := context.Background()

	q, err := quotes.CreateQuote(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	// Catalog price changes between quote and conversion.
	if _, err := pool.Exec(ctx, `UPDATE stock_items SET price_final = 99999 WHERE id = 1`); err != nil {
		t.Fatalf("reprice item: %v", err)
	}

	o, err := quotes.ConvertToOrder(ctx, q.ID)
	if err != nil {
		t.Fatalf("ConvertToOrder failed: %v", err)
	}
	if o.QuoteID == nil || *o.QuoteID != q.ID {
		t.Errorf("order quote_id = %v, want %d", o.QuoteID, q.ID)
	}
	if len(o.Lines) != 1 || !o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(15500)) {
		t.Errorf("order line price = %+v, want the quoted 15500", o.Lines)
	}
	if !o.Total.Equal(q.Total) {
		t.Errorf("order total = %s, want quote total %s", o.Total, q.Total)
	}

	if primary, _, _ := poolQuantities(t, pool, 1); primary != 7 {
		t.Errorf("primary = %d after conversion, want 7", primary)
	}

	converted, err := quotes.GetQuote(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if converted.Status != core.QuoteStatusConverted {
		t.Errorf("quote status = %q, want %q", converted.Status, core.QuoteStatusConverted)
	}

	// A converted quote converts once.
	if _, err := quotes.ConvertToOrder(ctx, q.ID); err == nil {
		t.Error("expected second conversion to fail")
	}
	if _, err := quotes.UpdateQuote(ctx, q.ID, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 1}},
	}); err == nil {
		t.Error("expected editing a converted quote to fail")
	}
}

func TestQuote_ExpiredQuotesDoNotConvert(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	quotes := core.NewQuoteService(pool, orders)
	ctx := context.Background()

	q, err := quotes.CreateQuote(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	expired, err := quotes.SetQuoteStatus(ctx, q.ID, core.QuoteStatusExpired)
	if err != nil {
		t.Fatalf("SetQuoteStatus failed: %v", err)
	}
	if expired.Status != core.QuoteStatusExpired {
		t.Errorf("status = %q, want EXPIRED", expired.Status)
	}

	if _, err := quotes.ConvertToOrder(ctx, q.ID); err == nil {
		t.Fatal("expected converting an expired quote to fail")
	}

	// Reopening makes it convertible again.
	if _, err := quotes.SetQuoteStatus(ctx, q.ID, core.QuoteStatusOpen); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if _, err := quotes.ConvertToOrder(ctx, q.ID); err != nil {
		t.Fatalf("ConvertToOrder after reopen failed: %v", err)
	}

	// Conversion is terminal: the status can no longer be forced back.
	if _, err := quotes.SetQuoteStatus(ctx, q.ID, core.QuoteStatusOpen); err == nil {
		t.Error("expected reopening a converted quote to fail")
	}
}

// If any quoted line no longer fits its pool, the whole conversion aborts and
// the quote stays open.
func TestQuote_ConvertInsufficientStockAborts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	quotes := core.NewQuoteService(pool, orders)
	ctx := context.Background()

	q, err := quotes.CreateQuote(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 8}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	// Stock drains while the quote sits open.
	if _, err := pool.Exec(ctx, `
		UPDATE stock_items SET qty_primary = 2, qty_total = 2 + qty_aux WHERE id = 1
	`); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	if _, err := quotes.ConvertToOrder(ctx, q.ID); err == nil {
		t.Fatal("expected conversion to fail on insufficient stock")
	}

	still, err := quotes.GetQuote(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if still.Status != core.QuoteStatusOpen {
		t.Errorf("quote status = %q after failed conversion, want OPEN", still.Status)
	}
	if primary, _, _ := poolQuantities(t, pool, 1); primary != 2 {
		t.Errorf("primary = %d after failed conversion, want 2", primary)
	}
}
