package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Editing an order never changes its status; only fulfilment
// transitions do.
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Quote statuses.
const (
	QuoteStatusOpen      = "OPEN"
	QuoteStatusConverted = "CONVERTED"
	QuoteStatusExpired   = "EXPIRED"
)

// LineItem is the shared line shape for quotes and orders. UnitPrice is a
// snapshot captured at commit time: historical documents never reprice when
// the catalog changes.
type LineItem struct {
	ID          int             `json:"id"`
	LineNumber  int             `json:"line_number"`
	StockItemID int             `json:"stock_item_id"`
	SKU         string          `json:"sku"`  // joined from stock_items
	Name        string          `json:"name"` // joined from stock_items
	WarehouseID int             `json:"warehouse_id"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Order is a committed sale: its lines have been deducted from stock.
type Order struct {
	ID          int             `json:"id"`
	OrderNumber string          `json:"order_number"`
	QuoteID     *int            `json:"quote_id,omitempty"`
	ClientID    int             `json:"client_id"`
	ClientName  string          `json:"client_name"` // joined from clients
	Status      string          `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	Total       decimal.Decimal `json:"total"`
	Notes       string          `json:"notes"`
	Lines       []LineItem      `json:"lines"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Quote is a priced proposal. It reserves nothing: stock is touched only when
// the quote is converted into an order.
type Quote struct {
	ID          int             `json:"id"`
	QuoteNumber string          `json:"quote_number"`
	ClientID    int             `json:"client_id"`
	ClientName  string          `json:"client_name"` // joined from clients
	Status      string          `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	Total       decimal.Decimal `json:"total"`
	Notes       string          `json:"notes"`
	Lines       []LineItem      `json:"lines"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LineInput is one requested line on a create/edit form. It carries no price:
// order and quote commits capture the live catalog price inside the
// transaction, and conversion reuses the price stored on the quote line.
type LineInput struct {
	StockItemID int   `json:"stock_item_id"`
	WarehouseID int   `json:"warehouse_id"`
	Quantity    int64 `json:"quantity"`
}

// documentTotals derives header totals from the line snapshots:
// subtotal = Σ(quantity × unit price), total = subtotal × (1 − discount%/100).
func documentTotals(lines []LineItem, discountPct decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, ln := range lines {
		subtotal = subtotal.Add(ln.UnitPrice.Mul(decimal.NewFromInt(ln.Quantity)))
	}
	factor := decimal.NewFromInt(1).Sub(discountPct.Div(decimal.NewFromInt(100)))
	total = subtotal.Mul(factor).Round(2)
	return subtotal, total
}
