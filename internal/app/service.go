package app

import (
	"context"
	"io"

	"storefront-console/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all UI adapters (Web, CLI) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no HTML, and no display logic of any kind.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns the operator profile by ID.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// ── catalog ──

	ListStockItems(ctx context.Context, activeOnly bool) ([]core.StockItem, error)
	GetStockItem(ctx context.Context, id int) (*core.StockItem, error)
	CreateStockItem(ctx context.Context, input core.StockItemInput) (*core.StockItem, error)
	UpdateStockItem(ctx context.Context, id int, input core.StockItemInput) (*core.StockItem, error)
	DeleteStockItem(ctx context.Context, id int) error

	// EditPrice applies a single-field price edit; the remaining price fields
	// are recomputed to stay mutually consistent. The returned error may be
	// core.ErrRateUnavailable with the edit still persisted.
	EditPrice(ctx context.Context, id int, field core.PriceField, value decimal.Decimal) (*core.StockItem, error)
	SetActive(ctx context.Context, id int, active bool) (*core.StockItem, error)
	SetImage(ctx context.Context, id int, path string) (*core.StockItem, error)

	ListWarehouses(ctx context.Context) ([]core.Warehouse, error)
	CreateWarehouse(ctx context.Context, code, name string) (*core.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id int) error
	ListBrands(ctx context.Context) ([]core.Brand, error)
	CreateBrand(ctx context.Context, name string) (*core.Brand, error)
	DeleteBrand(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name string, parentID *int) (*core.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListClients(ctx context.Context) ([]core.Client, error)
	CreateClient(ctx context.Context, c core.Client) (*core.Client, error)
	UpdateClient(ctx context.Context, c core.Client) (*core.Client, error)
	DeleteClient(ctx context.Context, id int) error

	// ── stock ──

	// ResolveLine decides which warehouse pool serves a requested quantity,
	// or reports insufficiency with the best still-satisfiable quantity.
	ResolveLine(ctx context.Context, req core.ResolveLineRequest) (core.Allocation, error)
	AdjustStock(ctx context.Context, stockItemID, warehouseID int, newQty int64, notes string) (*core.StockItem, error)
	GetStockLevels(ctx context.Context) ([]core.StockLevel, error)
	GetMovements(ctx context.Context, stockItemID int) ([]core.StockMovement, error)

	// ── orders and quotes ──

	CreateOrder(ctx context.Context, in core.OrderInput) (*core.Order, error)
	UpdateOrder(ctx context.Context, orderID int, in core.OrderInput) (*core.Order, error)
	DeleteOrder(ctx context.Context, orderID int) error
	SetOrderStatus(ctx context.Context, orderID int, status string) (*core.Order, error)
	GetOrder(ctx context.Context, orderID int) (*core.Order, error)
	ListOrders(ctx context.Context, status *string) ([]core.Order, error)
	MonthlySales(ctx context.Context, year int) ([]core.MonthlySales, error)

	CreateQuote(ctx context.Context, in core.OrderInput) (*core.Quote, error)
	UpdateQuote(ctx context.Context, quoteID int, in core.OrderInput) (*core.Quote, error)
	DeleteQuote(ctx context.Context, quoteID int) error
	SetQuoteStatus(ctx context.Context, quoteID int, status string) (*core.Quote, error)
	ConvertQuote(ctx context.Context, quoteID int) (*core.Order, error)
	GetQuote(ctx context.Context, quoteID int) (*core.Quote, error)
	ListQuotes(ctx context.Context, status *string) ([]core.Quote, error)

	// ── batch jobs ──

	// SyncRates runs the daily currency sync: one rate fetch, then a
	// best-effort repricing pass over every stale foreign-costed item.
	SyncRates(ctx context.Context) (*core.SyncResult, error)

	// ImportWorkbook parses an xlsx upload and upserts its rows by SKU.
	// Unparseable and invalid rows are reported in the result, not fatal.
	ImportWorkbook(ctx context.Context, r io.Reader) (*core.ImportResult, error)
}

// UserSession is the authenticated operator identity handed to adapters.
type UserSession struct {
	UserID   int
	Username string
	Role     string
}
