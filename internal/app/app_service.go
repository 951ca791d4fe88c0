package app

import (
	"context"
	"fmt"
	"io"

	"storefront-console/internal/core"

	"github.com/shopspring/decimal"
)

type appService struct {
	users    core.UserService
	catalog  core.CatalogService
	stock    core.StockService
	orders   core.OrderService
	quotes   core.QuoteService
	sync     core.CurrencySyncService
	importer core.ImportService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	users core.UserService,
	catalog core.CatalogService,
	stock core.StockService,
	orders core.OrderService,
	quotes core.QuoteService,
	sync core.CurrencySyncService,
	importer core.ImportService,
) ApplicationService {
	return &appService{
		users:    users,
		catalog:  catalog,
		stock:    stock,
		orders:   orders,
		quotes:   quotes,
		sync:     sync,
		importer: importer,
	}
}

// AuthenticateUser verifies credentials against the users table. Failures are
// deliberately indistinguishable: unknown user, wrong password, and disabled
// account all return the same error.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || !user.IsActive || !user.CheckPassword(password) {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &UserSession{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ── catalog ──────────────────────────────────────────────────────────────────

func (s *appService) ListStockItems(ctx context.Context, activeOnly bool) ([]core.StockItem, error) {
	return s.catalog.ListStockItems(ctx, activeOnly)
}

func (s *appService) GetStockItem(ctx context.Context, id int) (*core.StockItem, error) {
	return s.catalog.GetStockItem(ctx, id)
}

func (s *appService) CreateStockItem(ctx context.Context, input core.StockItemInput) (*core.StockItem, error) {
	return s.catalog.CreateStockItem(ctx, input)
}

func (s *appService) UpdateStockItem(ctx context.Context, id int, input core.StockItemInput) (*core.StockItem, error) {
	return s.catalog.UpdateStockItem(ctx, id, input)
}

func (s *appService) DeleteStockItem(ctx context.Context, id int) error {
	return s.catalog.DeleteStockItem(ctx, id)
}

func (s *appService) EditPrice(ctx context.Context, id int, field core.PriceField, value decimal.Decimal) (*core.StockItem, error) {
	return s.catalog.EditPrice(ctx, id, field, value)
}

func (s *appService) SetActive(ctx context.Context, id int, active bool) (*core.StockItem, error) {
	return s.catalog.SetActive(ctx, id, active)
}

func (s *appService) SetImage(ctx context.Context, id int, path string) (*core.StockItem, error) {
	return s.catalog.SetImage(ctx, id, path)
}

func (s *appService) ListWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	return s.catalog.ListWarehouses(ctx)
}

func (s *appService) CreateWarehouse(ctx context.Context, code, name string) (*core.Warehouse, error) {
	return s.catalog.CreateWarehouse(ctx, code, name)
}

func (s *appService) DeleteWarehouse(ctx context.Context, id int) error {
	return s.catalog.DeleteWarehouse(ctx, id)
}

func (s *appService) ListBrands(ctx context.Context) ([]core.Brand, error) {
	return s.catalog.ListBrands(ctx)
}

func (s *appService) CreateBrand(ctx context.Context, name string) (*core.Brand, error) {
	return s.catalog.CreateBrand(ctx, name)
}

func (s *appService) DeleteBrand(ctx context.Context, id int) error {
	return s.catalog.DeleteBrand(ctx, id)
}

func (s *appService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *appService) CreateCategory(ctx context.Context, name string, parentID *int) (*core.Category, error) {
	return s.catalog.CreateCategory(ctx, name, parentID)
}

func (s *appService) DeleteCategory(ctx context.Context, id int) error {
	return s.catalog.DeleteCategory(ctx, id)
}

func (s *appService) ListClients(ctx context.Context) ([]core.Client, error) {
	return s.catalog.ListClients(ctx)
}

func (s *appService) CreateClient(ctx context.Context, c core.Client) (*core.Client, error) {
	return s.catalog.CreateClient(ctx, c)
}

func (s *appService) UpdateClient(ctx context.Context, c core.Client) (*core.Client, error) {
	return s.catalog.UpdateClient(ctx, c)
}

func (s *appService) DeleteClient(ctx context.Context, id int) error {
	return s.catalog.DeleteClient(ctx, id)
}

// ── stock ────────────────────────────────────────────────────────────────────

func (s *appService) ResolveLine(ctx context.Context, req core.ResolveLineRequest) (core.Allocation, error) {
	return s.stock.ResolveLine(ctx, req)
}

func (s *appService) AdjustStock(ctx context.Context, stockItemID, warehouseID int, newQty int64, notes string) (*core.StockItem, error) {
	return s.stock.AdjustStock(ctx, stockItemID, warehouseID, newQty, notes)
}

func (s *appService) GetStockLevels(ctx context.Context) ([]core.StockLevel, error) {
	return s.stock.GetStockLevels(ctx)
}

func (s *appService) GetMovements(ctx context.Context, stockItemID int) ([]core.StockMovement, error) {
	return s.stock.GetMovements(ctx, stockItemID)
}

// ── orders and quotes ────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, in core.OrderInput) (*core.Order, error) {
	return s.orders.CreateOrder(ctx, in)
}

func (s *appService) UpdateOrder(ctx context.Context, orderID int, in core.OrderInput) (*core.Order, error) {
	return s.orders.UpdateOrder(ctx, orderID, in)
}

func (s *appService) DeleteOrder(ctx context.Context, orderID int) error {
	return s.orders.DeleteOrder(ctx, orderID)
}

func (s *appService) SetOrderStatus(ctx context.Context, orderID int, status string) (*core.Order, error) {
	return s.orders.SetOrderStatus(ctx, orderID, status)
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*core.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *appService) ListOrders(ctx context.Context, status *string) ([]core.Order, error) {
	return s.orders.ListOrders(ctx, status)
}

func (s *appService) MonthlySales(ctx context.Context, year int) ([]core.MonthlySales, error) {
	return s.orders.MonthlySales(ctx, year)
}

func (s *appService) CreateQuote(ctx context.Context, in core.OrderInput) (*core.Quote, error) {
	return s.quotes.CreateQuote(ctx, in)
}

func (s *appService) UpdateQuote(ctx context.Context, quoteID int, in core.OrderInput) (*core.Quote, error) {
	return s.quotes.UpdateQuote(ctx, quoteID, in)
}

func (s *appService) DeleteQuote(ctx context.Context, quoteID int) error {
	return s.quotes.DeleteQuote(ctx, quoteID)
}

func (s *appService) SetQuoteStatus(ctx context.Context, quoteID int, status string) (*core.Quote, error) {
	return s.quotes.SetQuoteStatus(ctx, quoteID, status)
}

func (s *appService) ConvertQuote(ctx context.Context, quoteID int) (*core.Order, error) {
	return s.quotes.ConvertToOrder(ctx, quoteID)
}

func (s *appService) GetQuote(ctx context.Context, quoteID int) (*core.Quote, error) {
	return s.quotes.GetQuote(ctx, quoteID)
}

func (s *appService) ListQuotes(ctx context.Context, status *string) ([]core.Quote, error) {
	return s.quotes.ListQuotes(ctx, status)
}

// ── batch jobs ───────────────────────────────────────────────────────────────

func (s *appService) SyncRates(ctx context.Context) (*core.SyncResult, error) {
	return s.sync.Sync(ctx)
}

// ImportWorkbook folds parse-level row errors into the import result so the
// caller sees one report for the whole upload.
func (s *appService) ImportWorkbook(ctx context.Context, r io.Reader) (*core.ImportResult, error) {
	rows, parseErrs, err := s.importer.ParseWorkbook(r)
	if err != nil {
		return nil, err
	}
	result, err := s.importer.Import(ctx, rows)
	if err != nil {
		return nil, err
	}
	result.Total += len(parseErrs)
	result.Errors = append(parseErrs, result.Errors...)
	return result, nil
}
