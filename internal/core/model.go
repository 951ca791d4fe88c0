package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse is a physical stock location. It owns no behavior; stock_items
// reference it as a primary or auxiliary pool.
type Warehouse struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Brand struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID *int   `json:"parent_id,omitempty"`
}

// Client is a storefront customer master record.
type Client struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// StockItem is a sellable catalog unit with two physical stock pools and five
// interdependent price fields. QtyTotal is derived: it is rewritten as
// QtyPrimary+QtyAux in the same statement as every pool mutation and must
// never be edited on its own.
type StockItem struct {
	ID                 int              `json:"id"`
	SKU                string           `json:"sku"`
	BrandID            *int             `json:"brand_id,omitempty"`
	CategoryID         *int             `json:"category_id,omitempty"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	TechSpecs          string           `json:"tech_specs"`
	CostForeign        *decimal.Decimal `json:"cost_foreign,omitempty"`
	CostLocal          decimal.Decimal  `json:"cost_local"`
	MarginPct          decimal.Decimal  `json:"margin_pct"`
	PriceBase          decimal.Decimal  `json:"price_base"`
	PriceFinal         decimal.Decimal  `json:"price_final"`
	WarehousePrimaryID int              `json:"warehouse_primary_id"`
	QtyPrimary         int64            `json:"qty_primary"`
	WarehouseAuxID     *int             `json:"warehouse_aux_id,omitempty"`
	QtyAux             int64            `json:"qty_aux"`
	QtyTotal           int64            `json:"qty_total"`
	ImagePath          string           `json:"image_path"`
	IsActive           bool             `json:"is_active"`
	LastRateSync       *time.Time       `json:"last_rate_sync,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// MissingForSale returns the mandatory fields still absent before the item
// may be activated: name, description, category, brand, SKU, base price, and
// an image reference.
func (it *StockItem) MissingForSale() []string {
	var missing []string
	if it.Name == "" {
		missing = append(missing, "name")
	}
	if it.Description == "" {
		missing = append(missing, "description")
	}
	if it.CategoryID == nil {
		missing = append(missing, "category")
	}
	if it.BrandID == nil {
		missing = append(missing, "brand")
	}
	if it.SKU == "" {
		missing = append(missing, "sku")
	}
	if !it.PriceBase.IsPositive() {
		missing = append(missing, "price_base")
	}
	if it.ImagePath == "" {
		missing = append(missing, "image")
	}
	return missing
}

// StockLevel is the per-item stock projection shown on listing screens.
type StockLevel struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	PrimaryCode   string `json:"primary_warehouse"`
	QtyPrimary    int64  `json:"qty_primary"`
	AuxiliaryCode string `json:"aux_warehouse,omitempty"`
	QtyAux        int64  `json:"qty_aux"`
	QtyTotal      int64  `json:"qty_total"`
}

// Stock movement types recorded in the audit trail.
const (
	MovementDeduct  = "DEDUCT"
	MovementRestore = "RESTORE"
	MovementAdjust  = "ADJUST"
	MovementImport  = "IMPORT"
)

// StockMovement is one append-only audit row for a pool mutation.
type StockMovement struct {
	ID          int       `json:"id"`
	StockItemID int       `json:"stock_item_id"`
	WarehouseID int       `json:"warehouse_id"`
	Type        string    `json:"movement_type"`
	Quantity    int64     `json:"quantity"`
	OrderID     *int      `json:"order_id,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}
