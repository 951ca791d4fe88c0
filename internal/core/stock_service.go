package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService is the single authority over the two pool counters of every
// stock item. Callers never get raw get/set access to a counter: mutations go
// through the transactional reserve/release helpers below, which lock the
// item row, re-validate capacity under the lock, and rewrite the aggregate in
// the same statement. This closes the read-then-write race between two
// concurrent sessions ordering from the same pool.
type StockService interface {
	// ResolveLine decides which pool serves a requested quantity, given what
	// the current cart has already staged for this item. It reads live
	// counters; the final capacity check happens again under the row lock at
	// commit time.
	ResolveLine(ctx context.Context, req ResolveLineRequest) (Allocation, error)

	// AdjustStock sets one pool to an absolute quantity (manual correction),
	// recording an ADJUST movement with the applied delta.
	AdjustStock(ctx context.Context, stockItemID, warehouseID int, newQty int64, notes string) (*StockItem, error)

	GetStockLevels(ctx context.Context) ([]StockLevel, error)
	GetMovements(ctx context.Context, stockItemID int) ([]StockMovement, error)
}

// ResolveLineRequest carries the resolver inputs. Staged quantities are what
// the in-progress cart already holds for this item per warehouse; they count
// against their pool before the decision.
type ResolveLineRequest struct {
	StockItemID int              `json:"stock_item_id"`
	Requested   int64            `json:"requested"`
	Staged      []StagedQuantity `json:"staged,omitempty"`
}

type StagedQuantity struct {
	WarehouseID int   `json:"warehouse_id"`
	Quantity    int64 `json:"quantity"`
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

func (s *stockService) ResolveLine(ctx context.Context, req ResolveLineRequest) (Allocation, error) {
	if req.Requested <= 0 {
		return Allocation{}, fmt.Errorf("requested quantity must be positive, got %d", req.Requested)
	}

	var (
		primaryID int
		auxID     *int
		state     PoolState
	)
	err := s.pool.QueryRow(ctx, `
		SELECT warehouse_primary_id, qty_primary, warehouse_aux_id, qty_aux
		FROM stock_items
		WHERE id = $1
	`, req.StockItemID).Scan(&primaryID, &state.QtyPrimary, &auxID, &state.QtyAux)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Allocation{}, fmt.Errorf("stock item %d not found", req.StockItemID)
		}
		return Allocation{}, fmt.Errorf("failed to read stock item: %w", err)
	}

	state.PrimaryWarehouseID = primaryID
	if auxID != nil {
		state.AuxWarehouseID = *auxID
	}
	for _, st := range req.Staged {
		switch st.WarehouseID {
		case state.PrimaryWarehouseID:
			state.StagedPrimary += st.Quantity
		case state.AuxWarehouseID:
			state.StagedAux += st.Quantity
		}
	}

	return ResolveAllocation(state, req.Requested), nil
}

func (s *stockService) AdjustStock(ctx context.Context, stockItemID, warehouseID int, newQty int64, notes string) (*StockItem, error) {
	if newQty < 0 {
		return nil, fmt.Errorf("adjusted quantity cannot be negative, got %d", newQty)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row, err := lockStockRow(ctx, tx, stockItemID)
	if err != nil {
		return nil, err
	}

	var delta int64
	switch warehouseID {
	case row.primaryWarehouseID:
		delta = newQty - row.qtyPrimary
		row.qtyPrimary = newQty
	case row.auxWarehouseID:
		delta = newQty - row.qtyAux
		row.qtyAux = newQty
	default:
		return nil, &WrongWarehouseError{SKU: row.sku, WarehouseID: warehouseID}
	}

	if err := writePools(ctx, tx, stockItemID, row.qtyPrimary, row.qtyAux); err != nil {
		return nil, err
	}
	if err := insertMovement(ctx, tx, stockItemID, warehouseID, MovementAdjust, delta, nil, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return fetchStockItem(ctx, s.pool, stockItemID)
}

func (s *stockService) GetStockLevels(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT si.sku, si.name,
		       wp.code, si.qty_primary,
		       COALESCE(wa.code, ''), si.qty_aux,
		       si.qty_total
		FROM stock_items si
		JOIN warehouses wp ON wp.id = si.warehouse_primary_id
		LEFT JOIN warehouses wa ON wa.id = si.warehouse_aux_id
		ORDER BY si.sku
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.SKU, &sl.Name, &sl.PrimaryCode, &sl.QtyPrimary,
			&sl.AuxiliaryCode, &sl.QtyAux, &sl.QtyTotal); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, nil
}

func (s *stockService) GetMovements(ctx context.Context, stockItemID int) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, stock_item_id, warehouse_id, movement_type, quantity, order_id, notes, created_at
		FROM stock_movements
		WHERE stock_item_id = $1
		ORDER BY id
	`, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.StockItemID, &m.WarehouseID, &m.Type,
			&m.Quantity, &m.OrderID, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// ── Transactional counter authority ──────────────────────────────────────────

// lockedStockRow is the FOR UPDATE snapshot of an item's pools and price.
type lockedStockRow struct {
	sku                string
	priceFinal         decimal.Decimal
	primaryWarehouseID int
	qtyPrimary         int64
	auxWarehouseID     int // 0 when no auxiliary pool
	qtyAux             int64
}

// lockStockRow locks an item row for the duration of the transaction and
// returns its pool snapshot.
func lockStockRow(ctx context.Context, tx pgx.Tx, stockItemID int) (*lockedStockRow, error) {
	var (
		row   lockedStockRow
		auxID *int
	)
	err := tx.QueryRow(ctx, `
		SELECT sku, price_final, warehouse_primary_id, qty_primary, warehouse_aux_id, qty_aux
		FROM stock_items
		WHERE id = $1
		FOR UPDATE
	`, stockItemID).Scan(&row.sku, &row.priceFinal, &row.primaryWarehouseID,
		&row.qtyPrimary, &auxID, &row.qtyAux)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock item %d not found", stockItemID)
		}
		return nil, fmt.Errorf("failed to lock stock item %d: %w", stockItemID, err)
	}
	if auxID != nil {
		row.auxWarehouseID = *auxID
	}
	return &row, nil
}

// writePools rewrites both pool counters and the derived aggregate in one
// statement. The aggregate is never written anywhere else.
func writePools(ctx context.Context, tx pgx.Tx, stockItemID int, qtyPrimary, qtyAux int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE stock_items
		SET qty_primary = $1, qty_aux = $2, qty_total = $1 + $2, updated_at = NOW()
		WHERE id = $3
	`, qtyPrimary, qtyAux, stockItemID)
	if err != nil {
		return fmt.Errorf("failed to update stock pools: %w", err)
	}
	return nil
}

func insertMovement(ctx context.Context, tx pgx.Tx, stockItemID, warehouseID int, movementType string, qty int64, orderID *int, notes string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (stock_item_id, warehouse_id, movement_type, quantity, order_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, stockItemID, warehouseID, movementType, qty, orderID, notes)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

// reserveStockTx deducts qty from the pool identified by warehouseID inside
// the caller's transaction, re-validating capacity under the row lock. It
// returns the item's current tax-inclusive price so order paths can capture
// it at commit time.
func reserveStockTx(ctx context.Context, tx pgx.Tx, stockItemID, warehouseID int, qty int64, orderID *int, notes string) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	row, err := lockStockRow(ctx, tx, stockItemID)
	if err != nil {
		return decimal.Zero, err
	}

	switch warehouseID {
	case row.primaryWarehouseID:
		if row.qtyPrimary < qty {
			return decimal.Zero, &InsufficientStockError{
				SKU: row.sku, Requested: qty, MaxSatisfiable: row.qtyPrimary + row.qtyAux,
			}
		}
		row.qtyPrimary -= qty
	case row.auxWarehouseID:
		if row.qtyAux < qty {
			return decimal.Zero, &InsufficientStockError{
				SKU: row.sku, Requested: qty, MaxSatisfiable: row.qtyPrimary + row.qtyAux,
			}
		}
		row.qtyAux -= qty
	default:
		return decimal.Zero, &WrongWarehouseError{SKU: row.sku, WarehouseID: warehouseID}
	}

	if err := writePools(ctx, tx, stockItemID, row.qtyPrimary, row.qtyAux); err != nil {
		return decimal.Zero, err
	}
	if err := insertMovement(ctx, tx, stockItemID, warehouseID, MovementDeduct, qty, orderID, notes); err != nil {
		return decimal.Zero, err
	}
	return row.priceFinal, nil
}

// releaseStockTx restores qty to the pool identified by warehouseID inside
// the caller's transaction. The warehouse must still be one of the item's
// pools; a line whose original pool has since been detached fails the whole
// transaction rather than restoring stock into the void.
func releaseStockTx(ctx context.Context, tx pgx.Tx, stockItemID, warehouseID int, qty int64, orderID *int, notes string) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}

	row, err := lockStockRow(ctx, tx, stockItemID)
	if err != nil {
		return err
	}

	switch warehouseID {
	case row.primaryWarehouseID:
		row.qtyPrimary += qty
	case row.auxWarehouseID:
		row.qtyAux += qty
	default:
		return &WrongWarehouseError{SKU: row.sku, WarehouseID: warehouseID}
	}

	if err := writePools(ctx, tx, stockItemID, row.qtyPrimary, row.qtyAux); err != nil {
		return err
	}
	return insertMovement(ctx, tx, stockItemID, warehouseID, MovementRestore, qty, orderID, notes)
}

// fetchStockItem loads a full stock item row.
func fetchStockItem(ctx context.Context, q querier, stockItemID int) (*StockItem, error) {
	it := &StockItem{}
	err := q.QueryRow(ctx, `
		SELECT id, sku, brand_id, category_id, name, description, tech_specs,
		       cost_foreign, cost_local, margin_pct, price_base, price_final,
		       warehouse_primary_id, qty_primary, warehouse_aux_id, qty_aux, qty_total,
		       image_path, is_active, last_rate_sync, created_at, updated_at
		FROM stock_items
		WHERE id = $1
	`, stockItemID).Scan(
		&it.ID, &it.SKU, &it.BrandID, &it.CategoryID, &it.Name, &it.Description, &it.TechSpecs,
		&it.CostForeign, &it.CostLocal, &it.MarginPct, &it.PriceBase, &it.PriceFinal,
		&it.WarehousePrimaryID, &it.QtyPrimary, &it.WarehouseAuxID, &it.QtyAux, &it.QtyTotal,
		&it.ImagePath, &it.IsActive, &it.LastRateSync, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock item %d not found", stockItemID)
		}
		return nil, fmt.Errorf("failed to fetch stock item: %w", err)
	}
	return it, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
