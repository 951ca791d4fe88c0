package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Workbook column layout, in order. The first row is a header and is skipped.
const (
	colSKU = iota
	colBrandID
	colCategoryID
	colName
	colDescription
	colTechSpecs
	colCostForeign
	colCostLocal
	colMarginPct
	colPriceBase
	colPriceFinal
	colWarehousePrimary
	colWarehouseAux
	colQtyPrimary
	colQtyAux
	colCount
)

// ImportRow is one parsed workbook row, not yet validated against the
// catalog's reference data.
type ImportRow struct {
	Line        int // 1-based workbook row, for error reporting
	SKU         string
	BrandID     int
	CategoryID  int
	Name        string
	Description string
	TechSpecs   string
	CostForeign *decimal.Decimal
	CostLocal   decimal.Decimal
	MarginPct   decimal.Decimal
	PriceBase   decimal.Decimal
	PriceFinal  decimal.Decimal

	WarehousePrimaryID int
	WarehouseAuxID     int // 0 = no auxiliary pool
	QtyPrimary         int64
	QtyAux             int64
}

// RowError records why one workbook row was skipped.
type RowError struct {
	Line int
	SKU  string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Line, e.SKU, e.Err)
}

func (e RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Line  int    `json:"line"`
		SKU   string `json:"sku,omitempty"`
		Error string `json:"error"`
	}{e.Line, e.SKU, e.Err.Error()})
}

// ImportResult summarizes one import batch.
type ImportResult struct {
	BatchID uuid.UUID  `json:"batch_id"`
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors,omitempty"`
}

// ImportService loads a supplier workbook into the catalog: rows upsert by
// SKU, the pricing cascade fills derived fields, and initial stock lands as
// IMPORT movements. Incomplete rows are persisted inactive rather than
// rejected, so a partial workbook still produces a draft catalog to fix up.
type ImportService interface {
	ParseWorkbook(r io.Reader) ([]ImportRow, []RowError, error)
	Import(ctx context.Context, rows []ImportRow) (*ImportResult, error)
}

type importService struct {
	pool   *pgxpool.Pool
	source RateSource // may be nil; foreign-cost rows then skip the cascade
}

func NewImportService(pool *pgxpool.Pool, source RateSource) ImportService {
	return &importService{pool: pool, source: source}
}

// ParseWorkbook reads the first sheet of an xlsx workbook. Rows that cannot
// be parsed are returned as errors alongside the good rows.
func (s *importService) ParseWorkbook(r io.Reader) ([]ImportRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var (
		rows     []ImportRow
		rowErrs  []RowError
		haveBody bool
	)
	for i, cells := range raw {
		if i == 0 {
			continue // header
		}
		if isBlankRow(cells) {
			continue
		}
		haveBody = true
		row, err := parseImportRow(i+1, cells)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: i + 1, SKU: cellAt(cells, colSKU), Err: err})
			continue
		}
		rows = append(rows, row)
	}
	if !haveBody {
		return nil, nil, fmt.Errorf("workbook has no data rows")
	}
	return rows, rowErrs, nil
}

func parseImportRow(line int, cells []string) (ImportRow, error) {
	row := ImportRow{
		Line:        line,
		SKU:         cellAt(cells, colSKU),
		Name:        cellAt(cells, colName),
		Description: cellAt(cells, colDescription),
		TechSpecs:   cellAt(cells, colTechSpecs),
	}
	if row.SKU == "" {
		return row, fmt.Errorf("missing SKU")
	}

	var err error
	if row.BrandID, err = cellInt(cells, colBrandID); err != nil {
		return row, fmt.Errorf("brand id: %w", err)
	}
	if row.CategoryID, err = cellInt(cells, colCategoryID); err != nil {
		return row, fmt.Errorf("category id: %w", err)
	}
	if row.WarehousePrimaryID, err = cellInt(cells, colWarehousePrimary); err != nil {
		return row, fmt.Errorf("primary warehouse id: %w", err)
	}
	if row.WarehousePrimaryID == 0 {
		return row, fmt.Errorf("missing primary warehouse id")
	}
	if row.WarehouseAuxID, err = cellInt(cells, colWarehouseAux); err != nil {
		return row, fmt.Errorf("auxiliary warehouse id: %w", err)
	}

	if row.CostForeign, err = cellDecimalPtr(cells, colCostForeign); err != nil {
		return row, fmt.Errorf("foreign cost: %w", err)
	}
	if row.CostLocal, err = cellDecimal(cells, colCostLocal); err != nil {
		return row, fmt.Errorf("local cost: %w", err)
	}
	if row.MarginPct, err = cellDecimal(cells, colMarginPct); err != nil {
		return row, fmt.Errorf("margin %%: %w", err)
	}
	if row.PriceBase, err = cellDecimal(cells, colPriceBase); err != nil {
		return row, fmt.Errorf("base price: %w", err)
	}
	if row.PriceFinal, err = cellDecimal(cells, colPriceFinal); err != nil {
		return row, fmt.Errorf("final price: %w", err)
	}

	if row.QtyPrimary, err = cellInt64(cells, colQtyPrimary); err != nil {
		return row, fmt.Errorf("primary stock: %w", err)
	}
	if row.QtyAux, err = cellInt64(cells, colQtyAux); err != nil {
		return row, fmt.Errorf("auxiliary stock: %w", err)
	}
	if row.QtyPrimary < 0 || row.QtyAux < 0 {
		return row, fmt.Errorf("negative stock quantity")
	}
	if row.QtyAux > 0 && row.WarehouseAuxID == 0 {
		return row, fmt.Errorf("auxiliary stock without auxiliary warehouse")
	}
	return row, nil
}

// Import upserts the parsed rows by SKU, one transaction per row so a bad row
// never rolls back its neighbours. Reference ids are checked against the
// catalog up front, the pricing cascade fills the derived price fields, and
// items without an image stay inactive regardless of what the workbook says.
func (s *importService) Import(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	refs, err := s.loadReferenceIDs(ctx)
	if err != nil {
		return nil, err
	}

	var rate *decimal.Decimal
	if s.source != nil {
		if r, err := s.source.CurrentRate(ctx); err == nil && r.IsPositive() {
			rate = &r
		}
	}

	result := &ImportResult{BatchID: uuid.New(), Total: len(rows)}
	for _, row := range rows {
		created, err := s.importRow(ctx, row, refs, rate, result.BatchID)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: row.Line, SKU: row.SKU, Err: err})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

type referenceIDs struct {
	brands     map[int]bool
	categories map[int]bool
	warehouses map[int]bool
}

func (s *importService) loadReferenceIDs(ctx context.Context) (*referenceIDs, error) {
	refs := &referenceIDs{
		brands:     map[int]bool{},
		categories: map[int]bool{},
		warehouses: map[int]bool{},
	}
	for _, t := range []struct {
		table string
		into  map[int]bool
	}{
		{"brands", refs.brands},
		{"categories", refs.categories},
		{"warehouses", refs.warehouses},
	} {
		rows, err := s.pool.Query(ctx, "SELECT id FROM "+t.table)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", t.table, err)
		}
		for rows.Next() {
			var id int
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s id: %w", t.table, err)
			}
			t.into[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("load %s: %w", t.table, err)
		}
	}
	return refs, nil
}

func (s *importService) importRow(ctx context.Context, row ImportRow, refs *referenceIDs, rate *decimal.Decimal, batchID uuid.UUID) (created bool, err error) {
	if !refs.brands[row.BrandID] {
		return false, fmt.Errorf("unknown brand id %d", row.BrandID)
	}
	if !refs.categories[row.CategoryID] {
		return false, fmt.Errorf("unknown category id %d", row.CategoryID)
	}
	if !refs.warehouses[row.WarehousePrimaryID] {
		return false, fmt.Errorf("unknown primary warehouse id %d", row.WarehousePrimaryID)
	}
	if row.WarehouseAuxID != 0 && !refs.warehouses[row.WarehouseAuxID] {
		return false, fmt.Errorf("unknown auxiliary warehouse id %d", row.WarehouseAuxID)
	}

	prices := harmonizeImportPrices(row, rate)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		existingID int
		imagePath  string
		oldPrimary int64
		oldAux     int64
	)
	err = tx.QueryRow(ctx, `
		SELECT id, image_path, qty_primary, qty_aux
		FROM stock_items WHERE sku = $1 FOR UPDATE`, row.SKU,
	).Scan(&existingID, &imagePath, &oldPrimary, &oldAux)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		created = true
	case err != nil:
		return false, fmt.Errorf("look up sku: %w", err)
	}

	var auxID *int
	if row.WarehouseAuxID != 0 {
		auxID = &row.WarehouseAuxID
	}
	note := fmt.Sprintf("import batch %s", batchID)

	if created {
		// New items are never sellable straight from a workbook: the image
		// arrives out of band and gates activation.
		err = tx.QueryRow(ctx, `
			INSERT INTO stock_items
			  (sku, brand_id, category_id, name, description, tech_specs,
			   cost_foreign, cost_local, margin_pct, price_base, price_final,
			   warehouse_primary_id, qty_primary, warehouse_aux_id, qty_aux, qty_total,
			   is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$13+$15,FALSE)
			RETURNING id`,
			row.SKU, row.BrandID, row.CategoryID, row.Name, row.Description, row.TechSpecs,
			row.CostForeign, prices.CostLocal, prices.MarginPct, prices.PriceBase, prices.PriceFinal,
			row.WarehousePrimaryID, row.QtyPrimary, auxID, row.QtyAux,
		).Scan(&existingID)
		if err != nil {
			return false, fmt.Errorf("insert stock item: %w", err)
		}
		if row.QtyPrimary > 0 {
			if err := insertMovement(ctx, tx, existingID, row.WarehousePrimaryID, MovementImport, row.QtyPrimary, nil, note); err != nil {
				return false, err
			}
		}
		if row.QtyAux > 0 {
			if err := insertMovement(ctx, tx, existingID, row.WarehouseAuxID, MovementImport, row.QtyAux, nil, note); err != nil {
				return false, err
			}
		}
	} else {
		// Existing items keep their image and, with it, their active flag; a
		// workbook can complete an item but never activate one without one.
		_, err = tx.Exec(ctx, `
			UPDATE stock_items
			SET brand_id = $1, category_id = $2, name = $3, description = $4, tech_specs = $5,
			    cost_foreign = $6, cost_local = $7, margin_pct = $8, price_base = $9, price_final = $10,
			    warehouse_primary_id = $11, qty_primary = $12, warehouse_aux_id = $13, qty_aux = $14,
			    qty_total = $12 + $14,
			    is_active = CASE WHEN image_path = '' THEN FALSE ELSE is_active END,
			    updated_at = NOW()
			WHERE id = $15`,
			row.BrandID, row.CategoryID, row.Name, row.Description, row.TechSpecs,
			row.CostForeign, prices.CostLocal, prices.MarginPct, prices.PriceBase, prices.PriceFinal,
			row.WarehousePrimaryID, row.QtyPrimary, auxID, row.QtyAux, existingID)
		if err != nil {
			return false, fmt.Errorf("update stock item: %w", err)
		}
		if d := row.QtyPrimary - oldPrimary; d != 0 {
			if err := insertMovement(ctx, tx, existingID, row.WarehousePrimaryID, MovementImport, d, nil, note); err != nil {
				return false, err
			}
		}
		if d := row.QtyAux - oldAux; d != 0 && row.WarehouseAuxID != 0 {
			if err := insertMovement(ctx, tx, existingID, row.WarehouseAuxID, MovementImport, d, nil, note); err != nil {
				return false, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// harmonizeImportPrices fills the derived price fields from the most
// authoritative column the row provides: foreign cost cascades through the
// rate when one is available, otherwise local cost, otherwise the base price,
// otherwise the final price. Whatever the source, the stored pair always
// comes out of the base-edit cascade so the final sits on a step boundary.
func harmonizeImportPrices(row ImportRow, rate *decimal.Decimal) PriceFields {
	cur := PriceFields{
		CostForeign: row.CostForeign,
		CostLocal:   row.CostLocal,
		MarginPct:   row.MarginPct,
		PriceBase:   row.PriceBase,
		PriceFinal:  row.PriceFinal,
	}
	if row.CostForeign != nil {
		next, err := Harmonize(FieldCostForeign, *row.CostForeign, cur, rate)
		if err == nil && next.MarginPct.IsPositive() {
			return next
		}
		// Rate unavailable, or no margin to cascade through: keep whatever
		// the edit filled in and price from the row's own columns below.
		cur = next
	} else if row.CostLocal.IsPositive() && row.MarginPct.IsPositive() {
		next, _ := Harmonize(FieldCostLocal, row.CostLocal, cur, nil)
		return next
	}
	switch {
	case cur.PriceBase.IsPositive():
		next, _ := Harmonize(FieldPriceBase, cur.PriceBase, cur, nil)
		return next
	case cur.PriceFinal.IsPositive():
		next, _ := Harmonize(FieldPriceBase, DeriveBase(cur.PriceFinal), cur, nil)
		return next
	}
	return cur
}

// ── cell parsing helpers ────────────────────────────────────────────────────

func cellAt(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellInt(cells []string, i int) (int, error) {
	s := cellAt(cells, i)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func cellInt64(cells []string, i int) (int64, error) {
	s := cellAt(cells, i)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func cellDecimal(cells []string, i int) (decimal.Decimal, error) {
	s := cellAt(cells, i)
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func cellDecimalPtr(cells []string, i int) (*decimal.Decimal, error) {
	if cellAt(cells, i) == "" {
		return nil, nil
	}
	v, err := cellDecimal(cells, i)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
