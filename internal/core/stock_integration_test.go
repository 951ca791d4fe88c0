package core_test

import (
	"context"
	"errors"
	"testing"

	"storefront-console/internal/core"
)

func TestStock_ResolveLineCountsStagedQuantities(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	// Primary holds 10: a plain request commits there.
	alloc, err := stock.ResolveLine(ctx, core.ResolveLineRequest{StockItemID: 1, Requested: 6})
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}
	if alloc.Outcome != core.CommitToPrimary || alloc.WarehouseID != 1 {
		t.Errorf("alloc = %+v, want CommitToPrimary at warehouse 1", alloc)
	}

	// With 8 already staged in the cart only 2 remain, so the auxiliary pool
	// is offered instead.
	alloc, err = stock.ResolveLine(ctx, core.ResolveLineRequest{
		StockItemID: 1,
		Requested:   4,
		Staged:      []core.StagedQuantity{{WarehouseID: 1, Quantity: 8}},
	})
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}
	if alloc.Outcome != core.OfferAuxiliary || alloc.WarehouseID != 2 || alloc.Available != 5 {
		t.Errorf("alloc = %+v, want OfferAuxiliary at warehouse 2 with 5 available", alloc)
	}

	// Staging across both pools leaves 2+1.
	alloc, err = stock.ResolveLine(ctx, core.ResolveLineRequest{
		StockItemID: 1,
		Requested:   4,
		Staged: []core.StagedQuantity{
			{WarehouseID: 1, Quantity: 8},
			{WarehouseID: 2, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}
	if alloc.Outcome != core.Insufficient || alloc.MaxSatisfiable != 3 {
		t.Errorf("alloc = %+v, want Insufficient with max 3", alloc)
	}
}

func TestStock_AdjustSetsPoolAndRecordsDelta(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	it, err := stock.AdjustStock(ctx, 1, 1, 25, "annual count")
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if it.QtyPrimary != 25 || it.QtyAux != 5 || it.QtyTotal != 30 {
		t.Errorf("pools = %d/%d/%d, want 25/5/30", it.QtyPrimary, it.QtyAux, it.QtyTotal)
	}

	movements, err := stock.GetMovements(ctx, 1)
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("got %d movements, want 1", len(movements))
	}
	m := movements[0]
	if m.Type != core.MovementAdjust || m.Quantity != 15 || m.WarehouseID != 1 {
		t.Errorf("movement = %+v, want ADJUST of +15 at warehouse 1", m)
	}
	if m.Notes != "annual count" {
		t.Errorf("movement notes = %q, want %q", m.Notes, "annual count")
	}

	// Shrinking records a negative delta.
	if _, err := stock.AdjustStock(ctx, 1, 2, 0, "aux cleared"); err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	movements, err = stock.GetMovements(ctx, 1)
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if last := movements[len(movements)-1]; last.Quantity != -5 || last.WarehouseID != 2 {
		t.Errorf("movement = %+v, want delta -5 at warehouse 2", last)
	}
	if _, _, total := poolQuantities(t, pool, 1); total != 25 {
		t.Errorf("qty_total = %d, want 25", total)
	}
}

func TestStock_AdjustRejectsForeignWarehouse(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	catalog := core.NewCatalogService(pool, nil)
	ctx := context.Background()

	wh, err := catalog.CreateWarehouse(ctx, "OFF", "Offsite")
	if err != nil {
		t.Fatalf("CreateWarehouse failed: %v", err)
	}

	_, err = stock.AdjustStock(ctx, 1, wh.ID, 10, "misdirected")
	var wrong *core.WrongWarehouseError
	if !errors.As(err, &wrong) {
		t.Fatalf("AdjustStock error = %v, want WrongWarehouseError", err)
	}
	if wrong.SKU != "SKU-A" || wrong.WarehouseID != wh.ID {
		t.Errorf("error detail = %+v", wrong)
	}
	if primary, _, _ := poolQuantities(t, pool, 1); primary != 10 {
		t.Errorf("primary = %d after rejected adjust, want 10", primary)
	}
}
