package core_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"storefront-console/internal/core"

	"github.com/shopspring/decimal"
)

// Editing an order is a full replace: the old lines are restored before the
// new ones are deducted, so shrinking a line gives the difference back to the
// pool it came from.
func TestOrder_EditRestoresBeforeDeducting(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	ctx := context.Background()

	o, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if primary, _, total := poolQuantities(t, pool, 1); primary != 6 || total != 11 {
		t.Fatalf("after create: primary = %d, total = %d, want 6/11", primary, total)
	}

	if _, err := orders.UpdateOrder(ctx, o.ID, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 2}},
	}); err != nil {
		t.Fatalf("UpdateOrder failed: %v", err)
	}
	if primary, _, total := poolQuantities(t, pool, 1); primary != 8 || total != 13 {
		t.Fatalf("after edit: primary = %d, total = %d, want 8/13", primary, total)
	}

	// The audit trail shows the restore-then-deduct, not a net delta.
	want := []string{core.MovementDeduct, core.MovementRestore, core.MovementDeduct}
	got := movementTypes(t, pool, 1)
	if len(got) != len(want) {
		t.Fatalf("movements = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("movements = %v, want %v", got, want)
		}
	}

	if err := orders.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}
	if primary, aux, total := poolQuantities(t, pool, 1); primary != 10 || aux != 5 || total != 15 {
		t.Fatalf("after delete: pools = %d/%d/%d, want 10/5/15", primary, aux, total)
	}
}

// A multi-line order commits all lines or none: when a later line cannot be
// served, the stock already deducted for earlier lines must come back.
func TestOrder_InsufficientStockRollsBackWholeOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	ctx := context.Background()

	_, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID: 1,
		Lines: []core.LineInput{
			{StockItemID: 1, WarehouseID: 1, Quantity: 3},
			{StockItemID: 2, WarehouseID: 1, Quantity: 50},
		},
	})
	var insufficient *core.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("CreateOrder error = %v, want InsufficientStockError", err)
	}
	if insufficient.SKU != "SKU-B" || insufficient.Requested != 50 || insufficient.MaxSatisfiable != 3 {
		t.Errorf("error detail = %+v, want SKU-B requested 50 max 3", insufficient)
	}

	if primary, _, _ := poolQuantities(t, pool, 1); primary != 10 {
		t.Errorf("item 1 primary = %d after rollback, want 10", primary)
	}
	if got := movementTypes(t, pool, 1); len(got) != 0 {
		t.Errorf("item 1 has %v movements after rollback, want none", got)
	}

	var orderCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("orders table has %d rows after rollback, want 0", orderCount)
	}
}

func TestOrder_NumberingAndTotals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	ctx := context.Background()

	first, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID:    1,
		DiscountPct: decimal.NewFromInt(10),
		Lines:       []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	year := time.Now().Year()
	pattern := regexp.MustCompile(fmt.Sprintf(`^ORD-%d-\d{6}$`, year))
	if !pattern.MatchString(first.OrderNumber) {
		t.Errorf("order number %q does not match ORD-YYYY-NNNNNN", first.OrderNumber)
	}
	if !strings.HasSuffix(first.OrderNumber, "000001") {
		t.Errorf("first order number = %q, want suffix 000001", first.OrderNumber)
	}

	// Prices are captured from the catalog at commit time: 2 × 15500.
	if !first.Subtotal.Equal(decimal.NewFromInt(31000)) {
		t.Errorf("subtotal = %s, want 31000", first.Subtotal)
	}
	if !first.Total.Equal(decimal.NewFromInt(27900)) {
		t.Errorf("total = %s, want 27900 (10%% off 31000)", first.Total)
	}

	second, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 2, WarehouseID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("second CreateOrder failed: %v", err)
	}
	if !strings.HasSuffix(second.OrderNumber, "000002") {
		t.Errorf("second order number = %q, want suffix 000002", second.OrderNumber)
	}
}

func TestOrder_OnlyOpenOrdersAreEditable(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	ctx := context.Background()

	o, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.SetOrderStatus(ctx, o.ID, core.OrderStatusDelivered); err != nil {
		t.Fatalf("SetOrderStatus failed: %v", err)
	}

	_, err = orders.UpdateOrder(ctx, o.ID, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 2}},
	})
	if err == nil {
		t.Fatal("expected editing a delivered order to fail")
	}
	if !strings.Contains(err.Error(), "DELIVERED") {
		t.Errorf("error = %v, want mention of the DELIVERED status", err)
	}

	// The failed edit must not have touched stock.
	if primary, _, _ := poolQuantities(t, pool, 1); primary != 9 {
		t.Errorf("item 1 primary = %d, want 9", primary)
	}
}

func TestOrder_MonthlySalesExcludesCancelled(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := core.NewOrderService(pool)
	ctx := context.Background()

	kept, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	cancelled, err := orders.CreateOrder(ctx, core.OrderInput{
		ClientID: 1,
		Lines:    []core.LineInput{{StockItemID: 1, WarehouseID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("second CreateOrder failed: %v", err)
	}
	if _, err := orders.SetOrderStatus(ctx, cancelled.ID, core.OrderStatusCancelled); err != nil {
		t.Fatalf("SetOrderStatus failed: %v", err)
	}

	now := time.Now()
	summary, err := orders.MonthlySales(ctx, now.Year())
	if err != nil {
		t.Fatalf("MonthlySales failed: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("MonthlySales returned %d months, want 1", len(summary))
	}
	if summary[0].Month != int(now.Month()) || summary[0].Orders != 1 {
		t.Errorf("summary = %+v, want month %d with 1 order", summary[0], now.Month())
	}
	if !summary[0].Total.Equal(kept.Total) {
		t.Errorf("summary total = %s, want %s", summary[0].Total, kept.Total)
	}
}
