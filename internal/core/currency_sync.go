package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RateSource returns the current buy rate for the foreign currency.
type RateSource interface {
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
}

// ItemSyncError records a single item that could not be repriced during a
// sync run.
type ItemSyncError struct {
	StockItemID int
	SKU         string
	Err         error
}

func (e ItemSyncError) Error() string {
	return fmt.Sprintf("sync %s (item %d): %v", e.SKU, e.StockItemID, e.Err)
}

func (e ItemSyncError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StockItemID int    `json:"stock_item_id"`
		SKU         string `json:"sku"`
		Error       string `json:"error"`
	}{e.StockItemID, e.SKU, e.Err.Error()})
}

// SyncResult summarizes one currency sync run.
type SyncResult struct {
	Rate     decimal.Decimal `json:"rate"`
	Scanned  int             `json:"scanned"`
	Updated  int             `json:"updated"`
	Failures []ItemSyncError `json:"failures,omitempty"`
}

// CurrencySyncService reprices every foreign-costed stock item that has not
// been synced today against the latest exchange rate.
type CurrencySyncService interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

type currencySyncService struct {
	pool    *pgxpool.Pool
	source  RateSource
	workers int
}

func NewCurrencySyncService(pool *pgxpool.Pool, source RateSource) CurrencySyncService {
	return &currencySyncService{pool: pool, source: source, workers: 4}
}

// Sync fetches the rate once for the whole batch, records it, then fans out
// over the candidate items. Each item is repriced in its own transaction so
// one failure never blocks the rest of the batch; failures are collected into
// the result instead of aborting the run.
func (s *currencySyncService) Sync(ctx context.Context) (*SyncResult, error) {
	rate, err := s.source.CurrentRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rate: %w", err)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("fetch rate: non-positive rate %s: %w", rate, ErrRateUnavailable)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO exchange_rates (currency, rate) VALUES ('USD', $1)`, rate)
	if err != nil {
		return nil, fmt.Errorf("record rate: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id
		FROM stock_items
		WHERE cost_foreign IS NOT NULL
		  AND (last_rate_sync IS NULL OR last_rate_sync < CURRENT_DATE)
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list items to sync: %w", err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items to sync: %w", err)
	}

	result := &SyncResult{Rate: rate, Scanned: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan int)
	)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				sku, err := s.syncItem(ctx, id, rate)
				mu.Lock()
				if err != nil {
					result.Failures = append(result.Failures, ItemSyncError{StockItemID: id, SKU: sku, Err: err})
				} else {
					result.Updated++
				}
				mu.Unlock()
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	return result, nil
}

// syncItem reprices one stock item under a row lock: the foreign-cost cascade
// runs with the item's existing margin and the sync date is stamped in the
// same transaction. The candidate predicate is re-checked under the lock so a
// concurrent run never reprices the same item twice in a day.
func (s *currencySyncService) syncItem(ctx context.Context, stockItemID int, rate decimal.Decimal) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		sku         string
		costForeign *decimal.Decimal
		cur         PriceFields
		stale       bool
	)
	err = tx.QueryRow(ctx, `
		SELECT sku, cost_foreign, cost_local, margin_pct, price_base, price_final,
		       (last_rate_sync IS NULL OR last_rate_sync < CURRENT_DATE)
		FROM stock_items
		WHERE id = $1
		FOR UPDATE`, stockItemID,
	).Scan(&sku, &costForeign, &cur.CostLocal, &cur.MarginPct, &cur.PriceBase, &cur.PriceFinal, &stale)
	if err != nil {
		return "", fmt.Errorf("lock stock item: %w", err)
	}
	if costForeign == nil || !stale {
		return sku, nil
	}
	cur.CostForeign = costForeign

	next, err := Harmonize(FieldCostForeign, *costForeign, cur, &rate)
	if err != nil {
		return sku, fmt.Errorf("harmonize: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_items
		SET cost_local = $1, margin_pct = $2, price_base = $3, price_final = $4,
		    last_rate_sync = CURRENT_DATE, updated_at = NOW()
		WHERE id = $5`,
		next.CostLocal, next.MarginPct, next.PriceBase, next.PriceFinal, stockItemID)
	if err != nil {
		return sku, fmt.Errorf("update prices: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return sku, fmt.Errorf("commit: %w", err)
	}
	return sku, nil
}
