package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRateUnavailable signals that the external currency source could not be
// reached. Pricing callers skip the cascade and keep prior values; nothing
// aborts because of it.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// InsufficientStockError is returned when a requested quantity exceeds both
// pools combined. MaxSatisfiable is the best quantity the caller could still
// order across primary and auxiliary.
type InsufficientStockError struct {
	SKU            string
	Requested      int64
	MaxSatisfiable int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, max satisfiable %d",
		e.SKU, e.Requested, e.MaxSatisfiable)
}

// ReferentialIntegrityError is the user-facing "cannot delete, still in use"
// failure raised when master data referenced by committed documents would be
// removed. It is mapped from the raw Postgres FK violation, never leaked.
type ReferentialIntegrityError struct {
	Entity string // "stock item", "warehouse", "brand", ...
	Ref    string // identifying code or name
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s %q is still referenced by committed documents and cannot be deleted", e.Entity, e.Ref)
}

// mapFKViolation converts a Postgres foreign-key violation (SQLSTATE 23503)
// into a ReferentialIntegrityError. Other errors pass through unchanged.
func mapFKViolation(err error, entity, ref string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return &ReferentialIntegrityError{Entity: entity, Ref: ref}
	}
	return err
}

// IncompleteItemError reports the mandatory fields still missing before a
// stock item may be activated. Incomplete items are persisted inactive rather
// than rejected ("accept now, fix later"); this error only blocks activation.
type IncompleteItemError struct {
	SKU     string
	Missing []string
}

func (e *IncompleteItemError) Error() string {
	return fmt.Sprintf("item %s cannot be activated, missing: %v", e.SKU, e.Missing)
}

// WrongWarehouseError is raised when a line references a warehouse that is
// neither the item's primary nor its auxiliary pool at commit time.
type WrongWarehouseError struct {
	SKU         string
	WarehouseID int
}

func (e *WrongWarehouseError) Error() string {
	return fmt.Sprintf("warehouse %d is not a stock pool of item %s", e.WarehouseID, e.SKU)
}
