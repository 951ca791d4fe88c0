package web

import (
	"net/http"

	"storefront-console/internal/core"
)

// stockLevels handles GET /api/stock.
func (h *Handler) stockLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.GetStockLevels(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, levels)
}

// resolveLine handles POST /api/stock/resolve: the cart asks which pool would
// serve a requested quantity before committing anything. OFFER_AUXILIARY
// outcomes require an explicit user confirmation in the UI; the commit itself
// re-validates under the row lock.
func (h *Handler) resolveLine(w http.ResponseWriter, r *http.Request) {
	var req core.ResolveLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	alloc, err := h.svc.ResolveLine(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, alloc)
}

// adjustStock handles POST /api/stock/adjust — sets a pool to an absolute
// quantity, recording the applied delta as an ADJUST movement.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StockItemID int    `json:"stock_item_id"`
		WarehouseID int    `json:"warehouse_id"`
		Quantity    int64  `json:"quantity"`
		Notes       string `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.svc.AdjustStock(r.Context(), body.StockItemID, body.WarehouseID, body.Quantity, body.Notes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, item)
}
