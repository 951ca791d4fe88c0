package web

import (
	"net/http"
	"strconv"
	"time"

	"storefront-console/internal/core"
)

// listOrders handles GET /api/orders?status=OPEN.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var statusPtr *string
	if s := r.URL.Query().Get("status"); s != "" {
		statusPtr = &s
	}
	orders, err := h.svc.ListOrders(r.Context(), statusPtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orders)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// createOrder handles POST /api/orders. Stock is deducted line by line inside
// one transaction; any line failing rolls the whole order back.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in core.OrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if len(in.Lines) == 0 {
		writeError(w, r, "at least one line is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.CreateOrder(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, order)
}

// updateOrder handles PUT /api/orders/{id} — a wholesale line replacement.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.OrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	order, err := h.svc.UpdateOrder(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// deleteOrder handles DELETE /api/orders/{id} — restores every line's stock.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setOrderStatus handles POST /api/orders/{id}/status.
func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	order, err := h.svc.SetOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// monthlySales handles GET /api/reports/monthly-sales?year=2026.
func (h *Handler) monthlySales(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, r, "invalid year", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	rows, err := h.svc.MonthlySales(r.Context(), year)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}
