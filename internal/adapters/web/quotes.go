package web

import (
	"net/http"

	"storefront-console/internal/core"
)

// listQuotes handles GET /api/quotes?status=OPEN.
func (h *Handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	var statusPtr *string
	if s := r.URL.Query().Get("status"); s != "" {
		statusPtr = &s
	}
	quotes, err := h.svc.ListQuotes(r.Context(), statusPtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, quotes)
}

// getQuote handles GET /api/quotes/{id}.
func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	quote, err := h.svc.GetQuote(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, quote)
}

// createQuote handles POST /api/quotes. Quotes capture prices but reserve no
// stock.
func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	var in core.OrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if len(in.Lines) == 0 {
		writeError(w, r, "at least one line is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	quote, err := h.svc.CreateQuote(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, quote)
}

// updateQuote handles PUT /api/quotes/{id}.
func (h *Handler) updateQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.OrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	quote, err := h.svc.UpdateQuote(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, quote)
}

// deleteQuote handles DELETE /api/quotes/{id}.
func (h *Handler) deleteQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteQuote(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setQuoteStatus handles POST /api/quotes/{id}/status.
func (h *Handler) setQuoteStatus(w http.ResponseWriter, r *http.Request) {
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
	quote, err := h.svc.SetQuoteStatus(r.Context(), id, body.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, quote)
}

// convertQuote handles POST /api/quotes/{id}/convert — deducts stock now, at
// the quote's captured prices, and returns the new order.
func (h *Handler) convertQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.svc.ConvertQuote(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, order)
}
