package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront-console/internal/core"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Missing   []string `json:"missing,omitempty"`
	MaxQty    *int64   `json:"max_satisfiable,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the core error kinds onto HTTP statuses and keeps
// their structured payloads (missing fields, max satisfiable quantity) intact
// so the UI can render actionable messages instead of raw database noise.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		insufficient *core.InsufficientStockError
		refIntegrity *core.ReferentialIntegrityError
		incomplete   *core.IncompleteItemError
		wrongWH      *core.WrongWarehouseError
	)
	switch {
	case errors.As(err, &insufficient):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:     insufficient.Error(),
			Code:      "INSUFFICIENT_STOCK",
			MaxQty:    &insufficient.MaxSatisfiable,
			RequestID: requestIDFromContext(r.Context()),
		})
	case errors.As(err, &refIntegrity):
		writeError(w, r, refIntegrity.Error(), "STILL_IN_USE", http.StatusConflict)
	case errors.As(err, &incomplete):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:     incomplete.Error(),
			Code:      "INCOMPLETE_ITEM",
			Missing:   incomplete.Missing,
			RequestID: requestIDFromContext(r.Context()),
		})
	case errors.As(err, &wrongWH):
		writeError(w, r, wrongWH.Error(), "WRONG_WAREHOUSE", http.StatusUnprocessableEntity)
	case strings.Contains(err.Error(), "not found"):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	default:
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	}
}
