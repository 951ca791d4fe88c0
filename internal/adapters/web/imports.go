package web

import (
	"net/http"
)

const maxWorkbookSize = 20 << 20 // 20 MB

// importWorkbook handles POST /api/import with a multipart "workbook" field
// holding an xlsx file. The whole batch is reported back: counts plus the
// per-row errors of the rows that were skipped.
func (h *Handler) importWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookSize)
	if err := r.ParseMultipartForm(maxWorkbookSize); err != nil {
		writeError(w, r, "invalid multipart upload: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("workbook")
	if err != nil {
		writeError(w, r, "missing workbook file", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.svc.ImportWorkbook(r.Context(), file)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, result)
}

// syncRates handles POST /api/rates/sync — triggers the currency sync run on
// demand. The same job runs daily via cmd/sync-rates.
func (h *Handler) syncRates(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SyncRates(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "RATE_UNAVAILABLE", http.StatusBadGateway)
		return
	}
	writeJSON(w, result)
}
