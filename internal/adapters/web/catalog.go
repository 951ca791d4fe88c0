package web

import (
	"errors"
	"net/http"

	"storefront-console/internal/core"

	"github.com/shopspring/decimal"
)

// listStockItems handles GET /api/items?active=true.
func (h *Handler) listStockItems(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	items, err := h.svc.ListStockItems(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, items)
}

// getStockItem handles GET /api/items/{id}.
func (h *Handler) getStockItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	item, err := h.svc.GetStockItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// createStockItem handles POST /api/items.
func (h *Handler) createStockItem(w http.ResponseWriter, r *http.Request) {
	var input core.StockItemInput
	if !decodeJSON(w, r, &input) {
		return
	}
	item, err := h.svc.CreateStockItem(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, item)
}

// updateStockItem handles PUT /api/items/{id}.
func (h *Handler) updateStockItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input core.StockItemInput
	if !decodeJSON(w, r, &input) {
		return
	}
	item, err := h.svc.UpdateStockItem(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// deleteStockItem handles DELETE /api/items/{id}.
func (h *Handler) deleteStockItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteStockItem(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// editPrice handles POST /api/items/{id}/price. The response carries a
// rate_unavailable flag when a foreign-cost edit was stored without its
// cascade because the rate source was unreachable.
func (h *Handler) editPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	value, err := decimal.NewFromString(body.Value)
	if err != nil {
		writeError(w, r, "invalid value: "+body.Value, "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	item, err := h.svc.EditPrice(r.Context(), id, core.PriceField(body.Field), value)
	if err != nil && !errors.Is(err, core.ErrRateUnavailable) {
		writeDomainError(w, r, err)
		return
	}

	type response struct {
		Item            *core.StockItem `json:"item"`
		RateUnavailable bool            `json:"rate_unavailable,omitempty"`
	}
	writeJSON(w, response{Item: item, RateUnavailable: errors.Is(err, core.ErrRateUnavailable)})
}

// setActive handles POST /api/items/{id}/active.
func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.svc.SetActive(r.Context(), id, body.Active)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// setImage handles POST /api/items/{id}/image. Upload and storage happen
// elsewhere; this endpoint records the stored path.
func (h *Handler) setImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.svc.SetImage(r.Context(), id, body.Path)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// movements handles GET /api/items/{id}/movements.
func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ms, err := h.svc.GetMovements(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, ms)
}

// ── Master data ───────────────────────────────────────────────────────────────

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	ws, err := h.svc.ListWarehouses(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ws)
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	wh, err := h.svc.CreateWarehouse(r.Context(), body.Code, body.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, wh)
}

func (h *Handler) deleteWarehouse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteWarehouse(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	bs, err := h.svc.ListBrands(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, bs)
}

func (h *Handler) createBrand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	b, err := h.svc.CreateBrand(r.Context(), body.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, b)
}

func (h *Handler) deleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBrand(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cs)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		ParentID *int   `json:"parent_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), body.Name, body.ParentID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cs)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	created, err := h.svc.CreateClient(r.Context(), c)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var c core.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	updated, err := h.svc.UpdateClient(r.Context(), c)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
