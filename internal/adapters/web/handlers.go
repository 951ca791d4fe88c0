package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storefront-console/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Workbook upload: body limit is managed inside the handler
		// (multipart, up to 20 MB).
		r.Post("/api/import", h.importWorkbook)

		// All other protected endpoints: 1 MB body limit.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			// ── Catalog ───────────────────────────────────────────────────────
			r.Get("/api/items", h.listStockItems)
			r.Post("/api/items", h.createStockItem)
			r.Get("/api/items/{id}", h.getStockItem)
			r.Put("/api/items/{id}", h.updateStockItem)
			r.Delete("/api/items/{id}", h.deleteStockItem)
			r.Post("/api/items/{id}/price", h.editPrice)
			r.Post("/api/items/{id}/active", h.setActive)
			r.Post("/api/items/{id}/image", h.setImage)
			r.Get("/api/items/{id}/movements", h.movements)

			// ── Master data ───────────────────────────────────────────────────
			r.Get("/api/warehouses", h.listWarehouses)
			r.Post("/api/warehouses", h.createWarehouse)
			r.Delete("/api/warehouses/{id}", h.deleteWarehouse)
			r.Get("/api/brands", h.listBrands)
			r.Post("/api/brands", h.createBrand)
			r.Delete("/api/brands/{id}", h.deleteBrand)
			r.Get("/api/categories", h.listCategories)
			r.Post("/api/categories", h.createCategory)
			r.Delete("/api/categories/{id}", h.deleteCategory)
			r.Get("/api/clients", h.listClients)
			r.Post("/api/clients", h.createClient)
			r.Put("/api/clients/{id}", h.updateClient)
			r.Delete("/api/clients/{id}", h.deleteClient)

			// ── Stock ─────────────────────────────────────────────────────────
			r.Get("/api/stock", h.stockLevels)
			r.Post("/api/stock/resolve", h.resolveLine)
			r.Post("/api/stock/adjust", h.adjustStock)

			// ── Orders ────────────────────────────────────────────────────────
			r.Get("/api/orders", h.listOrders)
			r.Post("/api/orders", h.createOrder)
			r.Get("/api/orders/{id}", h.getOrder)
			r.Put("/api/orders/{id}", h.updateOrder)
			r.Delete("/api/orders/{id}", h.deleteOrder)
			r.Post("/api/orders/{id}/status", h.setOrderStatus)
			r.Get("/api/reports/monthly-sales", h.monthlySales)

			// ── Quotes ────────────────────────────────────────────────────────
			r.Get("/api/quotes", h.listQuotes)
			r.Post("/api/quotes", h.createQuote)
			r.Get("/api/quotes/{id}", h.getQuote)
			r.Put("/api/quotes/{id}", h.updateQuote)
			r.Delete("/api/quotes/{id}", h.deleteQuote)
			r.Post("/api/quotes/{id}/status", h.setQuoteStatus)
			r.Post("/api/quotes/{id}/convert", h.convertQuote)

			// ── Batch jobs ────────────────────────────────────────────────────
			r.Post("/api/rates/sync", h.syncRates)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts the {id} URL parameter as an int; a non-numeric value
// writes a 400 and returns false.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit middleware; HTTP 400 for all
// other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
