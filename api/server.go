/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/holders/*         Holder directory
  /api/items/*           Item catalog
  /api/units/*           Serialized units
  /api/transactions/*    Append-only ledger
  /api/reconciliation/*  Derived views, refresh, export
  /api/seed              Demo dataset (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public; the service is
  expected to sit behind the ERP gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/holders", func(r chi.Router) {
			r.Get("/", h.ListHolders)
			r.Post("/", h.CreateHolder)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
			r.Post("/{id}/status", h.UpdateUnitStatus)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Post("/import", h.ImportTransactions)
		})

		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/", h.GetReconciliation)
			r.Post("/refresh", h.RefreshReconciliation)
			r.Get("/export", h.ExportReconciliation)
		})

		r.Post("/seed", h.LoadSeedData)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Armory Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Armory Ledger API</h1>
<ul>
<li><a href="/api/holders">/api/holders</a> - Holder directory</li>
<li><a href="/api/reconciliation">/api/reconciliation</a> - Current holdings view</li>
<li><a href="/api/reconciliation/export">/api/reconciliation/export</a> - Spreadsheet export</li>
</ul>
</body>
</html>`))
	})

	return r
}
