package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handler's routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(Instrument)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/items", h.Items)
		r.Get("/recommendations", h.Recommendations)
		r.Post("/reload", h.Reload)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
