package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saama143/ping-tree/internal/observability"
)

func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Accept", "Content-Type"},
	}))

	r.Get("/api/targets", h.ListTargets)
	r.Post("/api/targets", h.UpsertTarget)
	r.Get("/api/target/{id}", h.GetTarget)
	r.Post("/route", h.Route)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", observability.MetricsHandler())
	return r
}
