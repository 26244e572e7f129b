package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saama143/ping-tree/internal/engine"
	"github.com/saama143/ping-tree/internal/observability"
	"github.com/saama143/ping-tree/internal/storage"
)

type Handler struct {
	Repo     *storage.TargetRepo
	Selector *engine.Selector
	Health   func(ctx context.Context) error
	Version  string
}

func NewHandler(repo *storage.TargetRepo, sel *engine.Selector, health func(ctx context.Context) error, version string) *Handler {
	return &Handler{Repo: repo, Selector: sel, Health: health, Version: version}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListTargets handles GET /api/targets.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.Repo.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "targets": targets})
}

// GetTarget handles GET /api/target/{id}.
func (h *Handler) GetTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.Repo.Get(r.Context(), id)
	if errors.Is(err, engine.ErrNotFound) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "target " + id + " not found"})
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "target": t})
}

// UpsertTarget handles POST /api/targets. A second upsert with the same
// id fully replaces the prior record.
func (h *Handler) UpsertTarget(w http.ResponseWriter, r *http.Request) {
	var t engine.Target
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed target body"})
		return
	}

	err := h.Repo.Upsert(r.Context(), t)
	if errors.Is(err, engine.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Route handles POST /route. Rejection is a business outcome, not a
// failure: it gets its own 503 payload so callers can tell "no match"
// from "system down".
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	var ev engine.VisitorEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed visitor body"})
		return
	}

	d, err := h.Selector.Route(r.Context(), ev)
	if errors.Is(err, engine.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if !d.Accepted {
		observability.DecisionsTotal.WithLabelValues("reject").Inc()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "fail",
			"error":    "reject",
			"decision": "reject",
		})
		return
	}

	observability.DecisionsTotal.WithLabelValues("accept").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "url": d.URL})
}

// HealthCheck handles GET /health, reporting store reachability.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.Health(r.Context()); err != nil {
		log.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "fail", "error": "store unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "version": h.Version})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	observability.RequestErrors.WithLabelValues("storage").Inc()
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
