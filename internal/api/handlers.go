package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aeronav/airport-finder/internal/actions"
	"github.com/aeronav/airport-finder/internal/history"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	actions AirportActions
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(acts AirportActions, log *slog.Logger) *Handlers {
	return &Handlers{actions: acts, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Action endpoints always answer 200: the envelope's success flag, not the
// HTTP status, carries the outcome, mirroring how the front end consumes
// these operations.

// intQuery parses an integer query parameter, falling back on absence or
// garbage.
func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// ListAirports handles GET /api/v1/airports.
// Dispatches on the optional search and country parameters.
func (h *Handlers) ListAirports(w http.ResponseWriter, r *http.Request) {
	result := h.actions.GetAirportsByPage(r.Context(), actions.PageParams{
		Page:    intQuery(r, "page", 1),
		Limit:   intQuery(r, "limit", 0),
		Search:  r.URL.Query().Get("search"),
		Country: r.URL.Query().Get("country"),
	})
	writeJSON(w, http.StatusOK, result)
}

// GetAirport handles GET /api/v1/airports/{code}.
func (h *Handlers) GetAirport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, http.StatusOK, h.actions.GetAirportDetails(r.Context(), code))
}

// SearchAirports handles GET /api/v1/airports/search.
// A successful search is recorded in the history cookie with its result
// count; a history write failure never fails the search.
func (h *Handlers) SearchAirports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := intQuery(r, "page", 1)
	limit := intQuery(r, "limit", 0)

	result := h.actions.SearchAirports(r.Context(), query, page, limit)

	if result.Success {
		if _, err := history.Save(w, r, query, result.Data.Pagination.Total); err != nil {
			h.log.Warn("saving search history failed", "query", query, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /api/v1/history.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	items := history.FromRequest(r)
	if items == nil {
		items = []history.Item{}
	}
	writeJSON(w, http.StatusOK, actions.Result[[]history.Item]{Success: true, Data: items})
}

// GetFrequentSearches handles GET /api/v1/history/frequent.
func (h *Handlers) GetFrequentSearches(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 5)
	frequent := history.MostFrequent(history.FromRequest(r), limit)
	if frequent == nil {
		frequent = []history.QueryCount{}
	}
	writeJSON(w, http.StatusOK, actions.Result[[]history.QueryCount]{Success: true, Data: frequent})
}

// DeleteHistoryItem handles DELETE /api/v1/history/{id}.
func (h *Handlers) DeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	updated, err := history.Delete(w, r, id)
	if err != nil {
		h.log.Error("deleting history item failed", "id", id, "err", err)
		writeJSON(w, http.StatusOK, actions.Result[[]history.Item]{Success: false, Error: "Error al eliminar del historial"})
		return
	}
	writeJSON(w, http.StatusOK, actions.Result[[]history.Item]{Success: true, Data: updated})
}

// ClearHistory handles DELETE /api/v1/history.
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	history.Clear(w)
	writeJSON(w, http.StatusOK, actions.Result[any]{Success: true})
}

// RevalidateAirports handles POST /api/v1/cache/revalidate.
// An optional path query parameter narrows the invalidation.
func (h *Handlers) RevalidateAirports(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	writeJSON(w, http.StatusOK, h.actions.RevalidateAirports(r.Context(), path))
}

// RevalidateAirport handles POST /api/v1/cache/revalidate/{code}.
func (h *Handlers) RevalidateAirport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, http.StatusOK, h.actions.RevalidateAirportDetails(r.Context(), code))
}

// storePinger is the cache connectivity check used by the health endpoint.
type storePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks cache
// connectivity; 200 when ok, 503 otherwise.
func HealthHandlerFunc(store storePinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		cacheStatus := "ok"

		if err := store.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", "err", err)
			cacheStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"cache":  cacheStatus,
		})
	}
}
