package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Browse/search/history routes are public; the cache revalidation routes
// require bearer auth. Rate limiting is applied globally: 60 requests per
// minute per IP.
func NewRouter(handlers *Handlers, adminToken string, store storePinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(store, log))

	r.Get("/api/v1/airports", handlers.ListAirports)
	r.Get("/api/v1/airports/search", handlers.SearchAirports)
	r.Get("/api/v1/airports/{code}", handlers.GetAirport)

	r.Get("/api/v1/history", handlers.GetHistory)
	r.Get("/api/v1/history/frequent", handlers.GetFrequentSearches)
	r.Delete("/api/v1/history", handlers.ClearHistory)
	r.Delete("/api/v1/history/{id}", handlers.DeleteHistoryItem)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(adminToken))
		r.Post("/api/v1/cache/revalidate", handlers.RevalidateAirports)
		r.Post("/api/v1/cache/revalidate/{code}", handlers.RevalidateAirport)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
