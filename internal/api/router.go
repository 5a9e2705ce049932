package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Month payloads.
	r.Get("/calendar/current", h.CurrentMonth)
	r.Get("/calendar/{year}/{month}", h.GetMonth)

	// Day lookups and filters.
	r.Get("/days/{date}", h.GetDay)
	r.Get("/holidays/{year}/{month}", h.Holidays)
	r.Get("/good-days/{year}/{month}", h.GoodDays)
	r.Get("/bad-days/{year}/{month}", h.BadDays)

	// Lunar-date search.
	r.Get("/search", h.Search)

	// Discovery.
	r.Get("/available-months", h.AvailableMonths)
	r.Get("/sources", h.Sources)

	return r
}
