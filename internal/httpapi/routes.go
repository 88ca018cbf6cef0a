package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes returns the API router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.LoadSelection)

	r.Get("/years", h.Years)
	r.Get("/years/{year}/groups", h.Groups)
	r.Get("/selection", h.Selection)
	r.Post("/selection", h.Confirm)
	r.Get("/members", h.Members)
	r.Post("/submissions", h.Submit)
	r.Get("/stats", h.Stats)
	r.Get("/stats/dates", h.StatsDates)
	return r
}
