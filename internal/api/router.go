package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ludimus/places-backend/pkg/auth"
)

// NewRouter assembles the chi router: probes stay open, everything
// under /place sits behind the token gate.
func NewRouter(logger *slog.Logger, validator *auth.Validator, places *PlaceHandler, health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(validator))

		r.Route("/place", func(r chi.Router) {
			r.Get("/", places.List)
			r.Post("/", places.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", places.Get)
				r.Put("/", places.Update)
				r.Patch("/", places.Update)
				r.Delete("/", places.Delete)
				r.Post("/rating", places.Rate)
			})
		})
	})

	return r
}
