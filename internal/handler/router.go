package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the API router. Trailing slashes are optional on every route.
func NewRouter(h *EventHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(h.metrics))       // structured access log + metrics
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.StripSlashes)
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Get("/{event_id}", h.GetEvent)
		r.Get("/{event_id}/attendees", h.ListAttendees)
		r.Post("/{event_id}/register", h.Register)
	})

	return r
}
