package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/robertarktes/flight-seat-ledger/internal/rateLimit"
)

// SetupRouter mounts the API. rl may be nil to disable rate limiting.
func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, perMinute int) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		if rl != nil {
			r.Use(RateLimitMiddleware(rl, perMinute))
		}
		r.Get("/v1/flights", h.ListFlights)
		r.Get("/v1/flights/{flight}/seats", h.AvailableSeats)
		r.Post("/v1/flights/{flight}/bookings", h.BookSeat)
		r.Delete("/v1/flights/{flight}/seats/{seat}", h.CancelSeat)
		r.Get("/v1/tickets", h.TicketsByPassenger)
		r.Get("/v1/tickets/{id}", h.GetTicket)
		r.Delete("/v1/tickets/{id}", h.CancelTicket)
	})

	return r
}
