package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/RescueDesk/internal/middleware"
)

// RouterOptions carries the cross-cutting pieces the router is assembled from.
// Nil fields are skipped.
type RouterOptions struct {
	CORSOrigin  string
	RateLimiter *middleware.RateLimiter
	Idempotency func(http.Handler) http.Handler
	Tracing     func(http.Handler) http.Handler
	WebSocket   http.HandlerFunc
	Health      http.HandlerFunc
	Timeout     time.Duration
}

// NewRouter builds the full HTTP handler: middleware stack, /health, /ws and
// the versioned API.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	if opts.Tracing != nil {
		r.Use(opts.Tracing)
	}
	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	if opts.CORSOrigin != "" {
		r.Use(CORS(opts.CORSOrigin))
	}

	health := opts.Health
	if health == nil {
		health = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}
	}
	r.Get("/health", health)

	// The websocket route stays outside the request timeout.
	if opts.WebSocket != nil {
		r.Get("/ws", opts.WebSocket)
	}

	r.Group(func(r chi.Router) {
		if opts.Timeout > 0 {
			r.Use(chimw.Timeout(opts.Timeout))
		}
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Handler)
		}
		if opts.Idempotency != nil {
			r.Use(opts.Idempotency)
		}
		MountRoutes(r, h)
	})

	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"1.0.0"}`))
		})

		r.Route("/rescue", func(r chi.Router) {
			r.Get("/", h.ListRescuePlans)
			r.Delete("/", h.ClearRescuePlans)
			r.Get("/health", h.RescueHealth)
			r.Post("/generate", h.GenerateRescuePlan)
			r.Get("/{id}", h.GetRescuePlan)
			r.Post("/{id}/approve", h.ApproveRescuePlan)
			r.Post("/{id}/cancel", h.CancelRescuePlan)
			r.Post("/{id}/execute", h.ExecuteRescuePlan)
		})

		r.Get("/prices/{symbol}", h.GetPrice)
		r.Get("/wallets/{address}", h.GetWalletBalance)

		r.Get("/logs", h.ListLogs)
		r.Delete("/logs", h.ClearLogs)
	})
}
