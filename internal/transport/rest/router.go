package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/eventlane/eventlane/internal/security"
)

type RouterDeps struct {
	Events   *EventHandler
	Requests *RequestHandler
	Verifier security.AccessTokenVerifier

	// Limiter is optional; nil disables the redis rate limit.
	Limiter  RateLimiter
	RLLimit  int
	RLWindow time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Events == nil {
		panic("rest.NewRouter: nil event handler")
	}
	if d.Requests == nil {
		panic("rest.NewRouter: nil request handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(HTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	if d.Limiter != nil {
		r.Use(RateLimitMiddleware(d.Limiter, d.RLLimit, d.RLWindow))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Get("/events", d.Events.PublicSearch)
		r.Get("/events/{eventID}", d.Events.PublicGet)

		// authenticated
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Verifier))

			r.Post("/events", d.Events.Create)

			r.Route("/me", func(r chi.Router) {
				r.Route("/events", func(r chi.Router) {
					r.Get("/", d.Events.ListOwn)
					r.Get("/{eventID}", d.Events.GetOwn)
					r.Patch("/{eventID}", d.Events.PatchOwn)

					r.Get("/{eventID}/requests", d.Requests.ListForEvent)
					r.Patch("/{eventID}/requests", d.Requests.Moderate)
				})

				r.Get("/requests", d.Requests.ListMine)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", d.Requests.Submit)
				r.Patch("/{requestID}/cancel", d.Requests.Cancel)
			})

			// moderation
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Use(httprate.LimitByIP(30, time.Minute))

				r.Get("/events", d.Events.AdminSearch)
				r.Patch("/events/{eventID}", d.Events.AdminPatch)
			})
		})
	})

	return r
}
