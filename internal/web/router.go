package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/membergate/membergate/internal/billing"
	"github.com/membergate/membergate/pkg/session"
)

// Router wires the application routes.
//
// The session middleware runs on everything except the webhook: webhook
// requests come from the provider, not a browser, and authenticate by
// signature instead.
func Router(sessions *session.Manager, handlers *Handlers, webhook *WebhookHandler, gate *billing.AccessGate, log *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Method(http.MethodPost, "/webhook", webhook)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/config", handlers.Config)
		r.Get("/subscribe", handlers.Subscribe)
		r.Get("/login", handlers.LoginPage)
		r.Post("/login", handlers.Login)
		r.Post("/logout", handlers.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Get("/", handlers.Home)
			r.Get("/success", handlers.Success)
			r.Get("/cancel", handlers.Cancel)
			r.Post("/create-checkout-session", handlers.CreateCheckoutSession)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth, RequirePremium(gate))

			r.Get("/dashboard", handlers.Dashboard)
		})
	})

	return r
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
