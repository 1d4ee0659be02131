package router

import (
	"net/http"

	"meta-checkout/internal/handler"
	"meta-checkout/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	checkoutHandler *handler.CheckoutHandler,
	resumeHandler *handler.ResumeHandler,
	magicHandler *handler.MagicHandler,
	webhookHandler *handler.WebhookHandler,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.Submit)
		r.Post("/checkout/{id}/cancel", checkoutHandler.Cancel)
		r.Get("/orders/{id}", checkoutHandler.Status)
	})

	r.Route("/checkout/resume", func(r chi.Router) {
		r.Get("/{token}", resumeHandler.Validate)
		r.Post("/{token}/confirm", resumeHandler.Confirm)
	})

	r.Get("/auth/magic/{token}", magicHandler.Activate)

	// Webhook deliveries authenticate by signature, not CORS or auth.
	r.Post("/webhooks/payment", webhookHandler.Receive)

	return r
}
