package handler

import (
	"net/http"

	"meta-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ResumeHandler handles resume-link HTTP requests.
type ResumeHandler struct {
	resume   service.ResumeService
	checkout service.CheckoutService
	logger   zerolog.Logger
}

// NewResumeHandler creates a new resume handler.
func NewResumeHandler(resume service.ResumeService, checkout service.CheckoutService, logger zerolog.Logger) *ResumeHandler {
	return &ResumeHandler{
		resume:   resume,
		checkout: checkout,
		logger:   logger.With().Str("handler", "resume").Logger(),
	}
}

// Validate handles GET /checkout/resume/{token} requests. The token is
// checked but not consumed, so refreshing the page is harmless.
func (h *ResumeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	prefill, err := h.resume.Validate(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, prefill)
}

// Confirm handles POST /checkout/resume/{token}/confirm requests,
// burning the token and opening a payment intent for the new attempt.
func (h *ResumeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.checkout.Resume(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, confirmation)
}
