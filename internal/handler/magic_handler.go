package handler

import (
	"net/http"
	"net/url"

	"meta-checkout/internal/model"
	"meta-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// MagicHandler handles magic-link account activation requests.
type MagicHandler struct {
	service service.ProvisionService
	logger  zerolog.Logger
}

// NewMagicHandler creates a new magic-link handler.
func NewMagicHandler(service service.ProvisionService, logger zerolog.Logger) *MagicHandler {
	return &MagicHandler{
		service: service,
		logger:  logger.With().Str("handler", "magic").Logger(),
	}
}

// Activate handles GET /auth/magic/{token} requests. The link arrives
// by email, so activation rides on a GET and lands the customer on the
// login page with their email prefilled.
func (h *MagicHandler) Activate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Provision(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	http.Redirect(w, r, loginRedirect(result), http.StatusFound)
}

// loginRedirect appends the account email to the login URL so the form
// comes up prefilled.
func loginRedirect(result *model.ProvisionResult) string {
	target, err := url.Parse(result.RedirectURL)
	if err != nil {
		return result.RedirectURL
	}

	query := target.Query()
	query.Set("email", result.Email)
	target.RawQuery = query.Encode()
	return target.String()
}
