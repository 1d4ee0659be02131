package handler

import (
	"io"
	"net/http"
	"time"

	"meta-checkout/internal/model"
	"meta-checkout/internal/payment"
	"meta-checkout/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBody bounds how much of a webhook payload is read.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment provider webhook deliveries.
type WebhookHandler struct {
	service   service.LifecycleService
	secret    string
	tolerance time.Duration
	logger    zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service service.LifecycleService, secret string, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:   service,
		secret:    secret,
		tolerance: payment.DefaultSignatureTolerance,
		logger:    logger.With().Str("handler", "webhook").Logger(),
	}
}

// Receive handles POST /webhooks/payment requests. The signature is
// verified against the raw body before anything is decoded.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "failed to read request body", h.logger)
		return
	}

	signature := r.Header.Get("Payment-Signature")
	if err := payment.VerifySignature(body, signature, h.secret, time.Now(), h.tolerance); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeWebhookAuthenticity,
			model.ErrWebhookSignature.Message, h.logger)
		return
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		h.logger.Warn().Err(err).Msg("malformed webhook payload")
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "malformed event payload", h.logger)
		return
	}

	if err := h.service.Apply(r.Context(), event); err != nil {
		// A transient failure; the provider will retry delivery.
		h.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to apply event")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError,
			"failed to process event", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
