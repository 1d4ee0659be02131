package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"meta-checkout/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code
// and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Int("status", status).Str("error", message).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto an HTTP status. Domain
// errors carry their own stable code; anything else is an opaque 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON, model.ErrCodeValidation, model.ErrCodeEmptyCart:
		return http.StatusBadRequest
	case model.ErrCodeTokenInvalid:
		return http.StatusGone
	case model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeAlreadyProvisioned:
		return http.StatusConflict
	case model.ErrCodePaymentProvider:
		return http.StatusBadGateway
	case model.ErrCodeWebhookAuthenticity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
