package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meta-checkout/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func resumeTestRouter(resume *MockResumeService, checkout *MockCheckoutService) http.Handler {
	h := NewResumeHandler(resume, checkout, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/checkout/resume/{token}", h.Validate)
	r.Post("/checkout/resume/{token}/confirm", h.Confirm)
	return r
}

func TestResumeHandlerValidate(t *testing.T) {
	t.Run("live token returns prefill", func(t *testing.T) {
		svc := new(MockResumeService)
		orderID := uuid.New()

		svc.On("Validate", mock.Anything, "tok_live").
			Return(&model.OrderPrefill{OrderID: orderID, GuestEmail: "guest@example.com"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/checkout/resume/tok_live", nil)
		rec := httptest.NewRecorder()
		resumeTestRouter(svc, new(MockCheckoutService)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var prefill model.OrderPrefill
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefill))
		assert.Equal(t, orderID, prefill.OrderID)
	})

	t.Run("dead token returns 410", func(t *testing.T) {
		svc := new(MockResumeService)
		svc.On("Validate", mock.Anything, "tok_dead").Return(nil, model.ErrTokenInvalid)

		req := httptest.NewRequest(http.MethodGet, "/checkout/resume/tok_dead", nil)
		rec := httptest.NewRecorder()
		resumeTestRouter(svc, new(MockCheckoutService)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)

		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeTokenInvalid, resp.Error)
	})
}

func TestResumeHandlerConfirm(t *testing.T) {
	t.Run("burns token and returns a payment attempt", func(t *testing.T) {
		checkout := new(MockCheckoutService)
		orderID := uuid.New()

		checkout.On("Resume", mock.Anything, "tok_live").
			Return(&model.ResumeConfirmation{
				Prefill:             &model.OrderPrefill{OrderID: orderID, PaymentStatus: model.PaymentStatusPending},
				PaymentClientSecret: "pi_2_secret",
			}, nil)

		req := httptest.NewRequest(http.MethodPost, "/checkout/resume/tok_live/confirm", nil)
		rec := httptest.NewRecorder()
		resumeTestRouter(new(MockResumeService), checkout).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var confirmation model.ResumeConfirmation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))
		assert.Equal(t, orderID, confirmation.Prefill.OrderID)
		assert.Equal(t, "pi_2_secret", confirmation.PaymentClientSecret)
	})

	t.Run("second confirm returns 410", func(t *testing.T) {
		checkout := new(MockCheckoutService)
		checkout.On("Resume", mock.Anything, "tok_used").Return(nil, model.ErrTokenInvalid)

		req := httptest.NewRequest(http.MethodPost, "/checkout/resume/tok_used/confirm", nil)
		rec := httptest.NewRecorder()
		resumeTestRouter(new(MockResumeService), checkout).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)
	})
}
