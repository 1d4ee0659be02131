package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meta-checkout/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func magicTestRouter(svc *MockProvisionService) http.Handler {
	h := NewMagicHandler(svc, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/auth/magic/{token}", h.Activate)
	return r
}

func TestMagicHandlerActivate(t *testing.T) {
	t.Run("fresh link provisions and redirects to login", func(t *testing.T) {
		svc := new(MockProvisionService)
		svc.On("Provision", mock.Anything, "tok_magic").
			Return(&model.ProvisionResult{
				UserID:      "user_1",
				Email:       "guest@example.com",
				RedirectURL: "https://app.example.com/login",
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/magic/tok_magic", nil)
		rec := httptest.NewRecorder()
		magicTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://app.example.com/login?email=guest%40example.com", rec.Header().Get("Location"))
		svc.AssertExpectations(t)
	})

	t.Run("used link returns 409", func(t *testing.T) {
		svc := new(MockProvisionService)
		svc.On("Provision", mock.Anything, "tok_used").Return(nil, model.ErrAlreadyProvisioned)

		req := httptest.NewRequest(http.MethodGet, "/auth/magic/tok_used", nil)
		rec := httptest.NewRecorder()
		magicTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeAlreadyProvisioned, resp.Error)
	})

	t.Run("expired link returns 410", func(t *testing.T) {
		svc := new(MockProvisionService)
		svc.On("Provision", mock.Anything, "tok_expired").Return(nil, model.ErrTokenInvalid)

		req := httptest.NewRequest(http.MethodGet, "/auth/magic/tok_expired", nil)
		rec := httptest.NewRecorder()
		magicTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)
	})
}
