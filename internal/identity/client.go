package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meta-checkout/internal/config"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// client talks to the auth provider's admin API using the service key.
type client struct {
	http       *retryablehttp.Client
	baseURL    string
	serviceKey string
	logger     zerolog.Logger
}

// NewClient creates an identity provider backed by the auth service's
// admin HTTP API.
func NewClient(cfg config.IdentityConfig, logger zerolog.Logger) Provider {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = nil

	return &client{
		http:       httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		logger:     logger.With().Str("component", "identity").Logger(),
	}
}

type createUserRequest struct {
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	EmailConfirm bool              `json:"email_confirm"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

type createUserResponse struct {
	ID      string `json:"id"`
	Message string `json:"msg"`
}

func (c *client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (string, error) {
	payload, err := json.Marshal(createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign-up request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users",
		bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build sign-up request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("sign-up request failed")
		return "", fmt.Errorf("sign-up request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read sign-up response: %w", err)
	}

	var parsed createUserResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error().Err(err).Msg("failed to decode sign-up response")
		return "", fmt.Errorf("failed to decode sign-up response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message := parsed.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("message", message).
			Msg("auth provider rejected sign-up")
		return "", fmt.Errorf("auth provider rejected sign-up: %s", message)
	}

	if parsed.ID == "" {
		return "", fmt.Errorf("auth provider returned no user id")
	}

	c.logger.Info().Str("user_id", parsed.ID).Msg("user provisioned")
	return parsed.ID, nil
}
