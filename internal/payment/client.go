package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"meta-checkout/internal/config"
	"meta-checkout/internal/model"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// client talks to the payment provider's REST API. Requests are
// form-encoded and authenticated with the secret key, matching the
// provider's server-side API conventions.
type client struct {
	http      *retryablehttp.Client
	baseURL   string
	secretKey string
	logger    zerolog.Logger
}

// NewClient creates a payment gateway backed by the provider's HTTP API.
func NewClient(cfg config.PaymentConfig, logger zerolog.Logger) Gateway {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = nil

	return &client{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		secretKey: cfg.SecretKey,
		logger:    logger.With().Str("component", "payment_gateway").Logger(),
	}
}

func (c *client) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.AmountMinor, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("receipt_email", params.CustomerEmail)
	form.Set("metadata[order_id]", params.OrderID.String())
	form.Set("metadata[customer_email]", params.CustomerEmail)
	form.Set("metadata[resume_token]", params.ResumeToken)
	if params.Description != "" {
		form.Set("description", params.Description)
	}

	var intent Intent
	if err := c.postForm(ctx, "/payment_intents", form, &intent); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("order_id", params.OrderID.String()).
		Str("intent_id", intent.ID).
		Int64("amount_minor", params.AmountMinor).
		Str("currency", params.Currency).
		Msg("payment intent created")

	return &intent, nil
}

func (c *client) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	var intent Intent
	if err := c.do(ctx, http.MethodGet, "/payment_intents/"+intentID, nil, &intent); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("intent_id", intent.ID).
		Str("status", intent.Status).
		Msg("payment intent retrieved")

	return &intent, nil
}

func (c *client) CancelIntent(ctx context.Context, intentID string) error {
	var intent Intent
	if err := c.postForm(ctx, "/payment_intents/"+intentID+"/cancel", url.Values{}, &intent); err != nil {
		return err
	}

	c.logger.Info().Str("intent_id", intentID).Msg("payment intent canceled")
	return nil
}

// intentResponse maps the provider's snake_case intent object onto our
// Intent type.
type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) postForm(ctx context.Context, path string, form url.Values, out *Intent) error {
	return c.do(ctx, http.MethodPost, path, form, out)
}

func (c *client) do(ctx context.Context, method, path string, form url.Values, out *Intent) error {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("provider request failed")
		return model.ErrPaymentProvider
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	var parsed intentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("failed to decode provider response")
		return model.ErrPaymentProvider
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("message", message).
			Msg("provider returned error")
		return model.ErrPaymentProvider
	}

	out.ID = parsed.ID
	out.ClientSecret = parsed.ClientSecret
	out.Status = parsed.Status
	return nil
}
