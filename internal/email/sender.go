package email

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

// apiSender delivers email through the provider's REST API. A short
// pause before each send keeps bursts (receipt plus magic link on the
// same webhook) under the provider's rate limit; 429 responses are
// retried by the underlying client.
type apiSender struct {
	http      *retryablehttp.Client
	baseURL   string
	apiKey    string
	from      string
	replyTo   string
	sendDelay time.Duration
	logger    zerolog.Logger
}

// NewAPISender creates a sender backed by the email provider's HTTP API.
func NewAPISender(cfg config.EmailConfig, logger zerolog.Logger) Sender {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.Logger = nil

	return &apiSender{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:    cfg.APIKey,
		from:      cfg.From,
		replyTo:   cfg.ReplyTo,
		sendDelay: cfg.SendDelay,
		logger:    logger.With().Str("component", "email-sender").Logger(),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *apiSender) Send(ctx context.Context, msg Message) error {
	if s.sendDelay > 0 {
		select {
		case <-time.After(s.sendDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	payload, err := json.Marshal(sendRequest{
		From:    s.from,
		To:      []string{msg.To},
		ReplyTo: s.replyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails",
		bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", msg.Subject).Msg("email request failed")
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("subject", msg.Subject).
			Str("body", string(body)).
			Msg("email provider returned error")
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email sent")

	return nil
}
