package service

import (
	"context"
	"fmt"
	"time"

	"meta-checkout/internal/config"
	"meta-checkout/internal/model"
	"meta-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// resumeService implements ResumeService.
//
// Every failure mode on the read side collapses to ErrTokenInvalid:
// distinguishing "expired" from "unknown" from "consumed" would let a
// caller probe the token space.
type resumeService struct {
	tokenRepo repository.TokenRepository
	orderRepo repository.OrderRepository
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewResumeService creates a new resume token service.
func NewResumeService(
	tokenRepo repository.TokenRepository,
	orderRepo repository.OrderRepository,
	cfg config.CheckoutConfig,
	logger zerolog.Logger,
) ResumeService {
	return &resumeService{
		tokenRepo: tokenRepo,
		orderRepo: orderRepo,
		ttl:       cfg.ResumeTokenTTL,
		logger:    logger.With().Str("service", "resume").Logger(),
	}
}

// Issue mints a fresh resume token for an order. Earlier tokens for
// the same order stay valid until they expire or get consumed.
func (s *resumeService) Issue(ctx context.Context, orderID uuid.UUID) (*model.ResumeToken, error) {
	raw, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &model.ResumeToken{
		Token:     raw,
		OrderID:   orderID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.tokenRepo.InsertResumeToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store resume token: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Time("expires_at", token.ExpiresAt).
		Msg("resume token issued")

	return token, nil
}

// Validate checks a token without consuming it and returns the order
// prefill for rendering the resumed checkout.
func (s *resumeService) Validate(ctx context.Context, token string) (*model.OrderPrefill, error) {
	record, err := s.tokenRepo.GetResumeToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up resume token: %w", err)
	}

	now := time.Now().UTC()
	if record == nil || record.ConsumedAt != nil || !record.ExpiresAt.After(now) {
		return nil, model.ErrTokenInvalid
	}

	return s.prefill(ctx, record.OrderID)
}

// Consume burns a token and returns the order it unlocked. The burn is
// a conditional update, so two racing requests resolve to one winner.
func (s *resumeService) Consume(ctx context.Context, token string) (*model.OrderPrefill, error) {
	orderID, ok, err := s.tokenRepo.ConsumeResumeToken(ctx, token, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to consume resume token: %w", err)
	}
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("resume token consumed")
	return s.prefill(ctx, orderID)
}

func (s *resumeService) prefill(ctx context.Context, orderID uuid.UUID) (*model.OrderPrefill, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	// A token pointing at a missing or already-paid order is as dead
	// as an expired one.
	if order == nil || order.PaymentStatus.IsTerminal() {
		return nil, model.ErrTokenInvalid
	}

	return &model.OrderPrefill{
		OrderID:           order.ID,
		GuestEmail:        order.GuestEmail,
		GuestName:         order.GuestName,
		GuestPhone:        order.GuestPhone,
		Address:           order.Address,
		CartItems:         order.CartItems,
		PreferredCurrency: order.PreferredCurrency,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
	}, nil
}
