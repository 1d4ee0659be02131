package service

import (
	"context"
	"fmt"
	"time"

	"meta-checkout/internal/config"
	"meta-checkout/internal/email"
	"meta-checkout/internal/model"
	"meta-checkout/internal/payment"
	"meta-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// lifecycleService implements LifecycleService.
//
// Transitions are compare-and-set updates from pending, so replaying
// an event or delivering it after a competing one already landed is a
// no-op acknowledged with success. That gives the provider free rein
// to retry deliveries.
type lifecycleService struct {
	orderRepo repository.OrderRepository
	tokenRepo repository.TokenRepository
	resume    ResumeService
	mailer    *orderMailer
	logger    zerolog.Logger
}

// NewLifecycleService creates a new order lifecycle service.
func NewLifecycleService(
	orderRepo repository.OrderRepository,
	tokenRepo repository.TokenRepository,
	resume ResumeService,
	sender email.Sender,
	renderer *email.Renderer,
	cfg config.CheckoutConfig,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleService{
		orderRepo: orderRepo,
		tokenRepo: tokenRepo,
		resume:    resume,
		mailer:    newOrderMailer(sender, renderer, cfg, logger),
		logger:    logger.With().Str("service", "lifecycle").Logger(),
	}
}

// Apply moves an order through its lifecycle in response to a provider
// event.
func (s *lifecycleService) Apply(ctx context.Context, event *payment.Event) error {
	if event.Kind == payment.EventUnknown {
		s.logger.Debug().Str("event_id", event.ID).Msg("ignoring unhandled event type")
		return nil
	}

	logger := s.logger.With().
		Str("event_id", event.ID).
		Str("event_type", string(event.Kind)).
		Str("order_id", event.OrderID.String()).
		Logger()

	order, err := s.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		// The provider can replay events for orders purged on our
		// side; acknowledge so it stops retrying.
		logger.Warn().Msg("event references unknown order, acknowledging")
		return nil
	}

	switch event.Kind {
	case payment.EventPaymentSucceeded, payment.EventCheckoutSessionCompleted:
		return s.applySucceeded(ctx, order, event, logger)
	case payment.EventPaymentFailed:
		return s.applyFailed(ctx, order, event, logger)
	case payment.EventPaymentCanceled:
		return s.applyCanceled(ctx, order, event, logger)
	default:
		return nil
	}
}

func (s *lifecycleService) applySucceeded(ctx context.Context, order *model.GuestOrder, event *payment.Event, logger zerolog.Logger) error {
	update := repository.StatusUpdate{BumpAttempts: true}
	if event.ProviderPaymentID != "" {
		update.ProviderPaymentID = &event.ProviderPaymentID
	}

	ok, err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID,
		model.PaymentStatusPending, model.PaymentStatusSucceeded, update)
	if err != nil {
		return fmt.Errorf("failed to mark order succeeded: %w", err)
	}
	if !ok {
		if order.PaymentStatus != model.PaymentStatusSucceeded {
			logger.Info().
				Str("current_status", order.PaymentStatus.String()).
				Msg("order not pending, event already applied")
			return nil
		}
		// The transition landed on an earlier delivery. If that
		// delivery died between the transition and storing the grant,
		// the order is settled but linkless; settle() repairs it and
		// is a no-op when a grant exists.
		return s.settle(ctx, order, logger)
	}

	logger.Info().Msg("payment succeeded")
	return s.settle(ctx, order, logger)
}

// settle mints the magic-link grant for a paid order and sends the
// receipt and activation emails. Orders already holding a grant are
// done and produce no further side effects.
func (s *lifecycleService) settle(ctx context.Context, order *model.GuestOrder, logger zerolog.Logger) error {
	existing, err := s.tokenRepo.GetMagicGrantForOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to look up magic-link grant: %w", err)
	}
	if existing != nil {
		return nil
	}

	// Store the grant before sending anything so a crashed email step
	// can be retried from the stored grant.
	raw, err := newToken()
	if err != nil {
		return err
	}
	grant := &model.MagicLinkGrant{
		Token:     raw,
		OrderID:   order.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tokenRepo.InsertMagicGrant(ctx, grant); err != nil {
		return fmt.Errorf("failed to store magic-link grant: %w", err)
	}

	// Emails are best effort; the transition already committed and
	// the provider must not see a failure for a settled payment.
	if err := s.mailer.SendReceipt(ctx, order); err != nil {
		logger.Error().Err(err).Msg("failed to send receipt email")
	}
	if err := s.mailer.SendMagicLink(ctx, order, grant.Token); err != nil {
		logger.Error().Err(err).Msg("failed to send magic-link email")
	}

	return nil
}

func (s *lifecycleService) applyFailed(ctx context.Context, order *model.GuestOrder, event *payment.Event, logger zerolog.Logger) error {
	update := repository.StatusUpdate{BumpAttempts: true}
	if event.FailureReason != "" {
		reason := event.FailureReason
		update.FailureReason = &reason
	}
	if event.ProviderPaymentID != "" {
		update.ProviderPaymentID = &event.ProviderPaymentID
	}

	ok, err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID,
		model.PaymentStatusPending, model.PaymentStatusFailed, update)
	if err != nil {
		return fmt.Errorf("failed to mark order failed: %w", err)
	}
	if !ok {
		logger.Info().
			Str("current_status", order.PaymentStatus.String()).
			Msg("order not pending, event already applied")
		return nil
	}

	logger.Info().Str("reason", event.FailureReason).Msg("payment failed")

	// A fresh token rather than reusing the original: the original
	// may already be consumed by the attempt that just failed.
	token, err := s.resume.Issue(ctx, order.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to issue recovery resume token")
		return nil
	}
	if err := s.mailer.SendPaymentFailed(ctx, order, token, event.FailureReason); err != nil {
		logger.Error().Err(err).Msg("failed to send payment-failed email")
	}

	return nil
}

func (s *lifecycleService) applyCanceled(ctx context.Context, order *model.GuestOrder, event *payment.Event, logger zerolog.Logger) error {
	update := repository.StatusUpdate{}
	if event.ProviderPaymentID != "" {
		update.ProviderPaymentID = &event.ProviderPaymentID
	}

	ok, err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID,
		model.PaymentStatusPending, model.PaymentStatusCanceled, update)
	if err != nil {
		return fmt.Errorf("failed to mark order canceled: %w", err)
	}
	if !ok {
		logger.Info().
			Str("current_status", order.PaymentStatus.String()).
			Msg("order not pending, event already applied")
		return nil
	}

	logger.Info().Msg("payment canceled")
	return nil
}
