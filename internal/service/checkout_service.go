package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"meta-checkout/internal/cart"
	"meta-checkout/internal/config"
	"meta-checkout/internal/email"
	"meta-checkout/internal/model"
	"meta-checkout/internal/payment"
	"meta-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo repository.OrderRepository
	resume    ResumeService
	gateway   payment.Gateway
	mailer    *orderMailer
	cfg       config.CheckoutConfig
	logger    zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	resume ResumeService,
	gateway payment.Gateway,
	sender email.Sender,
	renderer *email.Renderer,
	cfg config.CheckoutConfig,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo: orderRepo,
		resume:    resume,
		gateway:   gateway,
		mailer:    newOrderMailer(sender, renderer, cfg, logger),
		cfg:       cfg,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// Submit creates a pending guest order and opens a payment intent.
func (s *checkoutService) Submit(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if err := s.validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.OrderTTL)

	order := &model.GuestOrder{
		ID:                uuid.New(),
		GuestEmail:        strings.ToLower(strings.TrimSpace(req.GuestEmail)),
		GuestName:         strings.TrimSpace(req.GuestName),
		GuestPhone:        strings.TrimSpace(req.GuestPhone),
		Address:           req.Address,
		CartItems:         req.CartItems,
		PreferredCurrency: preferredCurrency(req.Currency),
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     model.PaymentStatusPending,
		NewsletterOptIn:   req.NewsletterOptIn,
		OrderExpiresAt:    &expiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for _, total := range cart.SummarizeTotals(req.CartItems) {
		switch total.Currency {
		case "MYR":
			order.TotalMYRMinor = total.AmountMinor
		case "USD":
			order.TotalUSDMinor = total.AmountMinor
		}
	}

	amount := order.PreferredTotalMinor()
	if amount <= 0 {
		s.logger.Warn().
			Str("currency", order.PreferredCurrency).
			Int("item_count", len(req.CartItems)).
			Msg("cart has no payable total in the chosen currency")
		return nil, model.NewDomainError(model.ErrCodeValidation,
			"Cart has no payable total in the chosen currency")
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("currency", order.PreferredCurrency).
		Int64("amount_minor", amount).
		Msg("guest order created")

	// The resume link is the recovery path for this order, so mint it
	// before talking to the payment provider.
	token, err := s.resume.Issue(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue resume token: %w", err)
	}

	// Best effort: a failed resume email must not block checkout.
	if err := s.mailer.SendResume(ctx, order, token); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to send resume email")
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.CreateIntentParams{
		OrderID:       order.ID,
		AmountMinor:   amount,
		Currency:      order.PreferredCurrency,
		CustomerEmail: order.GuestEmail,
		ResumeToken:   token.Token,
		Description:   orderDescription(order),
	})
	if err != nil {
		// The order stays pending; the resume link lets the guest
		// retry once the provider recovers.
		return nil, err
	}

	providerID := intent.ID
	if _, err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID,
		model.PaymentStatusPending, model.PaymentStatusPending,
		repository.StatusUpdate{ProviderPaymentID: &providerID}); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to record provider payment id")
	}

	return &model.CheckoutResponse{
		OrderID:             order.ID,
		PaymentStatus:       order.PaymentStatus,
		Totals:              order.TotalsByCurrency(),
		PaymentClientSecret: intent.ClientSecret,
		ResumeToken:         token.Token,
	}, nil
}

// Resume burns a resume token and reopens the restored order for a new
// payment attempt.
func (s *checkoutService) Resume(ctx context.Context, token string) (*model.ResumeConfirmation, error) {
	prefill, err := s.resume.Consume(ctx, token)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, prefill.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrTokenInvalid
	}

	intent, err := s.reopenIntent(ctx, order)
	if err != nil {
		return nil, err
	}

	// A failed order re-enters pending here; a still-pending one just
	// records the (possibly new) intent. Losing the update means the
	// order moved under us, typically a success webhook landing between
	// the token burn and this point, and the resume is dead.
	providerID := intent.ID
	updated, err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID,
		order.PaymentStatus, model.PaymentStatusPending,
		repository.StatusUpdate{ProviderPaymentID: &providerID})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to reopen order")
		return nil, fmt.Errorf("failed to reopen order: %w", err)
	}
	if !updated {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Msg("order changed state during resume, refusing to reopen")
		return nil, model.ErrTokenInvalid
	}
	prefill.PaymentStatus = model.PaymentStatusPending

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("intent_id", intent.ID).
		Msg("checkout resumed")

	return &model.ResumeConfirmation{
		Prefill:             prefill,
		Totals:              order.TotalsByCurrency(),
		PaymentClientSecret: intent.ClientSecret,
	}, nil
}

// reopenIntent reuses the order's provider intent while it is still
// open; otherwise it opens a fresh one.
func (s *checkoutService) reopenIntent(ctx context.Context, order *model.GuestOrder) (*payment.Intent, error) {
	if order.PaymentProviderID != nil {
		intent, err := s.gateway.RetrieveIntent(ctx, *order.PaymentProviderID)
		if err == nil && intent.Reusable() {
			return intent, nil
		}
		s.logger.Debug().
			Str("order_id", order.ID.String()).
			Str("intent_id", *order.PaymentProviderID).
			Msg("existing intent not reusable, creating a new one")
	}

	return s.gateway.CreateIntent(ctx, payment.CreateIntentParams{
		OrderID:       order.ID,
		AmountMinor:   order.PreferredTotalMinor(),
		Currency:      order.PreferredCurrency,
		CustomerEmail: order.GuestEmail,
		Description:   orderDescription(order),
	})
}

// Cancel voids a pending order and its provider-side intent.
func (s *checkoutService) Cancel(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if order.PaymentStatus == model.PaymentStatusCanceled {
		return order, nil
	}

	ok, err := s.orderRepo.UpdatePaymentStatus(ctx, id,
		model.PaymentStatusPending, model.PaymentStatusCanceled, repository.StatusUpdate{})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !ok {
		return nil, model.NewDomainError(model.ErrCodeValidation,
			"Only pending orders can be canceled")
	}

	if order.PaymentProviderID != nil {
		if err := s.gateway.CancelIntent(ctx, *order.PaymentProviderID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("order_id", id.String()).
				Msg("failed to cancel provider intent")
		}
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order canceled")
	return s.Status(ctx, id)
}

// Status retrieves an order by id.
func (s *checkoutService) Status(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *checkoutService) validateCheckoutRequest(req *model.CheckoutRequest) error {
	if len(req.CartItems) == 0 {
		return model.ErrEmptyCart
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.GuestEmail)) {
		return model.NewDomainError(model.ErrCodeValidation, "A valid email address is required")
	}
	if strings.TrimSpace(req.GuestName) == "" {
		return model.NewDomainError(model.ErrCodeValidation, "Name is required")
	}
	for _, entry := range req.CartItems {
		if entry.ID == "" || entry.Name == "" {
			return model.NewDomainError(model.ErrCodeValidation, "Cart items must have an id and a name")
		}
	}
	return nil
}

func preferredCurrency(currency string) string {
	if strings.EqualFold(currency, "USD") {
		return "USD"
	}
	return "MYR"
}

func orderDescription(order *model.GuestOrder) string {
	names := make([]string, 0, len(order.CartItems))
	for _, entry := range order.CartItems {
		names = append(names, entry.Name)
	}
	return "Order " + orderRef(order.ID) + ": " + strings.Join(names, ", ")
}
