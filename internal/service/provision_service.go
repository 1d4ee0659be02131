package service

import (
	"context"
	"fmt"
	"time"

	"meta-checkout/internal/config"
	"meta-checkout/internal/email"
	"meta-checkout/internal/identity"
	"meta-checkout/internal/model"
	"meta-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// planPreference is the tier picked for a provisioned account, most
// preferred first.
var planPreference = []string{"essential", "advanced", "supreme"}

// provisionService implements ProvisionService.
//
// The grant burn is the serialization point: it is a conditional
// update, so of any number of concurrent activations exactly one
// proceeds past it. A failed sign-up releases the burn again, keeping
// the link retryable. Steps after user creation are best effort; a
// broken welcome email must not strand a paying customer without an
// account.
type provisionService struct {
	orderRepo repository.OrderRepository
	tokenRepo repository.TokenRepository
	planRepo  repository.PlanRepository
	ledger    repository.LedgerRepository
	provider  identity.Provider
	mailer    *orderMailer
	cfg       config.CheckoutConfig
	logger    zerolog.Logger
}

// NewProvisionService creates a new account provisioning service.
func NewProvisionService(
	orderRepo repository.OrderRepository,
	tokenRepo repository.TokenRepository,
	planRepo repository.PlanRepository,
	ledger repository.LedgerRepository,
	provider identity.Provider,
	sender email.Sender,
	renderer *email.Renderer,
	cfg config.CheckoutConfig,
	logger zerolog.Logger,
) ProvisionService {
	return &provisionService{
		orderRepo: orderRepo,
		tokenRepo: tokenRepo,
		planRepo:  planRepo,
		ledger:    ledger,
		provider:  provider,
		mailer:    newOrderMailer(sender, renderer, cfg, logger),
		cfg:       cfg,
		logger:    logger.With().Str("service", "provision").Logger(),
	}
}

// Provision runs the account creation pipeline for a magic-link token.
func (s *provisionService) Provision(ctx context.Context, token string) (*model.ProvisionResult, error) {
	order, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	// Burn the grant first. The loser of a double-click race stops
	// here instead of racing the sign-up call.
	ok, err := s.tokenRepo.MarkMagicGrantUsed(ctx, token, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to burn magic-link grant: %w", err)
	}
	if !ok {
		return nil, model.ErrAlreadyProvisioned
	}

	logger := s.logger.With().Str("order_id", order.ID.String()).Logger()

	userID, tempPassword, err := s.signUp(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msg("user sign-up failed")
		s.releaseGrant(ctx, token, logger)
		return nil, model.ErrProvisioning
	}
	logger.Info().Str("user_id", userID.String()).Msg("account provisioned")

	// Everything past this point is best effort; the account exists.
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"welcome-email", func(ctx context.Context) error {
			return s.mailer.SendWelcome(ctx, order, tempPassword)
		}},
		{"plan-selection", func(ctx context.Context) error {
			return s.selectPlan(ctx, order, userID)
		}},
		{"ledger-mirror", func(ctx context.Context) error {
			return s.ledger.MirrorPayment(ctx, repository.MirrorParams{
				OrderID:           order.ID,
				UserID:            userID,
				AmountMinor:       order.PreferredTotalMinor(),
				Currency:          order.PreferredCurrency,
				ProviderPaymentID: order.PaymentProviderID,
			})
		}},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			logger.Warn().Err(err).Str("step", step.name).Msg("provisioning step failed, continuing")
		}
	}

	marked, err := s.orderRepo.MarkAccountCreated(ctx, order.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark account created: %w", err)
	}
	if !marked {
		logger.Warn().Msg("order already marked account-created")
	}

	return &model.ProvisionResult{
		UserID:      userID.String(),
		Email:       order.GuestEmail,
		RedirectURL: s.cfg.LoginBaseURL,
	}, nil
}

// resolve validates the grant and its order without side effects.
func (s *provisionService) resolve(ctx context.Context, token string) (*model.GuestOrder, error) {
	grant, err := s.tokenRepo.GetMagicGrant(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up magic-link grant: %w", err)
	}
	if grant == nil {
		return nil, model.ErrTokenInvalid
	}
	if grant.UsedAt != nil {
		return nil, model.ErrAlreadyProvisioned
	}

	order, err := s.orderRepo.GetByID(ctx, grant.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrTokenInvalid
	}
	if order.AccountCreated {
		return nil, model.ErrAlreadyProvisioned
	}
	// Fail closed: a grant for an order that never settled is dead.
	if order.PaymentStatus != model.PaymentStatusSucceeded {
		return nil, model.ErrTokenInvalid
	}

	return order, nil
}

// signUp creates the identity-provider account and returns the
// generated temporary password so the welcome email can hand it to the
// customer.
func (s *provisionService) signUp(ctx context.Context, order *model.GuestOrder) (uuid.UUID, string, error) {
	password, err := identity.RandomPassword(24)
	if err != nil {
		return uuid.Nil, "", err
	}

	rawID, err := s.provider.SignUp(ctx, order.GuestEmail, password, map[string]string{
		"full_name": order.GuestName,
		"source":    "guest-checkout",
		"order_id":  order.ID.String(),
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("auth provider returned malformed user id %q: %w", rawID, err)
	}
	return userID, password, nil
}

// releaseGrant puts a burned grant back when sign-up fails, so a
// transient identity-provider outage does not strand the customer with
// a dead link. A failed release is logged; the link is then lost and
// support has to re-send one.
func (s *provisionService) releaseGrant(ctx context.Context, token string, logger zerolog.Logger) {
	if err := s.tokenRepo.ReleaseMagicGrant(ctx, token); err != nil {
		logger.Error().Err(err).Msg("failed to release magic-link grant after sign-up failure")
	}
}

// selectPlan subscribes the new user to the best tier found in the
// plans table, preferring essential over advanced over supreme.
func (s *provisionService) selectPlan(ctx context.Context, order *model.GuestOrder, userID uuid.UUID) error {
	exists, err := s.planRepo.HasSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	plans, err := s.planRepo.ListPlans(ctx, planPreference)
	if err != nil {
		return err
	}
	byCode := make(map[string]model.SubscriptionPlan, len(plans))
	for _, plan := range plans {
		byCode[plan.PlanCode] = plan
	}

	var chosen *model.SubscriptionPlan
	for _, code := range planPreference {
		if plan, ok := byCode[code]; ok {
			chosen = &plan
			break
		}
	}
	if chosen == nil {
		return fmt.Errorf("no subscription plan available")
	}

	if !cartContains(order.CartItems, chosen.PlanCode) {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("plan_code", chosen.PlanCode).
			Msg("selected plan is not among the ordered items")
	}

	return s.planRepo.InsertUserSubscription(ctx, &model.UserSubscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    chosen.ID,
		Status:    "active",
		StartedAt: time.Now().UTC(),
		AutoRenew: true,
	})
}

func cartContains(entries []model.CartEntry, id string) bool {
	for _, entry := range entries {
		if entry.ID == id {
			return true
		}
	}
	return false
}
