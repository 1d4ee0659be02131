package service

import (
	"context"

	"meta-checkout/internal/model"
	"meta-checkout/internal/payment"

	"github.com/google/uuid"
)

// CheckoutService defines operations for submitting and managing guest
// orders.
type CheckoutService interface {
	// Submit validates the checkout payload, creates a pending order
	// and opens a payment intent with the provider.
	Submit(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// Resume burns a resume token and reopens the order for a new
	// payment attempt, reusing the provider intent when it is still
	// open.
	Resume(ctx context.Context, token string) (*model.ResumeConfirmation, error)

	// Cancel voids a pending order. Canceling an already-canceled
	// order is a no-op.
	Cancel(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error)

	// Status retrieves an order by id.
	Status(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error)
}

// LifecycleService applies provider webhook events to order state.
type LifecycleService interface {
	// Apply moves the order referenced by the event through its
	// lifecycle. Replayed and out-of-order events are acknowledged
	// without effect.
	Apply(ctx context.Context, event *payment.Event) error
}

// ResumeService manages single-use checkout resume tokens.
type ResumeService interface {
	// Issue mints a fresh resume token for an order.
	Issue(ctx context.Context, orderID uuid.UUID) (*model.ResumeToken, error)

	// Validate checks a token and returns the order prefill without
	// consuming it. Unknown, expired, consumed and malformed tokens
	// all fail the same way.
	Validate(ctx context.Context, token string) (*model.OrderPrefill, error)

	// Consume burns a token and returns the order it unlocked.
	Consume(ctx context.Context, token string) (*model.OrderPrefill, error)
}

// ProvisionService converts a succeeded guest order into an account via
// its magic-link grant.
type ProvisionService interface {
	// Provision runs the account creation pipeline for a magic-link
	// token. At most one account is ever created per order.
	Provision(ctx context.Context, token string) (*model.ProvisionResult, error)
}
