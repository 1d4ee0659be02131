package repository

import (
	"context"
	"time"

	"meta-checkout/internal/model"

	"github.com/google/uuid"
)

// StatusUpdate carries the optional fields recorded alongside a payment
// status transition.
type StatusUpdate struct {
	FailureReason     *string
	ProviderPaymentID *string
	BumpAttempts      bool
}

// OrderRepository defines the persistence boundary for guest orders. The
// cart snapshot is write-once: there is no update path for cart_items.
type OrderRepository interface {
	// Create inserts a new guest order.
	Create(ctx context.Context, order *model.GuestOrder) error

	// GetByID retrieves an order by id. Returns (nil, nil) when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error)

	// UpdatePaymentStatus performs a compare-and-set transition from one
	// payment status to another. Returns false when no row matched, i.e.
	// the order was not in the expected state — the caller treats that as
	// an already-applied (idempotent) event.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, update StatusUpdate) (bool, error)

	// MarkAccountCreated links the provisioned user and flips
	// account_created, guarded by account_created = false. Returns false
	// when the order was already marked.
	MarkAccountCreated(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error)

	// ListAbandoned returns still-payable pending orders created before
	// the cutoff that have no reminder recorded.
	ListAbandoned(ctx context.Context, before time.Time, limit int) ([]*model.GuestOrder, error)

	// MarkReminderSent records the reminder timestamp, guarded by
	// reminder_sent_at IS NULL. Returns false when already claimed.
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// TokenRepository persists resume tokens and magic-link grants.
type TokenRepository interface {
	InsertResumeToken(ctx context.Context, token *model.ResumeToken) error

	// GetResumeToken returns (nil, nil) for unknown tokens.
	GetResumeToken(ctx context.Context, token string) (*model.ResumeToken, error)

	// ConsumeResumeToken marks a token consumed if it is still live.
	// Returns the order id and true on success; false when the token is
	// unknown, expired or already consumed.
	ConsumeResumeToken(ctx context.Context, token string, now time.Time) (uuid.UUID, bool, error)

	InsertMagicGrant(ctx context.Context, grant *model.MagicLinkGrant) error

	// GetMagicGrant returns (nil, nil) for unknown tokens.
	GetMagicGrant(ctx context.Context, token string) (*model.MagicLinkGrant, error)

	// GetMagicGrantForOrder returns the newest grant for the order, or
	// (nil, nil) when none was ever issued.
	GetMagicGrantForOrder(ctx context.Context, orderID uuid.UUID) (*model.MagicLinkGrant, error)

	// MarkMagicGrantUsed flips used_at, guarded by used_at IS NULL.
	MarkMagicGrantUsed(ctx context.Context, token string, now time.Time) (bool, error)

	// ReleaseMagicGrant clears used_at so a grant burned by a failed
	// provisioning attempt can be retried.
	ReleaseMagicGrant(ctx context.Context, token string) error
}

// PlanRepository reads subscription plans and records provisioned
// subscriptions.
type PlanRepository interface {
	// ListPlans returns the plans matching the given codes.
	ListPlans(ctx context.Context, codes []string) ([]model.SubscriptionPlan, error)

	// HasSubscription reports whether the user already holds any
	// subscription row.
	HasSubscription(ctx context.Context, userID uuid.UUID) (bool, error)

	InsertUserSubscription(ctx context.Context, sub *model.UserSubscription) error
}

// MirrorParams describes one payment mirrored into the reconciliation
// ledger.
type MirrorParams struct {
	OrderID           uuid.UUID
	UserID            uuid.UUID
	AmountMinor       int64
	Currency          string
	ProviderPaymentID *string
}

// LedgerRepository mirrors succeeded payments into the internal
// reconciliation ledger. Best-effort from the caller's perspective.
type LedgerRepository interface {
	MirrorPayment(ctx context.Context, params MirrorParams) error
}
