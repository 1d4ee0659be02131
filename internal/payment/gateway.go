package payment

import (
	"context"

	"github.com/google/uuid"
)

// CreateIntentParams describes the payment intent requested for a
// newly submitted order. Metadata is echoed back on webhook events and
// is the only link between provider events and local orders.
type CreateIntentParams struct {
	OrderID       uuid.UUID
	AmountMinor   int64
	Currency      string
	CustomerEmail string
	ResumeToken   string
	Description   string
}

// Intent is the provider-side payment object created for an order.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Reusable reports whether the intent is still open for a client-side
// payment attempt.
func (i *Intent) Reusable() bool {
	switch i.Status {
	case "requires_payment_method", "requires_confirmation", "requires_action":
		return true
	}
	return false
}

// Gateway is the outbound boundary to the payment provider.
type Gateway interface {
	// CreateIntent registers a payment intent with the provider. The
	// order id, customer email and resume token travel in the intent
	// metadata.
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)

	// RetrieveIntent fetches the current provider-side state of an
	// intent.
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)

	// CancelIntent voids a provider-side intent. Cancellation of an
	// intent the provider already settled returns an error.
	CancelIntent(ctx context.Context, intentID string) error
}
