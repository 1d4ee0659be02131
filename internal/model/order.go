package model

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind distinguishes service tiers from add-ons in the cart.
type EntryKind string

const (
	EntryKindTier  EntryKind = "tier"
	EntryKindAddon EntryKind = "addon"
)

// CartEntry represents one selectable priced line item (service tier or add-on).
// Amounts are kept in minor units (cents) so summation is exact.
type CartEntry struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Kind                 EntryKind `json:"kind"`
	PriceLabel           string    `json:"priceLabel,omitempty"`
	SecondaryPriceLabel  string    `json:"secondaryPriceLabel,omitempty"`
	Currency             string    `json:"currency,omitempty"`
	AmountMinor          *int64    `json:"amountMinor,omitempty"`
	SecondaryCurrency    string    `json:"secondaryCurrency,omitempty"`
	SecondaryAmountMinor *int64    `json:"secondaryAmountMinor,omitempty"`
	Href                 string    `json:"href,omitempty"`
	CategoryLabel        string    `json:"categoryLabel,omitempty"`
}

// CurrencyTotal is one summed amount per currency code.
type CurrencyTotal struct {
	Currency    string `json:"currency"`
	AmountMinor int64  `json:"amountMinor"`
}

// PaymentStatus describes where a guest order sits in its payment lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// IsTerminal reports whether no further payment transition is allowed.
// Only succeeded is terminal; failed and canceled orders can be resumed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded
}

// String representation (for logging)
func (s PaymentStatus) String() string {
	return string(s)
}

// Address holds the shipping/billing fields captured at checkout.
type Address struct {
	Line1         string `json:"addressLine1"`
	Line2         string `json:"addressLine2,omitempty"`
	City          string `json:"city"`
	StateProvince string `json:"stateProvince"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}

// GuestOrder is the durable unit of work for a checkout attempt that is not
// yet tied to a registered account. The cart snapshot is immutable after
// creation; status fields only move forward.
type GuestOrder struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	GuestEmail           string        `json:"guestEmail" db:"guest_email"`
	GuestName            string        `json:"guestName" db:"guest_name"`
	GuestPhone           string        `json:"guestPhone" db:"guest_phone"`
	Address              Address       `json:"address"`
	CartItems            []CartEntry   `json:"cartItems" db:"cart_items"`
	TotalMYRMinor        int64         `json:"totalMyrMinor" db:"total_myr_minor"`
	TotalUSDMinor        int64         `json:"totalUsdMinor" db:"total_usd_minor"`
	PreferredCurrency    string        `json:"currency" db:"currency"`
	PaymentMethod        string        `json:"paymentMethod" db:"payment_method"`
	PaymentStatus        PaymentStatus `json:"paymentStatus" db:"payment_status"`
	PaymentFailureReason *string       `json:"paymentFailureReason,omitempty" db:"payment_failure_reason"`
	PaymentProviderID    *string       `json:"-" db:"payment_provider_id"`
	PaymentAttempts      int           `json:"-" db:"payment_attempts"`
	LastPaymentAttemptAt *time.Time    `json:"-" db:"last_payment_attempt_at"`
	AccountCreated       bool          `json:"accountCreated" db:"account_created"`
	UserID               *uuid.UUID    `json:"-" db:"user_id"`
	NewsletterOptIn      bool          `json:"-" db:"newsletter_opt_in"`
	ReminderSentAt       *time.Time    `json:"-" db:"reminder_sent_at"`
	OrderExpiresAt       *time.Time    `json:"-" db:"order_expires_at"`
	CreatedAt            time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time     `json:"updatedAt" db:"updated_at"`
}

// TotalsByCurrency returns the order total per currency, skipping zero rows.
func (o *GuestOrder) TotalsByCurrency() []CurrencyTotal {
	var totals []CurrencyTotal
	if o.TotalMYRMinor > 0 {
		totals = append(totals, CurrencyTotal{Currency: "MYR", AmountMinor: o.TotalMYRMinor})
	}
	if o.TotalUSDMinor > 0 {
		totals = append(totals, CurrencyTotal{Currency: "USD", AmountMinor: o.TotalUSDMinor})
	}
	return totals
}

// PreferredTotalMinor returns the total in the currency the guest chose to
// pay in. Unknown currencies fall back to MYR.
func (o *GuestOrder) PreferredTotalMinor() int64 {
	if o.PreferredCurrency == "USD" {
		return o.TotalUSDMinor
	}
	return o.TotalMYRMinor
}

// OrderPrefill is the restricted view of an order returned to a resume-link
// visitor: public fields plus the address needed to prefill the payment form.
type OrderPrefill struct {
	OrderID           uuid.UUID     `json:"orderId"`
	GuestEmail        string        `json:"guestEmail"`
	GuestName         string        `json:"guestName"`
	GuestPhone        string        `json:"guestPhone"`
	Address           Address       `json:"address"`
	CartItems         []CartEntry   `json:"cartItems"`
	PreferredCurrency string        `json:"currency"`
	PaymentMethod     string        `json:"paymentMethod"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
}

// UserSubscription links a provisioned user to a plan tier.
type UserSubscription struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	PlanID    uuid.UUID `json:"planId" db:"plan_id"`
	Status    string    `json:"status" db:"status"`
	StartedAt time.Time `json:"startedAt" db:"started_at"`
	AutoRenew bool      `json:"autoRenew" db:"auto_renew"`
}

// SubscriptionPlan is one provisionable plan tier.
type SubscriptionPlan struct {
	ID       uuid.UUID `json:"id" db:"id"`
	PlanCode string    `json:"planCode" db:"plan_code"`
}
