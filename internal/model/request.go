package model

import "github.com/google/uuid"

// CheckoutRequest is the payload submitted from the checkout form.
type CheckoutRequest struct {
	GuestEmail      string      `json:"guestEmail"`
	GuestName       string      `json:"guestName"`
	GuestPhone      string      `json:"guestPhone"`
	Address         Address     `json:"address"`
	CartItems       []CartEntry `json:"cartItems"`
	Currency        string      `json:"currency"`
	PaymentMethod   string      `json:"paymentMethod"`
	NewsletterOptIn bool        `json:"newsletterOptIn"`
}

// CheckoutResponse is returned after an order is created and a payment
// intent opened. The client secret drives the payment form on the
// client side.
type CheckoutResponse struct {
	OrderID             uuid.UUID       `json:"orderId"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus"`
	Totals              []CurrencyTotal `json:"totals"`
	PaymentClientSecret string          `json:"paymentClientSecret,omitempty"`
	ResumeToken         string          `json:"-"`
}

// ResumeConfirmation is returned when a resume token is consumed: the
// prefill for the restored checkout plus a live payment intent for the
// new attempt.
type ResumeConfirmation struct {
	Prefill             *OrderPrefill   `json:"prefill"`
	Totals              []CurrencyTotal `json:"totals"`
	PaymentClientSecret string          `json:"paymentClientSecret,omitempty"`
}

// ProvisionResult reports the outcome of a magic-link activation. The
// handler redirects to RedirectURL with Email prefilled as a query
// parameter.
type ProvisionResult struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	RedirectURL string `json:"redirectUrl"`
}
