package email

import "context"

// Template names, one per transactional email the checkout flow sends.
const (
	TemplateOrderResume    = "order-resume"
	TemplatePaymentFailed  = "payment-failed"
	TemplateReceipt        = "receipt"
	TemplateAccountWelcome = "account-welcome"
	TemplateMagicLink      = "magic-link"
	TemplateAbandonedCart  = "abandoned-cart"
)

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers transactional email. Implementations must be safe
// for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
