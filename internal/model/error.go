package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeTokenInvalid        = "LINK_EXPIRED"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodePaymentProvider     = "PAYMENT_PROVIDER_ERROR"
	ErrCodeWebhookAuthenticity = "WEBHOOK_SIGNATURE_INVALID"
	ErrCodeProvisioning        = "PROVISIONING_FAILED"
	ErrCodeAlreadyProvisioned  = "ACCOUNT_ALREADY_CREATED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError carries a stable code alongside a human-readable message so
// handlers can map failures to HTTP statuses without string matching.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Note ErrTokenInvalid deliberately covers expired,
// consumed, unknown and malformed tokens alike so the error surface cannot
// be used as a token-guessing oracle.
var (
	ErrValidation         = NewDomainError(ErrCodeValidation, "Required contact fields are missing or malformed")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Cart must contain at least one item")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrTokenInvalid       = NewDomainError(ErrCodeTokenInvalid, "This link has expired or has already been used")
	ErrPaymentProvider    = NewDomainError(ErrCodePaymentProvider, "Payment provider request failed")
	ErrWebhookSignature   = NewDomainError(ErrCodeWebhookAuthenticity, "Webhook signature verification failed")
	ErrProvisioning       = NewDomainError(ErrCodeProvisioning, "Account provisioning failed, please try again later")
	ErrAlreadyProvisioned = NewDomainError(ErrCodeAlreadyProvisioned, "This magic link has already been used")
)
