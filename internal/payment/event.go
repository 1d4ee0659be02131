package payment

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EventKind classifies the provider webhook events the lifecycle cares
// about. Everything else maps to EventUnknown and is acknowledged
// without side effects.
type EventKind string

const (
	EventPaymentSucceeded         EventKind = "payment_intent.succeeded"
	EventPaymentFailed            EventKind = "payment_intent.payment_failed"
	EventPaymentCanceled          EventKind = "payment_intent.canceled"
	EventCheckoutSessionCompleted EventKind = "checkout.session.completed"
	EventUnknown                  EventKind = ""
)

// Event is a provider webhook event reduced to the fields the order
// lifecycle consumes.
type Event struct {
	ID                string
	Kind              EventKind
	OrderID           uuid.UUID
	ProviderPaymentID string
	AmountMinor       int64
	Currency          string
	CustomerEmail     string
	FailureReason     string
}

// envelope mirrors the provider's event wire shape. Only the fields we
// read are declared.
type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object eventObject `json:"object"`
	} `json:"data"`
}

type eventObject struct {
	ID            string            `json:"id"`
	Amount        int64             `json:"amount"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
	ReceiptEmail  string            `json:"receipt_email"`
	CustomerEmail string            `json:"customer_email"`
	PaymentIntent string            `json:"payment_intent"`
	LastPaymentError *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"last_payment_error"`
}

// ParseEvent decodes a provider webhook payload. Events of a type the
// lifecycle does not handle come back with Kind == EventUnknown and a
// nil error; malformed payloads and handled events missing an order id
// are errors.
func ParseEvent(payload []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	kind := classify(env.Type)
	event := &Event{
		ID:   env.ID,
		Kind: kind,
	}
	if kind == EventUnknown {
		return event, nil
	}

	obj := env.Data.Object

	rawOrderID, ok := obj.Metadata["order_id"]
	if !ok {
		return nil, fmt.Errorf("event %s has no order_id metadata", env.ID)
	}
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return nil, fmt.Errorf("event %s has malformed order_id metadata: %w", env.ID, err)
	}
	event.OrderID = orderID

	event.AmountMinor = obj.Amount
	event.Currency = obj.Currency
	event.CustomerEmail = obj.ReceiptEmail
	event.ProviderPaymentID = obj.ID

	// Checkout sessions reference the intent indirectly and carry the
	// total and email under different keys.
	if kind == EventCheckoutSessionCompleted {
		event.AmountMinor = obj.AmountTotal
		if obj.PaymentIntent != "" {
			event.ProviderPaymentID = obj.PaymentIntent
		}
		if obj.CustomerEmail != "" {
			event.CustomerEmail = obj.CustomerEmail
		}
	}

	if email, ok := obj.Metadata["customer_email"]; ok && event.CustomerEmail == "" {
		event.CustomerEmail = email
	}

	if obj.LastPaymentError != nil {
		event.FailureReason = obj.LastPaymentError.Message
		if event.FailureReason == "" {
			event.FailureReason = obj.LastPaymentError.Code
		}
	}

	return event, nil
}

func classify(eventType string) EventKind {
	switch EventKind(eventType) {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled, EventCheckoutSessionCompleted:
		return EventKind(eventType)
	default:
		return EventUnknown
	}
}
