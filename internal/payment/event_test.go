package payment

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	orderID := uuid.New()

	t.Run("succeeded intent", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"id": "evt_succ",
			"type": "payment_intent.succeeded",
			"data": {"object": {
				"id": "pi_123",
				"amount": 120000,
				"currency": "myr",
				"receipt_email": "guest@example.com",
				"metadata": {"order_id": %q, "resume_token": "abc"}
			}}
		}`, orderID)

		event, err := ParseEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, EventPaymentSucceeded, event.Kind)
		assert.Equal(t, orderID, event.OrderID)
		assert.Equal(t, "pi_123", event.ProviderPaymentID)
		assert.Equal(t, int64(120000), event.AmountMinor)
		assert.Equal(t, "myr", event.Currency)
		assert.Equal(t, "guest@example.com", event.CustomerEmail)
		assert.Empty(t, event.FailureReason)
	})

	t.Run("failed intent carries failure reason", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"id": "evt_fail",
			"type": "payment_intent.payment_failed",
			"data": {"object": {
				"id": "pi_123",
				"amount": 5000,
				"currency": "usd",
				"metadata": {"order_id": %q},
				"last_payment_error": {"message": "Your card was declined.", "code": "card_declined"}
			}}
		}`, orderID)

		event, err := ParseEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, EventPaymentFailed, event.Kind)
		assert.Equal(t, "Your card was declined.", event.FailureReason)
	})

	t.Run("failure reason falls back to error code", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"id": "evt_fail2",
			"type": "payment_intent.payment_failed",
			"data": {"object": {
				"id": "pi_123",
				"metadata": {"order_id": %q},
				"last_payment_error": {"code": "insufficient_funds"}
			}}
		}`, orderID)

		event, err := ParseEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, "insufficient_funds", event.FailureReason)
	})

	t.Run("checkout session maps total and intent reference", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"id": "evt_sess",
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_456",
				"amount_total": 48800,
				"currency": "usd",
				"customer_email": "guest@example.com",
				"payment_intent": "pi_789",
				"metadata": {"order_id": %q}
			}}
		}`, orderID)

		event, err := ParseEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, EventCheckoutSessionCompleted, event.Kind)
		assert.Equal(t, int64(48800), event.AmountMinor)
		assert.Equal(t, "pi_789", event.ProviderPaymentID)
		assert.Equal(t, "guest@example.com", event.CustomerEmail)
	})

	t.Run("email falls back to metadata", func(t *testing.T) {
		payload := fmt.Sprintf(`{
			"id": "evt_meta",
			"type": "payment_intent.succeeded",
			"data": {"object": {
				"id": "pi_123",
				"metadata": {"order_id": %q, "customer_email": "meta@example.com"}
			}}
		}`, orderID)

		event, err := ParseEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, "meta@example.com", event.CustomerEmail)
	})

	t.Run("unhandled type yields unknown kind", func(t *testing.T) {
		payload := `{"id": "evt_other", "type": "charge.refunded", "data": {"object": {}}}`

		event, err := ParseEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, EventUnknown, event.Kind)
	})

	t.Run("handled event without order id is an error", func(t *testing.T) {
		payload := `{
			"id": "evt_noid",
			"type": "payment_intent.succeeded",
			"data": {"object": {"id": "pi_123", "metadata": {}}}
		}`

		_, err := ParseEvent([]byte(payload))
		assert.Error(t, err)
	})

	t.Run("malformed order id is an error", func(t *testing.T) {
		payload := `{
			"id": "evt_badid",
			"type": "payment_intent.succeeded",
			"data": {"object": {"metadata": {"order_id": "not-a-uuid"}}}
		}`

		_, err := ParseEvent([]byte(payload))
		assert.Error(t, err)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"id": `))
		assert.Error(t, err)
	})
}
