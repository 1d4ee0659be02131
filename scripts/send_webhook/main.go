package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"meta-checkout/internal/payment"
)

// Sends a signed payment webhook to a locally running API, useful for
// exercising the order lifecycle without a provider account.
func main() {
	var (
		target    = flag.String("url", "http://localhost:8080/webhooks/payment", "webhook endpoint")
		secret    = flag.String("secret", os.Getenv("PAYMENT_WEBHOOK_SECRET"), "webhook signing secret")
		orderID   = flag.String("order", "", "order id to reference in event metadata")
		eventType = flag.String("type", "payment_intent.succeeded", "provider event type")
		amount    = flag.Int64("amount", 48800, "amount in minor units")
		currency  = flag.String("currency", "myr", "ISO currency code")
		reason    = flag.String("reason", "Your card was declined.", "failure message for payment_failed events")
	)
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing signing secret: set -secret or PAYMENT_WEBHOOK_SECRET")
		os.Exit(1)
	}
	if *orderID == "" {
		fmt.Fprintln(os.Stderr, "missing -order")
		os.Exit(1)
	}

	object := map[string]any{
		"id":       fmt.Sprintf("pi_dev_%d", time.Now().Unix()),
		"amount":   *amount,
		"currency": *currency,
		"metadata": map[string]any{"order_id": *orderID},
	}
	if *eventType == "payment_intent.payment_failed" {
		object["last_payment_error"] = map[string]any{
			"code":    "card_declined",
			"message": *reason,
		}
	}

	payload, err := json.Marshal(map[string]any{
		"id":   fmt.Sprintf("evt_dev_%d", time.Now().Unix()),
		"type": *eventType,
		"data": map[string]any{"object": object},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal failed: %v\n", err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, *target, bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build request failed: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Payment-Signature", payment.SignPayload(payload, *secret, time.Now()))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "delivery failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, bytes.TrimSpace(body))
}
