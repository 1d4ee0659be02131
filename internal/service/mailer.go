package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meta-checkout/internal/cart"
	"meta-checkout/internal/config"
	"meta-checkout/internal/email"
	"meta-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderMailer renders and sends the transactional emails tied to an
// order's lifecycle. Every send is best-effort from the caller's side;
// failures are surfaced as errors and logged by callers.
type orderMailer struct {
	sender   email.Sender
	renderer *email.Renderer
	cfg      config.CheckoutConfig
	logger   zerolog.Logger
}

func newOrderMailer(sender email.Sender, renderer *email.Renderer, cfg config.CheckoutConfig, logger zerolog.Logger) *orderMailer {
	return &orderMailer{
		sender:   sender,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger.With().Str("component", "order-mailer").Logger(),
	}
}

// SendResume emails the single-use link back into an unfinished
// checkout.
func (m *orderMailer) SendResume(ctx context.Context, order *model.GuestOrder, token *model.ResumeToken) error {
	data := m.orderData(order)
	data["resume_url"] = m.cfg.SiteBaseURL + "/checkout/resume/" + token.Token
	data["expires_at"] = token.ExpiresAt.UTC().Format("2 Jan 2006 15:04 MST")

	return m.send(ctx, order.GuestEmail, "Finish your order", email.TemplateOrderResume, data)
}

// SendPaymentFailed emails the decline notice with a fresh resume link.
func (m *orderMailer) SendPaymentFailed(ctx context.Context, order *model.GuestOrder, token *model.ResumeToken, reason string) error {
	if reason == "" {
		reason = "the payment could not be completed."
	}

	data := m.orderData(order)
	data["reason"] = reason
	data["resume_url"] = m.cfg.SiteBaseURL + "/checkout/resume/" + token.Token
	data["expires_at"] = token.ExpiresAt.UTC().Format("2 Jan 2006 15:04 MST")

	return m.send(ctx, order.GuestEmail, "Your payment didn't go through", email.TemplatePaymentFailed, data)
}

// SendAbandonedCart emails the nudge for a checkout that stalled
// before payment, with a resume link back into it.
func (m *orderMailer) SendAbandonedCart(ctx context.Context, order *model.GuestOrder, token *model.ResumeToken) error {
	data := m.orderData(order)
	data["cart_url"] = m.cfg.SiteBaseURL + "/checkout/resume/" + token.Token
	data["held_for"] = formatHeldFor(m.cfg.OrderTTL)

	return m.send(ctx, order.GuestEmail, "Your cart is waiting", email.TemplateAbandonedCart, data)
}

// SendReceipt emails the payment confirmation.
func (m *orderMailer) SendReceipt(ctx context.Context, order *model.GuestOrder) error {
	data := m.orderData(order)
	data["paid_at"] = order.UpdatedAt.UTC().Format("2 Jan 2006")

	return m.send(ctx, order.GuestEmail, "Your receipt", email.TemplateReceipt, data)
}

// SendMagicLink emails the single-use account activation link.
func (m *orderMailer) SendMagicLink(ctx context.Context, order *model.GuestOrder, token string) error {
	data := m.orderData(order)
	data["magic_url"] = m.cfg.SiteBaseURL + "/auth/magic/" + token

	return m.send(ctx, order.GuestEmail, "Your sign-in link", email.TemplateMagicLink, data)
}

// SendWelcome emails the post-provisioning welcome note with the sign-in
// email and the generated temporary password. This email is the only
// place the credential ever appears.
func (m *orderMailer) SendWelcome(ctx context.Context, order *model.GuestOrder, tempPassword string) error {
	data := m.orderData(order)
	data["login_url"] = m.cfg.LoginBaseURL
	data["temp_password"] = tempPassword

	return m.send(ctx, order.GuestEmail, "Welcome aboard", email.TemplateAccountWelcome, data)
}

func (m *orderMailer) send(ctx context.Context, to, subject, template string, data map[string]any) error {
	html, err := m.renderer.Render(ctx, template, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, email.Message{To: to, Subject: subject, HTML: html})
}

func (m *orderMailer) orderData(order *model.GuestOrder) map[string]any {
	items := make([]map[string]string, 0, len(order.CartItems))
	for _, entry := range order.CartItems {
		price := entry.PriceLabel
		if price == "" && entry.AmountMinor != nil {
			price = entry.Currency + " " + cart.FormatAmountMinor(*entry.AmountMinor)
		}
		items = append(items, map[string]string{
			"name":  entry.Name,
			"price": price,
		})
	}

	return map[string]any{
		"name":      order.GuestName,
		"email":     order.GuestEmail,
		"order_ref": orderRef(order.ID),
		"items":     items,
		"total":     order.PreferredCurrency + " " + cart.FormatAmountMinor(order.PreferredTotalMinor()),
	}
}

// orderRef is the short human-facing reference used in emails.
func orderRef(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func formatHeldFor(ttl time.Duration) string {
	hours := int(ttl.Hours())
	if hours <= 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
