package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meta-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `
	id, guest_email, guest_name, guest_phone,
	address_line1, address_line2, city, state_province, postcode, country,
	cart_items, total_myr_minor, total_usd_minor, currency, payment_method,
	payment_status, payment_failure_reason, payment_provider_id,
	payment_attempts, last_payment_attempt_at, account_created, user_id,
	newsletter_opt_in, reminder_sent_at, order_expires_at, created_at, updated_at`

// Create inserts a new guest order with its immutable cart snapshot.
func (r *orderRepository) Create(ctx context.Context, order *model.GuestOrder) error {
	cartJSON, err := json.Marshal(order.CartItems)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	query := `
		INSERT INTO guest_orders (
			id, guest_email, guest_name, guest_phone,
			address_line1, address_line2, city, state_province, postcode, country,
			cart_items, total_myr_minor, total_usd_minor, currency, payment_method,
			payment_status, newsletter_opt_in, order_expires_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = r.pool.Exec(ctx, query,
		order.ID, order.GuestEmail, order.GuestName, order.GuestPhone,
		order.Address.Line1, order.Address.Line2, order.Address.City,
		order.Address.StateProvince, order.Address.Postcode, order.Address.Country,
		cartJSON, order.TotalMYRMinor, order.TotalUSDMinor,
		order.PreferredCurrency, order.PaymentMethod,
		order.PaymentStatus, order.NewsletterOptIn, order.OrderExpiresAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create guest order")
		return fmt.Errorf("failed to create guest order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.CartItems)).
		Msg("guest order created")

	return nil
}

// GetByID retrieves an order by id.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM guest_orders WHERE id = $1`

	order, err := r.scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// UpdatePaymentStatus performs the conditional status transition required
// for idempotent webhook handling: the row only changes when it is still in
// the expected source state.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, update StatusUpdate) (bool, error) {
	query := `
		UPDATE guest_orders
		SET payment_status = $1,
		    payment_failure_reason = COALESCE($2, payment_failure_reason),
		    payment_provider_id = COALESCE($3, payment_provider_id),
		    payment_attempts = payment_attempts + $4,
		    last_payment_attempt_at = CASE WHEN $4 > 0 THEN now() ELSE last_payment_attempt_at END,
		    updated_at = now()
		WHERE id = $5 AND payment_status = $6
	`

	bump := 0
	if update.BumpAttempts {
		bump = 1
	}

	tag, err := r.pool.Exec(ctx, query,
		to, update.FailureReason, update.ProviderPaymentID, bump, id, from,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("failed to update payment status")
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	changed := tag.RowsAffected() > 0
	r.logger.Debug().
		Str("order_id", id.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Bool("changed", changed).
		Msg("payment status transition")

	return changed, nil
}

// MarkAccountCreated is the exactly-once guard for provisioning: the write
// only succeeds while account_created is still false.
func (r *orderRepository) MarkAccountCreated(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE guest_orders
		SET account_created = TRUE, user_id = $1, updated_at = now()
		WHERE id = $2 AND account_created = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, userID, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to mark account created")
		return false, fmt.Errorf("failed to mark account created: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListAbandoned returns pending orders that went quiet before the
// cutoff, have not been reminded yet and are still worth paying.
func (r *orderRepository) ListAbandoned(ctx context.Context, before time.Time, limit int) ([]*model.GuestOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM guest_orders
		WHERE payment_status = 'pending'
		  AND reminder_sent_at IS NULL
		  AND created_at < $1
		  AND (order_expires_at IS NULL OR order_expires_at > now())
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, before, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query abandoned orders")
		return nil, fmt.Errorf("failed to query abandoned orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.GuestOrder
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan abandoned order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate abandoned orders: %w", err)
	}

	return orders, nil
}

// MarkReminderSent claims the single reminder slot for an order. Only
// one concurrent sweeper wins the claim.
func (r *orderRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE guest_orders
		SET reminder_sent_at = $1, updated_at = now()
		WHERE id = $2 AND reminder_sent_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to mark reminder sent")
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) scanOrder(row pgx.Row) (*model.GuestOrder, error) {
	var (
		order    model.GuestOrder
		cartJSON []byte
	)

	err := row.Scan(
		&order.ID, &order.GuestEmail, &order.GuestName, &order.GuestPhone,
		&order.Address.Line1, &order.Address.Line2, &order.Address.City,
		&order.Address.StateProvince, &order.Address.Postcode, &order.Address.Country,
		&cartJSON, &order.TotalMYRMinor, &order.TotalUSDMinor,
		&order.PreferredCurrency, &order.PaymentMethod,
		&order.PaymentStatus, &order.PaymentFailureReason, &order.PaymentProviderID,
		&order.PaymentAttempts, &order.LastPaymentAttemptAt,
		&order.AccountCreated, &order.UserID,
		&order.NewsletterOptIn, &order.ReminderSentAt, &order.OrderExpiresAt,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cartJSON, &order.CartItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}

	return &order, nil
}
