package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ledgerRepository implements LedgerRepository using PostgreSQL.
type ledgerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewLedgerRepository creates a new PostgreSQL-backed ledger repository.
func NewLedgerRepository(pool *pgxpool.Pool, logger zerolog.Logger) LedgerRepository {
	return &ledgerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "ledger").Logger(),
	}
}

// MirrorPayment records a succeeded payment in the reconciliation ledger.
// The UNIQUE(order_id) constraint makes re-mirroring the same order a no-op.
func (r *ledgerRepository) MirrorPayment(ctx context.Context, params MirrorParams) error {
	query := `
		INSERT INTO payments (id, order_id, user_id, amount_minor, currency, provider_payment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		uuid.New(), params.OrderID, params.UserID,
		params.AmountMinor, params.Currency, params.ProviderPaymentID,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", params.OrderID.String()).
			Msg("failed to mirror payment")
		return fmt.Errorf("failed to mirror payment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().
			Str("order_id", params.OrderID.String()).
			Msg("payment already mirrored, skipping")
	}

	return nil
}
