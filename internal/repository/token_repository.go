package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meta-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// tokenRepository implements TokenRepository using PostgreSQL.
type tokenRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTokenRepository creates a new PostgreSQL-backed token repository.
func NewTokenRepository(pool *pgxpool.Pool, logger zerolog.Logger) TokenRepository {
	return &tokenRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "token").Logger(),
	}
}

// InsertResumeToken persists a freshly issued resume token.
func (r *tokenRepository) InsertResumeToken(ctx context.Context, token *model.ResumeToken) error {
	query := `
		INSERT INTO resume_tokens (token, order_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, token.Token, token.OrderID, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", token.OrderID.String()).
			Msg("failed to insert resume token")
		return fmt.Errorf("failed to insert resume token: %w", err)
	}

	return nil
}

// GetResumeToken fetches a token row without consuming it.
func (r *tokenRepository) GetResumeToken(ctx context.Context, token string) (*model.ResumeToken, error) {
	query := `
		SELECT token, order_id, expires_at, consumed_at, created_at
		FROM resume_tokens
		WHERE token = $1
	`

	var row model.ResumeToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&row.Token, &row.OrderID, &row.ExpiresAt, &row.ConsumedAt, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query resume token")
		return nil, fmt.Errorf("failed to query resume token: %w", err)
	}

	return &row, nil
}

// ConsumeResumeToken marks the token consumed in a single conditional
// update, so a double-clicked resume link cannot consume it twice.
func (r *tokenRepository) ConsumeResumeToken(ctx context.Context, token string, now time.Time) (uuid.UUID, bool, error) {
	query := `
		UPDATE resume_tokens
		SET consumed_at = $1
		WHERE token = $2 AND consumed_at IS NULL AND expires_at > $1
		RETURNING order_id
	`

	var orderID uuid.UUID
	err := r.pool.QueryRow(ctx, query, now, token).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		r.logger.Error().Err(err).Msg("failed to consume resume token")
		return uuid.Nil, false, fmt.Errorf("failed to consume resume token: %w", err)
	}

	return orderID, true, nil
}

// InsertMagicGrant persists a magic-link grant issued for a succeeded order.
func (r *tokenRepository) InsertMagicGrant(ctx context.Context, grant *model.MagicLinkGrant) error {
	query := `
		INSERT INTO magic_link_grants (token, order_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, grant.Token, grant.OrderID, grant.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", grant.OrderID.String()).
			Msg("failed to insert magic link grant")
		return fmt.Errorf("failed to insert magic link grant: %w", err)
	}

	return nil
}

// GetMagicGrant fetches a grant row.
func (r *tokenRepository) GetMagicGrant(ctx context.Context, token string) (*model.MagicLinkGrant, error) {
	query := `
		SELECT token, order_id, used_at, created_at
		FROM magic_link_grants
		WHERE token = $1
	`

	var row model.MagicLinkGrant
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&row.Token, &row.OrderID, &row.UsedAt, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query magic link grant")
		return nil, fmt.Errorf("failed to query magic link grant: %w", err)
	}

	return &row, nil
}

// GetMagicGrantForOrder fetches the newest grant issued for an order.
func (r *tokenRepository) GetMagicGrantForOrder(ctx context.Context, orderID uuid.UUID) (*model.MagicLinkGrant, error) {
	query := `
		SELECT token, order_id, used_at, created_at
		FROM magic_link_grants
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var row model.MagicLinkGrant
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&row.Token, &row.OrderID, &row.UsedAt, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query magic link grant by order")
		return nil, fmt.Errorf("failed to query magic link grant by order: %w", err)
	}

	return &row, nil
}

// MarkMagicGrantUsed flips used_at exactly once.
func (r *tokenRepository) MarkMagicGrantUsed(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `
		UPDATE magic_link_grants
		SET used_at = $1
		WHERE token = $2 AND used_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, now, token)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to mark magic link grant used")
		return false, fmt.Errorf("failed to mark magic link grant used: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ReleaseMagicGrant clears used_at again, handing the link back after a
// provisioning attempt that never reached account creation.
func (r *tokenRepository) ReleaseMagicGrant(ctx context.Context, token string) error {
	query := `
		UPDATE magic_link_grants
		SET used_at = NULL
		WHERE token = $1
	`

	_, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to release magic link grant")
		return fmt.Errorf("failed to release magic link grant: %w", err)
	}

	return nil
}
