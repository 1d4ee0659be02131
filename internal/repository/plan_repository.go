package repository

import (
	"context"
	"fmt"

	"meta-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// planRepository implements PlanRepository using PostgreSQL.
type planRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPlanRepository creates a new PostgreSQL-backed plan repository.
func NewPlanRepository(pool *pgxpool.Pool, logger zerolog.Logger) PlanRepository {
	return &planRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "plan").Logger(),
	}
}

// ListPlans returns the subscription plans matching the given codes.
func (r *planRepository) ListPlans(ctx context.Context, codes []string) ([]model.SubscriptionPlan, error) {
	query := `SELECT id, plan_code FROM subscription_plans WHERE plan_code = ANY($1)`

	rows, err := r.pool.Query(ctx, query, codes)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query subscription plans")
		return nil, fmt.Errorf("failed to query subscription plans: %w", err)
	}
	defer rows.Close()

	var plans []model.SubscriptionPlan
	for rows.Next() {
		var plan model.SubscriptionPlan
		if err := rows.Scan(&plan.ID, &plan.PlanCode); err != nil {
			return nil, fmt.Errorf("failed to scan subscription plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription plans: %w", err)
	}

	return plans, nil
}

// HasSubscription reports whether the user already holds a subscription.
func (r *planRepository) HasSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_subscriptions WHERE user_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Msg("failed to check existing subscription")
		return false, fmt.Errorf("failed to check existing subscription: %w", err)
	}

	return exists, nil
}

// InsertUserSubscription records a provisioned subscription.
func (r *planRepository) InsertUserSubscription(ctx context.Context, sub *model.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions (id, user_id, plan_id, status, started_at, auto_renew)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.StartedAt, sub.AutoRenew,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", sub.UserID.String()).
			Str("plan_id", sub.PlanID.String()).
			Msg("failed to insert user subscription")
		return fmt.Errorf("failed to insert user subscription: %w", err)
	}

	return nil
}
