package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository caches Stripe subscription state per user. Writes
// are full overwrites keyed by stable external ids so replayed webhook
// events are idempotent.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *model.Subscription) error
	// SetStatusBySubscriptionID updates only the cached status, keyed by
	// the Stripe subscription id.
	SetStatusBySubscriptionID(ctx context.Context, stripeSubscriptionID, status string) error
	// SetStatusAndPeriodBySubscriptionID updates status and period bounds,
	// keyed by the Stripe subscription id.
	SetStatusAndPeriodBySubscriptionID(ctx context.Context, stripeSubscriptionID, status string, periodStart, periodEnd time.Time) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `user_id, stripe_subscription_id, plan_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions WHERE user_id = $1`
	var s model.Subscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.UserID,
		&s.StripeSubscriptionID,
		&s.PlanID,
		&s.Status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.CancelAtPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return &s, nil
}

func (r *subscriptionRepo) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	const q = `
        INSERT INTO user_subscriptions (user_id, stripe_subscription_id, plan_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET stripe_subscription_id = EXCLUDED.stripe_subscription_id,
            plan_id = EXCLUDED.plan_id,
            status = EXCLUDED.status,
            current_period_start = EXCLUDED.current_period_start,
            current_period_end = EXCLUDED.current_period_end,
            cancel_at_period_end = EXCLUDED.cancel_at_period_end,
            updated_at = NOW();
    `
	_, err := r.pool.Exec(ctx, q,
		sub.UserID, sub.StripeSubscriptionID, sub.PlanID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

func (r *subscriptionRepo) SetStatusBySubscriptionID(ctx context.Context, stripeSubscriptionID, status string) error {
	const q = `
        UPDATE user_subscriptions
        SET status = $2, updated_at = NOW()
        WHERE stripe_subscription_id = $1
    `
	if _, err := r.pool.Exec(ctx, q, stripeSubscriptionID, status); err != nil {
		return fmt.Errorf("set status of subscription %s: %w", stripeSubscriptionID, err)
	}
	return nil
}

func (r *subscriptionRepo) SetStatusAndPeriodBySubscriptionID(ctx context.Context, stripeSubscriptionID, status string, periodStart, periodEnd time.Time) error {
	const q = `
        UPDATE user_subscriptions
        SET status = $2, current_period_start = $3, current_period_end = $4, updated_at = NOW()
        WHERE stripe_subscription_id = $1
    `
	if _, err := r.pool.Exec(ctx, q, stripeSubscriptionID, status, periodStart, periodEnd); err != nil {
		return fmt.Errorf("set status and period of subscription %s: %w", stripeSubscriptionID, err)
	}
	return nil
}
