package model

import "time"

// Subscription statuses as cached from Stripe.
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription is a cache of the payment provider's subscription state for
// a user. Stripe is the source of truth; only the webhook reconciler
// writes this row.
type Subscription struct {
	UserID               string    `db:"user_id" json:"user_id"`
	StripeSubscriptionID string    `db:"stripe_subscription_id" json:"stripe_subscription_id"`
	PlanID               string    `db:"plan_id" json:"plan_id"`
	Status               string    `db:"status" json:"status"`
	CurrentPeriodStart   time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd     time.Time `db:"current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd    bool      `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// IsCurrentlyActive reports whether the cached subscription entitles the
// user right now. The stored status alone is not trusted: the period end
// must still be in the future at read time.
func (s *Subscription) IsCurrentlyActive(now time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && s.CurrentPeriodEnd.After(now)
}
