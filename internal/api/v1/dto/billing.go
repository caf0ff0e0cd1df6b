package dto

import "time"

// CheckoutRequestDTO is discriminated by Type: subscriptions carry Plan,
// credit purchases carry PackageID.
type CheckoutRequestDTO struct {
	Type      string `json:"type" validate:"required,oneof=subscription credits"`
	Plan      string `json:"plan,omitempty" validate:"required_if=Type subscription,omitempty,oneof=monthly annual"`
	PackageID string `json:"package_id,omitempty" validate:"required_if=Type credits"`
}

// CheckoutResponseDTO points the client at the provider-hosted checkout.
type CheckoutResponseDTO struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreditsResponseDTO is the balance + subscription snapshot for the UI.
type CreditsResponseDTO struct {
	Credits      int                  `json:"credits"`
	Subscription *SubscriptionSummary `json:"subscription,omitempty"`
}

// SubscriptionSummary is the client-visible slice of the cached
// subscription state.
type SubscriptionSummary struct {
	Status            string    `json:"status"`
	PlanID            string    `json:"plan_id"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	Active            bool      `json:"active"`
}
