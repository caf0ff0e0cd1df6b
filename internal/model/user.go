package model

import "time"

// User represents a user profile in the system. Identity comes from the
// auth provider; the credit balance lives on the profile row.
type User struct {
	UserID           string    `db:"user_id" json:"user_id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	StripeCustomerID *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	Credits          int       `db:"credits" json:"credits"`
	RemindersOptIn   bool      `db:"reminders_opt_in" json:"reminders_opt_in"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
