package model

import "time"

// Reminder token types.
const (
	TokenTypeReminders = "reminders"
)

// ReminderToken is an opaque single-use opt-out token sent in reminder
// emails. Once UsedAt is set every subsequent lookup must be rejected,
// independent of expiry.
type ReminderToken struct {
	Token     string     `db:"token" json:"-"`
	UserID    string     `db:"user_id" json:"user_id"`
	TokenType string     `db:"token_type" json:"token_type"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
