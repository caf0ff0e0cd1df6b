package model

import "time"

// Ledger entry reasons.
const (
	CreditReasonHeroCreation = "hero_creation"
	CreditReasonPurchase     = "purchase"
)

// CreditLedgerEntry is one audited mutation of a user's credit balance.
// Grants carry the Stripe payment-intent id in Reference; its uniqueness
// makes webhook replays a no-op.
type CreditLedgerEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Delta     int       `db:"delta" json:"delta"`
	Reason    string    `db:"reason" json:"reason"`
	Reference *string   `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
