package model

import "time"

// Age bands control story pacing and length clamping.
const (
	AgeBandToddler   = "1-2"
	AgeBandPreschool = "3-5"
	AgeBandEarly     = "6-8"
	AgeBandMiddle    = "9-12"
)

// ValidAgeBand reports whether s is one of the supported age bands.
func ValidAgeBand(s string) bool {
	switch s {
	case AgeBandToddler, AgeBandPreschool, AgeBandEarly, AgeBandMiddle:
		return true
	}
	return false
}

// Character is a story hero owned by exactly one user.
type Character struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	Name              string    `db:"name" json:"name"`
	Archetype         string    `db:"archetype" json:"archetype"`
	AgeBand           string    `db:"age_band" json:"age_band"`
	Traits            []string  `db:"traits" json:"traits"`
	Icon              string    `db:"icon" json:"icon,omitempty"`
	SidekickName      string    `db:"sidekick_name" json:"sidekick_name,omitempty"`
	SidekickArchetype string    `db:"sidekick_archetype" json:"sidekick_archetype,omitempty"`
	PreferredLanguage string    `db:"preferred_language" json:"preferred_language,omitempty"`
	PortraitPath      string    `db:"portrait_path" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// CreationLogEntry records one successful hero creation. Rows are
// append-only and read back only as a trailing-window count.
type CreationLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
