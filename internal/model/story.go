package model

import "time"

// Story length settings and their page counts.
const (
	LengthShort  = "SHORT"
	LengthMedium = "MEDIUM"
	LengthLong   = "LONG"
)

// PagesForLength maps a length setting to its page count.
var PagesForLength = map[string]int{
	LengthShort:  5,
	LengthMedium: 9,
	LengthLong:   12,
}

// Story statuses.
const (
	StoryStatusGenerating = "generating"
	StoryStatusReady      = "ready"
	StoryStatusFailed     = "failed"
)

// Story routes are the three narrative moods used to flavor page text.
const (
	RouteA = "A"
	RouteB = "B"
	RouteC = "C"
)

// ValidRoute reports whether s is a known story route.
func ValidRoute(s string) bool {
	return s == RouteA || s == RouteB || s == RouteC
}

// Story belongs to exactly one character. At most one story per character
// has IsActive set; the story service deactivates siblings before inserting
// a new active one.
type Story struct {
	ID            string    `db:"id" json:"id"`
	CharacterID   string    `db:"character_id" json:"character_id"`
	LengthSetting string    `db:"length_setting" json:"length_setting"`
	StoryRoute    string    `db:"story_route" json:"story_route"`
	TotalPages    int       `db:"total_pages" json:"total_pages"`
	Status        string    `db:"status" json:"status"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Page is one page of a story, 1-indexed and contiguous from 1..TotalPages.
// Uniqueness of (StoryID, PageNumber) is enforced by upsert-on-conflict.
type Page struct {
	StoryID    string    `db:"story_id" json:"story_id"`
	PageNumber int       `db:"page_number" json:"page_number"`
	Content    string    `db:"content" json:"content"`
	ImagePath  string    `db:"image_path" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
