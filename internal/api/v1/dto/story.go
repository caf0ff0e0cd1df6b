package dto

import "time"

// StoryStartDTO is the start-story-generation request body.
type StoryStartDTO struct {
	CharacterID string `json:"characterId" validate:"required,uuid"`
	Length      string `json:"length" validate:"required,oneof=SHORT MEDIUM LONG"`
	StoryRoute  string `json:"storyRoute,omitempty" validate:"omitempty,oneof=A B C"`
}

// StoryStartResponseDTO acknowledges a started story; generation continues
// in the background and is observed by polling.
type StoryStartResponseDTO struct {
	StoryID    string `json:"storyId"`
	Status     string `json:"status"`
	TotalPages int    `json:"totalPages"`
}

// GeneratePagesDTO is the generate-page request body.
type GeneratePagesDTO struct {
	StoryID string `json:"storyId" validate:"required,uuid"`
}

// GeneratePagesResponseDTO reports the outcome of a generation pass.
type GeneratePagesResponseDTO struct {
	Status         string `json:"status"`
	GeneratedPages int    `json:"generatedPages"`
	TotalPages     int    `json:"totalPages"`
}

// PageDTO is one story page in API responses.
type PageDTO struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

// StoryResponseDTO is a story with its pages, as seen by the reader.
type StoryResponseDTO struct {
	ID            string    `json:"id"`
	CharacterID   string    `json:"character_id"`
	LengthSetting string    `json:"length_setting"`
	StoryRoute    string    `json:"story_route"`
	TotalPages    int       `json:"total_pages"`
	Status        string    `json:"status"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	Pages         []PageDTO `json:"pages"`
}
