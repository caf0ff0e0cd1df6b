package dto

import "time"

// HeroCreateDTO is the create-hero request body.
type HeroCreateDTO struct {
	Name              string   `json:"name" validate:"required,max=50"`
	Archetype         string   `json:"archetype" validate:"required,max=50"`
	AgeBand           string   `json:"age_band,omitempty" validate:"omitempty,oneof=1-2 3-5 6-8 9-12"`
	Traits            []string `json:"traits" validate:"required,min=1,max=5,dive,required,max=30"`
	Icon              string   `json:"icon,omitempty"`
	SidekickName      string   `json:"sidekick_name,omitempty" validate:"omitempty,max=50"`
	SidekickArchetype string   `json:"sidekick_archetype,omitempty" validate:"omitempty,max=50"`
	PreferredLanguage string   `json:"preferred_language,omitempty" validate:"omitempty,max=10"`
}

// HeroResponseDTO is returned for a created or fetched hero.
type HeroResponseDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Archetype          string    `json:"archetype"`
	AgeBand            string    `json:"age_band"`
	Traits             []string  `json:"traits"`
	Icon               string    `json:"icon,omitempty"`
	SidekickName       string    `json:"sidekick_name,omitempty"`
	SidekickArchetype  string    `json:"sidekick_archetype,omitempty"`
	PreferredLanguage  string    `json:"preferred_language,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	RemainingCreations int       `json:"remaining_creations"`
}

// InsufficientCreditsDTO is the 402 response body.
type InsufficientCreditsDTO struct {
	Error           string `json:"error"`
	CurrentCredits  int    `json:"current_credits"`
	RequiredCredits int    `json:"required_credits"`
}

// CreationLimitDTO is the 429 response body.
type CreationLimitDTO struct {
	Error        string `json:"error"`
	CurrentCount int    `json:"current_count"`
	MaxAllowed   int    `json:"max_allowed"`
	ResetsInDays int    `json:"resets_in_days"`
}
