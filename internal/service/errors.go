package service

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("resource not owned by user")
	ErrTokenUsed    = errors.New("token already used")
	ErrTokenExpired = errors.New("token expired")
)

// InsufficientCreditsError carries the balance details the client UI needs
// to render a purchase prompt.
type InsufficientCreditsError struct {
	CurrentCredits  int
	RequiredCredits int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d", e.CurrentCredits, e.RequiredCredits)
}

// CreationLimitError reports a trailing-window creation limit rejection.
type CreationLimitError struct {
	CurrentCount int
	MaxAllowed   int
	ResetsInDays int
}

func (e *CreationLimitError) Error() string {
	return fmt.Sprintf("creation limit reached: %d of %d in window", e.CurrentCount, e.MaxAllowed)
}
