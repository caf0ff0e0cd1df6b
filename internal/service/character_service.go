package service

import (
	"context"
	"math"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// CharacterService handles hero creation and lookups. Creation runs
// through the trailing-window rate limiter and the credit ledger; a credit
// charge that cannot be honored with a hero row is compensated by deleting
// the row and refunding.
type CharacterService interface {
	// CreateCharacter creates a hero for the user and returns it together
	// with the number of creations still allowed in the current window.
	CreateCharacter(ctx context.Context, c *model.Character) (*model.Character, int, error)
	GetOwnedCharacter(ctx context.Context, userID, characterID string) (*model.Character, error)
}

type characterService struct {
	charRepo   repository.CharacterRepository
	logRepo    repository.CreationLogRepository
	credits    CreditService
	creditCost int
	windowDays int
	maxPerWin  int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewCharacterService creates a new CharacterService with a scoped logger.
func NewCharacterService(
	charRepo repository.CharacterRepository,
	logRepo repository.CreationLogRepository,
	credits CreditService,
	creditCost, windowDays, maxPerWindow int,
	logger zerolog.Logger,
) CharacterService {
	return &characterService{
		charRepo:   charRepo,
		logRepo:    logRepo,
		credits:    credits,
		creditCost: creditCost,
		windowDays: windowDays,
		maxPerWin:  maxPerWindow,
		now:        time.Now,
		logger:     logger.With().Str("service", "CharacterService").Logger(),
	}
}

func (s *characterService) CreateCharacter(ctx context.Context, c *model.Character) (*model.Character, int, error) {
	now := s.now()
	windowStart := now.AddDate(0, 0, -s.windowDays)

	// Advisory limit: two concurrent creations can transiently pass with
	// count == max-1 each. The window is seven days, so the overshoot is
	// bounded at one and tolerated.
	count, err := s.logRepo.CountCreationsSince(ctx, c.UserID, windowStart)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", c.UserID).Msg("Failed to count recent creations")
		return nil, 0, err
	}
	if count >= s.maxPerWin {
		resets := s.windowDays
		if oldest, err := s.logRepo.OldestCreationSince(ctx, c.UserID, windowStart); err == nil && !oldest.IsZero() {
			elapsed := now.Sub(oldest)
			resets = int(math.Ceil((time.Duration(s.windowDays)*24*time.Hour - elapsed).Hours() / 24))
			if resets < 1 {
				resets = 1
			}
		}
		return nil, 0, &CreationLimitError{CurrentCount: count, MaxAllowed: s.maxPerWin, ResetsInDays: resets}
	}

	created, err := s.charRepo.CreateCharacter(ctx, c)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", c.UserID).Msg("Failed to create character")
		return nil, 0, err
	}

	// Charge after insertion; if the deduction cannot be honored the hero
	// row is deleted so the user is never charged without the resource or
	// left with the resource unpaid.
	if _, err := s.credits.CheckAndReserve(ctx, c.UserID, s.creditCost); err != nil {
		if delErr := s.charRepo.DeleteCharacter(ctx, created.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("character_id", created.ID).Msg("Failed to roll back character after credit deduction failure")
		}
		return nil, 0, err
	}

	if err := s.logRepo.RecordCreation(ctx, c.UserID); err != nil {
		// The hero exists and was paid for; a missing log entry only
		// loosens the rate limit, so log and continue.
		s.logger.Error().Err(err).Str("user_id", c.UserID).Str("character_id", created.ID).Msg("Failed to record creation log entry")
	}

	remaining := s.maxPerWin - count - 1
	if remaining < 0 {
		remaining = 0
	}
	s.logger.Info().Str("user_id", c.UserID).Str("character_id", created.ID).Int("remaining_creations", remaining).Msg("Character created")
	return created, remaining, nil
}

func (s *characterService) GetOwnedCharacter(ctx context.Context, userID, characterID string) (*model.Character, error) {
	character, err := s.charRepo.GetCharacterByID(ctx, characterID)
	if err != nil {
		s.logger.Error().Err(err).Str("character_id", characterID).Msg("Failed to fetch character")
		return nil, err
	}
	if character == nil {
		return nil, ErrNotFound
	}
	if character.UserID != userID {
		return nil, ErrForbidden
	}
	return character, nil
}
