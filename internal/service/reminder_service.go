package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// TokenPattern is the accepted shape of opt-out tokens.
var TokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{40,50}$`)

// ReminderService issues and consumes single-use reminder opt-out tokens.
type ReminderService interface {
	// IssueToken mints a fresh opt-out token for the user.
	IssueToken(ctx context.Context, userID string) (string, error)
	// DisableReminders consumes the token and turns off the user's
	// reminder emails. A consumed token is rejected with ErrTokenUsed on
	// every later call, regardless of expiry.
	DisableReminders(ctx context.Context, token string) error
}

type reminderService struct {
	tokenRepo repository.TokenRepository
	userRepo  repository.UserRepository
	ttl       time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewReminderService creates a new ReminderService with a scoped logger.
func NewReminderService(tokenRepo repository.TokenRepository, userRepo repository.UserRepository, ttl time.Duration, logger zerolog.Logger) ReminderService {
	return &reminderService{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger.With().Str("service", "ReminderService").Logger(),
	}
}

func (s *reminderService) IssueToken(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	// 32 random bytes encode to 43 URL-safe characters, inside the
	// accepted 40-50 range.
	token := base64.RawURLEncoding.EncodeToString(buf)
	err := s.tokenRepo.CreateToken(ctx, &model.ReminderToken{
		Token:     token,
		UserID:    userID,
		TokenType: model.TokenTypeReminders,
		ExpiresAt: s.now().Add(s.ttl),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store reminder token")
		return "", err
	}
	return token, nil
}

func (s *reminderService) DisableReminders(ctx context.Context, token string) error {
	t, err := s.tokenRepo.GetToken(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to look up reminder token")
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	// Used wins over expired: a consumed token stays consumed forever.
	if t.UsedAt != nil {
		return ErrTokenUsed
	}
	now := s.now()
	if now.After(t.ExpiresAt) {
		return ErrTokenExpired
	}

	ok, err := s.tokenRepo.MarkTokenUsed(ctx, token, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark reminder token used")
		return err
	}
	if !ok {
		return ErrTokenUsed
	}
	if err := s.userRepo.SetRemindersOptIn(ctx, t.UserID, false); err != nil {
		s.logger.Error().Err(err).Str("user_id", t.UserID).Msg("Failed to disable reminders")
		return err
	}
	s.logger.Info().Str("user_id", t.UserID).Msg("Reminders disabled")
	return nil
}
