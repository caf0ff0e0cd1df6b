package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// CreditService gates paid actions on subscription state or credit balance.
type CreditService interface {
	// CheckAndReserve charges cost credits unless the user holds an active,
	// unexpired subscription. Returns whether credits were actually charged
	// (false for subscribers). An *InsufficientCreditsError is returned when
	// the balance does not cover the cost; the balance is left untouched.
	CheckAndReserve(ctx context.Context, userID string, cost int) (charged bool, err error)
	// Release compensates a failed dependent operation by refunding the
	// previously reserved credits.
	Release(ctx context.Context, userID string, cost int) error
	GetBalance(ctx context.Context, userID string) (int, error)
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
}

type creditService struct {
	creditRepo repository.CreditRepository
	subRepo    repository.SubscriptionRepository
	now        func() time.Time
	logger     zerolog.Logger
}

// NewCreditService creates a new CreditService with a scoped logger.
func NewCreditService(creditRepo repository.CreditRepository, subRepo repository.SubscriptionRepository, logger zerolog.Logger) CreditService {
	return &creditService{
		creditRepo: creditRepo,
		subRepo:    subRepo,
		now:        time.Now,
		logger:     logger.With().Str("service", "CreditService").Logger(),
	}
}

func (s *creditService) CheckAndReserve(ctx context.Context, userID string, cost int) (bool, error) {
	sub, err := s.subRepo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription for credit check")
		return false, err
	}
	if sub.IsCurrentlyActive(s.now()) {
		return false, nil
	}

	remaining, ok, err := s.creditRepo.DeductCredits(ctx, userID, cost)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to deduct credits")
		return false, err
	}
	if !ok {
		return false, &InsufficientCreditsError{CurrentCredits: remaining, RequiredCredits: cost}
	}
	s.logger.Info().Str("user_id", userID).Int("cost", cost).Int("remaining", remaining).Msg("Credits reserved")
	return true, nil
}

func (s *creditService) Release(ctx context.Context, userID string, cost int) error {
	if err := s.creditRepo.RefundCredits(ctx, userID, cost); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Int("cost", cost).Msg("Failed to refund credits")
		return err
	}
	s.logger.Info().Str("user_id", userID).Int("cost", cost).Msg("Credits refunded")
	return nil
}

func (s *creditService) GetBalance(ctx context.Context, userID string) (int, error) {
	balance, err := s.creditRepo.GetBalance(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch credit balance")
		return 0, err
	}
	return balance, nil
}

func (s *creditService) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subRepo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	return sub, nil
}
