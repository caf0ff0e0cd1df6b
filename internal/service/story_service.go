package service

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// StoryService manages the story lifecycle: one active story per
// character, status transitions, and dispatch of page generation.
type StoryService interface {
	// StartStory deactivates the character's other stories, inserts a new
	// active one and dispatches page generation. The returned story is in
	// the generating state; callers poll for the terminal status.
	StartStory(ctx context.Context, userID, characterID, length, route string) (*model.Story, error)
	// GetOwnedStory returns the story with its pages after checking that
	// the story's character belongs to the user.
	GetOwnedStory(ctx context.Context, userID, storyID string) (*model.Story, []model.Page, error)
	ListStories(ctx context.Context, userID, characterID string) ([]model.Story, error)
}

// PageJob is the payload enqueued for the page generation worker.
type PageJob struct {
	StoryID string `json:"story_id"`
}

type storyService struct {
	storyRepo repository.StoryRepository
	charRepo  repository.CharacterRepository
	pages     PageService
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewStoryService creates a new StoryService with a scoped logger. When
// publisher is nil, page generation runs in-process instead of through the
// job queue.
func NewStoryService(
	storyRepo repository.StoryRepository,
	charRepo repository.CharacterRepository,
	pages PageService,
	publisher pubsub.Publisher,
	topic string,
	logger zerolog.Logger,
) StoryService {
	return &storyService{
		storyRepo: storyRepo,
		charRepo:  charRepo,
		pages:     pages,
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "StoryService").Logger(),
	}
}

func (s *storyService) StartStory(ctx context.Context, userID, characterID, length, route string) (*model.Story, error) {
	character, err := s.charRepo.GetCharacterByID(ctx, characterID)
	if err != nil {
		s.logger.Error().Err(err).Str("character_id", characterID).Msg("Failed to fetch character for story start")
		return nil, err
	}
	if character == nil {
		return nil, ErrNotFound
	}
	if character.UserID != userID {
		return nil, ErrForbidden
	}

	// Toddlers always get the short format, whatever was requested.
	if character.AgeBand == model.AgeBandToddler {
		length = model.LengthShort
	}
	totalPages := model.PagesForLength[length]
	if !model.ValidRoute(route) {
		route = model.RouteA
	}

	story, err := s.storyRepo.CreateActiveStory(ctx, &model.Story{
		CharacterID:   characterID,
		LengthSetting: length,
		StoryRoute:    route,
		TotalPages:    totalPages,
		Status:        model.StoryStatusGenerating,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("character_id", characterID).Msg("Failed to create story")
		return nil, err
	}

	s.dispatchGeneration(ctx, story.ID)
	return story, nil
}

// dispatchGeneration enqueues a page generation job, or falls back to an
// in-process goroutine when no queue is configured or the enqueue fails.
// Generation failure past this point surfaces only through story status.
func (s *storyService) dispatchGeneration(ctx context.Context, storyID string) {
	if s.publisher != nil {
		payload, err := json.Marshal(PageJob{StoryID: storyID})
		if err == nil {
			if _, err = s.publisher.Publish(ctx, s.topic, payload); err == nil {
				s.logger.Info().Str("story_id", storyID).Str("topic", s.topic).Msg("Page generation job enqueued")
				return
			}
		}
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to enqueue page generation job, generating in-process")
	}

	go func() {
		genCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, _, err := s.pages.GenerateMissingPages(genCtx, storyID); err != nil {
			s.logger.Error().Err(err).Str("story_id", storyID).Msg("In-process page generation failed")
		}
	}()
}

func (s *storyService) GetOwnedStory(ctx context.Context, userID, storyID string) (*model.Story, []model.Page, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to fetch story")
		return nil, nil, err
	}
	if story == nil {
		return nil, nil, ErrNotFound
	}
	character, err := s.charRepo.GetCharacterByID(ctx, story.CharacterID)
	if err != nil {
		return nil, nil, err
	}
	if character == nil || character.UserID != userID {
		return nil, nil, ErrForbidden
	}
	pages, err := s.storyRepo.GetPages(ctx, storyID)
	if err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to fetch story pages")
		return nil, nil, err
	}
	return story, pages, nil
}

func (s *storyService) ListStories(ctx context.Context, userID, characterID string) ([]model.Story, error) {
	character, err := s.charRepo.GetCharacterByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, ErrNotFound
	}
	if character.UserID != userID {
		return nil, ErrForbidden
	}
	return s.storyRepo.ListStoriesByCharacter(ctx, characterID)
}
