package service

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/sanitize"
	"app/internal/storytext"

	"github.com/rs/zerolog"
)

// PageService fills in a story's missing pages. Generation is idempotent
// and resumable: repeated or concurrent invocations never duplicate a page
// and never overwrite one that already exists.
type PageService interface {
	// GenerateMissingPages writes every page in [1, totalPages] not yet
	// present and marks the story ready. Returns how many pages were
	// synthesized this call and the resolved total.
	GenerateMissingPages(ctx context.Context, storyID string) (generated, totalPages int, err error)
	// GenerateForOwner is the client-facing variant with an ownership check.
	GenerateForOwner(ctx context.Context, userID, storyID string) (generated, totalPages int, err error)
}

type pageService struct {
	storyRepo repository.StoryRepository
	charRepo  repository.CharacterRepository
	logger    zerolog.Logger
}

// NewPageService creates a new PageService with a scoped logger.
func NewPageService(storyRepo repository.StoryRepository, charRepo repository.CharacterRepository, logger zerolog.Logger) PageService {
	return &pageService{
		storyRepo: storyRepo,
		charRepo:  charRepo,
		logger:    logger.With().Str("service", "PageService").Logger(),
	}
}

func (s *pageService) GenerateForOwner(ctx context.Context, userID, storyID string) (int, int, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return 0, 0, err
	}
	if story == nil {
		return 0, 0, ErrNotFound
	}
	character, err := s.charRepo.GetCharacterByID(ctx, story.CharacterID)
	if err != nil {
		return 0, 0, err
	}
	if character == nil || character.UserID != userID {
		return 0, 0, ErrForbidden
	}
	return s.GenerateMissingPages(ctx, storyID)
}

func (s *pageService) GenerateMissingPages(ctx context.Context, storyID string) (int, int, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to fetch story for generation")
		return 0, 0, err
	}
	if story == nil {
		return 0, 0, ErrNotFound
	}
	character, err := s.charRepo.GetCharacterByID(ctx, story.CharacterID)
	if err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to fetch character for generation")
		return 0, 0, err
	}
	if character == nil {
		return 0, 0, fmt.Errorf("story %s has no character", storyID)
	}

	totalPages := story.TotalPages
	if totalPages <= 0 {
		totalPages = model.PagesForLength[story.LengthSetting]
	}
	if totalPages <= 0 {
		return 0, 0, fmt.Errorf("story %s has unknown length setting %q", storyID, story.LengthSetting)
	}

	existing, err := s.storyRepo.GetPageNumbers(ctx, storyID)
	if err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to fetch existing page numbers")
		return 0, 0, err
	}
	present := make(map[int]bool, len(existing))
	for _, n := range existing {
		present[n] = true
	}

	in := storytext.Input{
		HeroName: character.Name,
		AgeBand:  character.AgeBand,
		Route:    story.StoryRoute,
	}
	var missing []model.Page
	for n := 1; n <= totalPages; n++ {
		if present[n] {
			continue
		}
		missing = append(missing, model.Page{
			StoryID:    storyID,
			PageNumber: n,
			Content:    sanitize.Clean(storytext.Page(in, n, totalPages)),
			ImagePath:  fmt.Sprintf("stories/%s/pages/%d.png", storyID, n),
		})
	}

	if err := s.storyRepo.UpsertPages(ctx, missing); err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to persist generated pages, marking story failed")
		if statusErr := s.storyRepo.UpdateStoryStatus(ctx, storyID, model.StoryStatusFailed); statusErr != nil {
			s.logger.Error().Err(statusErr).Str("story_id", storyID).Msg("Failed to mark story failed")
		}
		return 0, 0, err
	}

	if err := s.storyRepo.FinishStory(ctx, storyID, totalPages); err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to mark story ready")
		return 0, 0, err
	}

	s.logger.Info().Str("story_id", storyID).Int("generated_pages", len(missing)).Int("total_pages", totalPages).Msg("Story pages generated")
	return len(missing), totalPages, nil
}
