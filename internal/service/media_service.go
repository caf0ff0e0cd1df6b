package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"app/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rs/zerolog"
)

// Presigner signs time-boxed GET URLs for private storage objects.
type Presigner interface {
	PresignGetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// S3Presigner implements Presigner on the AWS SDK presign client.
type S3Presigner struct {
	client *s3.PresignClient
	bucket string
}

// NewS3Presigner wraps an S3 client for presigning against one bucket.
func NewS3Presigner(client *s3.Client, bucket string) *S3Presigner {
	return &S3Presigner{client: s3.NewPresignClient(client), bucket: bucket}
}

func (p *S3Presigner) PresignGetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	resp, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

// MediaService issues ownership-checked signed URLs for private images.
// URLs expire after the configured window; clients re-request instead of
// caching past it.
type MediaService interface {
	GetHeroImageURL(ctx context.Context, userID, heroID string) (string, error)
	// GetHeroImageURLs resolves a batch of hero ids. Ownership is checked
	// for the whole batch in one query; unauthorized or unknown ids are
	// silently omitted from the result map.
	GetHeroImageURLs(ctx context.Context, userID string, heroIDs []string) (map[string]string, error)
	GetStoryPageImageURL(ctx context.Context, userID, storyID string, pageNumber int) (string, error)
}

type mediaService struct {
	charRepo  repository.CharacterRepository
	storyRepo repository.StoryRepository
	presigner Presigner
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewMediaService creates a new MediaService with a scoped logger.
func NewMediaService(charRepo repository.CharacterRepository, storyRepo repository.StoryRepository, presigner Presigner, ttl time.Duration, logger zerolog.Logger) MediaService {
	return &mediaService{
		charRepo:  charRepo,
		storyRepo: storyRepo,
		presigner: presigner,
		ttl:       ttl,
		logger:    logger.With().Str("service", "MediaService").Logger(),
	}
}

func (s *mediaService) GetHeroImageURL(ctx context.Context, userID, heroID string) (string, error) {
	character, err := s.charRepo.GetCharacterByID(ctx, heroID)
	if err != nil {
		s.logger.Error().Err(err).Str("hero_id", heroID).Msg("Failed to fetch character for image URL")
		return "", err
	}
	if character == nil {
		return "", ErrNotFound
	}
	if character.UserID != userID {
		return "", ErrForbidden
	}
	if character.PortraitPath == "" {
		return "", ErrNotFound
	}
	url, err := s.presigner.PresignGetURL(ctx, character.PortraitPath, s.ttl)
	if err != nil {
		s.logger.Error().Err(err).Str("hero_id", heroID).Msg("Failed to presign hero image URL")
		return "", err
	}
	return url, nil
}

func (s *mediaService) GetHeroImageURLs(ctx context.Context, userID string, heroIDs []string) (map[string]string, error) {
	paths, err := s.charRepo.GetOwnedPortraitPaths(ctx, userID, heroIDs)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve owned portraits for batch signing")
		return nil, err
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		urls = make(map[string]string, len(paths))
	)
	for id, path := range paths {
		wg.Add(1)
		go func(id, path string) {
			defer wg.Done()
			url, err := s.presigner.PresignGetURL(ctx, path, s.ttl)
			if err != nil {
				s.logger.Error().Err(err).Str("hero_id", id).Msg("Failed to presign hero image URL in batch")
				return
			}
			mu.Lock()
			urls[id] = url
			mu.Unlock()
		}(id, path)
	}
	wg.Wait()
	return urls, nil
}

func (s *mediaService) GetStoryPageImageURL(ctx context.Context, userID, storyID string, pageNumber int) (string, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return "", err
	}
	if story == nil {
		return "", ErrNotFound
	}
	character, err := s.charRepo.GetCharacterByID(ctx, story.CharacterID)
	if err != nil {
		return "", err
	}
	if character == nil || character.UserID != userID {
		return "", ErrForbidden
	}
	page, err := s.storyRepo.GetPage(ctx, storyID, pageNumber)
	if err != nil {
		return "", err
	}
	if page == nil || page.ImagePath == "" {
		return "", ErrNotFound
	}
	url, err := s.presigner.PresignGetURL(ctx, page.ImagePath, s.ttl)
	if err != nil {
		s.logger.Error().Err(err).Str("story_id", storyID).Int("page", pageNumber).Msg("Failed to presign page image URL")
		return "", err
	}
	return url, nil
}
