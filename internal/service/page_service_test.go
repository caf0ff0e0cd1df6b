package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func seedStoryFixture(t *testing.T, charRepo *fakeCharacterRepo, storyRepo *fakeStoryRepo, userID, length string) *model.Story {
	t.Helper()
	hero, err := charRepo.CreateCharacter(context.Background(), &model.Character{
		UserID:    userID,
		Name:      "Milo",
		Archetype: "dreamer",
		AgeBand:   model.AgeBandPreschool,
		Traits:    []string{"gentle"},
	})
	if err != nil {
		t.Fatalf("seed character: %v", err)
	}
	story, err := storyRepo.CreateActiveStory(context.Background(), &model.Story{
		CharacterID:   hero.ID,
		LengthSetting: length,
		StoryRoute:    model.RouteA,
		Status:        model.StoryStatusGenerating,
	})
	if err != nil {
		t.Fatalf("seed story: %v", err)
	}
	return story
}

func TestGenerateMissingPagesFillsStory(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	storyRepo := newFakeStoryRepo()
	svc := NewPageService(storyRepo, charRepo, zerolog.Nop())
	story := seedStoryFixture(t, charRepo, storyRepo, "user-1", model.LengthMedium)

	generated, total, err := svc.GenerateMissingPages(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("GenerateMissingPages returned error: %v", err)
	}
	if generated != 9 || total != 9 {
		t.Fatalf("expected 9/9 pages for MEDIUM, got %d/%d", generated, total)
	}

	pages, _ := storyRepo.GetPages(context.Background(), story.ID)
	if len(pages) != 9 {
		t.Fatalf("expected 9 stored pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.PageNumber != i+1 {
			t.Fatalf("pages not contiguous: index %d has number %d", i, p.PageNumber)
		}
		if strings.TrimSpace(p.Content) == "" {
			t.Fatalf("page %d has empty content", p.PageNumber)
		}
		if p.ImagePath == "" {
			t.Fatalf("page %d has no image path", p.PageNumber)
		}
	}

	updated, _ := storyRepo.GetStoryByID(context.Background(), story.ID)
	if updated.Status != model.StoryStatusReady {
		t.Fatalf("expected story to be ready, got %q", updated.Status)
	}
	if updated.TotalPages != 9 {
		t.Fatalf("expected total pages fixed at 9, got %d", updated.TotalPages)
	}
}

func TestGenerateMissingPagesIsIdempotent(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	storyRepo := newFakeStoryRepo()
	svc := NewPageService(storyRepo, charRepo, zerolog.Nop())
	story := seedStoryFixture(t, charRepo, storyRepo, "user-1", model.LengthShort)

	if _, _, err := svc.GenerateMissingPages(context.Background(), story.ID); err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	first, _ := storyRepo.GetPages(context.Background(), story.ID)

	generated, total, err := svc.GenerateMissingPages(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}
	if generated != 0 {
		t.Fatalf("second pass must generate nothing, got %d", generated)
	}
	if total != 5 {
		t.Fatalf("expected total 5 for SHORT, got %d", total)
	}

	second, _ := storyRepo.GetPages(context.Background(), story.ID)
	if len(second) != len(first) {
		t.Fatalf("page count changed across passes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Fatalf("page %d content changed across passes", first[i].PageNumber)
		}
	}
}

func TestGenerateMissingPagesFillsOnlyGaps(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	storyRepo := newFakeStoryRepo()
	svc := NewPageService(storyRepo, charRepo, zerolog.Nop())
	story := seedStoryFixture(t, charRepo, storyRepo, "user-1", model.LengthShort)

	// Pre-store pages 1 and 3; the pass must fill 2, 4 and 5 only.
	storyRepo.pages[story.ID] = []model.Page{
		{StoryID: story.ID, PageNumber: 1, Content: "kept one"},
		{StoryID: story.ID, PageNumber: 3, Content: "kept three"},
	}

	generated, _, err := svc.GenerateMissingPages(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("GenerateMissingPages returned error: %v", err)
	}
	if generated != 3 {
		t.Fatalf("expected 3 generated pages, got %d", generated)
	}
	pages, _ := storyRepo.GetPages(context.Background(), story.ID)
	if len(pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(pages))
	}
	if pages[0].Content != "kept one" || pages[2].Content != "kept three" {
		t.Fatal("existing pages must be left untouched")
	}
}

func TestGenerateMissingPagesFailureMarksStoryFailed(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	storyRepo := newFakeStoryRepo()
	storyRepo.upsertErr = errors.New("storage down")
	svc := NewPageService(storyRepo, charRepo, zerolog.Nop())
	story := seedStoryFixture(t, charRepo, storyRepo, "user-1", model.LengthShort)

	if _, _, err := svc.GenerateMissingPages(context.Background(), story.ID); err == nil {
		t.Fatal("expected error when page storage fails")
	}
	updated, _ := storyRepo.GetStoryByID(context.Background(), story.ID)
	if updated.Status != model.StoryStatusFailed {
		t.Fatalf("expected story marked failed, got %q", updated.Status)
	}
}

func TestGenerateForOwnerChecksOwnership(t *testing.T) {
	charRepo := newFakeCharacterRepo()
	storyRepo := newFakeStoryRepo()
	svc := NewPageService(storyRepo, charRepo, zerolog.Nop())
	story := seedStoryFixture(t, charRepo, storyRepo, "user-1", model.LengthShort)

	if _, _, err := svc.GenerateForOwner(context.Background(), "user-2", story.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if _, _, err := svc.GenerateForOwner(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.GenerateForOwner(context.Background(), "user-1", story.ID); err != nil {
		t.Fatalf("owner generation failed: %v", err)
	}
}
