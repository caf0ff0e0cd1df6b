package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type stubStoryService struct {
	story *model.Story
	pages []model.Page
	err   error
}

func (s *stubStoryService) StartStory(ctx context.Context, userID, characterID, length, route string) (*model.Story, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.story, nil
}

func (s *stubStoryService) GetOwnedStory(ctx context.Context, userID, storyID string) (*model.Story, []model.Page, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.story, s.pages, nil
}

func (s *stubStoryService) ListStories(ctx context.Context, userID, characterID string) ([]model.Story, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.Story{*s.story}, nil
}

func newStoryMux(storySvc service.StoryService, pageSvc service.PageService) *http.ServeMux {
	h := NewStoryHandler(storySvc, pageSvc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, func(next http.Handler) http.Handler { return next })
	return mux
}

const (
	testCharacterID = "0b5c9c6e-2f55-4f5e-9a57-6f2d0c9b1a11"
	testStoryID     = "4f1a7d3c-8e02-4f6b-b1c4-2d9e5a7b0c22"
)

const validStartBody = `{"characterId":"` + testCharacterID + `","length":"SHORT"}`
const validGenerateBody = `{"storyId":"` + testStoryID + `"}`

func TestStartStoryForbiddenForOtherOwner(t *testing.T) {
	mux := newStoryMux(&stubStoryService{err: service.ErrForbidden}, &stubPageService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/stories", validStartBody))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartStoryHeroNotFound(t *testing.T) {
	mux := newStoryMux(&stubStoryService{err: service.ErrNotFound}, &stubPageService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/stories", validStartBody))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGeneratePagesForbiddenForOtherOwner(t *testing.T) {
	mux := newStoryMux(&stubStoryService{}, &stubPageService{err: service.ErrForbidden})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/stories/generate", validGenerateBody))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGeneratePagesStoryNotFound(t *testing.T) {
	mux := newStoryMux(&stubStoryService{}, &stubPageService{err: service.ErrNotFound})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/stories/generate", validGenerateBody))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGeneratePagesStatusBody(t *testing.T) {
	mux := newStoryMux(&stubStoryService{}, &stubPageService{generated: 2, total: 5})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/stories/generate", validGenerateBody))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.GeneratePagesResponseDTO
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected status %q, got %q", "ok", resp.Status)
	}
	if resp.GeneratedPages != 2 || resp.TotalPages != 5 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
}

func TestGetStoryNotFoundForOtherOwner(t *testing.T) {
	mux := newStoryMux(&stubStoryService{err: service.ErrForbidden}, &stubPageService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodGet, "/stories/"+testStoryID, ""))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartStoryValidation(t *testing.T) {
	mux := newStoryMux(&stubStoryService{}, &stubPageService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/stories", `{"characterId":"not-a-uuid","length":"EPIC"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
