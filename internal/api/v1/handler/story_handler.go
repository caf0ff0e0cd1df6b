package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// StoryHandler handles story lifecycle endpoints.
type StoryHandler struct {
	storySvc service.StoryService
	pageSvc  service.PageService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(storySvc service.StoryService, pageSvc service.PageService, validate *validator.Validate, logger zerolog.Logger) *StoryHandler {
	return &StoryHandler{storySvc: storySvc, pageSvc: pageSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts story routes.
func (h *StoryHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/stories", authMw(http.HandlerFunc(h.startStory)))
	mux.Handle("/stories/generate", authMw(http.HandlerFunc(h.generatePages)))
	mux.Handle("/stories/", authMw(http.HandlerFunc(h.getStory)))
}

// startStory godoc
// @Summary Start story generation
// @Description Deactivates the hero's previous stories, creates a new active story and kicks off page generation in the background.
// @Tags stories
// @Accept json
// @Produce json
// @Param story body dto.StoryStartDTO true "Story start request"
// @Success 200 {object} dto.StoryStartResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Hero not owned by user"
// @Failure 404 {string} string "Hero not found"
// @Failure 500 {string} string "Failed to start story"
// @Router /stories [post]
func (h *StoryHandler) startStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/stories" {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.StoryStartDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	story, err := h.storySvc.StartStory(r.Context(), userID, req.CharacterID, req.Length, req.StoryRoute)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			http.Error(w, "Hero not owned by user", http.StatusForbidden)
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "Hero not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("character_id", req.CharacterID).Msg("Failed to start story")
		http.Error(w, "Failed to start story", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.StoryStartResponseDTO{
		StoryID:    story.ID,
		Status:     story.Status,
		TotalPages: story.TotalPages,
	})
}

// generatePages godoc
// @Summary Generate missing story pages
// @Description Synthesizes and stores any pages the story does not yet have. Safe to call repeatedly; already-stored pages are left untouched.
// @Tags stories
// @Accept json
// @Produce json
// @Param request body dto.GeneratePagesDTO true "Generate pages request"
// @Success 200 {object} dto.GeneratePagesResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Story not owned by user"
// @Failure 404 {string} string "Story not found"
// @Failure 500 {string} string "Failed to generate pages"
// @Router /stories/generate [post]
func (h *StoryHandler) generatePages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.GeneratePagesDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	generated, total, err := h.pageSvc.GenerateForOwner(r.Context(), userID, req.StoryID)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			http.Error(w, "Story not owned by user", http.StatusForbidden)
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "Story not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("story_id", req.StoryID).Msg("Failed to generate pages")
		http.Error(w, "Failed to generate pages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.GeneratePagesResponseDTO{
		Status:         "ok",
		GeneratedPages: generated,
		TotalPages:     total,
	})
}

// getStory godoc
// @Summary Get a story with its pages
// @Description Retrieves the story and all stored pages. Clients poll this while status is "generating".
// @Tags stories
// @Produce json
// @Param storyId path string true "Story ID"
// @Success 200 {object} dto.StoryResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Story not found"
// @Failure 500 {string} string "Failed to retrieve story"
// @Router /stories/{storyId} [get]
func (h *StoryHandler) getStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	storyID := pathSuffix(r.URL.Path, "/stories/")
	if storyID == "" {
		http.NotFound(w, r)
		return
	}
	story, pages, err := h.storySvc.GetOwnedStory(r.Context(), userID, storyID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrForbidden) {
			http.Error(w, "Story not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("story_id", storyID).Msg("Failed to retrieve story")
		http.Error(w, "Failed to retrieve story", http.StatusInternalServerError)
		return
	}
	pageDTOs := make([]dto.PageDTO, 0, len(pages))
	for _, p := range pages {
		pageDTOs = append(pageDTOs, dto.PageDTO{PageNumber: p.PageNumber, Content: p.Content})
	}
	writeJSON(w, http.StatusOK, dto.StoryResponseDTO{
		ID:            story.ID,
		CharacterID:   story.CharacterID,
		LengthSetting: story.LengthSetting,
		StoryRoute:    story.StoryRoute,
		TotalPages:    story.TotalPages,
		Status:        story.Status,
		IsActive:      story.IsActive,
		CreatedAt:     story.CreatedAt,
		Pages:         pageDTOs,
	})
}
